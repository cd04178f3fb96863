package mapbox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	"github.com/couchcryptid/opioid-sample-etl/internal/observability"
)

const defaultBaseURL = "https://api.mapbox.com/geocoding/v5/mapbox.places"

// Client implements domain.Geocoder using the Mapbox Geocoding API,
// restricted to US counties.
type Client struct {
	token      string
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a Mapbox geocoding client.
func NewClient(token string, timeout time.Duration, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		token: token,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: defaultBaseURL,
		metrics: metrics,
		logger:  logger,
	}
}

// ForwardGeocode resolves a county name and state to its center point.
// No match returns a zero result and a nil error.
func (c *Client) ForwardGeocode(ctx context.Context, name, state string) (domain.GeocodingResult, error) {
	query := name
	if state != "" {
		query = fmt.Sprintf("%s, %s", name, state)
	}

	u := fmt.Sprintf("%s/%s.json", c.baseURL, url.PathEscape(query))
	params := url.Values{
		"access_token": {c.token},
		"country":      {"us"},
		"limit":        {"1"},
		"types":        {"district"},
	}

	start := time.Now()
	result, err := c.doRequest(ctx, u+"?"+params.Encode())
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	switch {
	case err != nil:
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
	case result.FormattedAddress == "":
		c.metrics.GeocodeRequests.WithLabelValues("empty").Inc()
		c.logger.Debug("mapbox returned no match", "query", query)
	default:
		c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	}
	return result, err
}

func (c *Client) doRequest(ctx context.Context, fullURL string) (domain.GeocodingResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("forward geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return domain.GeocodingResult{}, fmt.Errorf("mapbox API error: status %d: %s", resp.StatusCode, body)
	}

	var mapboxResp response
	if err := json.NewDecoder(resp.Body).Decode(&mapboxResp); err != nil {
		return domain.GeocodingResult{}, fmt.Errorf("decode response: %w", err)
	}

	if len(mapboxResp.Features) == 0 {
		return domain.GeocodingResult{}, nil
	}

	f := mapboxResp.Features[0]
	result := domain.GeocodingResult{
		FormattedAddress: f.PlaceName,
		PlaceName:        f.Text,
		Confidence:       f.Relevance,
	}
	if len(f.Center) == 2 {
		result.Lon = f.Center[0]
		result.Lat = f.Center[1]
	}
	return result, nil
}

// Mapbox API response types.

type response struct {
	Features []feature `json:"features"`
}

type feature struct {
	Center    []float64 `json:"center"` // [lon, lat]
	PlaceName string    `json:"place_name"`
	Text      string    `json:"text"`
	Relevance float64   `json:"relevance"`
}
