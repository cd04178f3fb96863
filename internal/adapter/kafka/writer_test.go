package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingWriter struct {
	calls [][]kafkago.Message
	err   error
}

func (r *recordingWriter) WriteMessages(_ context.Context, msgs ...kafkago.Message) error {
	if r.err != nil {
		return r.err
	}
	r.calls = append(r.calls, append([]kafkago.Message(nil), msgs...))
	return nil
}

func (r *recordingWriter) Close() error { return nil }

var generatedAt = time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)

// testSample assembles a one-feature, two-substance sample of n counties.
func testSample(t *testing.T, counties ...string) *domain.SampleMatrix {
	t.Helper()
	rows := [][]string{{"Geography", "Estimate; Median income"}}
	var geo []domain.GeoRecord
	for i, c := range counties {
		rows = append(rows, []string{c + " County, Kentucky", "50000"})
		geo = append(geo, domain.GeoRecord{Name: c + " County", State: "KY", Lat: 37 + float64(i), Lon: -85})
	}
	survey, err := domain.NewSurveyTable([]string{domain.GeographyLabel, "HC01_VC10"}, rows)
	require.NoError(t, err)

	years := []domain.YearTables{{
		Year:     2015,
		Survey:   survey,
		Metadata: domain.MetadataTable{Entries: []domain.MetadataEntry{{ID: "HC01_VC10"}}},
	}}
	features, err := domain.BuildUniversalIndex(years, domain.IndexOptions{})
	require.NoError(t, err)
	substances, err := domain.NewSubstanceIndex([]string{"Heroin", "Fentanyl"})
	require.NoError(t, err)

	s, err := domain.Assemble(domain.SampleInputs{
		Years:      years,
		Features:   features,
		Reports:    []domain.DrugReport{{Year: 2015, State: "KY", County: counties[0], Substance: "Heroin", Reports: 4}},
		Substances: substances,
		Geo:        domain.NewGeoIndex(geo),
		States:     domain.DefaultStates(),
	}, domain.DefaultAssembleOptions())
	require.NoError(t, err)
	return s
}

func newTestWriter(rec *recordingWriter, batchSize int) *Writer {
	return &Writer{writer: rec, batchSize: batchSize, logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestSerializeToMessage(t *testing.T) {
	s := testSample(t, "Jefferson")

	msg, err := serializeToMessage(s.Record(0, generatedAt))
	require.NoError(t, err)

	assert.Equal(t, []byte("ky:Jefferson:2015"), msg.Key)
	require.Len(t, msg.Headers, 3)
	assert.Equal(t, "year", msg.Headers[0].Key)
	assert.Equal(t, []byte("2015"), msg.Headers[0].Value)
	assert.Equal(t, []byte("true"), msg.Headers[1].Value)
	assert.Equal(t, []byte(generatedAt.Format(time.RFC3339)), msg.Headers[2].Value)

	var got domain.SampleRecord
	require.NoError(t, json.Unmarshal(msg.Value, &got))
	assert.Equal(t, "Jefferson County, Kentucky", got.Geography)
	assert.Equal(t, 50000.0, got.Features["Estimate; Median income"])
	assert.Equal(t, 4, got.DrugReports["Heroin"])
	assert.Equal(t, 0, got.DrugReports["Fentanyl"])
	assert.True(t, got.GeneratedAt.Equal(generatedAt))
}

func TestWriter_LoadSampleBatches(t *testing.T) {
	rec := &recordingWriter{}
	w := newTestWriter(rec, 2)

	err := w.LoadSample(context.Background(), testSample(t, "Jefferson", "Fayette", "Pike"), generatedAt)
	require.NoError(t, err)

	require.Len(t, rec.calls, 2)
	assert.Len(t, rec.calls[0], 2)
	assert.Len(t, rec.calls[1], 1)
	assert.Equal(t, []byte("ky:Pike:2015"), rec.calls[1][0].Key)
}

func TestWriter_LoadSampleError(t *testing.T) {
	rec := &recordingWriter{err: errors.New("leader not available")}
	w := newTestWriter(rec, 10)

	err := w.LoadSample(context.Background(), testSample(t, "Jefferson"), generatedAt)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "leader not available")
}

func TestWriter_Name(t *testing.T) {
	assert.Equal(t, "kafka", newTestWriter(&recordingWriter{}, 1).Name())
}
