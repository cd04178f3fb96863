//go:build integration

package integration_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/couchcryptid/opioid-sample-etl/internal/adapter/kafka"
	"github.com/couchcryptid/opioid-sample-etl/internal/adapter/tabular"
	"github.com/couchcryptid/opioid-sample-etl/internal/config"
	"github.com/couchcryptid/opioid-sample-etl/internal/domain"
	"github.com/couchcryptid/opioid-sample-etl/internal/observability"
	"github.com/couchcryptid/opioid-sample-etl/internal/pipeline"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const (
	testSinkTopic = "test-opioid-samples"
	testManifest  = "../adapter/tabular/testdata/manifest.yaml"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker and returns its address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()

	ctr, err := tckafka.Run(ctx, "confluentinc/confluent-local:7.5.0", tckafka.WithClusterID("opioid-etl-test"))
	testcontainers.CleanupContainer(t, ctr)
	require.NoError(t, err, "start kafka container")

	brokers, err := ctr.Brokers(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, brokers)
	return brokers[0]
}

func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err)
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err)

	ctrlConn, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err)
	defer ctrlConn.Close()

	require.NoError(t, ctrlConn.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     3,
		ReplicationFactor: 1,
	}))
}

// publishedRecord holds a deserialized message read from the sink topic.
type publishedRecord struct {
	Record  domain.SampleRecord
	Headers map[string]string
}

func readAll(ctx context.Context, t *testing.T, broker string, n int) map[string]publishedRecord {
	t.Helper()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-consumer-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out := make(map[string]publishedRecord, n)
	for len(out) < n {
		msg, err := consumer.ReadMessage(readCtx)
		require.NoError(t, err, "read from sink topic")

		headers := make(map[string]string, len(msg.Headers))
		for _, h := range msg.Headers {
			headers[h.Key] = string(h.Value)
		}
		var rec domain.SampleRecord
		require.NoError(t, json.Unmarshal(msg.Value, &rec), "unmarshal sink message")
		out[string(msg.Key)] = publishedRecord{Record: rec, Headers: headers}
	}
	return out
}

// TestPipeline_PublishesSampleToKafka runs the full pipeline from the tabular
// fixtures to a real broker and reads every row back.
func TestPipeline_PublishesSampleToKafka(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSinkTopic)

	cfg := &config.Config{
		KafkaEnabled:   true,
		KafkaBrokers:   []string{broker},
		KafkaSinkTopic: testSinkTopic,
	}

	manifest, err := tabular.LoadManifest(testManifest)
	require.NoError(t, err)

	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	metrics := observability.NewMetricsForTesting()
	p := pipeline.New(
		tabular.NewSource(manifest, discardLogger()),
		pipeline.NewTransformer(nil, domain.DefaultAssembleOptions(), metrics, discardLogger()),
		[]pipeline.Loader{writer},
		discardLogger(),
		metrics,
	)
	require.NoError(t, p.Run(ctx))
	require.NoError(t, p.CheckReadiness(ctx))

	got := readAll(ctx, t, broker, 4)
	require.Len(t, got, 4)

	wv, ok := got["wv:Jefferson:2016"]
	require.True(t, ok, "missing West Virginia row")
	assert.Equal(t, 2016, wv.Record.Year)
	assert.Equal(t, "Jefferson County, West Virginia", wv.Record.Geography)
	assert.True(t, wv.Record.Located)
	assert.InDelta(t, 39.307377, wv.Record.Coordinate.Lat, 1e-6)
	assert.InDelta(t, -77.863284, wv.Record.Coordinate.Lon, 1e-6)
	assert.Equal(t, 61000.0, wv.Record.Features["Estimate; Median income"])
	assert.Equal(t, map[string]int{"Heroin": 0, "Fentanyl": 0, "Oxycodone": 2}, wv.Record.DrugReports)
	assert.Equal(t, "2016", wv.Headers["year"])
	assert.Equal(t, "true", wv.Headers["located"])
	assert.NotEmpty(t, wv.Headers["generated_at"])

	ky, ok := got["ky:Jefferson:2015"]
	require.True(t, ok, "missing 2015 Kentucky row")
	assert.Equal(t, map[string]int{"Heroin": 15, "Fentanyl": 3, "Oxycodone": 0}, ky.Record.DrugReports)

	pike, ok := got["ky:Pike:2015"]
	require.True(t, ok, "missing Pike row")
	assert.False(t, pike.Record.Located)
	assert.Equal(t, domain.DefaultMissingValue, pike.Record.Coordinate.Lat)
	assert.Equal(t, "false", pike.Headers["located"])
}
