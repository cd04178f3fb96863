package tabular

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const expectedSampleCSV = `year,geography,latitude,longitude,Estimate; Median income,Heroin,Fentanyl,Oxycodone
2015,"Jefferson County, Kentucky",38.189468,-85.65769,52000,15,3,0
2015,"Pike County, Kentucky",-999,-999,-999,0,0,0
2016,"Jefferson County, Kentucky",38.189468,-85.65769,53000,8,0,0
2016,"Jefferson County, West Virginia",39.307377,-77.863284,61000,0,0,2
`

func TestWriteSample(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSample(&buf, assembleTestdata(t)))
	assert.Equal(t, expectedSampleCSV, buf.String())
}

func TestCSVWriter_LoadSample(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sample.csv")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))

	w := NewCSVWriter(path, discardLogger())
	assert.Equal(t, "csv", w.Name())
	require.NoError(t, w.LoadSample(context.Background(), assembleTestdata(t), time.Now()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, expectedSampleCSV, string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file removed after rename")
}

func TestCSVWriter_LoadSampleMissingDir(t *testing.T) {
	w := NewCSVWriter(filepath.Join(t.TempDir(), "missing", "sample.csv"), discardLogger())
	err := w.LoadSample(context.Background(), assembleTestdata(t), time.Now())
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "create temp output"))
}

func TestCSVWriter_LoadSampleCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	w := NewCSVWriter(filepath.Join(t.TempDir(), "sample.csv"), discardLogger())
	require.ErrorIs(t, w.LoadSample(ctx, assembleTestdata(t), time.Now()), context.Canceled)
}
