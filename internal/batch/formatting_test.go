package batch

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult() *Result {
	return &Result{
		Results: []pipeline.BatchResult{
			{
				Name: "a.png",
				Result: &pipeline.RecognitionResult{
					Prediction: "7",
					Accuracy:   88.5,
					Digits: []pipeline.DigitComponent{
						{Label: "7", Confidence: 88.5, BBox: pipeline.BBox{1, 2, 10, 20}},
					},
				},
			},
			{Name: "b.png", Error: "no digits detected", Err: pipeline.ErrNoDigits},
		},
		Duration:    2 * time.Second,
		WorkerCount: 2,
	}
}

func TestFormatResults_Text(t *testing.T) {
	out, err := sampleResult().FormatResults(pipeline.FormatText, 1)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "# a.png\n7\t88.5%\n"))
	assert.Contains(t, out, "\n# b.png\nerror: no digits detected\n")

	fallback, err := sampleResult().FormatResults("unknown", 1)
	require.NoError(t, err)
	assert.Equal(t, out, fallback)
}

func TestFormatResults_JSON(t *testing.T) {
	out, err := sampleResult().FormatResults(pipeline.FormatJSON, 2)
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	require.Len(t, decoded, 2)
	assert.Equal(t, "a.png", decoded[0]["source"])
	assert.Equal(t, "no digits detected", decoded[1]["error"])
}

func TestFormatResults_CSV(t *testing.T) {
	out, err := sampleResult().FormatResults(pipeline.FormatCSV, 2)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "source,prediction,error"))
	assert.True(t, strings.HasPrefix(lines[1], "a.png,7,"))
	assert.True(t, strings.HasPrefix(lines[2], "b.png,,no digits detected"))
}

func TestSaveResults(t *testing.T) {
	var stdout bytes.Buffer
	require.NoError(t, sampleResult().SaveResults(&stdout, pipeline.FormatText, "", 2, false))
	assert.Contains(t, stdout.String(), "# a.png")

	stdout.Reset()
	path := filepath.Join(t.TempDir(), "out.txt")
	require.NoError(t, sampleResult().SaveResults(&stdout, pipeline.FormatText, path, 2, false))
	assert.Equal(t, "Results written to "+path+"\n", stdout.String())
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# b.png")

	stdout.Reset()
	require.NoError(t, sampleResult().SaveResults(&stdout, pipeline.FormatText, path, 2, true))
	assert.Empty(t, stdout.String())

	err = sampleResult().SaveResults(&stdout, pipeline.FormatText, filepath.Join(t.TempDir(), "missing", "out.txt"), 2, true)
	require.Error(t, err)
}

func TestStatsAndPrint(t *testing.T) {
	r := sampleResult()
	stats := r.Stats()
	assert.Equal(t, 2, stats.TotalImages)
	assert.Equal(t, 1, stats.ProcessedImages)
	assert.Equal(t, 1, stats.FailedImages)
	assert.Equal(t, 1, stats.TotalDigits)
	assert.Equal(t, time.Second, stats.AveragePerImage)
	assert.InDelta(t, 1.0, stats.ThroughputPerSec, 1e-9)

	var buf bytes.Buffer
	r.PrintStats(&buf, false)
	assert.Contains(t, buf.String(), "Failed: 1")
	assert.Contains(t, buf.String(), "Throughput: 1.0 images/sec")

	buf.Reset()
	r.PrintStats(&buf, true)
	assert.Empty(t, buf.String())
}

func TestOverlayPath(t *testing.T) {
	assert.Equal(t, filepath.Join("out", "meter_overlay.png"), overlayPath("out", "/data/meter.jpg"))
}
