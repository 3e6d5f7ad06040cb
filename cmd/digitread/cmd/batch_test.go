package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchCommand_Directory(t *testing.T) {
	models := modelsDir(t)
	dir := t.TempDir()
	digitImage(t, dir, "a.png", "14")
	digitImage(t, dir, "b.png", "605")
	digitImage(t, filepath.Join(dir, "nested"), "c.png", "9")

	out, _, err := runCLI(t, "--models-dir", models, "batch", dir, "--format", "json")
	require.NoError(t, err)

	var results []pipeline.BatchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	got := map[string]string{}
	for _, r := range results {
		require.NotNil(t, r.Result, r.Error)
		got[filepath.Base(r.Name)] = r.Result.Prediction
	}
	assert.Equal(t, map[string]string{"a.png": "14", "b.png": "605"}, got)
}

func TestBatchCommand_RecursiveWithPatterns(t *testing.T) {
	models := modelsDir(t)
	dir := t.TempDir()
	digitImage(t, dir, "keep_1.png", "1")
	digitImage(t, dir, "skip_2.png", "2")
	digitImage(t, filepath.Join(dir, "nested"), "keep_3.png", "3")

	out, _, err := runCLI(t, "--models-dir", models, "batch", dir,
		"--recursive", "--include", "keep_*", "--format", "csv")
	require.NoError(t, err)
	assert.Contains(t, out, "keep_1.png")
	assert.Contains(t, out, "keep_3.png")
	assert.NotContains(t, out, "skip_2.png")
}

func TestBatchCommand_OutputFileAndStats(t *testing.T) {
	models := modelsDir(t)
	dir := t.TempDir()
	img := digitImage(t, dir, "a.png", "88")
	outFile := filepath.Join(dir, "out.txt")

	out, stderr, err := runCLI(t, "--models-dir", models, "batch", img, "-o", outFile, "--stats")
	require.NoError(t, err)
	assert.Equal(t, "Results written to "+outFile+"\n", out)
	assert.Contains(t, stderr, "Processing Statistics:")

	data, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# "+img)
	assert.Contains(t, string(data), "88\t")
}

func TestBatchCommand_Failures(t *testing.T) {
	models := modelsDir(t)
	dir := t.TempDir()
	digitImage(t, dir, "good.png", "4")
	testutil.SaveImage(t, testutil.RenderDigits(" ", testutil.DefaultRenderOptions()), filepath.Join(dir, "blank.png"))

	t.Run("stops on first error", func(t *testing.T) {
		out, _, err := runCLI(t, "--models-dir", models, "batch", dir)
		require.Error(t, err)
		assert.ErrorIs(t, err, pipeline.ErrNoDigits)
		assert.Empty(t, out)
	})

	t.Run("continue on error", func(t *testing.T) {
		out, _, err := runCLI(t, "--models-dir", models, "batch", dir, "--continue-on-error")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "1 of 2 images failed")
		assert.Contains(t, out, "error: no digits detected")
		assert.True(t, strings.Contains(out, "4\t"))
	})

	t.Run("no images", func(t *testing.T) {
		_, _, err := runCLI(t, "--models-dir", models, "batch", t.TempDir())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no image files found")
	})
}
