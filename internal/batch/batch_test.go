package batch

import (
	"context"
	"errors"
	"image"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/MeKo-Tech/digitread/internal/pipeline"
	"github.com/MeKo-Tech/digitread/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	dir := t.TempDir()
	_, err := testutil.WriteTemplateArtifact(dir, models.KindSVM)
	require.NoError(t, err)
	store := models.NewStore(models.StoreConfig{ModelsDir: dir})
	_, err = store.Reload()
	require.NoError(t, err)
	pl, err := pipeline.NewBuilder().WithModels(store).WithWorkers(2).Build()
	require.NoError(t, err)
	return pl
}

// writeDigits renders text into dir/name as PNG and returns the path.
func writeDigits(t *testing.T, dir, name, text string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	testutil.SaveImage(t, testutil.RenderDigits(text, testutil.DefaultRenderOptions()), path)
	return path
}

func writeBlank(t *testing.T, dir, name string) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 60, 40))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	path := filepath.Join(dir, name)
	testutil.SaveImage(t, img, path)
	return path
}

func TestProcessBatch_NoImageFiles(t *testing.T) {
	result, err := ProcessBatch(context.Background(), newTestPipeline(t), []string{t.TempDir()}, &Config{})
	require.ErrorIs(t, err, ErrNoImages)
	assert.Nil(t, result)
}

func TestProcessBatch_InvalidPath(t *testing.T) {
	result, err := ProcessBatch(context.Background(), newTestPipeline(t), []string{"/nonexistent/file.png"}, &Config{})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestProcessBatch_Directory(t *testing.T) {
	dir := t.TempDir()
	a := writeDigits(t, dir, "a.png", "42")
	b := writeDigits(t, dir, "b.png", "915")

	result, err := ProcessBatch(context.Background(), newTestPipeline(t), []string{dir}, &Config{Workers: 2})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)

	assert.Equal(t, a, result.Results[0].Name)
	assert.Equal(t, "42", result.Results[0].Result.Prediction)
	assert.Equal(t, b, result.Results[1].Name)
	assert.Equal(t, "915", result.Results[1].Result.Prediction)
	assert.Equal(t, 2, result.WorkerCount)

	stats := result.Stats()
	assert.Equal(t, 2, stats.ProcessedImages)
	assert.Zero(t, stats.FailedImages)
	assert.Equal(t, 5, stats.TotalDigits)
}

func TestProcessBatch_ContinueOnError(t *testing.T) {
	dir := t.TempDir()
	writeDigits(t, dir, "a.png", "8")
	writeBlank(t, dir, "b.png")

	_, err := ProcessBatch(context.Background(), newTestPipeline(t), []string{dir}, &Config{})
	require.ErrorIs(t, err, pipeline.ErrNoDigits)

	result, err := ProcessBatch(context.Background(), newTestPipeline(t), []string{dir}, &Config{ContinueOnError: true})
	require.NoError(t, err)
	require.Len(t, result.Results, 2)
	assert.Equal(t, "8", result.Results[0].Result.Prediction)
	assert.True(t, errors.Is(result.Results[1].Err, pipeline.ErrNoDigits))

	stats := result.Stats()
	assert.Equal(t, 1, stats.ProcessedImages)
	assert.Equal(t, 1, stats.FailedImages)
}

func TestProcessBatch_Overlays(t *testing.T) {
	dir := t.TempDir()
	writeDigits(t, dir, "digits.png", "36")
	overlayDir := filepath.Join(t.TempDir(), "overlays")

	_, err := ProcessBatch(context.Background(), newTestPipeline(t), []string{dir}, &Config{OverlayDir: overlayDir})
	require.NoError(t, err)
	assert.True(t, testutil.FileExists(filepath.Join(overlayDir, "digits_overlay.png")))
}

func TestProcessBatch_Cancelled(t *testing.T) {
	dir := t.TempDir()
	writeDigits(t, dir, "a.png", "1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ProcessBatch(ctx, newTestPipeline(t), []string{dir}, &Config{})
	require.ErrorIs(t, err, context.Canceled)
}
