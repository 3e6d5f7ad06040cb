package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "digitread.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoader_Defaults(t *testing.T) {
	cfg, err := NewLoaderWithViper(viper.New()).Load()
	require.NoError(t, err)
	want := DefaultConfig()
	assert.Equal(t, want.Pipeline.MinArea, cfg.Pipeline.MinArea)
	assert.Equal(t, want.Server.Port, cfg.Server.Port)
	assert.Equal(t, "svm", cfg.Model.Kind)
}

func TestLoader_File(t *testing.T) {
	path := writeConfig(t, `
log_level: debug
model:
  kind: knn
  knn_path: /opt/knn.yaml
pipeline:
  min_area: 150
  ownership_margin: 4.5
server:
  port: 9090
  rate_limit:
    enabled: true
    requests_per_minute: 5
`)
	l := NewLoaderWithViper(viper.New())
	cfg, err := l.LoadWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, path, l.v.ConfigFileUsed())
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "knn", cfg.Model.Kind)
	assert.Equal(t, "/opt/knn.yaml", cfg.Model.KNNPath)
	assert.Equal(t, 150, cfg.Pipeline.MinArea)
	assert.InDelta(t, 4.5, cfg.Pipeline.OwnershipMargin, 1e-9)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.True(t, cfg.Server.RateLimit.Enabled)
	assert.Equal(t, 5, cfg.Server.RateLimit.RequestsPerMinute)
	assert.Equal(t, 1000, cfg.Server.RateLimit.RequestsPerHour)
	assert.Equal(t, 20, cfg.Pipeline.TargetExtent)
}

func TestLoader_FileErrors(t *testing.T) {
	_, err := NewLoaderWithViper(viper.New()).LoadWithFile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")

	path := writeConfig(t, "log_level: shout\n")
	_, err = NewLoaderWithViper(viper.New()).LoadWithFile(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation failed")

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFileWithoutValidation(path)
	require.NoError(t, err)
	assert.Equal(t, "shout", cfg.LogLevel)
}

func TestLoader_Environment(t *testing.T) {
	t.Setenv("DIGITREAD_SERVER_PORT", "7070")
	t.Setenv("DIGITREAD_PIPELINE_MIN_AREA", "42")
	t.Setenv("MODEL_PATH", "/env/svm.yaml")
	t.Setenv("MODEL_PATH_KNN", "/env/knn.yaml")

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 42, cfg.Pipeline.MinArea)
	assert.Equal(t, "/env/svm.yaml", cfg.Model.SVMPath)
	assert.Equal(t, "/env/knn.yaml", cfg.Model.KNNPath)
}

func TestLoader_PrefixedEnvWinsOverAlias(t *testing.T) {
	t.Setenv("MODEL_PATH", "/alias.yaml")
	t.Setenv("DIGITREAD_MODEL_SVM_PATH", "/prefixed.yaml")

	cfg, err := NewLoaderWithViper(viper.New()).Load()
	require.NoError(t, err)
	assert.Equal(t, "/prefixed.yaml", cfg.Model.SVMPath)
}

func TestGenerateDefaultConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	require.NoError(t, GenerateDefaultConfigFile(path))

	cfg, err := NewLoaderWithViper(viper.New()).LoadWithFile(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Pipeline.BackgroundKernel, cfg.Pipeline.BackgroundKernel)
	assert.Equal(t, DefaultConfig().Output.OverlayBoxColor, cfg.Output.OverlayBoxColor)
}

func TestGetConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	paths := GetConfigSearchPaths()
	assert.Equal(t, ".", paths[0])
	assert.Contains(t, paths, filepath.Join("/xdg", "digitread"))
	assert.Equal(t, "/etc/digitread", paths[len(paths)-1])
}
