package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/digitread/internal/models"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the base name for configuration files (without extension).
	ConfigFileName = "digitread"

	// EnvPrefix is the prefix for environment variables.
	EnvPrefix = "DIGITREAD"
)

// envAliases maps configuration keys to unprefixed environment variables
// accepted for compatibility with existing deployments.
var envAliases = map[string]string{
	"model.svm_path": models.EnvSVMPath,
	"model.knn_path": models.EnvKNNPath,
}

// Loader handles loading configuration from various sources.
type Loader struct {
	v *viper.Viper
}

// NewLoaderWithViper creates a loader on an explicit viper instance.
func NewLoaderWithViper(v *viper.Viper) *Loader {
	return &Loader{v: v}
}

// Load loads configuration from the search paths, the environment and the
// defaults, then validates it.
func (l *Loader) Load() (*Config, error) {
	return l.load("", true)
}

// LoadWithFile loads configuration from a specific file path. An empty path
// falls back to the search paths.
func (l *Loader) LoadWithFile(configFile string) (*Config, error) {
	return l.load(configFile, true)
}

// LoadWithFileWithoutValidation is LoadWithFile without validation.
func (l *Loader) LoadWithFileWithoutValidation(configFile string) (*Config, error) {
	return l.load(configFile, false)
}

func (l *Loader) load(configFile string, validate bool) (*Config, error) {
	if configFile != "" {
		if _, err := os.Stat(configFile); os.IsNotExist(err) {
			return nil, fmt.Errorf("config file does not exist: %s", configFile)
		}
		l.v.SetConfigFile(configFile)
	} else {
		l.v.SetConfigName(ConfigFileName)
		l.v.SetConfigType("yaml")
		l.addConfigPaths()
	}

	if err := l.setupEnvironmentVariables(); err != nil {
		return nil, err
	}
	l.setDefaults()

	if err := l.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := l.v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if validate {
		if err := config.Validate(); err != nil {
			return nil, fmt.Errorf("configuration validation failed: %w", err)
		}
	}
	return &config, nil
}

func (l *Loader) addConfigPaths() {
	for _, p := range GetConfigSearchPaths() {
		l.v.AddConfigPath(p)
	}
}

func (l *Loader) setupEnvironmentVariables() error {
	l.v.SetEnvPrefix(EnvPrefix)
	l.v.AutomaticEnv()
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	for key, env := range envAliases {
		// The prefixed name stays first so it wins over the alias.
		prefixed := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := l.v.BindEnv(key, prefixed, env); err != nil {
			return fmt.Errorf("bind %s: %w", key, err)
		}
	}
	return nil
}

func (l *Loader) setDefaults() {
	d := DefaultConfig()

	l.v.SetDefault("models_dir", d.ModelsDir)
	l.v.SetDefault("log_level", d.LogLevel)
	l.v.SetDefault("verbose", d.Verbose)

	l.v.SetDefault("model.kind", d.Model.Kind)
	l.v.SetDefault("model.svm_path", d.Model.SVMPath)
	l.v.SetDefault("model.knn_path", d.Model.KNNPath)
	l.v.SetDefault("model.eager", d.Model.Eager)

	l.v.SetDefault("pipeline.min_area", d.Pipeline.MinArea)
	l.v.SetDefault("pipeline.bbox_pad", d.Pipeline.BBoxPad)
	l.v.SetDefault("pipeline.projection_pad", d.Pipeline.ProjectionPad)
	l.v.SetDefault("pipeline.ownership_margin", d.Pipeline.OwnershipMargin)
	l.v.SetDefault("pipeline.canvas_size", d.Pipeline.CanvasSize)
	l.v.SetDefault("pipeline.target_extent", d.Pipeline.TargetExtent)
	l.v.SetDefault("pipeline.clahe_clip_limit", d.Pipeline.CLAHEClipLimit)
	l.v.SetDefault("pipeline.clahe_tiles", d.Pipeline.CLAHETiles)
	l.v.SetDefault("pipeline.background_kernel", d.Pipeline.BackgroundKernel)
	l.v.SetDefault("pipeline.workers", d.Pipeline.Workers)
	l.v.SetDefault("pipeline.debug", d.Pipeline.Debug)

	l.v.SetDefault("output.format", d.Output.Format)
	l.v.SetDefault("output.confidence_precision", d.Output.ConfidencePrecision)
	l.v.SetDefault("output.overlay_box_color", d.Output.OverlayBoxColor)
	l.v.SetDefault("output.overlay_label_color", d.Output.OverlayLabelColor)

	l.v.SetDefault("server.host", d.Server.Host)
	l.v.SetDefault("server.port", d.Server.Port)
	l.v.SetDefault("server.cors_origin", d.Server.CORSOrigin)
	l.v.SetDefault("server.max_upload_mb", d.Server.MaxUploadMB)
	l.v.SetDefault("server.timeout_sec", d.Server.TimeoutSec)
	l.v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	l.v.SetDefault("server.rate_limit.enabled", d.Server.RateLimit.Enabled)
	l.v.SetDefault("server.rate_limit.requests_per_minute", d.Server.RateLimit.RequestsPerMinute)
	l.v.SetDefault("server.rate_limit.requests_per_hour", d.Server.RateLimit.RequestsPerHour)
	l.v.SetDefault("server.rate_limit.max_requests_per_day", d.Server.RateLimit.MaxRequestsPerDay)
	l.v.SetDefault("server.rate_limit.max_data_per_day_mb", d.Server.RateLimit.MaxDataPerDayMB)

	l.v.SetDefault("batch.workers", d.Batch.Workers)
	l.v.SetDefault("batch.continue_on_error", d.Batch.ContinueOnError)
	l.v.SetDefault("batch.recursive", d.Batch.Recursive)
}

// WriteConfigToFile writes the current configuration to a file.
func (l *Loader) WriteConfigToFile(filename string) error {
	return l.v.WriteConfigAs(filename)
}

// GenerateDefaultConfigFile writes the defaults to filename
// (digitread.yaml when empty).
func GenerateDefaultConfigFile(filename string) error {
	loader := NewLoaderWithViper(viper.New())
	loader.setDefaults()
	if filename == "" {
		filename = ConfigFileName + ".yaml"
	}
	return loader.WriteConfigToFile(filename)
}

// GetConfigSearchPaths returns the directories searched for a config file.
func GetConfigSearchPaths() []string {
	paths := []string{"."}
	home, homeErr := os.UserHomeDir()
	if homeErr == nil {
		paths = append(paths, home)
	}
	if dir, ok := os.LookupEnv("XDG_CONFIG_HOME"); ok && dir != "" {
		paths = append(paths, filepath.Join(dir, ConfigFileName))
	} else if homeErr == nil {
		paths = append(paths, filepath.Join(home, ".config", ConfigFileName))
	}
	return append(paths, "/etc/"+ConfigFileName)
}
