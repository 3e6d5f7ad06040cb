//nolint:lll
package config

// Config represents the complete configuration of digitread. It covers
// every command (image, batch, pdf, serve, model) and is loaded from a
// configuration file, environment variables and command-line flags.
type Config struct {
	// Global settings
	ModelsDir string `mapstructure:"models_dir" yaml:"models_dir" json:"models_dir"`
	LogLevel  string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose   bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	Model    ModelConfig    `mapstructure:"model" yaml:"model" json:"model"`
	Pipeline PipelineConfig `mapstructure:"pipeline" yaml:"pipeline" json:"pipeline"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output" json:"output"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server" json:"server"`
	Batch    BatchConfig    `mapstructure:"batch" yaml:"batch" json:"batch"`
}

// ModelConfig selects the classifier artifact.
type ModelConfig struct {
	Kind    string `mapstructure:"kind" yaml:"kind" json:"kind"`
	SVMPath string `mapstructure:"svm_path" yaml:"svm_path" json:"svm_path"`
	KNNPath string `mapstructure:"knn_path" yaml:"knn_path" json:"knn_path"`
	// Eager loads the artifact at startup instead of on first use.
	Eager bool `mapstructure:"eager" yaml:"eager" json:"eager"`
}

// PipelineConfig contains the stage parameters.
type PipelineConfig struct {
	MinArea          int     `mapstructure:"min_area" yaml:"min_area" json:"min_area"`
	BBoxPad          int     `mapstructure:"bbox_pad" yaml:"bbox_pad" json:"bbox_pad"`
	ProjectionPad    int     `mapstructure:"projection_pad" yaml:"projection_pad" json:"projection_pad"`
	OwnershipMargin  float64 `mapstructure:"ownership_margin" yaml:"ownership_margin" json:"ownership_margin"`
	CanvasSize       int     `mapstructure:"canvas_size" yaml:"canvas_size" json:"canvas_size"`
	TargetExtent     int     `mapstructure:"target_extent" yaml:"target_extent" json:"target_extent"`
	CLAHEClipLimit   float64 `mapstructure:"clahe_clip_limit" yaml:"clahe_clip_limit" json:"clahe_clip_limit"`
	CLAHETiles       int     `mapstructure:"clahe_tiles" yaml:"clahe_tiles" json:"clahe_tiles"`
	BackgroundKernel int     `mapstructure:"background_kernel" yaml:"background_kernel" json:"background_kernel"`
	Workers          int     `mapstructure:"workers" yaml:"workers" json:"workers"`
	Debug            bool    `mapstructure:"debug" yaml:"debug" json:"debug"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format              string `mapstructure:"format" yaml:"format" json:"format"`
	File                string `mapstructure:"file" yaml:"file" json:"file"`
	ConfidencePrecision int    `mapstructure:"confidence_precision" yaml:"confidence_precision" json:"confidence_precision"`
	OverlayDir          string `mapstructure:"overlay_dir" yaml:"overlay_dir" json:"overlay_dir"`
	OverlayBoxColor     string `mapstructure:"overlay_box_color" yaml:"overlay_box_color" json:"overlay_box_color"`
	OverlayLabelColor   string `mapstructure:"overlay_label_color" yaml:"overlay_label_color" json:"overlay_label_color"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host            string          `mapstructure:"host" yaml:"host" json:"host"`
	Port            int             `mapstructure:"port" yaml:"port" json:"port"`
	CORSOrigin      string          `mapstructure:"cors_origin" yaml:"cors_origin" json:"cors_origin"`
	MaxUploadMB     int             `mapstructure:"max_upload_mb" yaml:"max_upload_mb" json:"max_upload_mb"`
	TimeoutSec      int             `mapstructure:"timeout_sec" yaml:"timeout_sec" json:"timeout_sec"`
	ShutdownTimeout int             `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	RateLimit       RateLimitConfig `mapstructure:"rate_limit" yaml:"rate_limit" json:"rate_limit"`
}

// RateLimitConfig bounds per-client traffic. Zero disables a limit.
type RateLimitConfig struct {
	Enabled           bool  `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	RequestsPerMinute int   `mapstructure:"requests_per_minute" yaml:"requests_per_minute" json:"requests_per_minute"`
	RequestsPerHour   int   `mapstructure:"requests_per_hour" yaml:"requests_per_hour" json:"requests_per_hour"`
	MaxRequestsPerDay int   `mapstructure:"max_requests_per_day" yaml:"max_requests_per_day" json:"max_requests_per_day"`
	MaxDataPerDayMB   int64 `mapstructure:"max_data_per_day_mb" yaml:"max_data_per_day_mb" json:"max_data_per_day_mb"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
	Recursive       bool `mapstructure:"recursive" yaml:"recursive" json:"recursive"`
}
