package config

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	// Database Configuration
	DatabaseDSN     string `mapstructure:"DATABASE_DSN" validate:"required"`
	DatabaseRetries int    `mapstructure:"DATABASE_RETRIES"`

	// Object store (S3-compatible, path-style addressing)
	S3Endpoint        string `mapstructure:"S3_ENDPOINT"`
	S3Region          string `mapstructure:"S3_REGION"`
	S3AccessKeyID     string `mapstructure:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `mapstructure:"S3_SECRET_ACCESS_KEY"`

	// Bucket overrides
	RawVideosBucket  string `mapstructure:"RAW_VIDEOS_BUCKET"`
	ThumbnailsBucket string `mapstructure:"THUMBNAILS_BUCKET"`
	ShortsBucket     string `mapstructure:"PROCESSED_SHORTS_BUCKET"`

	// Transcription endpoint (speech-to-text)
	TranscriptionURL    string `mapstructure:"TRANSCRIPTION_URL"`
	TranscriptionAPIKey string `mapstructure:"TRANSCRIPTION_API_KEY"`
	TranscriptionModel  string `mapstructure:"TRANSCRIPTION_MODEL"`
	TranscriptionLang   string `mapstructure:"TRANSCRIPTION_LANGUAGE"`

	// Captions
	CaptionsEnabled bool `mapstructure:"CAPTIONS_ENABLED"`

	// Workers
	DownloadWorkers int `mapstructure:"DOWNLOAD_WORKERS" validate:"min=1"`
	AnalysisWorkers int `mapstructure:"ANALYSIS_WORKERS" validate:"min=1"`
	ExtractWorkers  int `mapstructure:"EXTRACT_WORKERS" validate:"min=1"`

	// Rate limits, tasks per second per worker process
	AnalysisRatePerSec float64 `mapstructure:"ANALYSIS_RATE_PER_SEC"`
	ExtractRatePerSec  float64 `mapstructure:"EXTRACT_RATE_PER_SEC"`

	// Subprocess timeouts, seconds
	DownloadTimeoutSec int `mapstructure:"DOWNLOAD_TIMEOUT_SEC"`
	ExtractTimeoutSec  int `mapstructure:"EXTRACT_TIMEOUT_SEC"`

	// Graceful shutdown window, seconds
	ShutdownGraceSec int `mapstructure:"SHUTDOWN_GRACE_SEC"`

	// Tool paths
	YtdlpPath string `mapstructure:"YTDLP_PATH"`

	// Scratch space for per-task temp directories
	WorkDir string `mapstructure:"WORK_DIR"`
}

// CaptionsConfigured reports whether caption generation can run at all: it
// needs both the feature flag and a transcription endpoint.
func (c *Config) CaptionsConfigured() bool {
	return c.CaptionsEnabled && c.TranscriptionURL != ""
}

// use reflect to bind environment variables based on mapstructure tags
func bindEnv(c Config) {
	val := reflect.ValueOf(c)
	typ := val.Type()

	for i := 0; i < val.NumField(); i++ {
		field := typ.Field(i)
		tag := field.Tag.Get("mapstructure")
		if tag != "" {
			viper.BindEnv(tag)
		}
	}
}

func LoadConfig(ctx context.Context) (*Config, error) {
	bindEnv(Config{})
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("DATABASE_RETRIES", 10)
	viper.SetDefault("RAW_VIDEOS_BUCKET", "raw-videos")
	viper.SetDefault("THUMBNAILS_BUCKET", "thumbnails")
	viper.SetDefault("PROCESSED_SHORTS_BUCKET", "processed-shorts")
	viper.SetDefault("TRANSCRIPTION_MODEL", "whisper-1")
	viper.SetDefault("TRANSCRIPTION_LANGUAGE", "en")
	viper.SetDefault("CAPTIONS_ENABLED", true)
	viper.SetDefault("DOWNLOAD_WORKERS", 2)
	viper.SetDefault("ANALYSIS_WORKERS", 1)
	viper.SetDefault("EXTRACT_WORKERS", 2)
	viper.SetDefault("ANALYSIS_RATE_PER_SEC", 1.0)
	viper.SetDefault("EXTRACT_RATE_PER_SEC", 5.0)
	viper.SetDefault("DOWNLOAD_TIMEOUT_SEC", 600)
	viper.SetDefault("EXTRACT_TIMEOUT_SEC", 300)
	viper.SetDefault("SHUTDOWN_GRACE_SEC", 30)
	viper.SetDefault("YTDLP_PATH", "yt-dlp")
	viper.SetDefault("WORK_DIR", "/tmp/reclip")

	cfg := Config{}
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	slog.Info("Loaded configuration",
		"raw_bucket", cfg.RawVideosBucket,
		"shorts_bucket", cfg.ShortsBucket,
		"captions", cfg.CaptionsConfigured())

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return &cfg, nil
}
