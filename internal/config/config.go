// Package config loads jpegbench settings from an optional YAML file and
// JPEGBENCH_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/AnyUserName/jpegbench/internal/encoder"
)

// Config is the root configuration.
type Config struct {
	Log LogConfig `mapstructure:"log"`
	Run RunConfig `mapstructure:"run"`
}

// LogConfig defines logger settings.
type LogConfig struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format string `mapstructure:"format"`
	// Outputs: stdout, stderr, or file paths
	Outputs []string `mapstructure:"outputs"`

	Rotation    RotationConfig `mapstructure:"rotation"`
	Development bool           `mapstructure:"development"`
}

// RotationConfig controls log file rotation for file outputs.
type RotationConfig struct {
	Enable     bool   `mapstructure:"enable"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// RunConfig holds benchmark run settings. CLI flags override these.
type RunConfig struct {
	Profile string   `mapstructure:"profile"`
	Codecs  []string `mapstructure:"codecs"` // overrides the profile's codec list
	Workers int      `mapstructure:"workers"`
	Threads int      `mapstructure:"threads"`
	MaxSize int      `mapstructure:"max_size"`
	OutDir  string   `mapstructure:"out_dir"`

	SaveOutputs bool   `mapstructure:"save_outputs"`
	MetricsOut  string `mapstructure:"metrics_out"`

	// ChromaSubsampling is the default for jpeg codecs without a yuv token.
	ChromaSubsampling string `mapstructure:"chroma_subsampling"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:   "info",
			Format:  "console",
			Outputs: []string{"stderr"},
			Rotation: RotationConfig{
				Filename:   "logs/jpegbench.log",
				MaxSizeMB:  50,
				MaxBackups: 3,
				MaxAgeDays: 28,
				Compress:   true,
			},
		},
		Run: RunConfig{
			Profile:           "jpeg-compare",
			OutDir:            "./jpegbench_out",
			ChromaSubsampling: "444",
		},
	}
}

// Load reads configuration from path, or searches ./jpegbench.yaml and
// ~/.jpegbench/ when path is empty. Environment variables use the prefix
// JPEGBENCH with "." and "-" replaced by "_", e.g. JPEGBENCH_LOG_LEVEL=debug.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("JPEGBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	// seed defaults so env-only configs work
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.outputs", cfg.Log.Outputs)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("log.rotation.enable", cfg.Log.Rotation.Enable)
	v.SetDefault("log.rotation.filename", cfg.Log.Rotation.Filename)
	v.SetDefault("log.rotation.max_size_mb", cfg.Log.Rotation.MaxSizeMB)
	v.SetDefault("log.rotation.max_backups", cfg.Log.Rotation.MaxBackups)
	v.SetDefault("log.rotation.max_age_days", cfg.Log.Rotation.MaxAgeDays)
	v.SetDefault("log.rotation.compress", cfg.Log.Rotation.Compress)
	v.SetDefault("run.profile", cfg.Run.Profile)
	v.SetDefault("run.codecs", cfg.Run.Codecs)
	v.SetDefault("run.workers", cfg.Run.Workers)
	v.SetDefault("run.threads", cfg.Run.Threads)
	v.SetDefault("run.max_size", cfg.Run.MaxSize)
	v.SetDefault("run.out_dir", cfg.Run.OutDir)
	v.SetDefault("run.save_outputs", cfg.Run.SaveOutputs)
	v.SetDefault("run.metrics_out", cfg.Run.MetricsOut)
	v.SetDefault("run.chroma_subsampling", cfg.Run.ChromaSubsampling)

	if path == "" {
		path = os.Getenv("JPEGBENCH_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("jpegbench")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".jpegbench"))
		}
	}

	// A missing file is fine unless it was asked for explicitly.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values and fills in empty ones.
func (c *Config) Validate() error {
	switch strings.ToLower(strings.TrimSpace(c.Log.Level)) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	switch strings.ToLower(c.Log.Format) {
	case "":
		c.Log.Format = "console"
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}
	if len(c.Log.Outputs) == 0 {
		c.Log.Outputs = []string{"stderr"}
	}

	if c.Run.ChromaSubsampling == "" {
		c.Run.ChromaSubsampling = "444"
	}
	if _, err := encoder.ParseChroma(c.Run.ChromaSubsampling); err != nil {
		return fmt.Errorf("invalid run.chroma_subsampling: %w", err)
	}
	if c.Run.Workers < 0 || c.Run.Threads < 0 || c.Run.MaxSize < 0 {
		return fmt.Errorf("run.workers, run.threads and run.max_size must not be negative")
	}
	return nil
}
