// Package config loads irmaseal-go's runtime configuration: logging,
// the opener/sealer streaming buffer size, the metrics listener, and
// the local keystore path. It follows the teacher's viper-based
// load/defaults/validate shape.
package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// KeystoreConfig configures the local Tink-protected UserSecretKey
// cache (internal/keystore).
type KeystoreConfig struct {
	// Path to the Tink keyset used to wrap cached user secret keys at rest.
	KeysetPath string `mapstructure:"keyset_path"`
	// Directory where wrapped UserSecretKey blobs are stored.
	DataDir string `mapstructure:"data_dir"`
}

// MonitoringConfig configures the Prometheus metrics endpoint.
type MonitoringConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	BindAddress string `mapstructure:"bind_address"`
	MetricsPath string `mapstructure:"metrics_path"`
}

// S3Config configures the object-storage backend internal/s3io streams
// sealed envelopes to and from.
type S3Config struct {
	Bucket             string `mapstructure:"bucket"`
	Region             string `mapstructure:"region"`
	Endpoint           string `mapstructure:"endpoint"` // non-empty to target an S3-compatible service
	UsePathStyle       bool   `mapstructure:"use_path_style"`
	InsecureSkipVerify bool   `mapstructure:"insecure_skip_verify"` // only for development/testing

	// AccessKeyID/SecretKey optionally pin static credentials instead of
	// using the default AWS credential chain; both must be set to take effect.
	AccessKeyID string `mapstructure:"access_key_id"`
	SecretKey   string `mapstructure:"secret_key"`
}

// Config holds irmaseal-go's complete runtime configuration.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`  // logrus level name, default "info"
	LogFormat string `mapstructure:"log_format"` // "text" (default) or "json"

	// StreamBufferSize is the Sealer/Opener chunk size in bytes. Must be
	// strictly greater than 2*MACSize for the opener's sliding window to
	// make progress (see pkg/irmaseal.NewOpenerWithCapacity).
	StreamBufferSize int `mapstructure:"stream_buffer_size" validate:"min=65"`

	Keystore   KeystoreConfig   `mapstructure:"keystore"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	S3         S3Config         `mapstructure:"s3"`
}

// InitConfig wires viper to read irmaseal-go's config file and
// environment, then seeds defaults. cfgFile overrides the normal
// search path when non-empty.
func InitConfig(cfgFile string) {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".irmaseal")
	}

	viper.SetEnvPrefix("IRMASEAL")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// Load unmarshals and validates the configuration viper has collected.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("log_level", "info")
	viper.SetDefault("log_format", "text")
	viper.SetDefault("stream_buffer_size", 512)

	viper.SetDefault("keystore.keyset_path", "config/keystore.tink")
	viper.SetDefault("keystore.data_dir", "config/keys")

	viper.SetDefault("monitoring.enabled", true)
	viper.SetDefault("monitoring.bind_address", ":9090")
	viper.SetDefault("monitoring.metrics_path", "/metrics")

	viper.SetDefault("s3.use_path_style", false)
}

func validate(cfg *Config) error {
	if cfg.StreamBufferSize < 65 {
		return fmt.Errorf("stream_buffer_size must be greater than 64 bytes (2*MACSize), got %d", cfg.StreamBufferSize)
	}
	switch cfg.LogLevel {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic":
	default:
		return fmt.Errorf("invalid log_level: %q", cfg.LogLevel)
	}
	switch cfg.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log_format: %q (must be text or json)", cfg.LogFormat)
	}
	if cfg.Keystore.KeysetPath == "" {
		return fmt.Errorf("keystore.keyset_path must not be empty")
	}
	return nil
}
