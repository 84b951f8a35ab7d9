package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	setDefaults()

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 512, cfg.StreamBufferSize)
	assert.Equal(t, "config/keystore.tink", cfg.Keystore.KeysetPath)
	assert.True(t, cfg.Monitoring.Enabled)
	assert.Equal(t, ":9090", cfg.Monitoring.BindAddress)
}

func TestLoad_CustomValues(t *testing.T) {
	viper.Reset()
	setDefaults()

	viper.Set("log_level", "debug")
	viper.Set("log_format", "json")
	viper.Set("stream_buffer_size", 4096)
	viper.Set("keystore.keyset_path", "/etc/irmaseal/keystore.tink")
	viper.Set("s3.bucket", "sealed-envelopes")
	viper.Set("s3.region", "eu-west-1")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 4096, cfg.StreamBufferSize)
	assert.Equal(t, "/etc/irmaseal/keystore.tink", cfg.Keystore.KeysetPath)
	assert.Equal(t, "sealed-envelopes", cfg.S3.Bucket)
	assert.Equal(t, "eu-west-1", cfg.S3.Region)
}

func TestLoad_InvalidBufferSize(t *testing.T) {
	viper.Reset()
	setDefaults()
	viper.Set("stream_buffer_size", 16)

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "stream_buffer_size")
}

func TestLoad_InvalidLogLevel(t *testing.T) {
	viper.Reset()
	setDefaults()
	viper.Set("log_level", "not-a-level")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "invalid log_level")
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		StreamBufferSize: 512,
		Keystore:         KeystoreConfig{KeysetPath: "config/keystore.tink"},
	}

	assert.NoError(t, validate(cfg))
}

func TestValidate_EmptyKeysetPath(t *testing.T) {
	cfg := &Config{
		LogLevel:         "info",
		LogFormat:        "text",
		StreamBufferSize: 512,
	}

	err := validate(cfg)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "keyset_path")
}

func TestInitConfig_WithEnvironmentVariables(t *testing.T) {
	viper.Reset()
	t.Setenv("IRMASEAL_LOG_LEVEL", "warn")
	t.Setenv("IRMASEAL_STREAM_BUFFER_SIZE", "1024")
	InitConfig("")

	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, 1024, cfg.StreamBufferSize)
}
