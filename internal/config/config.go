// Package config loads service configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service configuration.
type Config struct {
	// Server
	HTTPAddr string `yaml:"http_addr"`

	// Storage
	DataDir string `yaml:"data_dir"`

	// External stitching engine
	StitcherBinary string `yaml:"stitcher_binary"`
	MLSMapPath     string `yaml:"mls_map_path"`

	// Jobs
	TransformTimeout time.Duration `yaml:"transform_timeout"`
	MaxConcurrent    int           `yaml:"max_concurrent"`

	// Validation limits
	MaxUploadBytes int64   `yaml:"max_upload_bytes"`
	MaxIntensity   float64 `yaml:"max_intensity"`

	// Optional submission tracking
	DatabaseURL string `yaml:"database_url"`
}

// UnmarshalYAML accepts transform_timeout as a duration string ("60s", "2m")
// rather than raw nanoseconds.
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	type plain Config
	aux := struct {
		TransformTimeout string `yaml:"transform_timeout"`
		*plain
	}{plain: (*plain)(c)}
	if err := value.Decode(&aux); err != nil {
		return err
	}
	if aux.TransformTimeout != "" {
		d, err := time.ParseDuration(aux.TransformTimeout)
		if err != nil {
			return fmt.Errorf("invalid transform_timeout: %w", err)
		}
		c.TransformTimeout = d
	}
	return nil
}

// Default returns the built-in defaults, matching the reference deployment.
func Default() Config {
	return Config{
		HTTPAddr:         ":8080",
		DataDir:          "./data",
		StitcherBinary:   "./build/bin/fisheyeStitcher",
		MLSMapPath:       "./utils/grid_xd_yd_3840x1920.yml.gz",
		TransformTimeout: 60 * time.Second,
		MaxConcurrent:    4,
		MaxUploadBytes:   50 << 20,
		MaxIntensity:     3.0,
	}
}

// Load builds the configuration: defaults, then the YAML file named by
// STITCHD_CONFIG (if set), then environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("STITCHD_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.HTTPAddr = getEnv("STITCHD_HTTP_ADDR", cfg.HTTPAddr)
	cfg.DataDir = getEnv("STITCHD_DATA_DIR", cfg.DataDir)
	cfg.StitcherBinary = getEnv("STITCHER_BINARY", cfg.StitcherBinary)
	cfg.MLSMapPath = getEnv("MLS_MAP_PATH", cfg.MLSMapPath)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)

	var err error
	if cfg.TransformTimeout, err = getEnvDuration("TRANSFORM_TIMEOUT", cfg.TransformTimeout); err != nil {
		return Config{}, err
	}
	if cfg.MaxConcurrent, err = getEnvInt("MAX_CONCURRENT", cfg.MaxConcurrent); err != nil {
		return Config{}, err
	}
	if cfg.MaxUploadBytes, err = getEnvInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes); err != nil {
		return Config{}, err
	}
	if cfg.MaxIntensity, err = getEnvFloat("MAX_INTENSITY", cfg.MaxIntensity); err != nil {
		return Config{}, err
	}

	if cfg.TransformTimeout <= 0 {
		return Config{}, fmt.Errorf("transform timeout must be positive")
	}
	if cfg.MaxUploadBytes <= 0 {
		return Config{}, fmt.Errorf("max upload bytes must be positive")
	}
	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvInt64(key string, defaultValue int64) (int64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}
