package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/menta2k/plant-identifier/pkg/client"
	"github.com/menta2k/plant-identifier/pkg/gemini"
)

// Config holds the application configuration
type Config struct {
	Server ServerConfig
	Model  ModelConfig
	Image  ImageConfig
	Log    LogConfig
}

// ServerConfig holds the HTTP listener settings
type ServerConfig struct {
	Host      string
	Port      int
	BodyLimit int64
}

// ModelConfig selects and configures the vision backend
type ModelConfig struct {
	Backend string
	Name    string
	URL     string
	APIKey  string
	Timeout time.Duration
}

// ImageConfig controls preprocessing of uploads before inference
type ImageConfig struct {
	MaxDimension int
	Quality      int
}

// LogConfig holds logging settings
type LogConfig struct {
	Level string
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "localhost",
			Port:      5000,
			BodyLimit: 3 << 20, // 3MB
		},
		Model: ModelConfig{
			Backend: client.BackendGemini,
			Name:    gemini.DefaultModel,
		},
		Image: ImageConfig{
			MaxDimension: 0,
			Quality:      85,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads the configuration from the environment. Variables found in a .env
// file in the working directory are loaded first without overriding the real
// environment. If configPath is set, that file (JSON, YAML or TOML, with the
// same keys as the environment) is read too; environment variables win over it.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v, Default())
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	timeout, err := parseTimeout(v.GetString("MODEL_TIMEOUT"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:      v.GetString("SERVER_HOST"),
			Port:      v.GetInt("SERVER_PORT"),
			BodyLimit: v.GetInt64("SERVER_BODY_LIMIT"),
		},
		Model: ModelConfig{
			Backend: v.GetString("MODEL_BACKEND"),
			Name:    v.GetString("MODEL_NAME"),
			URL:     v.GetString("MODEL_URL"),
			APIKey:  v.GetString("GEMINI_API_KEY"),
			Timeout: timeout,
		},
		Image: ImageConfig{
			MaxDimension: v.GetInt("IMAGE_MAX_DIMENSION"),
			Quality:      v.GetInt("IMAGE_QUALITY"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("SERVER_HOST", d.Server.Host)
	v.SetDefault("SERVER_PORT", d.Server.Port)
	v.SetDefault("SERVER_BODY_LIMIT", d.Server.BodyLimit)
	v.SetDefault("MODEL_BACKEND", d.Model.Backend)
	v.SetDefault("MODEL_NAME", d.Model.Name)
	v.SetDefault("MODEL_URL", d.Model.URL)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("MODEL_TIMEOUT", d.Model.Timeout.String())
	v.SetDefault("IMAGE_MAX_DIMENSION", d.Image.MaxDimension)
	v.SetDefault("IMAGE_QUALITY", d.Image.Quality)
	v.SetDefault("LOG_LEVEL", d.Log.Level)
}

// parseTimeout reads MODEL_TIMEOUT. A unit is required ("30s", "2m"); only a
// bare "0" is accepted without one.
func parseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "0" {
		return 0, nil
	}
	timeout, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("model.timeout must be a duration with a unit such as 30s: %w", err)
	}
	return timeout, nil
}

// Address returns the host:port the server listens on
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535")
	}

	if c.Server.BodyLimit < 1 {
		return fmt.Errorf("server.body_limit must be positive")
	}

	switch c.Model.Backend {
	case client.BackendGemini, client.BackendOllama, client.BackendLlamaCpp:
	default:
		return fmt.Errorf("model.backend must be one of %s, %s, %s (got %q)",
			client.BackendGemini, client.BackendOllama, client.BackendLlamaCpp, c.Model.Backend)
	}

	if c.Model.Name == "" {
		return fmt.Errorf("model.name cannot be empty")
	}

	if c.Model.Timeout < 0 {
		return fmt.Errorf("model.timeout cannot be negative")
	}

	if c.Image.MaxDimension < 0 {
		return fmt.Errorf("image.max_dimension cannot be negative")
	}

	if c.Image.Quality < 1 || c.Image.Quality > 100 {
		return fmt.Errorf("image.quality must be between 1 and 100")
	}

	return nil
}
