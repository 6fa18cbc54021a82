package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Pipeline    PipelineConfig    `toml:"pipeline"`
	Server      ServerConfig      `toml:"server"`
	Log         LogConfig         `toml:"log"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	YouTube YouTubeConfig `toml:"youtube"`
	Gemini  GeminiConfig  `toml:"gemini"`
}

// YouTubeConfig contains YouTube Data API credentials.
type YouTubeConfig struct {
	APIKey       string `toml:"api_key"`
	AccessToken  string `toml:"access_token"`
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RedirectURI  string `toml:"redirect_uri"`
	TokenFile    string `toml:"token_file"`
	BaseURL      string `toml:"base_url"`
}

// GeminiConfig contains the recommendation model settings.
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Temperature float32 `toml:"temperature"`
}

// PipelineConfig bounds the enrichment and matching pipeline.
type PipelineConfig struct {
	DefaultLimit           int `toml:"default_limit"`
	MaxLimit               int `toml:"max_limit"`
	SearchConcurrency      int `toml:"search_concurrency"`
	MaxQueries             int `toml:"max_queries"`
	MaxQueriesCap          int `toml:"max_queries_cap"`
	DefaultRecommendations int `toml:"default_recommendations"`
	MaxRecommendations     int `toml:"max_recommendations"`
	MaxTitles              int `toml:"max_titles"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// LogConfig controls logger verbosity.
type LogConfig struct {
	Level string `toml:"level"`
}

// Addr returns the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Values missing from the file keep the embedded defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks pipeline bounds for internal consistency.
func (c *Config) Validate() error {
	p := c.Pipeline
	switch {
	case p.DefaultLimit <= 0 || p.MaxLimit <= 0:
		return fmt.Errorf("%w: pipeline limits must be positive", ErrInvalidConfig)
	case p.DefaultLimit > p.MaxLimit:
		return fmt.Errorf("%w: default_limit %d exceeds max_limit %d", ErrInvalidConfig, p.DefaultLimit, p.MaxLimit)
	case p.SearchConcurrency <= 0:
		return fmt.Errorf("%w: search_concurrency must be positive", ErrInvalidConfig)
	case p.MaxQueries <= 0 || p.MaxQueries > p.MaxQueriesCap:
		return fmt.Errorf("%w: max_queries must be within 1..%d", ErrInvalidConfig, p.MaxQueriesCap)
	case p.DefaultRecommendations <= 0 || p.DefaultRecommendations > p.MaxRecommendations:
		return fmt.Errorf("%w: default_recommendations must be within 1..%d", ErrInvalidConfig, p.MaxRecommendations)
	}
	return nil
}

// ApplyEnv overlays secrets from the environment onto the loaded configuration.
func ApplyEnv(c *Config) {
	for name, target := range map[string]*string{
		"YOUTUBE_API_KEY":      &c.Credentials.YouTube.APIKey,
		"YOUTUBE_ACCESS_TOKEN": &c.Credentials.YouTube.AccessToken,
		"GEMINI_API_KEY":       &c.Credentials.Gemini.APIKey,
	} {
		if v, ok := os.LookupEnv(name); ok && v != "" {
			*target = v
		}
	}
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
