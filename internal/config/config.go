// Package config loads application configuration from defaults, an optional
// YAML file and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ErrMissingCredentials is returned when SPOTIFY_ID or SPOTIFY_SECRET is not set.
var ErrMissingCredentials = errors.New("missing SPOTIFY_ID or SPOTIFY_SECRET")

// PathEnvVar overrides the config file location.
const PathEnvVar = "CONFIG_PATH"

// DefaultPaths are searched in order when PathEnvVar is unset.
var DefaultPaths = []string{
	"config.yaml",
	"config.yml",
}

// Config is the full application configuration.
type Config struct {
	Spotify    SpotifyConfig    `koanf:"spotify"`
	YouTube    YouTubeConfig    `koanf:"youtube"`
	Classifier ClassifierConfig `koanf:"classifier"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Share      ShareConfig      `koanf:"share"`
}

// SpotifyConfig configures the catalog search client.
type SpotifyConfig struct {
	ClientID     string        `koanf:"client_id"`
	ClientSecret string        `koanf:"client_secret"`
	TokenURL     string        `koanf:"token_url" validate:"omitempty,url"`
	BaseURL      string        `koanf:"base_url" validate:"omitempty,url"`
	SearchLimit  int           `koanf:"search_limit" validate:"min=1,max=50"`
	Timeout      time.Duration `koanf:"timeout" validate:"min=0"`
}

// YouTubeConfig configures the video resolver. An empty APIKey is valid and
// makes every link a search-results link.
type YouTubeConfig struct {
	APIKey          string        `koanf:"api_key"`
	WatchURL        string        `koanf:"watch_url" validate:"omitempty,url"`
	ResultsURL      string        `koanf:"results_url" validate:"omitempty,url"`
	Timeout         time.Duration `koanf:"timeout" validate:"min=0"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerCooldown time.Duration `koanf:"breaker_cooldown" validate:"min=0"`
}

// ClassifierConfig selects and configures the emotion classifier.
type ClassifierConfig struct {
	Provider     string `koanf:"provider" validate:"oneof=vision rekognition"`
	VisionAPIKey string `koanf:"vision_api_key"`
	AWSRegion    string `koanf:"aws_region"`
}

// RecommendConfig configures the recommendation pipeline.
type RecommendConfig struct {
	Limit       int `koanf:"limit" validate:"min=1,max=50"`
	Concurrency int `koanf:"concurrency" validate:"min=1,max=50"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Addr            string        `koanf:"addr" validate:"required"`
	MaxUploadBytes  int64         `koanf:"max_upload_bytes" validate:"min=1"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RateLimit       int           `koanf:"rate_limit" validate:"min=0"`
	RateWindow      time.Duration `koanf:"rate_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// LoggingConfig configures the global logger.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error off disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ShareConfig configures the results-page share button.
type ShareConfig struct {
	KakaoAppKey string `koanf:"kakao_app_key"`
}

func defaultConfig() *Config {
	return &Config{
		Spotify: SpotifyConfig{
			SearchLimit: 50,
			Timeout:     10 * time.Second,
		},
		YouTube: YouTubeConfig{
			Timeout:         5 * time.Second,
			BreakerFailures: 5,
			BreakerCooldown: 30 * time.Second,
		},
		Classifier: ClassifierConfig{
			Provider:  "vision",
			AWSRegion: "us-east-1",
		},
		Recommend: RecommendConfig{
			Limit:       5,
			Concurrency: 5,
		},
		Server: ServerConfig{
			Addr:            ":8080",
			MaxUploadBytes:  10 << 20, // 10MB
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			RateLimit:       30,
			RateWindow:      time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads configuration: struct defaults, then the YAML file named by
// CONFIG_PATH or found in DefaultPaths, then environment variables.
// Returns ErrMissingCredentials if the Spotify credentials are not set.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("loading defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("loading environment: %w", err)
	}

	if err := splitSliceFields(k); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and value ranges.
func (c *Config) Validate() error {
	if c.Spotify.ClientID == "" || c.Spotify.ClientSecret == "" {
		return ErrMissingCredentials
	}

	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("invalid config %s: failed %q", fe.Namespace(), fe.Tag())
		}
		return fmt.Errorf("validating config: %w", err)
	}
	return nil
}

func findConfigFile() string {
	if path := os.Getenv(PathEnvVar); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	for _, path := range DefaultPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceFields are read from the environment as comma-separated lists.
var sliceFields = []string{"server.cors_origins"}

func splitSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceFields {
		raw, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := make([]string, 0)
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				parts = append(parts, p)
			}
		}
		if err := k.Set(path, parts); err != nil {
			return fmt.Errorf("setting %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	"spotify_id":            "spotify.client_id",
	"spotify_secret":        "spotify.client_secret",
	"spotify_token_url":     "spotify.token_url",
	"spotify_api_url":       "spotify.base_url",
	"spotify_search_limit":  "spotify.search_limit",
	"spotify_timeout":       "spotify.timeout",
	"youtube_api_key":       "youtube.api_key",
	"youtube_watch_url":     "youtube.watch_url",
	"youtube_results_url":   "youtube.results_url",
	"youtube_timeout":       "youtube.timeout",
	"youtube_breaker_fails": "youtube.breaker_failures",
	"youtube_breaker_reset": "youtube.breaker_cooldown",
	"classifier_provider":   "classifier.provider",
	"google_vision_api_key": "classifier.vision_api_key",
	"aws_region":            "classifier.aws_region",
	"recommend_limit":       "recommend.limit",
	"recommend_concurrency": "recommend.concurrency",
	"http_addr":             "server.addr",
	"max_upload_bytes":      "server.max_upload_bytes",
	"rate_limit_requests":   "server.rate_limit",
	"rate_limit_window":     "server.rate_window",
	"cors_origins":          "server.cors_origins",
	"log_level":             "logging.level",
	"log_format":            "logging.format",
	"log_caller":            "logging.caller",
	"kakao_app_key":         "share.kakao_app_key",
}

// envTransform maps known environment variable names to config paths.
// Unknown variables are dropped.
func envTransform(key string) string {
	return envMappings[strings.ToLower(key)]
}
