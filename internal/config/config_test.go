package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"
)

// clearEnv blanks every variable Load reads so the host environment cannot
// leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for name := range envMappings {
		t.Setenv(strings.ToUpper(name), "")
		os.Unsetenv(strings.ToUpper(name))
	}
	t.Setenv(PathEnvVar, "")
	os.Unsetenv(PathEnvVar)
}

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("SPOTIFY_ID", "id-123")
	t.Setenv("SPOTIFY_SECRET", "secret-456")
	t.Setenv("GOOGLE_VISION_API_KEY", "vision-key")
}

func TestLoadMissingCredentials(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		secret string
	}{
		{name: "both missing"},
		{name: "missing secret", id: "id-123"},
		{name: "missing id", secret: "secret-456"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("GOOGLE_VISION_API_KEY", "vision-key")
			if tt.id != "" {
				t.Setenv("SPOTIFY_ID", tt.id)
			}
			if tt.secret != "" {
				t.Setenv("SPOTIFY_SECRET", tt.secret)
			}

			cfg, err := Load()
			if !errors.Is(err, ErrMissingCredentials) {
				t.Errorf("Load() error = %v, want ErrMissingCredentials", err)
			}
			if cfg != nil {
				t.Error("Load() returned non-nil config with error")
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Spotify.ClientID != "id-123" || cfg.Spotify.ClientSecret != "secret-456" {
		t.Errorf("credentials = %q/%q", cfg.Spotify.ClientID, cfg.Spotify.ClientSecret)
	}
	if cfg.Spotify.SearchLimit != 50 {
		t.Errorf("Spotify.SearchLimit = %d, want 50", cfg.Spotify.SearchLimit)
	}
	if cfg.Recommend.Limit != 5 {
		t.Errorf("Recommend.Limit = %d, want 5", cfg.Recommend.Limit)
	}
	if cfg.YouTube.APIKey != "" {
		t.Errorf("YouTube.APIKey = %q, want empty", cfg.YouTube.APIKey)
	}
	if cfg.YouTube.BreakerFailures != 5 {
		t.Errorf("YouTube.BreakerFailures = %d, want 5", cfg.YouTube.BreakerFailures)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("Server.Addr = %q, want :8080", cfg.Server.Addr)
	}
	if cfg.Classifier.Provider != "vision" {
		t.Errorf("Classifier.Provider = %q, want vision", cfg.Classifier.Provider)
	}
	if !slices.Equal(cfg.Server.CORSOrigins, []string{"*"}) {
		t.Errorf("Server.CORSOrigins = %v, want [*]", cfg.Server.CORSOrigins)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	setRequired(t)
	t.Setenv("YOUTUBE_API_KEY", "yt-key")
	t.Setenv("YOUTUBE_TIMEOUT", "2s")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CLASSIFIER_PROVIDER", "rekognition")
	t.Setenv("AWS_REGION", "ap-northeast-2")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RECOMMEND_CONCURRENCY", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.YouTube.APIKey != "yt-key" {
		t.Errorf("YouTube.APIKey = %q, want yt-key", cfg.YouTube.APIKey)
	}
	if cfg.YouTube.Timeout != 2*time.Second {
		t.Errorf("YouTube.Timeout = %v, want 2s", cfg.YouTube.Timeout)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Classifier.Provider != "rekognition" || cfg.Classifier.AWSRegion != "ap-northeast-2" {
		t.Errorf("Classifier = %+v", cfg.Classifier)
	}
	if want := []string{"https://a.example", "https://b.example"}; !slices.Equal(cfg.Server.CORSOrigins, want) {
		t.Errorf("Server.CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if cfg.Recommend.Concurrency != 3 {
		t.Errorf("Recommend.Concurrency = %d, want 3", cfg.Recommend.Concurrency)
	}
}

func TestLoadFileThenEnv(t *testing.T) {
	clearEnv(t)
	setRequired(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  addr: ":7000"
  rate_limit: 5
youtube:
  api_key: from-file
  breaker_cooldown: 45s
share:
  kakao_app_key: kakao-from-file
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(PathEnvVar, path)
	t.Setenv("YOUTUBE_API_KEY", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != ":7000" {
		t.Errorf("Server.Addr = %q, want :7000 from file", cfg.Server.Addr)
	}
	if cfg.Server.RateLimit != 5 {
		t.Errorf("Server.RateLimit = %d, want 5", cfg.Server.RateLimit)
	}
	if cfg.YouTube.APIKey != "from-env" {
		t.Errorf("YouTube.APIKey = %q, env should win over file", cfg.YouTube.APIKey)
	}
	if cfg.YouTube.BreakerCooldown != 45*time.Second {
		t.Errorf("YouTube.BreakerCooldown = %v, want 45s", cfg.YouTube.BreakerCooldown)
	}
	if cfg.Share.KakaoAppKey != "kakao-from-file" {
		t.Errorf("Share.KakaoAppKey = %q", cfg.Share.KakaoAppKey)
	}
}

func TestLoadVisionWithoutKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPOTIFY_ID", "id-123")
	t.Setenv("SPOTIFY_SECRET", "secret-456")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v, want nil so Application Default Credentials can be used", err)
	}
	if cfg.Classifier.Provider != "vision" || cfg.Classifier.VisionAPIKey != "" {
		t.Errorf("Classifier = %+v, want vision provider with empty key", cfg.Classifier)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown provider",
			env:     map[string]string{"CLASSIFIER_PROVIDER": "opencv"},
			wantErr: "Provider",
		},
		{
			name:    "bad log format",
			env:     map[string]string{"LOG_FORMAT": "xml"},
			wantErr: "Format",
		},
		{
			name:    "search limit too high",
			env:     map[string]string{"SPOTIFY_SEARCH_LIMIT": "500"},
			wantErr: "SearchLimit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			if err == nil {
				t.Fatal("Load() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want mention of %s", err, tt.wantErr)
			}
		})
	}
}
