// Command mood-tunes runs the photo-to-playlist web application.
package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/justestif/go-mood-tunes/internal/config"
	"github.com/justestif/go-mood-tunes/internal/emotion"
	"github.com/justestif/go-mood-tunes/internal/keywords"
	"github.com/justestif/go-mood-tunes/internal/logging"
	"github.com/justestif/go-mood-tunes/internal/recommend"
	"github.com/justestif/go-mood-tunes/internal/spotify"
	"github.com/justestif/go-mood-tunes/internal/web"
	"github.com/justestif/go-mood-tunes/internal/youtube"
	webfs "github.com/justestif/go-mood-tunes/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env file is fine; real deployments use the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	cfg, err := config.Load()
	if errors.Is(err, config.ErrMissingCredentials) {
		return fmt.Errorf("please set SPOTIFY_ID and SPOTIFY_SECRET environment variables")
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	ctx := context.Background()

	classifier, err := newClassifier(ctx, cfg.Classifier)
	if err != nil {
		return err
	}

	catalog := spotify.NewClient(&spotify.Config{
		ClientID:     cfg.Spotify.ClientID,
		ClientSecret: cfg.Spotify.ClientSecret,
		TokenURL:     cfg.Spotify.TokenURL,
		BaseURL:      cfg.Spotify.BaseURL,
		Limit:        cfg.Spotify.SearchLimit,
		Timeout:      cfg.Spotify.Timeout,
	})

	videos, err := youtube.NewResolver(ctx, youtube.Config{
		APIKey:          cfg.YouTube.APIKey,
		WatchURL:        cfg.YouTube.WatchURL,
		ResultsURL:      cfg.YouTube.ResultsURL,
		Timeout:         cfg.YouTube.Timeout,
		BreakerFailures: cfg.YouTube.BreakerFailures,
		BreakerCooldown: cfg.YouTube.BreakerCooldown,
	})
	if err != nil {
		return fmt.Errorf("creating video resolver: %w", err)
	}
	if cfg.YouTube.APIKey == "" {
		logging.Warn().Msg("YOUTUBE_API_KEY not set, all links will be search-results links")
	}

	pipeline := recommend.NewPipeline(
		keywords.NewSelector(keywords.DefaultTable(), nil),
		catalog,
		videos,
		recommend.WithLimit(cfg.Recommend.Limit),
		recommend.WithConcurrency(cfg.Recommend.Concurrency),
	)

	templates, err := fs.Sub(webfs.TemplatesFS, "templates")
	if err != nil {
		return fmt.Errorf("creating templates filesystem: %w", err)
	}

	static, err := fs.Sub(webfs.StaticFS, "static")
	if err != nil {
		return fmt.Errorf("creating static filesystem: %w", err)
	}

	server, err := web.NewServer(web.ServerConfig{
		Addr:            cfg.Server.Addr,
		TemplatesFS:     templates,
		StaticFS:        static,
		Classifier:      classifier,
		Recommender:     pipeline,
		MaxUploadBytes:  cfg.Server.MaxUploadBytes,
		ReadTimeout:     cfg.Server.ReadTimeout,
		WriteTimeout:    cfg.Server.WriteTimeout,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		RateLimit:       cfg.Server.RateLimit,
		RateWindow:      cfg.Server.RateWindow,
		CORSOrigins:     cfg.Server.CORSOrigins,
		KakaoAppKey:     cfg.Share.KakaoAppKey,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}

	logging.Info().
		Str("classifier", classifier.Name()).
		Int("limit", cfg.Recommend.Limit).
		Msg("mood-tunes ready")

	return server.Run()
}

func newClassifier(ctx context.Context, cfg config.ClassifierConfig) (emotion.Classifier, error) {
	switch cfg.Provider {
	case "rekognition":
		c, err := emotion.NewRekognitionClassifier(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("creating rekognition classifier: %w", err)
		}
		return c, nil
	default:
		c, err := emotion.NewVisionClassifier(ctx, cfg.VisionAPIKey)
		if err != nil {
			return nil, fmt.Errorf("creating vision classifier: %w", err)
		}
		return c, nil
	}
}
