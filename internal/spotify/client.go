// Package spotify searches the Spotify catalog for tracks using the
// client-credentials flow.
package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/justestif/go-mood-tunes/internal/metrics"
	"github.com/justestif/go-mood-tunes/internal/recommend"
)

const (
	// DefaultLimit is the most tracks a single search returns.
	DefaultLimit = 50

	defaultBaseURL = "https://api.spotify.com/v1/"
	defaultTimeout = 10 * time.Second
)

// ErrEmptyQuery is returned when SearchTracks is called with an empty keyword.
var ErrEmptyQuery = errors.New("empty search keyword")

// Config holds Spotify API configuration.
type Config struct {
	ClientID     string
	ClientSecret string
	TokenURL     string        // default: spotifyauth.TokenURL
	BaseURL      string        // default: https://api.spotify.com/v1/
	Limit        int           // default: 50
	Timeout      time.Duration // default: 10s
}

// Client searches the catalog with app-only credentials. It holds no token
// between calls; every search performs its own credential exchange.
type Client struct {
	clientID     string
	clientSecret string
	tokenURL     string
	baseURL      string
	limit        int
	httpClient   *http.Client
}

// NewClient creates a new catalog client from the provided configuration.
func NewClient(cfg *Config) *Client {
	c := &Client{
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		tokenURL:     cfg.TokenURL,
		baseURL:      cfg.BaseURL,
		limit:        cfg.Limit,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
	}
	if c.tokenURL == "" {
		c.tokenURL = spotifyauth.TokenURL
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.limit <= 0 || c.limit > DefaultLimit {
		c.limit = DefaultLimit
	}
	if c.httpClient.Timeout <= 0 {
		c.httpClient.Timeout = defaultTimeout
	}
	return c
}

// SearchTracks obtains an access token and runs a track search for keyword.
// Tracks come back in catalog order with artist names in catalog order.
func (c *Client) SearchTracks(ctx context.Context, keyword string) ([]recommend.Track, error) {
	if keyword == "" {
		return nil, ErrEmptyQuery
	}

	api, err := c.authenticate(ctx)
	if err != nil {
		metrics.CatalogSearches.WithLabelValues("error").Inc()
		return nil, err
	}

	result, err := api.Search(ctx, keyword, spotify.SearchTypeTrack, spotify.Limit(c.limit))
	if err != nil {
		metrics.CatalogSearches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("searching tracks: %w", err)
	}

	tracks := convertSearchResult(result)
	if len(tracks) == 0 {
		metrics.CatalogSearches.WithLabelValues("empty").Inc()
	} else {
		metrics.CatalogSearches.WithLabelValues("ok").Inc()
	}
	return tracks, nil
}

// authenticate exchanges the client credentials for a token and returns an
// API client bound to it.
func (c *Client) authenticate(ctx context.Context) (*spotify.Client, error) {
	cfg := &clientcredentials.Config{
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		TokenURL:     c.tokenURL,
		AuthStyle:    oauth2.AuthStyleInHeader,
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
	token, err := cfg.Token(ctx)
	if err != nil {
		return nil, fmt.Errorf("requesting access token: %w", err)
	}

	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	httpClient.Timeout = c.httpClient.Timeout

	return spotify.New(httpClient, spotify.WithBaseURL(c.baseURL)), nil
}
