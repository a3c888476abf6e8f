// Package youtube resolves track search phrases to YouTube video links.
package youtube

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/justestif/go-mood-tunes/internal/logging"
	"github.com/justestif/go-mood-tunes/internal/metrics"
)

const (
	// DefaultWatchURL is the prefix for direct video links.
	DefaultWatchURL = "https://www.youtube.com/watch"

	// DefaultResultsURL is the prefix for search-results fallback links.
	DefaultResultsURL = "https://www.youtube.com/results"

	breakerName = "youtube-search"
)

var (
	// ErrNoMatch is returned by Lookup when the search answered with no videos.
	ErrNoMatch = errors.New("no matching video")

	// ErrNotConfigured is returned by Lookup when no API key was provided.
	ErrNotConfigured = errors.New("youtube search not configured")
)

// Config holds resolver settings.
type Config struct {
	APIKey     string
	WatchURL   string
	ResultsURL string

	// Timeout bounds a single search call. Zero means no extra deadline.
	Timeout time.Duration

	// BreakerFailures is the number of consecutive failed lookups that
	// opens the circuit. Zero disables the breaker.
	BreakerFailures uint32

	// BreakerCooldown is how long the circuit stays open.
	BreakerCooldown time.Duration
}

// Resolver finds a video for a search phrase and falls back to a
// search-results link whenever that is not possible.
type Resolver struct {
	service    *youtube.Service
	watchURL   string
	resultsURL string
	timeout    time.Duration
	breaker    *gobreaker.CircuitBreaker[string]
}

// NewResolver creates a Resolver. With an empty API key and no client
// options the resolver never calls the API and only produces fallback links.
func NewResolver(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Resolver, error) {
	r := &Resolver{
		watchURL:   fallbackIfEmpty(cfg.WatchURL, DefaultWatchURL),
		resultsURL: fallbackIfEmpty(cfg.ResultsURL, DefaultResultsURL),
		timeout:    cfg.Timeout,
	}

	if cfg.APIKey != "" || len(opts) > 0 {
		if cfg.APIKey != "" {
			opts = append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, opts...)
		}
		svc, err := youtube.NewService(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("creating youtube service: %w", err)
		}
		r.service = svc
	}

	if cfg.BreakerFailures > 0 {
		r.breaker = newBreaker(cfg.BreakerFailures, cfg.BreakerCooldown)
	}

	return r, nil
}

func newBreaker(failures uint32, cooldown time.Duration) *gobreaker.CircuitBreaker[string] {
	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// An empty result is a valid answer, not a failing service.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNoMatch)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state change")
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
		},
	})
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// Resolve returns a watch link for the first video matching query, or the
// search-results fallback link if there is no match or the lookup failed.
func (r *Resolver) Resolve(ctx context.Context, query string) string {
	link, err := r.Lookup(ctx, query)
	if err == nil {
		metrics.VideoResolutions.WithLabelValues("watch").Inc()
		return link
	}

	switch {
	case errors.Is(err, ErrNoMatch):
		metrics.VideoResolutions.WithLabelValues("fallback_no_match").Inc()
		logging.Debug().Str("query", query).Msg("no video match, using search link")
	case errors.Is(err, ErrNotConfigured):
		metrics.VideoResolutions.WithLabelValues("fallback_unconfigured").Inc()
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.VideoResolutions.WithLabelValues("fallback_open_circuit").Inc()
		logging.Debug().Str("query", query).Msg("video search circuit open, using search link")
	default:
		metrics.VideoResolutions.WithLabelValues("fallback_error").Inc()
		logging.Warn().Err(err).Str("query", query).Msg("video search failed, using search link")
	}

	return r.FallbackURL(query)
}

// Lookup returns a watch link for the first video matching query. It
// returns ErrNoMatch when the search succeeded with no results, and a
// wrapped error when the call itself failed.
func (r *Resolver) Lookup(ctx context.Context, query string) (string, error) {
	if r.service == nil {
		return "", ErrNotConfigured
	}

	if r.breaker == nil {
		return r.search(ctx, query)
	}
	return r.breaker.Execute(func() (string, error) {
		return r.search(ctx, query)
	})
}

func (r *Resolver) search(ctx context.Context, query string) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	resp, err := r.service.Search.List([]string{"snippet"}).
		Q(query).
		MaxResults(1).
		Type("video").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("searching videos: %w", err)
	}

	for _, item := range resp.Items {
		if item != nil && item.Id != nil && item.Id.VideoId != "" {
			return r.WatchURL(item.Id.VideoId), nil
		}
	}
	return "", ErrNoMatch
}

// WatchURL builds the direct link for a video ID.
func (r *Resolver) WatchURL(videoID string) string {
	return r.watchURL + "?" + url.Values{"v": {videoID}}.Encode()
}

// FallbackURL builds the search-results link for query. It depends on
// nothing but the query, so it is always available.
func (r *Resolver) FallbackURL(query string) string {
	return r.resultsURL + "?search_query=" + queryEscaper.Replace(url.QueryEscape(query))
}

// queryEscaper turns form encoding into percent encoding: spaces become %20
// and slashes stay literal.
var queryEscaper = strings.NewReplacer("+", "%20", "%2F", "/")

func fallbackIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return strings.TrimRight(value, "?")
}
