package recommend

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/justestif/go-mood-tunes/internal/emotion"
	"github.com/justestif/go-mood-tunes/internal/logging"
	"github.com/justestif/go-mood-tunes/internal/metrics"
)

// DefaultConcurrency bounds parallel video lookups per run.
const DefaultConcurrency = 5

// Pipeline composes keyword selection, catalog search, sampling and video
// resolution. It keeps no state between runs apart from its random source,
// so one Pipeline can serve concurrent requests.
type Pipeline struct {
	keywords    KeywordSelector
	catalog     TrackSearcher
	videos      VideoResolver
	limit       int
	concurrency int

	mu  sync.Mutex
	rng *rand.Rand
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLimit sets the maximum number of recommendations per run.
func WithLimit(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.limit = n
		}
	}
}

// WithConcurrency sets how many video lookups may run at once.
func WithConcurrency(n int) Option {
	return func(p *Pipeline) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithRand sets the random source used for sampling.
func WithRand(rng *rand.Rand) Option {
	return func(p *Pipeline) {
		if rng != nil {
			p.rng = rng
		}
	}
}

// NewPipeline creates a recommendation pipeline.
func NewPipeline(keywords KeywordSelector, catalog TrackSearcher, videos VideoResolver, opts ...Option) *Pipeline {
	p := &Pipeline{
		keywords:    keywords,
		catalog:     catalog,
		videos:      videos,
		limit:       DefaultLimit,
		concurrency: DefaultConcurrency,
		rng:         rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Recommend runs the pipeline once for label. It never fails: a catalog
// error is returned in Result.Warning alongside an empty list, and video
// lookup failures are absorbed by the resolver's fallback links.
func (p *Pipeline) Recommend(ctx context.Context, label emotion.Label) Result {
	start := time.Now()
	defer func() { metrics.PipelineDuration.Observe(time.Since(start).Seconds()) }()

	res := Result{
		RunID:           uuid.New(),
		Emotion:         label,
		Recommendations: []Recommendation{},
	}
	log := logging.With().Str("run_id", res.RunID.String()).Str("emotion", label.String()).Logger()

	res.Keyword = p.keywords.Select(label)
	log.Debug().Str("keyword", res.Keyword).Msg("selected keyword")

	tracks, err := p.catalog.SearchTracks(ctx, res.Keyword)
	if err != nil {
		log.Warn().Err(err).Str("keyword", res.Keyword).Msg("catalog search failed")
		metrics.PipelineRuns.WithLabelValues("catalog_error").Inc()
		res.Warning = fmt.Errorf("searching catalog for %q: %w", res.Keyword, err)
		return res
	}
	if len(tracks) == 0 {
		log.Info().Str("keyword", res.Keyword).Msg("catalog returned no tracks")
		metrics.PipelineRuns.WithLabelValues("empty").Inc()
		return res
	}

	p.mu.Lock()
	selected := SelectUnique(tracks, p.limit, p.rng)
	p.mu.Unlock()

	res.Recommendations = p.resolve(ctx, selected)

	outcome := "ok"
	if len(res.Recommendations) < p.limit {
		outcome = "short"
	}
	metrics.PipelineRuns.WithLabelValues(outcome).Inc()
	log.Info().
		Str("keyword", res.Keyword).
		Int("candidates", len(tracks)).
		Int("recommendations", len(res.Recommendations)).
		Dur("elapsed", time.Since(start)).
		Msg("recommendations ready")

	return res
}

// resolve looks up video links in parallel. Results are written by index so
// the output keeps the order of tracks.
func (p *Pipeline) resolve(ctx context.Context, tracks []Track) []Recommendation {
	out := make([]Recommendation, len(tracks))

	var g errgroup.Group
	g.SetLimit(p.concurrency)
	for i, t := range tracks {
		g.Go(func() error {
			out[i] = Recommendation{
				Label: t.Label(),
				Link:  p.videos.Resolve(ctx, t.Query()),
			}
			return nil
		})
	}
	_ = g.Wait() // workers never return errors

	return out
}
