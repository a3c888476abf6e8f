// Package recommend turns a dominant emotion into a short list of tracks with
// playable video links.
package recommend

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/justestif/go-mood-tunes/internal/emotion"
)

// DefaultLimit is the number of recommendations returned per run.
const DefaultLimit = 5

// Track is a catalog search hit.
type Track struct {
	Title   string
	Artists []string // catalog order
}

// ArtistLine joins artist names with ", ".
func (t Track) ArtistLine() string {
	return strings.Join(t.Artists, ", ")
}

// Label is the display label "<title> - <artists>".
func (t Track) Label() string {
	return t.Title + " - " + t.ArtistLine()
}

// Query is the video search phrase "<title> <artists>".
func (t Track) Query() string {
	return t.Title + " " + t.ArtistLine()
}

// Recommendation is one displayable result.
type Recommendation struct {
	Label string `json:"label"`
	Link  string `json:"link"`
}

// Result is the outcome of one pipeline run. Warning is set when the catalog
// search failed; Recommendations is then empty.
type Result struct {
	RunID           uuid.UUID        `json:"run_id"`
	Emotion         emotion.Label    `json:"emotion"`
	Keyword         string           `json:"keyword"`
	Recommendations []Recommendation `json:"recommendations"`
	Warning         error            `json:"-"`
}

// TrackSearcher searches the music catalog by keyword.
type TrackSearcher interface {
	SearchTracks(ctx context.Context, keyword string) ([]Track, error)
}

// VideoResolver turns a search phrase into a video link. It must always
// return a usable URL.
type VideoResolver interface {
	Resolve(ctx context.Context, query string) string
}

// KeywordSelector picks a search keyword for an emotion.
type KeywordSelector interface {
	Select(label emotion.Label) string
}
