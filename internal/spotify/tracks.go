package spotify

import (
	"github.com/zmb3/spotify/v2"

	"github.com/justestif/go-mood-tunes/internal/recommend"
)

// convertSearchResult converts the track page of a search result, skipping
// entries without a title.
func convertSearchResult(result *spotify.SearchResult) []recommend.Track {
	if result == nil || result.Tracks == nil {
		return []recommend.Track{}
	}

	tracks := make([]recommend.Track, 0, len(result.Tracks.Tracks))
	for _, ft := range result.Tracks.Tracks {
		if ft.Name == "" {
			continue
		}
		tracks = append(tracks, convertTrack(ft))
	}
	return tracks
}

// convertTrack converts a Spotify FullTrack to recommend.Track.
func convertTrack(ft spotify.FullTrack) recommend.Track {
	artists := make([]string, 0, len(ft.Artists))
	for _, a := range ft.Artists {
		artists = append(artists, a.Name)
	}

	return recommend.Track{
		Title:   ft.Name,
		Artists: artists,
	}
}
