// Package keywords maps emotion labels to mood-descriptive catalog search terms.
package keywords

import "github.com/justestif/go-mood-tunes/internal/emotion"

// Table maps an emotion label to its ordered list of synonyms.
type Table map[emotion.Label][]string

// defaultTable holds the curated synonym lists. The unknown label has no
// entry on purpose; it falls back to the label itself.
var defaultTable = Table{
	emotion.Angry: {
		"angry", "furious", "irate", "enraged", "incensed", "seething",
		"outraged", "aggressive", "hostile", "fuming", "passionate", "fiery",
		"intense", "explosive", "combative", "defiant",
	},
	emotion.Disgust: {
		"disgust", "repulsive", "revolting", "gross", "nauseating", "unpleasant",
		"sour", "offensive", "distasteful", "icky", "mucky", "vile", "yucky",
		"sordid", "repugnant", "abhorrent",
	},
	emotion.Fear: {
		"fear", "scary", "eerie", "ominous", "haunting", "anxious", "tense",
		"alarming", "terrifying", "frightening", "spooky", "unsettling",
		"apprehensive", "startling", "paralyzing", "nervous", "petrifying",
	},
	emotion.Happy: {
		"happy", "joyful", "uplifting", "cheerful", "feel good", "sunshine",
		"optimistic", "elated", "content", "delighted", "ecstatic", "radiant",
		"merry", "jubilant", "blissful", "exhilarated", "peppy", "vivacious",
	},
	emotion.Sad: {
		"sad", "melancholy", "blue", "soulful", "heartbroken", "down", "somber",
		"depressed", "mournful", "gloomy", "forlorn", "dismal", "despondent",
		"sorrowful", "wistful", "tragic",
	},
	emotion.Surprise: {
		"surprise", "unexpected", "exciting", "thrilling", "energetic",
		"astonishing", "startling", "amazing", "stunning", "shocking",
		"unforeseen", "unanticipated", "incredible", "breathtaking", "jaw-dropping",
	},
	emotion.Neutral: {
		"neutral", "chill", "ambient", "calm", "relaxing", "soothing", "balanced",
		"placid", "undisturbed", "composed", "collected", "unemotional", "serene",
		"steady", "even-tempered", "measured", "moderate",
	},
}

// DefaultTable returns a copy of the curated keyword table.
func DefaultTable() Table {
	return defaultTable.Clone()
}

// Clone returns a deep copy of t.
func (t Table) Clone() Table {
	out := make(Table, len(t))
	for label, words := range t {
		out[label] = append([]string(nil), words...)
	}
	return out
}

// Candidates returns the keyword list for label. A label with no entry (or an
// empty one) yields a single-element list containing the label itself.
func (t Table) Candidates(label emotion.Label) []string {
	if words, ok := t[label]; ok && len(words) > 0 {
		return words
	}
	return []string{string(label)}
}
