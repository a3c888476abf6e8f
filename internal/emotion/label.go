// Package emotion defines the dominant-emotion label set and the classifiers
// that extract it from a photograph.
package emotion

import "strings"

// Label is a dominant-emotion label.
type Label string

// The fixed label set produced by classifiers.
const (
	Angry    Label = "angry"
	Disgust  Label = "disgust"
	Fear     Label = "fear"
	Happy    Label = "happy"
	Sad      Label = "sad"
	Surprise Label = "surprise"
	Neutral  Label = "neutral"
	Unknown  Label = "unknown"
)

var labels = []Label{Angry, Disgust, Fear, Happy, Sad, Surprise, Neutral, Unknown}

// Labels returns the fixed label set in a stable order.
func Labels() []Label {
	out := make([]Label, len(labels))
	copy(out, labels)
	return out
}

// Known reports whether l belongs to the fixed label set.
func (l Label) Known() bool {
	for _, k := range labels {
		if l == k {
			return true
		}
	}
	return false
}

func (l Label) String() string {
	return string(l)
}

// Parse normalises s into a Label. The returned bool reports membership in
// the fixed set; unrecognised input is still returned so callers can pass it
// through as a free-form search term.
func Parse(s string) (Label, bool) {
	l := Label(strings.ToLower(strings.TrimSpace(s)))
	return l, l.Known()
}
