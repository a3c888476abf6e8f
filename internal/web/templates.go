package web

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path/filepath"

	"github.com/justestif/go-mood-tunes/internal/emotion"
	"github.com/justestif/go-mood-tunes/internal/recommend"
)

// Templates manages HTML template rendering.
type Templates struct {
	templates map[string]*template.Template
	funcs     template.FuncMap
}

// NewTemplates creates a new template manager by loading templates from the given filesystem.
func NewTemplates(templatesFS fs.FS) (*Templates, error) {
	t := &Templates{
		templates: make(map[string]*template.Template),
		funcs:     defaultFuncs(),
	}

	if err := t.load(templatesFS); err != nil {
		return nil, err
	}

	return t, nil
}

// Render renders a page template with the given data.
func (t *Templates) Render(w io.Writer, page string, data any) error {
	tmpl, ok := t.templates[page]
	if !ok {
		return fmt.Errorf("template %q not found", page)
	}

	return tmpl.ExecuteTemplate(w, "base", data)
}

// load parses every page together with the layouts and partials.
func (t *Templates) load(templatesFS fs.FS) error {
	layouts, err := fs.Glob(templatesFS, "layouts/*.html")
	if err != nil {
		return fmt.Errorf("finding layouts: %w", err)
	}

	partials, err := fs.Glob(templatesFS, "partials/*.html")
	if err != nil {
		return fmt.Errorf("finding partials: %w", err)
	}

	pages, err := fs.Glob(templatesFS, "pages/*.html")
	if err != nil {
		return fmt.Errorf("finding pages: %w", err)
	}

	commonFiles := append(layouts, partials...)

	for _, page := range pages {
		name := filepath.Base(page)
		name = name[:len(name)-len(".html")]

		files := append([]string{page}, commonFiles...)

		tmpl, err := template.New(name).Funcs(t.funcs).ParseFS(templatesFS, files...)
		if err != nil {
			return fmt.Errorf("parsing template %s: %w", name, err)
		}
		t.templates[name] = tmpl
	}

	return nil
}

var emotionEmoji = map[emotion.Label]string{
	emotion.Angry:    "😠",
	emotion.Disgust:  "🤢",
	emotion.Fear:     "😨",
	emotion.Happy:    "😄",
	emotion.Sad:      "😢",
	emotion.Surprise: "😲",
	emotion.Neutral:  "😐",
}

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		// add adds two integers (for 1-based indexing in loops)
		"add": func(a, b int) int {
			return a + b
		},

		"emotionEmoji": func(l emotion.Label) string {
			if e, ok := emotionEmoji[l]; ok {
				return e
			}
			return "🎵"
		},
	}
}

// PageData contains common data passed to all page templates.
type PageData struct {
	Title       string
	Flash       *FlashMessage
	CurrentPath string
}

// FlashMessage represents a temporary notification message.
type FlashMessage struct {
	Type    string // "error", "warning", "info"
	Message string
}

// HomePageData contains data for the upload page template.
type HomePageData struct {
	PageData
	Accept      string
	AcceptLabel string
	MaxUploadMB int64
}

// ResultsPageData contains data for the results page template.
type ResultsPageData struct {
	PageData
	Photo           template.URL
	Emotion         emotion.Label
	Keyword         string
	Recommendations []recommend.Recommendation
	KakaoAppKey     string
	ShareText       string
}
