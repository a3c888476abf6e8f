package web

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/justestif/go-mood-tunes/internal/emotion"
	"github.com/justestif/go-mood-tunes/internal/logging"
	"github.com/justestif/go-mood-tunes/internal/metrics"
	"github.com/justestif/go-mood-tunes/internal/recommend"
)

const (
	pageTitle = "Mood Tunes"
	formField = "image"
)

var allowedExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".gif", ".webp"}

// Upload errors.
var (
	errUploadTooLarge  = errors.New("image is too large")
	errMissingImage    = errors.New("no image uploaded")
	errUnsupportedType = errors.New("only png, jpg, jpeg, bmp, gif and webp images are accepted")
)

// HandlerOptions holds per-deployment handler settings.
type HandlerOptions struct {
	MaxUploadBytes int64
	KakaoAppKey    string
}

// Handlers contains HTTP handlers for the web application.
type Handlers struct {
	classifier  emotion.Classifier
	recommender Recommender
	templates   *Templates
	validate    *validator.Validate
	opts        HandlerOptions
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(classifier emotion.Classifier, recommender Recommender, templates *Templates, opts HandlerOptions) *Handlers {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUploadBytes
	}
	return &Handlers{
		classifier:  classifier,
		recommender: recommender,
		templates:   templates,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		opts:        opts,
	}
}

// Home handles the upload page (GET /).
func (h *Handlers) Home(w http.ResponseWriter, r *http.Request) {
	h.renderHome(w, r, http.StatusOK, nil)
}

// Recommend handles an image upload from the HTML form (POST /recommend).
func (h *Handlers) Recommend(w http.ResponseWriter, r *http.Request) {
	data, err := h.readUpload(w, r)
	if err != nil {
		h.renderHome(w, r, uploadStatus(err), &FlashMessage{Type: "error", Message: uploadMessage(err)})
		return
	}

	label, pic, err := h.analyze(r.Context(), data)
	if err != nil {
		status, msg := classifyStatus(err)
		h.renderHome(w, r, status, &FlashMessage{Type: "error", Message: msg})
		return
	}

	res := h.recommender.Recommend(r.Context(), label)

	page := ResultsPageData{
		PageData: PageData{
			Title:       pageTitle + " - " + string(label),
			CurrentPath: r.URL.Path,
		},
		Photo:           pic.dataURL(),
		Emotion:         res.Emotion,
		Keyword:         res.Keyword,
		Recommendations: res.Recommendations,
		KakaoAppKey:     h.opts.KakaoAppKey,
		ShareText:       fmt.Sprintf("My mood today is %s. Here is what I'm listening to.", res.Emotion),
	}
	if res.Warning != nil {
		page.Flash = &FlashMessage{Type: "warning", Message: "Could not reach the music catalog. Please try again."}
	}

	h.render(w, http.StatusOK, "results", page)
}

// recommendRequest is the body of POST /api/recommendations.
type recommendRequest struct {
	Emotion string `json:"emotion" validate:"required,max=64"`
}

// recommendResponse is the JSON form of a pipeline result.
type recommendResponse struct {
	RunID           string                     `json:"run_id"`
	Emotion         string                     `json:"emotion"`
	Keyword         string                     `json:"keyword"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	Warning         string                     `json:"warning,omitempty"`
}

// APIRecommendations runs the pipeline for a given label (POST /api/recommendations).
func (h *Handlers) APIRecommendations(w http.ResponseWriter, r *http.Request) {
	var req recommendRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, 4<<10))
	if err := dec.Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.Emotion = strings.TrimSpace(req.Emotion)
	if err := h.validate.Struct(req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "emotion is required (max 64 characters)")
		return
	}

	label, _ := emotion.Parse(req.Emotion)
	writeJSON(w, http.StatusOK, toResponse(h.recommender.Recommend(r.Context(), label)))
}

// APIAnalyze classifies an uploaded image and runs the pipeline (POST /api/analyze).
func (h *Handlers) APIAnalyze(w http.ResponseWriter, r *http.Request) {
	data, err := h.readUpload(w, r)
	if err != nil {
		writeJSONError(w, uploadStatus(err), uploadMessage(err))
		return
	}

	label, _, err := h.analyze(r.Context(), data)
	if err != nil {
		status, msg := classifyStatus(err)
		writeJSONError(w, status, msg)
		return
	}

	writeJSON(w, http.StatusOK, toResponse(h.recommender.Recommend(r.Context(), label)))
}

// Healthz reports liveness (GET /healthz).
func (h *Handlers) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readUpload reads the image form field, enforcing the size cap and the
// accepted file extensions.
func (h *Handlers) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)

	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			return nil, errUploadTooLarge
		}
		return nil, errMissingImage
	}

	file, header, err := r.FormFile(formField)
	if err != nil {
		return nil, errMissingImage
	}
	defer file.Close()

	if ext := strings.ToLower(filepath.Ext(header.Filename)); ext != "" && !slices.Contains(allowedExtensions, ext) {
		return nil, errUnsupportedType
	}

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) == 0 {
		return nil, errMissingImage
	}
	return data, nil
}

// photo is a normalised upload, echoed back on the results page.
type photo struct {
	data   []byte
	format string
}

func (p photo) dataURL() template.URL {
	if len(p.data) == 0 {
		return ""
	}
	return template.URL("data:image/" + p.format + ";base64," + base64.StdEncoding.EncodeToString(p.data))
}

// analyze normalises the image and classifies its dominant emotion.
func (h *Handlers) analyze(ctx context.Context, data []byte) (emotion.Label, photo, error) {
	provider := h.classifier.Name()

	img, format, err := emotion.Normalize(data)
	if err != nil {
		return "", photo{}, err
	}

	label, err := h.classifier.Classify(ctx, img)
	if err != nil {
		outcome := "error"
		if errors.Is(err, emotion.ErrNoFace) {
			outcome = "no_face"
		}
		metrics.Classifications.WithLabelValues(provider, outcome).Inc()
		logging.Warn().Err(err).
			Str("request_id", middleware.GetReqID(ctx)).
			Str("provider", provider).
			Str("format", format).
			Msg("emotion classification failed")
		return "", photo{}, err
	}

	metrics.Classifications.WithLabelValues(provider, "ok").Inc()
	metrics.DetectedEmotions.WithLabelValues(label.String()).Inc()
	logging.Info().
		Str("request_id", middleware.GetReqID(ctx)).
		Str("provider", provider).
		Str("emotion", label.String()).
		Msg("emotion detected")

	return label, photo{data: img, format: format}, nil
}

func (h *Handlers) renderHome(w http.ResponseWriter, r *http.Request, status int, flash *FlashMessage) {
	data := HomePageData{
		PageData: PageData{
			Title:       pageTitle,
			Flash:       flash,
			CurrentPath: r.URL.Path,
		},
		Accept:      strings.Join(allowedExtensions, ","),
		AcceptLabel: strings.ReplaceAll(strings.Join(allowedExtensions, ", "), ".", ""),
		MaxUploadMB: h.opts.MaxUploadBytes >> 20,
	}
	h.render(w, status, "home", data)
}

func (h *Handlers) render(w http.ResponseWriter, status int, page string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.templates.Render(w, page, data); err != nil {
		logging.Error().Err(err).Str("page", page).Msg("failed to render template")
	}
}

func toResponse(res recommend.Result) recommendResponse {
	out := recommendResponse{
		RunID:           res.RunID.String(),
		Emotion:         res.Emotion.String(),
		Keyword:         res.Keyword,
		Recommendations: res.Recommendations,
	}
	if out.Recommendations == nil {
		out.Recommendations = []recommend.Recommendation{}
	}
	if res.Warning != nil {
		out.Warning = "music catalog unavailable"
	}
	return out
}

func uploadStatus(err error) int {
	if errors.Is(err, errUploadTooLarge) {
		return http.StatusRequestEntityTooLarge
	}
	return http.StatusBadRequest
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, errUploadTooLarge), errors.Is(err, errMissingImage), errors.Is(err, errUnsupportedType):
		return err.Error()
	default:
		return "could not read the uploaded image"
	}
}

// classifyStatus maps a normalise or classify error to a status and message.
func classifyStatus(err error) (int, string) {
	switch {
	case errors.Is(err, emotion.ErrUnsupportedImage):
		return http.StatusBadRequest, "the file could not be read as an image"
	case errors.Is(err, emotion.ErrNoFace):
		return http.StatusUnprocessableEntity, "no face was found in the photo"
	default:
		return http.StatusUnprocessableEntity, "emotion analysis failed, please try another photo"
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode JSON response")
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
