package emotion

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"golang.org/x/image/bmp"
	"google.golang.org/api/option"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input     string
		wantLabel Label
		wantKnown bool
	}{
		{"happy", Happy, true},
		{"  Sad ", Sad, true},
		{"SURPRISE", Surprise, true},
		{"unknown", Unknown, true},
		{"zzz", Label("zzz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, known := Parse(tt.input)
			if got != tt.wantLabel {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.wantLabel)
			}
			if known != tt.wantKnown {
				t.Errorf("Parse(%q) known = %v, want %v", tt.input, known, tt.wantKnown)
			}
		})
	}
}

func TestLabelsReturnsCopy(t *testing.T) {
	l := Labels()
	if len(l) != 8 {
		t.Fatalf("Labels() returned %d labels, want 8", len(l))
	}
	l[0] = "mutated"
	if Labels()[0] != Angry {
		t.Error("Labels() exposes internal slice")
	}
}

func visionServer(t *testing.T, body any) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "images:annotate") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}))
}

func TestVisionClassifier(t *testing.T) {
	tests := []struct {
		name    string
		body    any
		want    Label
		wantErr error
	}{
		{
			name: "joy wins",
			body: map[string]any{"responses": []any{map[string]any{
				"faceAnnotations": []any{map[string]any{
					"detectionConfidence": 0.9,
					"joyLikelihood":       "VERY_LIKELY",
					"sorrowLikelihood":    "VERY_UNLIKELY",
					"angerLikelihood":     "UNLIKELY",
					"surpriseLikelihood":  "POSSIBLE",
				}},
			}}},
			want: Happy,
		},
		{
			name: "most confident face is used",
			body: map[string]any{"responses": []any{map[string]any{
				"faceAnnotations": []any{
					map[string]any{"detectionConfidence": 0.4, "joyLikelihood": "VERY_LIKELY"},
					map[string]any{"detectionConfidence": 0.95, "angerLikelihood": "LIKELY"},
				},
			}}},
			want: Angry,
		},
		{
			name: "nothing above possible is neutral",
			body: map[string]any{"responses": []any{map[string]any{
				"faceAnnotations": []any{map[string]any{
					"detectionConfidence": 0.8,
					"joyLikelihood":       "UNLIKELY",
					"sorrowLikelihood":    "VERY_UNLIKELY",
				}},
			}}},
			want: Neutral,
		},
		{
			name:    "no faces",
			body:    map[string]any{"responses": []any{map[string]any{}}},
			wantErr: ErrNoFace,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := visionServer(t, tt.body)
			defer server.Close()

			c, err := NewVisionClassifier(context.Background(), "",
				option.WithEndpoint(server.URL+"/"),
				option.WithHTTPClient(server.Client()),
			)
			if err != nil {
				t.Fatalf("NewVisionClassifier() error = %v", err)
			}

			got, err := c.Classify(context.Background(), []byte("img"))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Classify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVisionClassifierAPIError(t *testing.T) {
	server := visionServer(t, map[string]any{"responses": []any{map[string]any{
		"error": map[string]any{"code": 3, "message": "Bad image data"},
	}}})
	defer server.Close()

	c, err := NewVisionClassifier(context.Background(), "",
		option.WithEndpoint(server.URL+"/"),
		option.WithHTTPClient(server.Client()),
	)
	if err != nil {
		t.Fatalf("NewVisionClassifier() error = %v", err)
	}

	_, err = c.Classify(context.Background(), []byte("img"))
	if err == nil || !strings.Contains(err.Error(), "Bad image data") {
		t.Errorf("Classify() error = %v, want API error message", err)
	}
	if errors.Is(err, ErrNoFace) {
		t.Error("API error must not be reported as ErrNoFace")
	}
}

type fakeDetector struct {
	out *rekognition.DetectFacesOutput
	err error
	got *rekognition.DetectFacesInput
}

func (f *fakeDetector) DetectFaces(_ context.Context, in *rekognition.DetectFacesInput, _ ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error) {
	f.got = in
	return f.out, f.err
}

func TestRekognitionClassifier(t *testing.T) {
	tests := []struct {
		name    string
		faces   []types.FaceDetail
		err     error
		want    Label
		wantErr bool
	}{
		{
			name: "disgust",
			faces: []types.FaceDetail{{
				Confidence: aws.Float32(99),
				Emotions: []types.Emotion{
					{Type: types.EmotionNameCalm, Confidence: aws.Float32(10)},
					{Type: types.EmotionNameDisgusted, Confidence: aws.Float32(80)},
				},
			}},
			want: Disgust,
		},
		{
			name: "calm maps to neutral",
			faces: []types.FaceDetail{{
				Confidence: aws.Float32(99),
				Emotions:   []types.Emotion{{Type: types.EmotionNameCalm, Confidence: aws.Float32(90)}},
			}},
			want: Neutral,
		},
		{
			name: "most confident face wins",
			faces: []types.FaceDetail{
				{Confidence: aws.Float32(50), Emotions: []types.Emotion{{Type: types.EmotionNameHappy, Confidence: aws.Float32(99)}}},
				{Confidence: aws.Float32(98), Emotions: []types.Emotion{{Type: types.EmotionNameFear, Confidence: aws.Float32(70)}}},
			},
			want: Fear,
		},
		{
			name:  "no emotions is unknown",
			faces: []types.FaceDetail{{Confidence: aws.Float32(90)}},
			want:  Unknown,
		},
		{
			name:    "no faces",
			faces:   nil,
			wantErr: true,
		},
		{
			name:    "transport error",
			err:     errors.New("connection reset"),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeDetector{out: &rekognition.DetectFacesOutput{FaceDetails: tt.faces}, err: tt.err}
			c := NewRekognitionClassifierWithClient(fake)

			got, err := c.Classify(context.Background(), []byte("img"))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Classify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Classify() = %q, want %q", got, tt.want)
			}
			if fake.got == nil || string(fake.got.Image.Bytes) != "img" {
				t.Error("DetectFaces was not called with the image bytes")
			}
		})
	}
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for x := 0; x < 4; x++ {
		img.Set(x, x, color.RGBA{R: 200, A: 255})
	}
	return img
}

func TestNormalize(t *testing.T) {
	var pngBuf, jpegBuf, bmpBuf bytes.Buffer
	if err := png.Encode(&pngBuf, testImage()); err != nil {
		t.Fatal(err)
	}
	if err := jpeg.Encode(&jpegBuf, testImage(), nil); err != nil {
		t.Fatal(err)
	}
	if err := bmp.Encode(&bmpBuf, testImage()); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name        string
		data        []byte
		wantFormat  string
		passThrough bool
		wantErr     error
	}{
		{"png passes through", pngBuf.Bytes(), "png", true, nil},
		{"jpeg passes through", jpegBuf.Bytes(), "jpeg", true, nil},
		{"bmp becomes png", bmpBuf.Bytes(), "png", false, nil},
		{"garbage rejected", []byte("not an image"), "", false, ErrUnsupportedImage},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, format, err := Normalize(tt.data)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Normalize() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr != nil {
				return
			}
			if format != tt.wantFormat {
				t.Errorf("format = %q, want %q", format, tt.wantFormat)
			}
			if tt.passThrough && !bytes.Equal(out, tt.data) {
				t.Error("expected input bytes to pass through unchanged")
			}
			if _, err := png.Decode(bytes.NewReader(out)); tt.wantFormat == "png" && err != nil {
				t.Errorf("output is not valid png: %v", err)
			}
		})
	}
}
