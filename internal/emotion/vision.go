package emotion

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/vision/v1"
)

// Vision likelihood enum values ranked so they can be compared.
var likelihoodRank = map[string]int{
	"UNKNOWN":       0,
	"VERY_UNLIKELY": 1,
	"UNLIKELY":      2,
	"POSSIBLE":      3,
	"LIKELY":        4,
	"VERY_LIKELY":   5,
}

// rankPossible is the minimum rank for an emotion to count as present.
const rankPossible = 3

// VisionClassifier classifies faces with the Google Cloud Vision API.
// Vision only reports joy, sorrow, anger and surprise, so disgust and fear
// are never produced by this provider.
type VisionClassifier struct {
	service *vision.Service
}

// NewVisionClassifier creates a Vision-backed classifier. An empty apiKey
// falls back to Application Default Credentials.
func NewVisionClassifier(ctx context.Context, apiKey string, opts ...option.ClientOption) (*VisionClassifier, error) {
	if apiKey != "" {
		opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	}

	svc, err := vision.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating vision service: %w", err)
	}

	return &VisionClassifier{service: svc}, nil
}

// Name returns the provider name.
func (c *VisionClassifier) Name() string {
	return "vision"
}

// Classify returns the dominant emotion of the most confidently detected face.
func (c *VisionClassifier) Classify(ctx context.Context, image []byte) (Label, error) {
	req := &vision.BatchAnnotateImagesRequest{
		Requests: []*vision.AnnotateImageRequest{
			{
				Image: &vision.Image{Content: base64.StdEncoding.EncodeToString(image)},
				Features: []*vision.Feature{
					{Type: "FACE_DETECTION", MaxResults: 10},
				},
			},
		},
	}

	resp, err := c.service.Images.Annotate(req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("annotating image: %w", err)
	}

	if len(resp.Responses) == 0 {
		return "", fmt.Errorf("annotating image: empty response")
	}

	r := resp.Responses[0]
	if r.Error != nil && r.Error.Message != "" {
		return "", fmt.Errorf("annotating image: %s (code %d)", r.Error.Message, r.Error.Code)
	}

	face := mostConfidentFace(r.FaceAnnotations)
	if face == nil {
		return "", ErrNoFace
	}

	return labelFromFace(face), nil
}

func mostConfidentFace(faces []*vision.FaceAnnotation) *vision.FaceAnnotation {
	var best *vision.FaceAnnotation
	for _, f := range faces {
		if f == nil {
			continue
		}
		if best == nil || f.DetectionConfidence > best.DetectionConfidence {
			best = f
		}
	}
	return best
}

// labelFromFace picks the emotion with the highest likelihood. Ties resolve
// in the order happy, sad, angry, surprise.
func labelFromFace(face *vision.FaceAnnotation) Label {
	candidates := []struct {
		label      Label
		likelihood string
	}{
		{Happy, face.JoyLikelihood},
		{Sad, face.SorrowLikelihood},
		{Angry, face.AngerLikelihood},
		{Surprise, face.SurpriseLikelihood},
	}

	best := Neutral
	bestRank := rankPossible - 1
	for _, c := range candidates {
		if rank := likelihoodRank[c.likelihood]; rank > bestRank {
			best = c.label
			bestRank = rank
		}
	}
	return best
}
