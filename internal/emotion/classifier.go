package emotion

import (
	"context"
	"errors"
)

var (
	// ErrNoFace is returned when the classifier found no face in the image.
	ErrNoFace = errors.New("no face detected")

	// ErrUnsupportedImage is returned when the upload is not a decodable image.
	ErrUnsupportedImage = errors.New("unsupported image format")
)

// Classifier detects the dominant facial emotion in an encoded image.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (Label, error)
	Name() string
}
