package emotion

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
)

// FaceDetector is the subset of the Rekognition client used for classification.
type FaceDetector interface {
	DetectFaces(ctx context.Context, params *rekognition.DetectFacesInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectFacesOutput, error)
}

var rekognitionLabels = map[types.EmotionName]Label{
	types.EmotionNameHappy:     Happy,
	types.EmotionNameSad:       Sad,
	types.EmotionNameAngry:     Angry,
	types.EmotionNameDisgusted: Disgust,
	types.EmotionNameFear:      Fear,
	types.EmotionNameSurprised: Surprise,
	types.EmotionNameCalm:      Neutral,
	types.EmotionNameConfused:  Neutral,
}

// RekognitionClassifier classifies faces with AWS Rekognition DetectFaces.
type RekognitionClassifier struct {
	client FaceDetector
}

// NewRekognitionClassifier loads the default AWS configuration for region and
// builds a classifier around a Rekognition client.
func NewRekognitionClassifier(ctx context.Context, region string) (*RekognitionClassifier, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	return NewRekognitionClassifierWithClient(rekognition.NewFromConfig(cfg)), nil
}

// NewRekognitionClassifierWithClient wraps an existing FaceDetector.
func NewRekognitionClassifierWithClient(client FaceDetector) *RekognitionClassifier {
	return &RekognitionClassifier{client: client}
}

// Name returns the provider name.
func (c *RekognitionClassifier) Name() string {
	return "rekognition"
}

// Classify returns the highest-confidence emotion of the most confident face.
func (c *RekognitionClassifier) Classify(ctx context.Context, image []byte) (Label, error) {
	out, err := c.client.DetectFaces(ctx, &rekognition.DetectFacesInput{
		Image:      &types.Image{Bytes: image},
		Attributes: []types.Attribute{types.AttributeAll},
	})
	if err != nil {
		return "", fmt.Errorf("detecting faces: %w", err)
	}

	var face *types.FaceDetail
	for i := range out.FaceDetails {
		f := &out.FaceDetails[i]
		if face == nil || aws.ToFloat32(f.Confidence) > aws.ToFloat32(face.Confidence) {
			face = f
		}
	}
	if face == nil {
		return "", ErrNoFace
	}

	return dominantRekognitionEmotion(face.Emotions), nil
}

func dominantRekognitionEmotion(emotions []types.Emotion) Label {
	var (
		best     types.EmotionName
		bestConf float32 = -1
	)
	for _, e := range emotions {
		if conf := aws.ToFloat32(e.Confidence); conf > bestConf {
			best = e.Type
			bestConf = conf
		}
	}

	if l, ok := rekognitionLabels[best]; ok {
		return l
	}
	return Unknown
}
