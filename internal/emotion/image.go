package emotion

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // register decoder
	_ "image/jpeg" // register decoder
	"image/png"

	_ "golang.org/x/image/bmp"  // register decoder
	_ "golang.org/x/image/webp" // register decoder
)

// Normalize checks that data is a decodable image and returns bytes in a
// format every classifier accepts. JPEG and PNG pass through untouched; BMP,
// GIF and WebP are re-encoded as PNG. The returned string is the resulting
// format name.
func Normalize(data []byte) ([]byte, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}

	switch format {
	case "jpeg", "png":
		return data, format, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("%w: decoding %s: %v", ErrUnsupportedImage, format, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, "", fmt.Errorf("re-encoding %s as png: %w", format, err)
	}

	return buf.Bytes(), "png", nil
}
