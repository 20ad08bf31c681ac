// Package imaging decodes raw uploaded image bytes into the grayscale
// statistics the triage heuristic and predictor need.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// ErrInvalidImage marks malformed input. This is the only failure the
// gateway surfaces to callers as a user-visible error.
var ErrInvalidImage = errors.New("invalid image")

// Stats summarizes a decoded image: mean 8-bit luminance and pixel
// dimensions.
type Stats struct {
	Mean   float64
	Width  int
	Height int
}

// Decoder turns raw bytes into Stats.
type Decoder interface {
	Decode(data []byte) (Stats, error)
}

// StdDecoder decodes PNG, JPEG and GIF via the image registry.
type StdDecoder struct{}

var _ Decoder = StdDecoder{}

func (StdDecoder) Decode(data []byte) (Stats, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return Stats{}, fmt.Errorf("%w: empty bounds", ErrInvalidImage)
	}

	var sum uint64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			g := color.GrayModel.Convert(img.At(x, y)).(color.Gray)
			sum += uint64(g.Y)
		}
	}

	return Stats{
		Mean:   float64(sum) / float64(w*h),
		Width:  w,
		Height: h,
	}, nil
}
