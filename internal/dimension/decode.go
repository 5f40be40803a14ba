package dimension

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/roboco-io/mdimg/internal/ir"
)

// ErrInvalidDimensions is returned when an image reports a non-positive size.
var ErrInvalidDimensions = errors.New("image reported invalid dimensions")

// FallbackDimensions is used for resource images that no strategy could measure.
var FallbackDimensions = ir.PixelDimensions{Width: 400, Height: 300}

// decodeDimensions reads just enough of r to learn the image size.
func decodeDimensions(r io.Reader) (ir.PixelDimensions, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return ir.PixelDimensions{}, fmt.Errorf("failed to decode image header: %w", err)
	}
	d := ir.PixelDimensions{Width: cfg.Width, Height: cfg.Height}
	if !d.Valid() {
		return ir.PixelDimensions{}, fmt.Errorf("%w: %s %s", ErrInvalidDimensions, format, d)
	}
	return d, nil
}
