// Package raster re-encodes images as PNG for clipboard export.
package raster

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DetectFormat sniffs the media type of data.
func DetectFormat(data []byte) string {
	return mimetype.Detect(data).String()
}

// EncodePNG decodes data in any registered format and writes it to w as PNG.
// PNG input is copied through unchanged.
func EncodePNG(w io.Writer, data []byte) (image.Rectangle, error) {
	mime := DetectFormat(data)
	if !strings.HasPrefix(mime, "image/") {
		return image.Rectangle{}, fmt.Errorf("not an image: %s", mime)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return image.Rectangle{}, fmt.Errorf("failed to decode %s image: %w", mime, err)
	}

	if format == "png" {
		if _, err := w.Write(data); err != nil {
			return image.Rectangle{}, fmt.Errorf("failed to write png: %w", err)
		}
		return img.Bounds(), nil
	}

	if err := png.Encode(w, img); err != nil {
		return image.Rectangle{}, fmt.Errorf("failed to encode png: %w", err)
	}
	return img.Bounds(), nil
}
