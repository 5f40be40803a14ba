package dimension

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/roboco-io/mdimg/internal/ir"
)

// ErrInvalidDataURI is returned for data URIs that cannot be decoded.
var ErrInvalidDataURI = errors.New("invalid data URI")

// EncodeDataURI builds a base64 data URI, sniffing the media type from data.
func EncodeDataURI(data []byte) string {
	mime := mimetype.Detect(data)
	return "data:" + mime.String() + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURI splits a data URI into its media type and content.
func DecodeDataURI(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing comma", ErrInvalidDataURI)
	}

	mediaType := meta
	isBase64 := false
	if m, found := strings.CutSuffix(meta, ";base64"); found {
		mediaType = m
		isBase64 = true
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
		return mediaType, data, nil
	}

	unescaped, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return mediaType, []byte(unescaped), nil
}

// measureDataURI decodes an image carried in a data URI.
func measureDataURI(uri string) (ir.PixelDimensions, error) {
	mediaType, data, err := DecodeDataURI(uri)
	if err != nil {
		return ir.PixelDimensions{}, err
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return ir.PixelDimensions{}, fmt.Errorf("data URI is not an image: %s", mediaType)
	}
	return decodeDimensions(bytes.NewReader(data))
}
