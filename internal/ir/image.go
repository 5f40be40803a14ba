package ir

import "fmt"

// ImageReference describes an image embed found in a document.
// It is produced by detection and not modified afterwards.
type ImageReference struct {
	Kind       SyntaxKind `json:"kind"`
	RawSyntax  string     `json:"raw_syntax"`           // exact text of the embed
	Source     string     `json:"source"`               // resource id or URL
	SourceKind SourceKind `json:"source_kind"`
	AltText    string     `json:"alt_text,omitempty"`
	Title      string     `json:"title,omitempty"`
}

// SourcePath returns the source as it is written inside an embed.
func (r ImageReference) SourcePath() string {
	if r.SourceKind == SourceResource {
		return ResourcePath(r.Source)
	}
	return r.Source
}

// PixelDimensions is a measured image size. Both sides are positive.
type PixelDimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewDimensions validates and returns dimensions.
func NewDimensions(width, height int) (PixelDimensions, error) {
	d := PixelDimensions{Width: width, Height: height}
	if !d.Valid() {
		return PixelDimensions{}, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	return d, nil
}

// Valid reports whether both sides are positive.
func (d PixelDimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// String returns the dimensions as WxH.
func (d PixelDimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// ResizeChoice is the user's answer from the resize dialog.
type ResizeChoice struct {
	TargetKind SyntaxKind `json:"target_kind"`
	AltText    string     `json:"alt_text"`
	Title      string     `json:"title,omitempty"` // empty means no title
	Mode       ResizeMode `json:"mode"`
	Percentage float64    `json:"percentage,omitempty"`
	Width      int        `json:"width,omitempty"`  // 0 = not supplied
	Height     int        `json:"height,omitempty"` // 0 = not supplied
}
