package images

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Image is an in-memory raster input for analysis. The payload is the
// PNG-encoded pixel data; callers own the value and the analysis client
// only borrows it for the duration of a request.
type Image struct {
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Mode   string `json:"mode"` // RGB | RGBA | L
	PNG    []byte `json:"-"`
}

// FromImage encodes a decoded image into an analysis input.
func FromImage(img image.Image) (*Image, error) {
	if img == nil {
		return nil, fmt.Errorf("nil image")
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	b := img.Bounds()
	return &Image{
		Width:  b.Dx(),
		Height: b.Dy(),
		Mode:   modeOf(img),
		PNG:    buf.Bytes(),
	}, nil
}

// FromBytes decodes an uploaded payload (png/jpeg/gif) into an analysis input.
func FromBytes(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty image payload")
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return FromImage(img)
}

// DataURL returns the payload as a base64 data URL for JSON transports.
func (i *Image) DataURL() string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(i.PNG)
}

// Empty reports whether the input carries no pixel data.
func (i *Image) Empty() bool {
	return i == nil || len(i.PNG) == 0
}

func modeOf(img image.Image) string {
	switch img.(type) {
	case *image.Gray, *image.Gray16:
		return "L"
	case *image.NRGBA, *image.NRGBA64, *image.RGBA, *image.RGBA64:
		return "RGBA"
	default:
		return "RGB"
	}
}
