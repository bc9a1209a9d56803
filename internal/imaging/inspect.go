// Package imaging extracts image metadata from uploaded bytes.
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

	"github.com/cenkalti/dominantcolor"

	"artx/internal/models"
)

const (
	// DefaultPaletteSize is the number of dominant colors recorded per image.
	DefaultPaletteSize = 4
	// DefaultMaxPixels caps width*height before any pixel data is decoded.
	DefaultMaxPixels int64 = 40_000_000
)

var (
	// ErrUnsupportedImage is returned for bytes no registered decoder accepts.
	ErrUnsupportedImage = errors.New("unsupported image")
	// ErrImageTooLarge is returned when the header declares more pixels than allowed.
	ErrImageTooLarge = errors.New("image dimensions exceed limit")
)

// Inspector reads dimensions, color depth and format from image bytes.
type Inspector interface {
	Inspect(data []byte) (models.ImageInfo, error)
}

// InspectorFunc adapts a function to Inspector.
type InspectorFunc func(data []byte) (models.ImageInfo, error)

// Inspect calls f(data).
func (f InspectorFunc) Inspect(data []byte) (models.ImageInfo, error) {
	return f(data)
}

// DecodeInspector uses the standard image decoders plus a dominant-color pass.
// Decoders size their pixel buffer from the header alone, so MaxPixels is
// checked against the declared dimensions first. Zero disables the check.
type DecodeInspector struct {
	PaletteSize int
	MaxPixels   int64
}

// NewDecodeInspector returns an inspector recording DefaultPaletteSize colors
// from images of at most DefaultMaxPixels.
func NewDecodeInspector() DecodeInspector {
	return DecodeInspector{PaletteSize: DefaultPaletteSize, MaxPixels: DefaultMaxPixels}
}

// Inspect decodes the image header and, when configured, the full image for its palette.
func (d DecodeInspector) Inspect(data []byte) (models.ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return models.ImageInfo{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	info := models.ImageInfo{
		Width:      cfg.Width,
		Height:     cfg.Height,
		ColorDepth: colorDepth(cfg.ColorModel),
		Format:     format,
	}
	if d.MaxPixels > 0 {
		if pixels := int64(cfg.Width) * int64(cfg.Height); pixels > d.MaxPixels {
			return models.ImageInfo{}, fmt.Errorf("%w: %dx%d is %d pixels, limit is %d",
				ErrImageTooLarge, cfg.Width, cfg.Height, pixels, d.MaxPixels)
		}
	}
	if d.PaletteSize <= 0 {
		return info, nil
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return models.ImageInfo{}, fmt.Errorf("%w: %v", ErrUnsupportedImage, err)
	}
	for _, c := range dominantcolor.FindN(img, d.PaletteSize) {
		info.Palette = append(info.Palette, fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
	}
	return info, nil
}

// colorDepth reports bits per channel.
func colorDepth(model color.Model) int {
	switch model {
	case color.RGBA64Model, color.NRGBA64Model, color.Gray16Model, color.Alpha16Model:
		return 16
	default:
		return 8
	}
}
