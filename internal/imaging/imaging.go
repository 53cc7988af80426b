// Package imaging holds the image decoding, scaling and encoding shared by the
// image processors.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Filter names accepted by Scale.
const (
	FilterNearest    = "nearest"
	FilterBilinear   = "bilinear"
	FilterCatmullRom = "catmullrom"
)

// Filters lists every filter name in a stable order.
var Filters = []string{FilterNearest, FilterBilinear, FilterCatmullRom}

// Decode decodes any registered image format and returns the format name.
func Decode(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image: %w", err)
	}
	return img, format, nil
}

// EncodePNG encodes img as PNG with the best compression.
func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func scaler(filter string) (draw.Scaler, error) {
	switch filter {
	case FilterNearest:
		return draw.NearestNeighbor, nil
	case FilterBilinear:
		return draw.BiLinear, nil
	case FilterCatmullRom:
		return draw.CatmullRom, nil
	}
	return nil, fmt.Errorf("unknown filter '%s'", filter)
}

// Scale resamples src to w×h with the named filter.
func Scale(src image.Image, w, h int, filter string) (*image.NRGBA, error) {
	s, err := scaler(filter)
	if err != nil {
		return nil, err
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	s.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)
	return dst, nil
}

// Fit returns the size of a w×h image shrunk, keeping the aspect ratio, so its
// longest side is at most maxSize. Sizes already within bounds and a maxSize
// of zero or less are returned unchanged.
func Fit(w, h, maxSize int) (int, int) {
	if maxSize <= 0 || (w <= maxSize && h <= maxSize) {
		return w, h
	}
	if w >= h {
		return maxSize, max(1, h*maxSize/w)
	}
	return max(1, w*maxSize/h), maxSize
}

// MipChain returns successive half-size levels of base down to 1×1. base
// itself is not included.
func MipChain(base image.Image, filter string) ([]*image.NRGBA, error) {
	var levels []*image.NRGBA
	cur := base
	w, h := base.Bounds().Dx(), base.Bounds().Dy()
	for w > 1 || h > 1 {
		w, h = max(1, w/2), max(1, h/2)
		next, err := Scale(cur, w, h, filter)
		if err != nil {
			return nil, err
		}
		levels = append(levels, next)
		cur = next
	}
	return levels, nil
}

// ToNRGBA copies src into a new NRGBA image anchored at the origin.
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}
