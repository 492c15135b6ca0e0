package codec

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// Fit shrinks img to fit inside columns x lines while keeping its aspect ratio.
// Images that already fit are returned as is; Fit never enlarges.
func Fit(img image.Image, columns, lines int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 || columns <= 0 || lines <= 0 {
		return img
	}

	scale := math.Min(float64(columns)/float64(w), float64(lines)/float64(h))
	if scale >= 1 {
		return img
	}

	nw := int(math.Round(float64(w) * scale))
	nh := int(math.Round(float64(h) * scale))
	if nw < 1 {
		nw = 1
	}
	if nh < 1 {
		nh = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, nw, nh))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// TargetSize returns the pixel box a glyph grid of columns x lines can show.
// Braille cells carry 2x4 pixels each.
func TargetSize(set GlyphSet, columns, lines int) (int, int) {
	if set == Braille {
		return columns * BrailleCellWidth, lines * BrailleCellHeight
	}
	return columns, lines
}
