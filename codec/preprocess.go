package codec

import (
	"image"
	"image/color"
	"image/color/palette"
	"strings"

	"golang.org/x/image/draw"
)

const (
	white = 0xff
	black = 0x00

	// DefaultBlackWhiteThreshold splits intensities for BlackWhite.
	DefaultBlackWhiteThreshold = 128
)

// Transform is one image-wide preprocessing step applied before glyph mapping.
// The set of transforms is closed: only the types in this package implement it.
type Transform interface {
	Name() string
	apply(img image.Image, q *ColorQuantizer) image.Image
}

// Gray converts to 8-bit luma using ITU-R 601 weights (color.GrayModel).
type Gray struct{}

// BlackWhite maps intensities above Threshold to white and the rest to black.
type BlackWhite struct {
	Threshold uint8
}

// Silhouette keeps only pure white; everything else, near-white included, turns black.
type Silhouette struct{}

// Dither reduces to black and white with Floyd-Steinberg error diffusion.
type Dither struct{}

// Halftone replaces every 2x2 block with one of five fixed dot patterns.
type Halftone struct{}

// ColorQuantize snaps every pixel to ColorPalette. With Dither the image is
// first diffused onto the web-safe palette.
type ColorQuantize struct {
	Dither bool
}

func (Gray) Name() string       { return "gray" }
func (BlackWhite) Name() string { return "black_white" }
func (Silhouette) Name() string { return "silhouette" }
func (Dither) Name() string     { return "dither" }
func (Halftone) Name() string   { return "halftone" }

func (t ColorQuantize) Name() string {
	if t.Dither {
		return "color_dither"
	}
	return "color"
}

// TransformNames lists accepted names in a stable order for usage text.
func TransformNames() []string {
	return []string{"dither", "halftone", "gray", "black_white", "silhouette", "color", "color_dither"}
}

// ParseTransform resolves a transform by name, case-insensitively.
func ParseTransform(name string) (Transform, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "gray", "grey":
		return Gray{}, nil
	case "black_white", "bw":
		return BlackWhite{Threshold: DefaultBlackWhiteThreshold}, nil
	case "silhouette":
		return Silhouette{}, nil
	case "dither":
		return Dither{}, nil
	case "halftone":
		return Halftone{}, nil
	case "color":
		return ColorQuantize{}, nil
	case "color_dither":
		return ColorQuantize{Dither: true}, nil
	}
	return nil, &ConfigError{Field: "image transform", Value: name}
}

// Apply runs t on img and returns a new image. The input is left untouched.
func Apply(img image.Image, t Transform) image.Image {
	if t == nil {
		return img
	}
	return t.apply(img, NewColorQuantizer(nil))
}

func (Gray) apply(img image.Image, _ *ColorQuantizer) image.Image {
	return toGray(img)
}

func (t BlackWhite) apply(img image.Image, _ *ColorQuantizer) image.Image {
	return threshold(toGray(img), func(v uint8) bool { return v > t.Threshold })
}

func (Silhouette) apply(img image.Image, _ *ColorQuantizer) image.Image {
	return threshold(toGray(img), func(v uint8) bool { return v == white })
}

func (Dither) apply(img image.Image, _ *ColorQuantizer) image.Image {
	g := toGray(img)
	b := g.Bounds()
	p := image.NewPaletted(b, color.Palette{color.Black, color.White})
	draw.FloydSteinberg.Draw(p, b, g, b.Min)

	out := image.NewGray(b)
	for i, idx := range p.Pix {
		if idx == 1 {
			out.Pix[i] = white
		}
	}
	return out
}

// halftone bands, checked top down against the block mean; cells are
// {here, right, down, diag}
var halftoneBands = []struct {
	above float64
	cells [4]uint8
}{
	{223, [4]uint8{white, white, white, white}},
	{159, [4]uint8{white, white, black, white}},
	{95, [4]uint8{white, black, black, white}},
	{23, [4]uint8{black, black, black, white}},
}

// HalftonePattern returns the dot pattern {here, right, down, diag} for a block mean.
func HalftonePattern(mean float64) [4]uint8 {
	for _, band := range halftoneBands {
		if mean > band.above {
			return band.cells
		}
	}
	return [4]uint8{black, black, black, black}
}

func (Halftone) apply(img image.Image, _ *ColorQuantizer) image.Image {
	src := toGray(img)
	b := src.Bounds()
	out := image.NewGray(b)

	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		for x := b.Min.X; x < b.Max.X; x += 2 {
			block := [4]image.Point{{x, y}, {x + 1, y}, {x, y + 1}, {x + 1, y + 1}}

			// neighbours past the edge count as black and are never written
			sum := 0
			for _, p := range block {
				if p.In(b) {
					sum += int(src.Pix[src.PixOffset(p.X, p.Y)])
				}
			}
			cells := HalftonePattern(float64(sum) / 4)
			for i, p := range block {
				if p.In(b) {
					out.Pix[out.PixOffset(p.X, p.Y)] = cells[i]
				}
			}
		}
	}
	return out
}

func (t ColorQuantize) apply(img image.Image, q *ColorQuantizer) image.Image {
	b := img.Bounds()

	flat := image.NewRGBA(b)
	draw.Draw(flat, b, image.White, image.Point{}, draw.Src)
	draw.Draw(flat, b, img, b.Min, draw.Over)

	out := image.NewRGBA(b)
	if t.Dither {
		p := image.NewPaletted(b, palette.WebSafe)
		draw.FloydSteinberg.Draw(p, b, flat, b.Min)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				c := color.RGBAModel.Convert(p.Palette[p.ColorIndexAt(x, y)]).(color.RGBA)
				out.SetRGBA(x, y, q.Nearest(c))
			}
		}
		return out
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			out.SetRGBA(x, y, q.Nearest(flat.RGBAAt(x, y)))
		}
	}
	return out
}

// Invert returns the photographic negative of img. Alpha is preserved.
func Invert(img image.Image) image.Image {
	if _, ok := img.(*image.Gray); ok {
		out := toGray(img)
		for i, v := range out.Pix {
			out.Pix[i] = white - v
		}
		return out
	}

	b := img.Bounds()
	out := image.NewNRGBA(b)
	draw.Draw(out, b, img, b.Min, draw.Src)
	for i := 0; i < len(out.Pix); i += 4 {
		out.Pix[i] = white - out.Pix[i]
		out.Pix[i+1] = white - out.Pix[i+1]
		out.Pix[i+2] = white - out.Pix[i+2]
	}
	return out
}

// toGray always allocates, so later stages never alias their input.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	if g, ok := img.(*image.Gray); ok {
		for y := b.Min.Y; y < b.Max.Y; y++ {
			copy(out.Pix[out.PixOffset(b.Min.X, y):out.PixOffset(b.Max.X, y)], g.Pix[g.PixOffset(b.Min.X, y):g.PixOffset(b.Max.X, y)])
		}
		return out
	}
	draw.Draw(out, b, img, b.Min, draw.Src)
	return out
}

func threshold(g *image.Gray, isWhite func(uint8) bool) *image.Gray {
	for i, v := range g.Pix {
		if isWhite(v) {
			g.Pix[i] = white
		} else {
			g.Pix[i] = black
		}
	}
	return g
}
