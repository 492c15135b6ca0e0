package codec

import (
	"fmt"
	"image/color"
	"math"
)

// PaletteEntry pairs a canonical terminal color with its SGR foreground code.
type PaletteEntry struct {
	RGB color.RGBA
	SGR int
}

// ColorPalette approximates the stock Windows Terminal scheme. Order matters:
// equidistant matches resolve to the earlier entry.
var ColorPalette = []PaletteEntry{
	{rgb(12, 12, 12), 30},
	{rgb(197, 15, 31), 31},
	{rgb(19, 161, 14), 32},
	{rgb(193, 156, 0), 33},
	{rgb(0, 55, 218), 34},
	{rgb(136, 23, 152), 35},
	{rgb(58, 150, 221), 36},
	{rgb(252, 57, 31), 91},
	{rgb(49, 231, 34), 92},
	{rgb(234, 236, 35), 93},
	{rgb(88, 51, 255), 94},
	{rgb(249, 53, 248), 95},
	{rgb(20, 240, 240), 96},
	{rgb(233, 235, 235), 97},
}

// SGRReset ends a colored cell.
const SGRReset = "\x1b[0m"

var (
	paletteColors = func() []color.RGBA {
		out := make([]color.RGBA, len(ColorPalette))
		for i, e := range ColorPalette {
			out[i] = e.RGB
		}
		return out
	}()

	sgrByColor = func() map[color.RGBA]string {
		m := make(map[color.RGBA]string, len(ColorPalette))
		for _, e := range ColorPalette {
			m[e.RGB] = fmt.Sprintf("\x1b[%dm", e.SGR)
		}
		return m
	}()
)

func rgb(r, g, b uint8) color.RGBA {
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// PaletteColors returns the RGB values of ColorPalette in declaration order.
func PaletteColors() []color.RGBA {
	out := make([]color.RGBA, len(paletteColors))
	copy(out, paletteColors)
	return out
}

// colorDistanceSq is the squared "redmean" distance. Comparing squares keeps
// the same ordering as the rooted metric.
func colorDistanceSq(a, b color.RGBA) int {
	r1, g1, b1 := int(a.R), int(a.G), int(a.B)
	r2, g2, b2 := int(b.R), int(b.G), int(b.B)
	rMean := (r1 + r2) / 2
	dr := r1 - r2
	dg := g1 - g2
	db := b1 - b2
	return (((512 + rMean) * dr * dr) >> 8) + 4*dg*dg + (((767 - rMean) * db * db) >> 8)
}

// ColorDistance is the weighted redmean distance between two colors. Alpha is ignored.
func ColorDistance(a, b color.RGBA) float64 {
	return math.Sqrt(float64(colorDistanceSq(a, b)))
}

// NearestColor returns the palette entry closest to c, the first one on ties.
// An empty palette returns c unchanged.
func NearestColor(c color.RGBA, palette []color.RGBA) color.RGBA {
	if len(palette) == 0 {
		return c
	}
	best := palette[0]
	bestDist := math.MaxInt
	for _, p := range palette {
		d := colorDistanceSq(c, p)
		if d < bestDist {
			bestDist = d
			best = p
		}
	}
	return best
}

// ColorQuantizer maps colors onto a fixed palette and remembers every answer.
// It is not safe for concurrent use; give each worker its own.
type ColorQuantizer struct {
	palette []color.RGBA
	cache   map[[3]uint8]color.RGBA
}

// NewColorQuantizer builds a quantizer for palette, or for ColorPalette when nil.
func NewColorQuantizer(palette []color.RGBA) *ColorQuantizer {
	if palette == nil {
		palette = paletteColors
	}
	return &ColorQuantizer{
		palette: palette,
		cache:   make(map[[3]uint8]color.RGBA, 64),
	}
}

// Nearest is NearestColor with memoization keyed on the exact RGB triple.
func (q *ColorQuantizer) Nearest(c color.RGBA) color.RGBA {
	key := [3]uint8{c.R, c.G, c.B}
	if hit, ok := q.cache[key]; ok {
		return hit
	}
	best := NearestColor(c, q.palette)
	q.cache[key] = best
	return best
}

// CacheLen reports how many distinct colors have been resolved.
func (q *ColorQuantizer) CacheLen() int {
	return len(q.cache)
}

// sgrFor returns the escape that opens a cell of color c.
func sgrFor(c color.RGBA, q *ColorQuantizer) string {
	c.A = 0xff
	if seq, ok := sgrByColor[c]; ok {
		return seq
	}
	return sgrByColor[q.Nearest(c)]
}
