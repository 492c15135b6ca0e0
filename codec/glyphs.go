package codec

import (
	"fmt"
	"strings"
)

// GlyphSet selects how cells are drawn.
type GlyphSet int

const (
	ASCII GlyphSet = iota
	Matrix
	MatrixKata
	Braille
)

// GlyphPalette holds 16 glyphs ordered from darkest to lightest. Each glyph
// covers 16 consecutive intensity levels.
type GlyphPalette [16]string

const intensityBucket = 256 / len(GlyphPalette{})

var (
	asciiPalette = GlyphPalette{"@", "M", "N", "m", "d", "h", "y", "s", "o", "+", "/", ":", "-", ".", "`", " "}

	// hiragana/katakana gradient, ends with an ideographic space so cells keep full width
	matrixPalette = GlyphPalette{"あ", "せ", "ホ", "オ", "ネ", "じ", "ワ", "ク", "ナ", "い", "し", "ツ", "ノ", "゛", "、", "　"}

	matrixKataPalette = GlyphPalette{"ヰ", "サ", "ホ", "オ", "ネ", "じ", "ワ", "ク", "ナ", "キ", "ト", "ツ", "ノ", "゛", "、", "　"}
)

var glyphSetNames = map[GlyphSet]string{
	ASCII:      "ascii",
	Matrix:     "matrix",
	MatrixKata: "matrix_kata",
	Braille:    "braille",
}

// GlyphSetNames lists accepted names in a stable order for usage text.
func GlyphSetNames() []string {
	return []string{"braille", "ascii", "matrix", "matrix_kata"}
}

func (g GlyphSet) String() string {
	if name, ok := glyphSetNames[g]; ok {
		return name
	}
	return fmt.Sprintf("GlyphSet(%d)", int(g))
}

// ParseGlyphSet resolves a glyph set by name, case-insensitively.
func ParseGlyphSet(name string) (GlyphSet, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	for g, n := range glyphSetNames {
		if n == key {
			return g, nil
		}
	}
	return 0, &ConfigError{Field: "glyph set", Value: name}
}

// Palette returns the 16-glyph palette for intensity mapped sets. Braille has
// no palette and reports false.
func (g GlyphSet) Palette() (*GlyphPalette, bool) {
	switch g {
	case ASCII:
		return &asciiPalette, true
	case Matrix:
		return &matrixPalette, true
	case MatrixKata:
		return &matrixKataPalette, true
	default:
		return nil, false
	}
}

// GlyphIndex returns the palette slot for an intensity.
func GlyphIndex(v uint8) int {
	idx := int(v) / intensityBucket
	if idx < 0 {
		return 0
	}
	if idx > len(GlyphPalette{})-1 {
		return len(GlyphPalette{}) - 1
	}
	return idx
}

// MapIntensity maps a 0..255 intensity onto a glyph of p.
func MapIntensity(v uint8, p *GlyphPalette) string {
	return p[GlyphIndex(v)]
}
