package codec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlyphIndexMonotonic(t *testing.T) {
	prev := GlyphIndex(0)
	for v := 1; v < 256; v++ {
		idx := GlyphIndex(uint8(v))
		require.GreaterOrEqual(t, idx, prev, "intensity %d", v)
		require.Less(t, idx, len(GlyphPalette{}))
		prev = idx
	}
	assert.Equal(t, 0, GlyphIndex(0))
	assert.Equal(t, 15, GlyphIndex(255))
	assert.Equal(t, 1, GlyphIndex(16))
	assert.Equal(t, 0, GlyphIndex(15))
}

func TestMapIntensity(t *testing.T) {
	for _, set := range []GlyphSet{ASCII, Matrix, MatrixKata} {
		p, ok := set.Palette()
		require.True(t, ok, set.String())

		// idempotent: the same intensity always lands on the same glyph
		for v := 0; v < 256; v++ {
			assert.Equal(t, MapIntensity(uint8(v), p), MapIntensity(uint8(v), p))
		}
	}

	p, _ := ASCII.Palette()
	assert.Equal(t, "@", MapIntensity(0, p))
	assert.Equal(t, " ", MapIntensity(255, p))
	assert.Equal(t, "+", MapIntensity(150, p))
}

func TestBrailleHasNoPalette(t *testing.T) {
	p, ok := Braille.Palette()
	assert.False(t, ok)
	assert.Nil(t, p)
}

func TestParseGlyphSet(t *testing.T) {
	cases := map[string]GlyphSet{
		"ascii":        ASCII,
		"MATRIX":       Matrix,
		" matrix_kata": MatrixKata,
		"Braille":      Braille,
	}
	for name, want := range cases {
		got, err := ParseGlyphSet(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParseGlyphSet("emoji")
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "glyph set", cfgErr.Field)
	assert.Contains(t, err.Error(), "emoji")
}

func TestGlyphSetNamesParse(t *testing.T) {
	for _, name := range GlyphSetNames() {
		g, err := ParseGlyphSet(name)
		require.NoError(t, err)
		assert.Equal(t, name, g.String())
	}
	assert.Equal(t, "GlyphSet(9)", GlyphSet(9).String())
}
