package codec

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uniformGray(w, h int, v uint8) *image.Gray {
	g := image.NewGray(image.Rect(0, 0, w, h))
	for i := range g.Pix {
		g.Pix[i] = v
	}
	return g
}

func TestBrailleRune(t *testing.T) {
	assert.Equal(t, '⠀', BrailleRune(0))
	assert.Equal(t, '⣿', BrailleRune(0xFF))
	assert.Equal(t, '⠄', BrailleRune(4))
}

func TestBrailleMaskFullCell(t *testing.T) {
	dark := uniformGray(2, 4, 0)
	assert.Equal(t, uint8(0xFF), BrailleMask(dark, 0, 0, DefaultBrailleThreshold))

	light := uniformGray(2, 4, 255)
	assert.Equal(t, uint8(0), BrailleMask(light, 0, 0, DefaultBrailleThreshold))

	// threshold is inclusive
	edge := uniformGray(2, 4, DefaultBrailleThreshold)
	assert.Equal(t, uint8(0xFF), BrailleMask(edge, 0, 0, DefaultBrailleThreshold))
}

func TestBrailleMaskBitOrder(t *testing.T) {
	cases := []struct {
		x, y int
		mask uint8
	}{
		{0, 0, 0x01},
		{0, 1, 0x02},
		{0, 2, 0x04},
		{0, 3, 0x08},
		{1, 0, 0x10},
		{1, 1, 0x20},
		{1, 2, 0x40},
		{1, 3, 0x80},
	}
	for _, tc := range cases {
		g := uniformGray(2, 4, 255)
		g.SetGray(tc.x, tc.y, color.Gray{})
		assert.Equal(t, tc.mask, BrailleMask(g, 0, 0, DefaultBrailleThreshold), "dot at %d,%d", tc.x, tc.y)
	}
}

func TestBrailleMaskPartialCell(t *testing.T) {
	// pixels past the image edge are never raised
	g := uniformGray(1, 1, 0)
	assert.Equal(t, uint8(0x01), BrailleMask(g, 0, 0, DefaultBrailleThreshold))

	g = uniformGray(3, 5, 0)
	assert.Equal(t, uint8(0x0F), BrailleMask(g, 2, 0, DefaultBrailleThreshold))
	assert.Equal(t, uint8(0x11), BrailleMask(g, 0, 4, DefaultBrailleThreshold))
}

func TestEncodeBrailleGrid(t *testing.T) {
	grid := EncodeBraille(uniformGray(5, 9, 0), DefaultBrailleThreshold, false)
	require.Len(t, grid, 3)
	for _, row := range grid {
		require.Len(t, row, 3)
	}
	assert.Equal(t, '⣿', grid[0][0])
	// last column holds one pixel column, last row one pixel row
	assert.Equal(t, '⠏', grid[0][2])
	assert.Equal(t, '⠑', grid[2][0])
	assert.Equal(t, '⠁', grid[2][2])
}

func TestEncodeBrailleDotSpacing(t *testing.T) {
	light := uniformGray(4, 4, 255)

	plain := EncodeBraille(light, DefaultBrailleThreshold, false)
	assert.Equal(t, []rune{'⠀', '⠀'}, plain[0])

	spaced := EncodeBraille(light, DefaultBrailleThreshold, true)
	assert.Equal(t, []rune{'⠄', '⠄'}, spaced[0])

	// dot spacing only touches blank cells
	dark := EncodeBraille(uniformGray(2, 4, 0), DefaultBrailleThreshold, true)
	assert.Equal(t, '⣿', dark[0][0])
}

func TestBrailleTableCell(t *testing.T) {
	var tbl brailleTable
	for m := 0; m < 256; m++ {
		assert.Equal(t, string(BrailleRune(uint8(m))), tbl.cell(uint8(m)))
	}
	assert.Equal(t, "⣿", tbl.cell(0xFF))
}
