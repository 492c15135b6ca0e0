package codec

import "image"

const (
	brailleBase = 0x2800

	// BrailleCellWidth and BrailleCellHeight are the pixels packed into one cell.
	BrailleCellWidth  = 2
	BrailleCellHeight = 4

	// DefaultBrailleThreshold marks pixels at or below it as raised dots.
	DefaultBrailleThreshold = 128

	// blank braille (U+2800) has kerning issues in some fonts; a single low dot
	// keeps the column width stable
	dotSpacingMask = 4
)

// BrailleRune returns the braille codepoint for a dot mask.
func BrailleRune(mask uint8) rune {
	return rune(brailleBase + int(mask))
}

// BrailleMask packs the 2x4 block whose top-left corner is (x0, y0). Bit
// col*4+row is set when that pixel is dark; pixels outside the image stay unset.
func BrailleMask(img *image.Gray, x0, y0, threshold int) uint8 {
	b := img.Bounds()
	var mask uint8
	for col := 0; col < BrailleCellWidth; col++ {
		x := x0 + col
		if x >= b.Max.X {
			break
		}
		for row := 0; row < BrailleCellHeight; row++ {
			y := y0 + row
			if y >= b.Max.Y {
				break
			}
			if int(img.Pix[img.PixOffset(x, y)]) <= threshold {
				mask |= 1 << uint(col*BrailleCellHeight+row)
			}
		}
	}
	return mask
}

// EncodeBraille converts img into a ceil(w/2) x ceil(h/4) grid of braille
// codepoints. With dotSpacing, fully blank cells use mask 4 instead of 0.
func EncodeBraille(img *image.Gray, threshold int, dotSpacing bool) [][]rune {
	b := img.Bounds()
	cols := (b.Dx() + BrailleCellWidth - 1) / BrailleCellWidth
	rows := (b.Dy() + BrailleCellHeight - 1) / BrailleCellHeight

	grid := make([][]rune, rows)
	for r := 0; r < rows; r++ {
		line := make([]rune, cols)
		for c := 0; c < cols; c++ {
			mask := BrailleMask(img, b.Min.X+c*BrailleCellWidth, b.Min.Y+r*BrailleCellHeight, threshold)
			if dotSpacing && mask == 0 {
				mask = dotSpacingMask
			}
			line[c] = BrailleRune(mask)
		}
		grid[r] = line
	}
	return grid
}

// brailleTable memoizes the UTF-8 form of each mask. Flat regions repeat the
// same few masks, so most cells are a single array lookup.
type brailleTable struct {
	cells [256]string
}

func (t *brailleTable) cell(mask uint8) string {
	s := t.cells[mask]
	if s == "" {
		s = string(BrailleRune(mask))
		t.cells[mask] = s
	}
	return s
}
