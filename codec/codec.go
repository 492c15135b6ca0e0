package codec

import (
	"image"
	"strings"
)

// DefaultColumns and DefaultLines are used when the terminal size is unknown.
const (
	DefaultColumns = 317
	DefaultLines   = 76
)

// Sink receives intermediate images for debugging. Implementations must be
// safe for concurrent use when shared across workers.
type Sink interface {
	Snapshot(stage string, img image.Image)
}

// Config describes one conversion. It is passed by value and never mutated.
type Config struct {
	GlyphSet  GlyphSet
	Transform Transform
	Invert    bool

	// BrailleThreshold marks pixels at or below it as raised dots.
	BrailleThreshold int
	// DotSpacing draws blank braille cells as a single low dot.
	DotSpacing bool

	// Color wraps each cell in an SGR escape chosen from ColorPalette.
	// Requires a ColorQuantize transform.
	Color bool

	// Columns and Lines bound the glyph grid.
	Columns int
	Lines   int

	Sink Sink
}

// DefaultConfig mirrors the command line defaults.
func DefaultConfig() Config {
	return Config{
		GlyphSet:         Braille,
		Transform:        Dither{},
		Invert:           true,
		BrailleThreshold: DefaultBrailleThreshold,
		Columns:          DefaultColumns,
		Lines:            DefaultLines,
	}
}

// Validate reports combinations the converter refuses to run.
func (c Config) Validate() error {
	if _, ok := glyphSetNames[c.GlyphSet]; !ok {
		return &ConfigError{Field: "glyph set", Value: c.GlyphSet.String()}
	}
	if c.Transform == nil {
		return &ConfigError{Field: "image transform", Reason: "none selected"}
	}
	if c.Columns <= 0 || c.Lines <= 0 {
		return &ConfigError{Field: "grid size", Reason: "columns and lines must be > 0"}
	}
	_, quantized := c.Transform.(ColorQuantize)
	if c.GlyphSet == Braille && quantized {
		return &ConfigError{Field: "combination", Value: c.GlyphSet.String() + "+" + c.Transform.Name(), Reason: "braille needs an intensity image"}
	}
	if c.Color && !quantized {
		return &ConfigError{Field: "combination", Value: c.Transform.Name(), Reason: "color output needs a color transform"}
	}
	return nil
}

// Converter turns images into glyph text. It owns the color and braille
// caches, so one Converter belongs to one goroutine.
type Converter struct {
	cfg     Config
	palette *GlyphPalette
	colors  *ColorQuantizer
	braille brailleTable
}

// NewConverter validates cfg and returns a converter with empty caches.
func NewConverter(cfg Config) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	palette, _ := cfg.GlyphSet.Palette()
	return &Converter{
		cfg:     cfg,
		palette: palette,
		colors:  NewColorQuantizer(nil),
	}, nil
}

// Convert renders one image with a fresh converter.
func Convert(img image.Image, cfg Config) (string, error) {
	conv, err := NewConverter(cfg)
	if err != nil {
		return "", err
	}
	return conv.Convert(img)
}

// Config returns the configuration the converter was built with.
func (c *Converter) Config() Config {
	return c.cfg
}

// Convert fits, preprocesses and maps img. Every row ends with one newline.
func (c *Converter) Convert(img image.Image) (string, error) {
	cols, lines := TargetSize(c.cfg.GlyphSet, c.cfg.Columns, c.cfg.Lines)
	img = Fit(img, cols, lines)
	c.snapshot("resized", img)

	if c.cfg.Invert {
		img = Invert(img)
		c.snapshot("inverted", img)
	}

	img = c.cfg.Transform.apply(img, c.colors)
	c.snapshot(c.cfg.Transform.Name(), img)

	var sb strings.Builder
	switch {
	case c.cfg.GlyphSet == Braille:
		c.writeBraille(&sb, toGray(img))
	case c.cfg.Color:
		c.writeColor(&sb, img)
	default:
		c.writeGlyphs(&sb, toGray(img))
	}
	return sb.String(), nil
}

func (c *Converter) writeGlyphs(sb *strings.Builder, g *image.Gray) {
	b := g.Bounds()
	sb.Grow(b.Dx()*b.Dy() + b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		row := g.Pix[g.PixOffset(b.Min.X, y):g.PixOffset(b.Max.X, y)]
		for _, v := range row {
			sb.WriteString(MapIntensity(v, c.palette))
		}
		sb.WriteByte('\n')
	}
}

// writeColor carries the information in the escape; the glyph is always the
// darkest of the set so the foreground color fills the cell.
func (c *Converter) writeColor(sb *strings.Builder, img image.Image) {
	b := img.Bounds()
	rgba, ok := img.(*image.RGBA)
	if !ok {
		rgba = image.NewRGBA(b)
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				rgba.Set(x, y, img.At(x, y))
			}
		}
	}
	glyph := c.palette[0]
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sb.WriteString(sgrFor(rgba.RGBAAt(x, y), c.colors))
			sb.WriteString(glyph)
			sb.WriteString(SGRReset)
		}
		sb.WriteByte('\n')
	}
}

func (c *Converter) writeBraille(sb *strings.Builder, g *image.Gray) {
	for _, line := range EncodeBraille(g, c.cfg.BrailleThreshold, c.cfg.DotSpacing) {
		for _, r := range line {
			sb.WriteString(c.braille.cell(uint8(r - brailleBase)))
		}
		sb.WriteByte('\n')
	}
}

func (c *Converter) snapshot(stage string, img image.Image) {
	if c.cfg.Sink != nil {
		c.cfg.Sink.Snapshot(stage, img)
	}
}
