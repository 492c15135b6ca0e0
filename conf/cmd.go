package conf

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/svanichkin/ttyvideo/codec"
	"github.com/svanichkin/ttyvideo/ui"
)

// AppOptions aggregates all CLI flags required by the application.
type AppOptions struct {
	Input string

	GlyphSet   codec.GlyphSet
	Transform  codec.Transform
	Invert     bool
	Threshold  int
	DotSpacing bool

	// Columns and Lines override the terminal size when > 0.
	Columns int
	Lines   int

	// FPS overrides the rate reported by the video when > 0.
	FPS     float64
	Workers int
	Loop    bool
	Ref     bool

	Output     string
	SaveFrames string
	DebugDir   string

	Verbose     bool
	ShowVersion bool
}

// UsageError reports a command line the program cannot run with. Nothing is
// converted when one is returned.
type UsageError struct {
	Msg string
	Err error
}

func (e *UsageError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *UsageError) Unwrap() error { return e.Err }

func usageErr(err error, format string, args ...any) error {
	return &UsageError{Msg: fmt.Sprintf(format, args...), Err: err}
}

// rawFlags holds flag values before they are validated into AppOptions.
type rawFlags struct {
	char, image string
	opts        AppOptions
}

func newFlagSet(raw *rawFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("ttyvideo", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	o := &raw.opts
	fs.StringVar(&raw.char, "char", "braille", "glyph set: "+strings.Join(codec.GlyphSetNames(), ", "))
	fs.StringVar(&raw.image, "image", "dither", "image transform: "+strings.Join(codec.TransformNames(), ", "))
	fs.BoolVar(&o.Invert, "invert", true, "invert brightness for light text on a dark background (on by default, turn off with -invert=false or -invert false)")
	fs.IntVar(&o.Threshold, "threshold", codec.DefaultBrailleThreshold, "braille dot threshold, 0-255")
	fs.BoolVar(&o.DotSpacing, "dot-spacing", false, "draw blank braille cells as a single low dot")
	fs.IntVar(&o.Columns, "cols", 0, "output columns (default: terminal width)")
	fs.IntVar(&o.Lines, "lines", 0, "output lines (default: terminal height)")
	fs.Float64Var(&o.FPS, "fps", 0, "playback rate (default: rate of the video)")
	fs.IntVar(&o.Workers, "workers", 0, "conversion workers (default: number of CPUs)")
	fs.BoolVar(&o.Loop, "loop", false, "loop playback until interrupted")
	fs.BoolVar(&o.Ref, "ref", false, "open the source video in an external player during playback")
	fs.StringVar(&o.Output, "o", "", "write converted frames to a "+cacheExt+" file")
	fs.StringVar(&o.SaveFrames, "save-frames", "", "write every decoded frame as a jpg into this directory")
	fs.StringVar(&o.DebugDir, "debug", "", "write each conversion stage as a png into this directory")
	fs.BoolVar(&o.Verbose, "v", false, "verbose logging")
	fs.BoolVar(&o.ShowVersion, "version", false, "print version and exit")
	return fs
}

// cacheExt matches pipeline.CacheExt.
const cacheExt = ".ttyv"

// Usage prints the command synopsis and flag defaults to w.
func Usage(w io.Writer) {
	fs := newFlagSet(&rawFlags{})
	fs.SetOutput(w)
	fmt.Fprintln(w, "usage: ttyvideo [flags] <video|image|"+cacheExt+">")
	fs.PrintDefaults()
}

// ParseCLI parses command-line arguments (without the program name) into an
// AppOptions structure. Flags may appear before or after the input file.
func ParseCLI(args []string) (*AppOptions, error) {
	raw := &rawFlags{}
	fs := newFlagSet(raw)

	args = compactArgs(args)
	flagTokens, consumed := collectDashPrefixedArgs(args)
	if err := fs.Parse(flagTokens); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, &UsageError{Msg: "help requested", Err: flag.ErrHelp}
		}
		return nil, usageErr(nil, "%v", err)
	}
	// everything after "--" and whatever the flag set left over is positional
	positional := append(remainingArgs(args, consumed), fs.Args()...)

	opts := raw.opts
	if opts.ShowVersion {
		return &opts, nil
	}

	switch len(positional) {
	case 0:
		return nil, usageErr(nil, "missing input file")
	case 1:
		opts.Input = positional[0]
	default:
		return nil, usageErr(nil, "unexpected extra positional arguments: %v", positional[1:])
	}
	if info, err := os.Stat(opts.Input); err != nil {
		return nil, usageErr(err, "input %s", opts.Input)
	} else if info.IsDir() {
		return nil, usageErr(nil, "input %s is a directory", opts.Input)
	}

	var err error
	if opts.GlyphSet, err = codec.ParseGlyphSet(raw.char); err != nil {
		return nil, usageErr(err, "-char")
	}
	if opts.Transform, err = codec.ParseTransform(raw.image); err != nil {
		return nil, usageErr(err, "-image")
	}

	switch {
	case opts.Threshold < 0 || opts.Threshold > 255:
		return nil, usageErr(nil, "-threshold %d out of range 0-255", opts.Threshold)
	case opts.Columns < 0 || opts.Lines < 0:
		return nil, usageErr(nil, "-cols and -lines must not be negative")
	case opts.FPS < 0:
		return nil, usageErr(nil, "-fps must not be negative")
	case opts.FPS != 0 && !ui.ValidFPS(opts.FPS):
		return nil, usageErr(nil, "-fps %v is not a usable frame rate", opts.FPS)
	case opts.Workers < 0:
		return nil, usageErr(nil, "-workers must not be negative")
	case opts.Output != "" && !strings.HasSuffix(strings.ToLower(opts.Output), cacheExt):
		return nil, usageErr(nil, "-o %s: output must end in %s", opts.Output, cacheExt)
	}
	return &opts, nil
}

// ColorOutput reports whether the chosen transform produces palette colors
// that should be written as SGR escapes.
func (opts *AppOptions) ColorOutput() bool {
	_, ok := opts.Transform.(codec.ColorQuantize)
	return ok
}

func compactArgs(args []string) []string {
	if len(args) == 0 {
		return args
	}
	out := make([]string, 0, len(args))
	for _, raw := range args {
		if trimmed := strings.TrimSpace(raw); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// collectDashPrefixedArgs pulls flag tokens out of args wherever they appear.
// Value flags given as "-key value" are joined into "-key=value".
func collectDashPrefixedArgs(args []string) ([]string, map[int]struct{}) {
	consumed := make(map[int]struct{})
	if len(args) == 0 {
		return nil, consumed
	}
	flags := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		token := args[i]
		if token == "--" {
			consumed[i] = struct{}{}
			break
		}
		if !strings.HasPrefix(token, "-") || token == "-" || looksLikeNumber(token) {
			continue
		}
		consumed[i] = struct{}{}
		keyToken := token
		if idx := strings.Index(token, "="); idx != -1 {
			keyToken = token[:idx]
		}
		key := normalizeFlagKey(keyToken)
		combined := token
		if !strings.Contains(token, "=") && i+1 < len(args) {
			next := args[i+1]
			switch {
			case flagRequiresValue(key):
				if next != "--" && (!strings.HasPrefix(next, "-") || looksLikeNumber(next)) {
					consumed[i+1] = struct{}{}
					combined = fmt.Sprintf("%s=%s", token, next)
					i++
				}
			case flagIsBool(key) && isBoolLiteral(next):
				consumed[i+1] = struct{}{}
				combined = fmt.Sprintf("%s=%s", token, next)
				i++
			}
		}
		flags = append(flags, combined)
	}
	return flags, consumed
}

func remainingArgs(args []string, consumed map[int]struct{}) []string {
	if len(args) == 0 {
		return nil
	}
	extra := make([]string, 0, len(args))
	for idx, token := range args {
		if _, ok := consumed[idx]; ok {
			continue
		}
		extra = append(extra, token)
	}
	return extra
}

func normalizeFlagKey(raw string) string {
	trimmed := strings.TrimSpace(raw)
	trimmed = strings.TrimLeft(trimmed, "-")
	return strings.ToLower(trimmed)
}

func flagRequiresValue(key string) bool {
	switch key {
	case "char", "image", "threshold", "cols", "lines", "fps", "workers", "o", "save-frames", "debug":
		return true
	default:
		return false
	}
}

func flagIsBool(key string) bool {
	switch key {
	case "invert", "dot-spacing", "loop", "ref", "v", "version":
		return true
	default:
		return false
	}
}

// isBoolLiteral matches the words accepted after a boolean flag, as in
// "-invert false".
func isBoolLiteral(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false":
		return true
	default:
		return false
	}
}

// looksLikeNumber keeps negative values like "-1" from being read as flags.
func looksLikeNumber(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
