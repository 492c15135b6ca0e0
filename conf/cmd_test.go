package conf

import (
	"bytes"
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svanichkin/ttyvideo/codec"
)

func tempInput(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	return path
}

func requireUsageError(t *testing.T, err error) *UsageError {
	t.Helper()
	var uerr *UsageError
	require.True(t, errors.As(err, &uerr), "got %v", err)
	return uerr
}

func TestParseCLIDefaults(t *testing.T) {
	in := tempInput(t, "clip.mp4")
	opts, err := ParseCLI([]string{in})
	require.NoError(t, err)

	assert.Equal(t, in, opts.Input)
	assert.Equal(t, codec.Braille, opts.GlyphSet)
	assert.Equal(t, codec.Dither{}, opts.Transform)
	assert.True(t, opts.Invert)
	assert.Equal(t, codec.DefaultBrailleThreshold, opts.Threshold)
	assert.False(t, opts.Loop)
	assert.False(t, opts.Ref)
	assert.Zero(t, opts.Workers)
	assert.Zero(t, opts.FPS)
	assert.False(t, opts.ColorOutput())
}

func TestParseCLIFlagsAnywhere(t *testing.T) {
	in := tempInput(t, "clip.mp4")
	opts, err := ParseCLI([]string{
		"-char", "ascii", in, "-image=color", "-invert=false",
		"-loop", "-ref", "-fps", "12.5", "-workers", "3",
		"-cols", "80", "-lines", "24", "-o", "out.ttyv", "-v",
	})
	require.NoError(t, err)

	assert.Equal(t, in, opts.Input)
	assert.Equal(t, codec.ASCII, opts.GlyphSet)
	assert.Equal(t, codec.ColorQuantize{}, opts.Transform)
	assert.True(t, opts.ColorOutput())
	assert.False(t, opts.Invert)
	assert.True(t, opts.Loop)
	assert.True(t, opts.Ref)
	assert.Equal(t, 12.5, opts.FPS)
	assert.Equal(t, 3, opts.Workers)
	assert.Equal(t, 80, opts.Columns)
	assert.Equal(t, 24, opts.Lines)
	assert.Equal(t, "out.ttyv", opts.Output)
	assert.True(t, opts.Verbose)
}

func TestParseCLIDoubleDash(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "-odd.mp4")
	require.NoError(t, os.WriteFile(in, []byte("x"), 0o644))

	opts, err := ParseCLI([]string{"-loop", "--", in})
	require.NoError(t, err)
	assert.Equal(t, in, opts.Input)
	assert.True(t, opts.Loop)
}

func TestParseCLIVersionNeedsNoInput(t *testing.T) {
	opts, err := ParseCLI([]string{"-version"})
	require.NoError(t, err)
	assert.True(t, opts.ShowVersion)
}

func TestParseCLIErrors(t *testing.T) {
	in := tempInput(t, "clip.mp4")
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"no input", nil, "missing input file"},
		{"missing file", []string{filepath.Join(t.TempDir(), "nope.mp4")}, "nope.mp4"},
		{"directory", []string{t.TempDir()}, "is a directory"},
		{"two inputs", []string{in, in}, "unexpected extra positional"},
		{"unknown flag", []string{"-speed", "2", in}, "speed"},
		{"bad glyph set", []string{"-char", "emoji", in}, "emoji"},
		{"bad transform", []string{"-image", "sepia", in}, "sepia"},
		{"threshold range", []string{"-threshold", "300", in}, "out of range"},
		{"negative threshold", []string{"-threshold", "-1", in}, "out of range"},
		{"negative workers", []string{"-workers", "-2", in}, "-workers"},
		{"bad fps", []string{"-fps", "fast", in}, "fps"},
		{"nan fps", []string{"-fps", "NaN", in}, "not a usable frame rate"},
		{"infinite fps", []string{"-fps", "Inf", in}, "not a usable frame rate"},
		{"fps beyond ticker resolution", []string{"-fps", "3e9", in}, "not a usable frame rate"},
		{"output extension", []string{"-o", "out.txt", in}, ".ttyv"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseCLI(tc.args)
			uerr := requireUsageError(t, err)
			assert.Contains(t, uerr.Error(), tc.want)
		})
	}
}

func TestParseCLIBoolFlagWithSeparateValue(t *testing.T) {
	in := tempInput(t, "clip.mp4")
	cases := []struct {
		args   []string
		invert bool
		loop   bool
	}{
		{[]string{in}, true, false},
		{[]string{"-invert", "false", in}, false, false},
		{[]string{in, "-invert", "FALSE", "-loop"}, false, true},
		{[]string{"-invert", "true", in, "-loop", "false"}, true, false},
		{[]string{"-invert=false", in}, false, false},
	}
	for _, tc := range cases {
		opts, err := ParseCLI(tc.args)
		require.NoError(t, err, "%v", tc.args)
		assert.Equal(t, in, opts.Input)
		assert.Equal(t, tc.invert, opts.Invert, "%v", tc.args)
		assert.Equal(t, tc.loop, opts.Loop, "%v", tc.args)
	}
}

func TestParseCLIConfigErrorIsWrapped(t *testing.T) {
	_, err := ParseCLI([]string{"-char", "emoji", tempInput(t, "a.png")})
	var cfgErr *codec.ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "glyph set", cfgErr.Field)
}

func TestParseCLIHelp(t *testing.T) {
	_, err := ParseCLI([]string{"-h"})
	requireUsageError(t, err)
	assert.ErrorIs(t, err, flag.ErrHelp)
}

func TestUsageListsFlags(t *testing.T) {
	var buf bytes.Buffer
	Usage(&buf)
	out := buf.String()
	for _, name := range []string{"-char", "-image", "-invert", "-loop", "-ref", "-workers", "-save-frames", "matrix_kata", "color_dither"} {
		assert.Contains(t, out, name)
	}
}
