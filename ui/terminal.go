package ui

import (
	"io"
	"os"

	"golang.org/x/term"

	"github.com/svanichkin/ttyvideo/codec"
)

const (
	cursorHome = "\x1b[H"
	clearAll   = "\x1b[2J\x1b[H"
)

// Screen writes terminal control sequences around frame output.
type Screen struct {
	w    io.Writer
	sync bool
}

// NewScreen wraps w. Synchronized output is only used when w is a terminal on
// a platform that understands it.
func NewScreen(w io.Writer) *Screen {
	return &Screen{w: w, sync: supportsSyncOutput && IsTerminal(w)}
}

// BeginSyncOutput enables synchronized output mode (OSC 2026) on terminals that support it.
func (s *Screen) BeginSyncOutput() {
	if s.sync {
		io.WriteString(s.w, "\x1b[?2026h")
	}
}

// EndSyncOutput disables synchronized output mode.
func (s *Screen) EndSyncOutput() {
	if s.sync {
		io.WriteString(s.w, "\x1b[?2026l")
	}
}

// EnterAltScreen switches to the alternate buffer, hides the cursor and
// disables line wrap so wide frames do not scroll.
func (s *Screen) EnterAltScreen() {
	io.WriteString(s.w, "\x1b[?1049h\x1b[?25l\x1b[?7l\x1b[3J"+clearAll)
}

// ExitAltScreen restores what EnterAltScreen changed.
func (s *Screen) ExitAltScreen() {
	seq := ""
	if s.sync {
		seq += "\x1b[?2026l"
	}
	seq += "\x1b[0m\x1b[?7h\x1b[?25h\x1b[?1049l"
	io.WriteString(s.w, seq)
}

// IsTerminal reports whether w is a file attached to a terminal.
func IsTerminal(w any) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// GetTermSize queries the current terminal size in character cells using stdout.
func GetTermSize() (cols, rows int, err error) {
	cols, rows, err = term.GetSize(int(os.Stdout.Fd()))
	return
}

// TermSize returns the glyph grid available on stdout, or 317x76 when stdout
// is not a terminal. The last row is left free for the cursor.
func TermSize() (cols, lines int) {
	cols, rows, err := GetTermSize()
	if err != nil || cols <= 0 || rows <= 1 {
		return codec.DefaultColumns, codec.DefaultLines
	}
	return cols, rows - 1
}
