//go:build windows

package ui

import (
	"os"

	"golang.org/x/sys/windows"
)

const utf8CodePage = 65001

// Windows consoles ignore OSC 2026, so frames are written without it.
const supportsSyncOutput = false

// init makes the console understand the cursor and color escapes frames are
// made of, and switches it to UTF-8 so braille and kana glyphs survive.
func init() {
	for _, f := range []*os.File{os.Stdout, os.Stderr} {
		enableVirtualTerminal(windows.Handle(f.Fd()))
	}
	_ = windows.SetConsoleOutputCP(utf8CodePage)
	_ = windows.SetConsoleCP(utf8CodePage)
}

func enableVirtualTerminal(h windows.Handle) {
	if h == windows.InvalidHandle {
		return
	}
	var mode uint32
	if err := windows.GetConsoleMode(h, &mode); err != nil {
		// redirected to a file or pipe
		return
	}
	mode |= windows.ENABLE_PROCESSED_OUTPUT | windows.ENABLE_VIRTUAL_TERMINAL_PROCESSING
	mode &^= windows.DISABLE_NEWLINE_AUTO_RETURN
	_ = windows.SetConsoleMode(h, mode)
}
