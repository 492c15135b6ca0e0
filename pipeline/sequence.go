package pipeline

import "fmt"

// Sequence holds converted frames by index. Slots start absent and are filled
// once by the collector; afterwards the sequence is read-only.
type Sequence struct {
	frames  []string
	present []bool
	count   int
	bytes   int
}

// NewSequence returns a sequence of n absent frames.
func NewSequence(n int) *Sequence {
	if n < 0 {
		n = 0
	}
	return &Sequence{
		frames:  make([]string, n),
		present: make([]bool, n),
	}
}

// Len is the number of slots, present or not.
func (s *Sequence) Len() int {
	return len(s.frames)
}

// Frame returns the text of frame i and whether it was converted.
func (s *Sequence) Frame(i int) (string, bool) {
	if i < 0 || i >= len(s.frames) || !s.present[i] {
		return "", false
	}
	return s.frames[i], true
}

// Converted counts present frames.
func (s *Sequence) Converted() int {
	return s.count
}

// Size is the total byte length of all present frames.
func (s *Sequence) Size() int {
	return s.bytes
}

// Missing lists the indices of absent frames in ascending order.
func (s *Sequence) Missing() []int {
	var out []int
	for i, ok := range s.present {
		if !ok {
			out = append(out, i)
		}
	}
	return out
}

func (s *Sequence) set(i int, text string) {
	if i < 0 || i >= len(s.frames) {
		return
	}
	if s.present[i] {
		s.bytes -= len(s.frames[i])
	} else {
		s.count++
	}
	s.frames[i] = text
	s.present[i] = true
	s.bytes += len(text)
}

// FormatSize renders a byte count the way the summary line prints it,
// truncated to whole units: "512b", "3kb", "41mb".
func FormatSize(n int) string {
	unit := "b"
	if n >= 1024 {
		n /= 1024
		unit = "kb"
		if n >= 1024 {
			n /= 1024
			unit = "mb"
		}
	}
	return fmt.Sprintf("%d%s", n, unit)
}
