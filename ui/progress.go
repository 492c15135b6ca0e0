package ui

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"
)

// Progress prints a single self-overwriting status line. It is driven from
// one goroutine, the pipeline collector.
type Progress struct {
	w     io.Writer
	label string
	start time.Time
	last  time.Time
	every time.Duration

	done, total int
	drawn       bool
}

// NewProgress returns a line labelled e.g. "Processing new frame".
func NewProgress(w io.Writer, label string) *Progress {
	now := time.Now()
	return &Progress{w: w, label: label, start: now, every: 50 * time.Millisecond}
}

// Update redraws the line. Redraws are rate limited except for the final one.
func (p *Progress) Update(done, total int) {
	p.done, p.total = done, total
	now := time.Now()
	if done < total && now.Sub(p.last) < p.every {
		p.drawn = false
		return
	}
	p.last = now
	p.draw()
}

func (p *Progress) draw() {
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100
	}
	fmt.Fprintf(p.w, "\r%s: %d out of %d. %.2f%% done", p.label, p.done, p.total, pct)
	p.drawn = true
}

// Finish redraws the line with the last counts if a rate limited update
// was skipped, ends it and returns the time since NewProgress.
func (p *Progress) Finish() time.Duration {
	if !p.drawn && p.total > 0 {
		p.draw()
	}
	fmt.Fprintln(p.w)
	return time.Since(p.start)
}

// WaitForEnter prints prompt and blocks until a line is read from in or ctx
// is cancelled.
func WaitForEnter(ctx context.Context, in io.Reader, out io.Writer, prompt string) error {
	fmt.Fprint(out, prompt)

	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(in).ReadString('\n')
		if err == io.EOF {
			err = nil
		}
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		fmt.Fprintln(out)
		return ctx.Err()
	}
}
