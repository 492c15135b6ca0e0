package ui

import (
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// DefaultFPS is used when neither the video nor the command line gives a rate.
const DefaultFPS = 30

// Frames is an index-addressed set of rendered frames. Absent frames report false.
type Frames interface {
	Len() int
	Frame(i int) (string, bool)
}

// PlayOptions controls Play.
type PlayOptions struct {
	FPS  float64
	Loop bool
	// AltScreen draws on the alternate buffer and restores the screen afterwards.
	AltScreen bool
	Logger    logrus.FieldLogger
}

// Play prints frames to w one after another at opts.FPS, each drawn over the
// previous one from the top-left corner. An absent frame keeps the previous
// picture on screen for its tick. Play returns when the frames run out (or,
// with Loop, never) or when ctx is cancelled, and reports how long it played.
func Play(ctx context.Context, w io.Writer, frames Frames, opts PlayOptions) (time.Duration, error) {
	fps := opts.FPS
	if !ValidFPS(fps) {
		fps = DefaultFPS
	}
	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	screen := NewScreen(w)
	if opts.AltScreen {
		screen.EnterAltScreen()
		defer screen.ExitAltScreen()
	} else {
		io.WriteString(w, clearAll)
	}

	interval := time.Duration(float64(time.Second) / fps)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var (
		counter fpsCounter
		buf     strings.Builder
		start   = time.Now()
	)
	for {
		for i := 0; i < frames.Len(); i++ {
			if text, ok := frames.Frame(i); ok {
				buf.Reset()
				buf.WriteString(cursorHome)
				buf.WriteString(text)

				screen.BeginSyncOutput()
				_, err := io.WriteString(w, buf.String())
				screen.EndSyncOutput()
				if err != nil {
					return time.Since(start), fmt.Errorf("write frame %d: %w", i, err)
				}
				if counter.recordFrame(time.Now()) {
					log.WithField("fps", counter.display).Debug("playback rate")
				}
			}

			select {
			case <-ctx.Done():
				return time.Since(start), nil
			case <-ticker.C:
			}
		}
		if !opts.Loop || frames.Len() == 0 {
			return time.Since(start), nil
		}
	}
}

// ValidFPS reports whether fps is a finite positive rate with a frame
// interval of at least one nanosecond.
func ValidFPS(fps float64) bool {
	if math.IsNaN(fps) || math.IsInf(fps, 0) || fps <= 0 {
		return false
	}
	return time.Duration(float64(time.Second)/fps) > 0
}

// fpsCounter measures the achieved frame rate over one second windows.
type fpsCounter struct {
	lastTick time.Time
	frames   int
	display  string
}

// recordFrame counts one frame and reports whether a new rate was computed.
func (fc *fpsCounter) recordFrame(now time.Time) bool {
	if fc.lastTick.IsZero() {
		fc.lastTick = now
	}
	fc.frames++
	elapsed := now.Sub(fc.lastTick)
	if elapsed < time.Second {
		return false
	}
	fps := float64(fc.frames) / elapsed.Seconds()
	fc.display = fmt.Sprintf("%.1f", fps)
	fc.frames = 0
	fc.lastTick = now
	return true
}
