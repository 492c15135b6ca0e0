package pipeline

import (
	"context"
	"fmt"
	"image"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Source opens independent readers over one video. Each worker opens its own
// reader, so implementations must allow several to be open at once.
type Source interface {
	OpenAt(offset int) (Reader, error)
}

// Reader yields consecutive frames starting at the offset it was opened at.
// ReadNext reports false when no further frame can be decoded.
type Reader interface {
	ReadNext() (image.Image, bool)
	Close() error
}

// Converter renders one frame. Implementations keep per-instance caches and
// are used by a single worker.
type Converter interface {
	Convert(img image.Image) (string, error)
}

// FrameResult is one converted frame tagged with its index in the video.
type FrameResult struct {
	Index int
	Text  string
}

// Range is the half-open frame range [Start, End) owned by one worker.
type Range struct {
	Start int
	End   int
}

// Len returns the number of frames in r.
func (r Range) Len() int {
	return r.End - r.Start
}

// Options tunes Run. Zero values pick defaults.
type Options struct {
	// Workers defaults to runtime.NumCPU and is clamped to [1, total].
	Workers int
	// Buffer is the result channel capacity, 2*Workers by default.
	Buffer int
	// Progress is called from the collector after every stored frame.
	Progress func(done, total int)
	Logger   logrus.FieldLogger
}

// Partition splits total frames into contiguous ranges of ceil(total/workers)
// frames. Trailing workers may get a shorter range or none at all, so fewer
// than workers ranges can be returned. Ranges never overlap and cover
// [0, total).
func Partition(total, workers int) []Range {
	if total <= 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > total {
		workers = total
	}
	per := (total + workers - 1) / workers

	ranges := make([]Range, 0, workers)
	for start := 0; start < total; start += per {
		end := start + per
		if end > total {
			end = total
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}

// Run converts frames [0, total) of src on a pool of workers and returns them
// in original order. Frames a worker could not decode are left absent. The
// returned Sequence is never nil, even alongside an error: a converter error
// or a cancelled ctx stops the run and keeps whatever was already collected.
func Run(ctx context.Context, src Source, total int, newConverter func() Converter, opts Options) (*Sequence, error) {
	if total < 0 {
		total = 0
	}
	seq := NewSequence(total)
	if total == 0 {
		return seq, nil
	}

	log := opts.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	ranges := Partition(total, workers)

	buffer := opts.Buffer
	if buffer <= 0 {
		buffer = 2 * len(ranges)
	}
	results := make(chan FrameResult, buffer)

	collected := make(chan struct{})
	go func() {
		defer close(collected)
		done := 0
		for res := range results {
			seq.set(res.Index, res.Text)
			done++
			if opts.Progress != nil {
				opts.Progress(done, total)
			}
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	for i, r := range ranges {
		r := r
		wlog := log.WithFields(logrus.Fields{"worker": i, "start": r.Start, "end": r.End})
		conv := newConverter()
		g.Go(func() error {
			return convertRange(gctx, src, r, conv, results, wlog)
		})
	}

	err := g.Wait()
	// every sender has returned; closing tells the collector nothing else is coming
	close(results)
	<-collected

	if err == nil {
		err = ctx.Err()
	}
	log.WithFields(logrus.Fields{
		"frames":    total,
		"converted": seq.Converted(),
		"workers":   len(ranges),
	}).Debug("pipeline finished")
	return seq, err
}

func convertRange(ctx context.Context, src Source, r Range, conv Converter, out chan<- FrameResult, log logrus.FieldLogger) error {
	reader, err := src.OpenAt(r.Start)
	if err != nil {
		log.WithError(err).Debug("open failed, range left empty")
		return nil
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			log.WithError(cerr).Debug("close reader")
		}
	}()

	for idx := r.Start; idx < r.End; idx++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		img, ok := reader.ReadNext()
		if !ok {
			log.WithField("frame", idx).Debug("decode stopped, range truncated")
			return nil
		}

		text, err := conv.Convert(img)
		if err != nil {
			return fmt.Errorf("frame %d: %w", idx, err)
		}

		select {
		case out <- FrameResult{Index: idx, Text: text}:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
