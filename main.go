package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/svanichkin/ttyvideo/codec"
	"github.com/svanichkin/ttyvideo/conf"
	"github.com/svanichkin/ttyvideo/device"
	"github.com/svanichkin/ttyvideo/logs"
	"github.com/svanichkin/ttyvideo/pipeline"
	"github.com/svanichkin/ttyvideo/ui"
)

var version = "dev"

const playPrompt = "Successfully processed video. Press enter to play..."

func main() {
	err := run()
	if err == nil {
		return
	}

	var usage *conf.UsageError
	if errors.As(err, &usage) {
		if errors.Is(err, flag.ErrHelp) {
			conf.Usage(os.Stdout)
			return
		}
		fmt.Fprintf(os.Stderr, "[ttyvideo] %v\n", err)
		conf.Usage(os.Stderr)
		os.Exit(2)
	}
	fmt.Fprintf(os.Stderr, "[ttyvideo] %v\n", err)
	os.Exit(1)
}

func run() error {
	opts, err := conf.ParseCLI(os.Args[1:])
	if err != nil {
		return err
	}
	if opts.ShowVersion {
		printVersion()
		return nil
	}

	logger := logs.Setup(opts.Verbose, os.Stderr)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := conversionConfig(opts)
	if err != nil {
		return err
	}

	switch {
	case strings.HasSuffix(strings.ToLower(opts.Input), pipeline.CacheExt):
		return playCache(ctx, opts, logger)
	case device.IsImageFile(opts.Input):
		return convertImage(opts, cfg)
	default:
		return convertVideo(ctx, opts, cfg, logger)
	}
}

// conversionConfig turns the command line into an immutable codec.Config.
// Invalid combinations are reported as usage errors before anything is decoded.
func conversionConfig(opts *conf.AppOptions) (codec.Config, error) {
	cols, lines := opts.Columns, opts.Lines
	if cols == 0 || lines == 0 {
		tc, tl := ui.TermSize()
		if cols == 0 {
			cols = tc
		}
		if lines == 0 {
			lines = tl
		}
	}

	cfg := codec.Config{
		GlyphSet:         opts.GlyphSet,
		Transform:        opts.Transform,
		Invert:           opts.Invert,
		BrailleThreshold: opts.Threshold,
		DotSpacing:       opts.DotSpacing,
		Color:            opts.ColorOutput(),
		Columns:          cols,
		Lines:            lines,
	}
	if err := cfg.Validate(); err != nil {
		return cfg, &conf.UsageError{Msg: "conversion settings", Err: err}
	}

	if opts.DebugDir != "" {
		sink, err := device.NewSnapshotDir(opts.DebugDir)
		if err != nil {
			return cfg, err
		}
		cfg.Sink = sink
	}
	logs.LogV("conversion: %s/%s invert=%t grid=%dx%d", cfg.GlyphSet, cfg.Transform.Name(), cfg.Invert, cols, lines)
	return cfg, nil
}

func convertImage(opts *conf.AppOptions, cfg codec.Config) error {
	img, err := device.LoadImage(opts.Input)
	if err != nil {
		return err
	}
	text, err := codec.Convert(img, cfg)
	if err != nil {
		return fmt.Errorf("convert %s: %w", opts.Input, err)
	}
	fmt.Print(text)
	return nil
}

func convertVideo(ctx context.Context, opts *conf.AppOptions, cfg codec.Config, logger *logrus.Logger) error {
	src, err := device.OpenVideo(opts.Input)
	if err != nil {
		return err
	}
	if err := src.SaveFramesTo(opts.SaveFrames); err != nil {
		return err
	}
	info := src.Info()
	if info.Frames <= 0 {
		return fmt.Errorf("%s: decoder reports no frames", opts.Input)
	}

	progress := ui.NewProgress(os.Stdout, "Processing new frame")
	seq, err := pipeline.Run(ctx, src, info.Frames, func() pipeline.Converter {
		// cfg passed Validate in conversionConfig, so this cannot fail
		conv, _ := codec.NewConverter(cfg)
		return conv
	}, pipeline.Options{
		Workers:  opts.Workers,
		Progress: progress.Update,
		Logger:   logger,
	})
	took := progress.Finish()
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return fmt.Errorf("convert %s: %w", opts.Input, err)
	}

	fmt.Printf("converted %d of %d frames in %.2fs\n", seq.Converted(), seq.Len(), took.Seconds())
	fmt.Printf("total size is %s\n", pipeline.FormatSize(seq.Size()))
	if missing := seq.Missing(); len(missing) > 0 {
		logger.WithFields(logrus.Fields{
			"missing": len(missing),
			"first":   missing[0],
		}).Warn("some frames could not be decoded")
	}

	fps := info.FPS
	if opts.FPS > 0 {
		fps = opts.FPS
	}
	if !ui.ValidFPS(fps) {
		// unknown to the decoder; playback uses ui.DefaultFPS
		fps = 0
	}
	if opts.Output != "" {
		if err := pipeline.SaveFile(opts.Output, seq, fps); err != nil {
			return fmt.Errorf("write %s: %w", opts.Output, err)
		}
		fmt.Printf("saved frames to %s\n", opts.Output)
	}

	if err := play(ctx, opts, seq, fps, opts.Input, logger); err != nil {
		return err
	}
	fmt.Printf("other stats: total frames=%d, fps=%.2f, original_duration=%.2fs\n", info.Frames, info.FPS, info.Duration())
	return nil
}

func playCache(ctx context.Context, opts *conf.AppOptions, logger *logrus.Logger) error {
	seq, fps, err := pipeline.LoadFile(opts.Input)
	if err != nil {
		return fmt.Errorf("load %s: %w", opts.Input, err)
	}
	logs.LogV("cache %s: %d frames, %.2f fps, %s", opts.Input, seq.Converted(), fps, pipeline.FormatSize(seq.Size()))
	if opts.FPS > 0 {
		fps = opts.FPS
	}
	if opts.Ref {
		logger.Warn("-ref needs the source video, ignored for cached frames")
		opts.Ref = false
	}
	return play(ctx, opts, seq, fps, "", logger)
}

func play(ctx context.Context, opts *conf.AppOptions, frames ui.Frames, fps float64, source string, logger *logrus.Logger) error {
	if ui.IsTerminal(os.Stdin) {
		if err := ui.WaitForEnter(ctx, os.Stdin, os.Stdout, playPrompt); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}

	if opts.Ref && source != "" {
		ref, err := device.StartReference(ctx, source)
		if err != nil {
			logger.WithError(err).Warn("reference player")
		} else {
			logs.LogV("reference player: %s", ref.Name())
			defer ref.Stop()
		}
	}

	elapsed, err := ui.Play(ctx, os.Stdout, frames, ui.PlayOptions{
		FPS:       fps,
		Loop:      opts.Loop,
		AltScreen: ui.IsTerminal(os.Stdout),
		Logger:    logger,
	})
	if err != nil {
		return err
	}
	fmt.Printf("played video for %.2fs\n", elapsed.Seconds())
	return nil
}

func printVersion() {
	fmt.Printf("ttyvideo %s\n", appVersion())
}

func appVersion() string {
	v := strings.TrimSpace(version)
	if v == "" {
		v = "dev"
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		if v == "dev" {
			if ver := strings.TrimSpace(bi.Main.Version); ver != "" && ver != "(devel)" {
				return ver
			}
		}
		if v == "dev" {
			if derived := vcsVersion(bi); derived != "" {
				return derived
			}
		}
	}
	return v
}

func vcsVersion(bi *debug.BuildInfo) string {
	revision := buildInfoSetting(bi, "vcs.revision")
	if revision == "" {
		return ""
	}
	short := revision
	if len(short) > 12 {
		short = short[:12]
	}
	dirty := ""
	if buildInfoSetting(bi, "vcs.modified") == "true" {
		dirty = "+dirty"
	}
	if ts := buildInfoSetting(bi, "vcs.time"); ts != "" {
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			return fmt.Sprintf("v0.0.0-%s-%s%s", t.UTC().Format("20060102150405"), short, dirty)
		}
	}
	return short + dirty
}

func buildInfoSetting(bi *debug.BuildInfo, key string) string {
	for _, setting := range bi.Settings {
		if setting.Key == key {
			return setting.Value
		}
	}
	return ""
}
