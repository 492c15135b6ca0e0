package device

import (
	"fmt"
	"image"
	"os"
	"path/filepath"

	"github.com/svanichkin/ttyvideo/logs"
	"github.com/svanichkin/ttyvideo/pipeline"
	"gocv.io/x/gocv"
)

// VideoInfo holds the container properties reported by the decoder.
type VideoInfo struct {
	Frames int
	FPS    float64
	Width  int
	Height int
}

// Duration is the nominal running time in seconds.
func (i VideoInfo) Duration() float64 {
	if i.FPS <= 0 {
		return 0
	}
	return float64(i.Frames) / i.FPS
}

// VideoSource opens independent gocv captures over one file. It satisfies
// pipeline.Source.
type VideoSource struct {
	path     string
	info     VideoInfo
	framesTo string
}

var _ pipeline.Source = (*VideoSource)(nil)

// OpenVideo probes path and returns a source bound to it.
func OpenVideo(path string) (*VideoSource, error) {
	vc, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", path, err)
	}
	defer vc.Close()

	if !vc.IsOpened() {
		return nil, fmt.Errorf("open video %s: no decoder", path)
	}

	info := VideoInfo{
		Frames: int(vc.Get(gocv.VideoCaptureFrameCount)),
		FPS:    vc.Get(gocv.VideoCaptureFPS),
		Width:  int(vc.Get(gocv.VideoCaptureFrameWidth)),
		Height: int(vc.Get(gocv.VideoCaptureFrameHeight)),
	}
	logs.LogV("video %s: %d frames, %.2f fps, %dx%d", path, info.Frames, info.FPS, info.Width, info.Height)
	return &VideoSource{path: path, info: info}, nil
}

// Info returns the probed properties.
func (v *VideoSource) Info() VideoInfo {
	return v.info
}

// SaveFramesTo makes every reader also write its decoded frames as
// <dir>/frame<N>.jpg. An empty dir turns it off.
func (v *VideoSource) SaveFramesTo(dir string) error {
	if dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("frames dir: %w", err)
		}
	}
	v.framesTo = dir
	return nil
}

// OpenAt opens a fresh capture seeked to frame offset.
func (v *VideoSource) OpenAt(offset int) (pipeline.Reader, error) {
	vc, err := gocv.VideoCaptureFile(v.path)
	if err != nil {
		return nil, fmt.Errorf("open video %s: %w", v.path, err)
	}
	if offset > 0 {
		vc.Set(gocv.VideoCapturePosFrames, float64(offset))
	}
	return &videoReader{
		vc:       vc,
		mat:      gocv.NewMat(),
		next:     offset,
		framesTo: v.framesTo,
	}, nil
}

type videoReader struct {
	vc       *gocv.VideoCapture
	mat      gocv.Mat
	next     int
	framesTo string
}

func (r *videoReader) ReadNext() (image.Image, bool) {
	if ok := r.vc.Read(&r.mat); !ok || r.mat.Empty() {
		return nil, false
	}
	idx := r.next
	r.next++

	if r.framesTo != "" {
		name := filepath.Join(r.framesTo, fmt.Sprintf("frame%d.jpg", idx))
		if !gocv.IMWrite(name, r.mat) {
			logs.LogV("save frame %d: write %s failed", idx, name)
		}
	}

	img, err := r.mat.ToImage()
	if err != nil {
		logs.LogV("frame %d: %v", idx, err)
		return nil, false
	}
	return img, true
}

func (r *videoReader) Close() error {
	if err := r.mat.Close(); err != nil {
		r.vc.Close()
		return err
	}
	return r.vc.Close()
}
