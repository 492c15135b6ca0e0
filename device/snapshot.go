package device

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"github.com/svanichkin/ttyvideo/codec"
	"github.com/svanichkin/ttyvideo/logs"
	"gocv.io/x/gocv"
)

// SnapshotDir writes every intermediate conversion stage as <dir>/<stage>.png.
// Later frames overwrite earlier ones, so after a video run the directory
// holds the stages of whichever frame finished last.
type SnapshotDir struct {
	dir string
	mu  sync.Mutex
}

var _ codec.Sink = (*SnapshotDir)(nil)

// NewSnapshotDir creates dir if needed.
func NewSnapshotDir(dir string) (*SnapshotDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("snapshot dir: %w", err)
	}
	return &SnapshotDir{dir: dir}, nil
}

func (s *SnapshotDir) Snapshot(stage string, img image.Image) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		logs.LogV("snapshot %s: %v", stage, err)
		return
	}
	defer mat.Close()

	name := filepath.Join(s.dir, stage+".png")

	s.mu.Lock()
	defer s.mu.Unlock()
	if !gocv.IMWrite(name, mat) {
		logs.LogV("snapshot %s: write %s failed", stage, name)
	}
}
