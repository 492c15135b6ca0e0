package device

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"runtime"
)

// Reference is an external player showing the source video next to the
// terminal rendition.
type Reference struct {
	cmd  *exec.Cmd
	done chan error
}

// referencePlayers are tried in order; the first one on PATH wins.
func referencePlayers(path string) [][]string {
	players := [][]string{
		{"vlc", "--play-and-exit", path},
		{"mpv", "--really-quiet", path},
		{"ffplay", "-autoexit", "-loglevel", "quiet", path},
	}
	if runtime.GOOS == "darwin" {
		players = append(players, []string{"open", "-a", "VLC", path})
	}
	return players
}

// StartReference launches the first available player on path. The player is
// killed when ctx is cancelled.
func StartReference(ctx context.Context, path string) (*Reference, error) {
	for _, argv := range referencePlayers(path) {
		if _, err := exec.LookPath(argv[0]); err != nil {
			continue
		}
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Stdout = io.Discard
		cmd.Stderr = io.Discard
		if err := cmd.Start(); err != nil {
			continue
		}

		ref := &Reference{cmd: cmd, done: make(chan error, 1)}
		go func() {
			ref.done <- cmd.Wait()
		}()
		return ref, nil
	}
	return nil, fmt.Errorf("no reference player found (tried vlc, mpv, ffplay)")
}

// Name is the player binary that was started.
func (r *Reference) Name() string {
	if r == nil {
		return ""
	}
	return r.cmd.Path
}

// Stop kills the player if it is still running and waits for it to exit.
func (r *Reference) Stop() {
	if r == nil {
		return
	}
	if r.cmd.Process != nil {
		_ = r.cmd.Process.Kill()
	}
	<-r.done
}
