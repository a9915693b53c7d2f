package audio

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"
)

// Context renders buffers to WAV and plays them with an external player.
// Starting a new playback stops the previous one.
type Context struct {
	dir     string
	command func(file string) (*exec.Cmd, error)

	mu      sync.Mutex
	cmd     *exec.Cmd
	counter int
}

var (
	sharedOnce     sync.Once
	shared         *Context
	sharedErr      error
	contextsOpened atomic.Int32
)

// Shared returns the process-wide playback context, creating it on first use
func Shared() (*Context, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = NewContext("")
	})
	return shared, sharedErr
}

// NewContext creates a playback context writing its files below dir, or a
// fresh temporary directory when dir is empty
func NewContext(dir string) (*Context, error) {
	if dir == "" {
		tmp, err := os.MkdirTemp("", "lingopop_audio_*")
		if err != nil {
			return nil, fmt.Errorf("failed to create audio directory: %w", err)
		}
		dir = tmp
	} else if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create audio directory: %w", err)
	}

	contextsOpened.Add(1)
	return &Context{dir: dir, command: playerCommand}, nil
}

// Play stops any running playback and starts playing buf. It returns once the
// player process has started; the process ends on its own or on Stop.
func (c *Context) Play(ctx context.Context, buf *Buffer) error {
	if buf == nil || len(buf.Samples) == 0 {
		return fmt.Errorf("no audio to play")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()

	c.counter++
	file := filepath.Join(c.dir, fmt.Sprintf("speech_%d.wav", c.counter))
	if err := writeWAVFile(file, buf); err != nil {
		return err
	}

	cmd, err := c.command(file)
	if err != nil {
		return err
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start audio player: %w", err)
	}
	c.cmd = cmd

	go func() {
		_ = cmd.Wait()
		_ = os.Remove(file)
	}()

	return nil
}

// Stop kills the running playback, if any
func (c *Context) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Context) stopLocked() {
	if c.cmd != nil && c.cmd.Process != nil {
		_ = c.cmd.Process.Kill()
	}
	c.cmd = nil
}

// Close stops playback and removes the context's files
func (c *Context) Close() error {
	c.Stop()
	return os.RemoveAll(c.dir)
}

func writeWAVFile(path string, buf *Buffer) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create audio file: %w", err)
	}
	if err := buf.WriteWAV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// playerCommand picks a platform audio player for a WAV file
func playerCommand(file string) (*exec.Cmd, error) {
	switch runtime.GOOS {
	case "darwin":
		return exec.Command("afplay", file), nil
	case "linux":
		// Try multiple commands in order of preference
		candidates := [][]string{
			{"paplay", file},
			{"aplay", "-q", file},
			{"ffplay", "-nodisp", "-autoexit", "-loglevel", "quiet", file},
			{"play", "-q", file},
		}
		for _, c := range candidates {
			if _, err := exec.LookPath(c[0]); err == nil {
				return exec.Command(c[0], c[1:]...), nil
			}
		}
		return nil, fmt.Errorf("no audio player found. Install paplay, aplay, ffplay, or sox")
	case "windows":
		return exec.Command("powershell", "-c",
			fmt.Sprintf("(New-Object Media.SoundPlayer '%s').PlaySync()", file)), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
}
