package playback

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Player plays an audio file synchronously.
type Player interface {
	Play(ctx context.Context, path string) error
}

// CommandPlayer shells out to a system audio player. The file path is
// appended after Args.
type CommandPlayer struct {
	Command string
	Args    []string
}

func NewCommandPlayer(command string, args ...string) *CommandPlayer {
	return &CommandPlayer{Command: command, Args: args}
}

func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	command := p.Command
	args := p.Args
	if command == "" {
		var err error
		command, args, err = detect()
		if err != nil {
			return err
		}
	}

	cmd := exec.CommandContext(ctx, command, append(append([]string{}, args...), path)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s failed: %w (%s)", command, err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// detect picks the first available player for this platform.
func detect() (string, []string, error) {
	switch runtime.GOOS {
	case "darwin":
		return "afplay", nil, nil
	case "linux":
		for _, c := range []struct {
			name string
			args []string
		}{{"aplay", []string{"-q"}}, {"paplay", nil}, {"play", []string{"-q"}}} {
			if _, err := exec.LookPath(c.name); err == nil {
				return c.name, c.args, nil
			}
		}
		return "", nil, fmt.Errorf("no audio player found")
	default:
		return "", nil, fmt.Errorf("unsupported OS: %s", runtime.GOOS)
	}
}
