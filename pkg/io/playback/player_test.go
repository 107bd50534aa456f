package playback

import (
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCommandPlayerRunsCommand(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true(1) not available")
	}
	assert.NoError(t, NewCommandPlayer("true").Play(context.Background(), "/tmp/whatever.wav"))
}

func TestCommandPlayerReportsFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false(1) not available")
	}
	assert.Error(t, NewCommandPlayer("false").Play(context.Background(), "/tmp/whatever.wav"))
}

func TestCommandPlayerMissingBinary(t *testing.T) {
	err := NewCommandPlayer("definitely-not-a-player-binary").Play(context.Background(), "x.wav")
	assert.Error(t, err)
}
