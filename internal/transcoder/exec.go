package transcoder

import (
	"context"
	"os/exec"
)

// execRunner runs commands via os/exec, waiting synchronously for completion.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = nil // Discard stdout
	cmd.Stderr = nil // Discard stderr (FFmpeg outputs progress to stderr)
	return cmd.Run()
}
