package extract

import (
	"context"
	"os/exec"
)

// CommandRunner abstracts external tool invocation so adapters that shell out
// (OCR) can be tested without the binary installed.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}
