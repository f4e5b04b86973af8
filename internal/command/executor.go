package command

import (
	"context"
	"io"
	"os/exec"
)

// Executor runs a program to completion and returns what it wrote to standard
// output. A non-nil error of type *exec.ExitError means the program ran but
// exited non-zero; any other error means it could not be spawned or awaited.
//
// The real implementation shells out with os/exec. Tests inject a mock.
type Executor interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecExecutor is the os/exec backed Executor.
type ExecExecutor struct{}

// Output runs the program with standard error discarded and no standard input.
// It blocks until the program exits or ctx is cancelled, in which case the
// process is killed.
func (ExecExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = io.Discard
	return cmd.Output()
}
