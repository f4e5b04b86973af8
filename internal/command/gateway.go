package command

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"unicode/utf8"

	"github.com/ryanmoran/pgspawn/internal"
)

var (
	// ErrInvalidOutput is returned when a command writes bytes that are not valid UTF-8.
	ErrInvalidOutput = errors.New("command output was invalid format (non utf-8)")

	// ErrCommandFailed is returned by RunForEffect when the program could not be
	// spawned or awaited.
	ErrCommandFailed = errors.New("command failed")
)

type Gateway struct {
	executor Executor
}

// NewGateway creates a Gateway that runs commands through the provided Executor.
func NewGateway(executor Executor) Gateway {
	return Gateway{
		executor: executor,
	}
}

// NewDefaultGateway creates a Gateway that runs commands on the host with os/exec.
func NewDefaultGateway() Gateway {
	return NewGateway(ExecExecutor{})
}

// Run executes the command line and returns its standard output as text with
// leading and trailing whitespace removed. The line is split on whitespace into
// a program name and its arguments; there is no quoting support.
//
// Run blocks the calling goroutine until the program exits. There is no
// timeout beyond what ctx imposes.
//
// A program that cannot be spawned or awaited yields an empty result and no
// error, as does an empty command line. Callers find out when they try to use
// the empty text. A program that exits non-zero still has its standard output
// returned. Output that is not valid UTF-8 fails with ErrInvalidOutput.
func (g Gateway) Run(ctx context.Context, line internal.CommandLine) (string, error) {
	output, err := g.run(ctx, line)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return "", nil
		}
	}

	if !utf8.Valid(output) {
		return "", fmt.Errorf("failed to decode output of %q: %w", line, ErrInvalidOutput)
	}

	return strings.TrimSpace(string(output)), nil
}

// RunForEffect executes the command line and discards its output. The exit
// status is not inspected: a program that ran counts as success.
//
// Unlike Run, a program that could not be spawned or awaited is reported as an
// error wrapping ErrCommandFailed. Run can stay silent because a later parse
// of its empty output fails; RunForEffect has no output to parse, so without
// the error a missing runtime binary would make teardown look successful while
// leaving the container running. Callers that must never fail, such as
// teardown, are expected to log the error and carry on.
func (g Gateway) RunForEffect(ctx context.Context, line internal.CommandLine) error {
	output, err := g.run(ctx, line)
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return fmt.Errorf("%w: %q: %w", ErrCommandFailed, line, err)
		}
	}

	if !utf8.Valid(output) {
		return fmt.Errorf("failed to decode output of %q: %w", line, ErrInvalidOutput)
	}

	return nil
}

func (g Gateway) run(ctx context.Context, line internal.CommandLine) ([]byte, error) {
	fields := strings.Fields(string(line))
	if len(fields) == 0 {
		return nil, errors.New("empty command line")
	}

	return g.executor.Output(ctx, fields[0], fields[1:]...)
}
