package command_test

import (
	"context"
	"errors"
)

// mockExecutor is a mock implementation of command.Executor for testing
type mockExecutor struct {
	outputFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

	calls [][]string
}

func (m *mockExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	m.calls = append(m.calls, append([]string{name}, args...))
	if m.outputFunc != nil {
		return m.outputFunc(ctx, name, args...)
	}
	return nil, errors.New("not implemented")
}
