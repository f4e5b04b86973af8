package postgres_test

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/ryanmoran/pgspawn/internal"
)

// mockGateway is a mock implementation of postgres.Gateway for testing
type mockGateway struct {
	runFunc          func(ctx context.Context, line internal.CommandLine) (string, error)
	runForEffectFunc func(ctx context.Context, line internal.CommandLine) error

	mu    sync.Mutex
	lines []string
}

func (m *mockGateway) Run(ctx context.Context, line internal.CommandLine) (string, error) {
	m.record(line)
	if m.runFunc != nil {
		return m.runFunc(ctx, line)
	}
	return "", nil
}

func (m *mockGateway) RunForEffect(ctx context.Context, line internal.CommandLine) error {
	m.record(line)
	if m.runForEffectFunc != nil {
		return m.runForEffectFunc(ctx, line)
	}
	return nil
}

func (m *mockGateway) record(line internal.CommandLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines = append(m.lines, string(line))
}

func (m *mockGateway) Lines() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.lines...)
}

// LinesWithPrefix returns recorded command lines starting with prefix.
func (m *mockGateway) LinesWithPrefix(prefix string) []string {
	var lines []string
	for _, line := range m.Lines() {
		if strings.HasPrefix(line, prefix) {
			lines = append(lines, line)
		}
	}
	return lines
}

// newRuntime returns a gateway that behaves like a healthy runtime: "run"
// prints id, "container port" prints the given port output.
func newRuntime(id, portOutput string) *mockGateway {
	return &mockGateway{
		runFunc: func(ctx context.Context, line internal.CommandLine) (string, error) {
			switch {
			case strings.Contains(string(line), " run "):
				return id, nil
			case strings.Contains(string(line), " container port "):
				return portOutput, nil
			}
			return "", nil
		},
	}
}

type mockWriter struct {
	mu  sync.Mutex
	out strings.Builder
	err strings.Builder
}

func (m *mockWriter) Print(v ...interface{}) { m.write(&m.out, fmt.Sprint(v...)) }
func (m *mockWriter) Printf(format string, v ...interface{}) {
	m.write(&m.out, fmt.Sprintf(format, v...))
}
func (m *mockWriter) Println(v ...interface{}) { m.write(&m.out, fmt.Sprintln(v...)) }
func (m *mockWriter) Warning(v ...interface{}) { m.write(&m.err, "Warning: "+fmt.Sprintln(v...)) }
func (m *mockWriter) Warningf(format string, v ...interface{}) {
	m.write(&m.err, "Warning: "+fmt.Sprintf(format, v...)+"\n")
}
func (m *mockWriter) GetWriter() io.Writer { return io.Discard }

func (m *mockWriter) write(b *strings.Builder, s string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b.WriteString(s)
}

func (m *mockWriter) Warnings() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err.String()
}
