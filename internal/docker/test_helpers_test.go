package docker_test

import (
	"bytes"
	"fmt"
	"io"
)

type mockWriter struct {
	buf *bytes.Buffer
}

func newMockWriter() *mockWriter {
	return &mockWriter{buf: &bytes.Buffer{}}
}

func (m *mockWriter) Print(v ...interface{}) { m.buf.WriteString(fmt.Sprint(v...)) }
func (m *mockWriter) Printf(format string, v ...interface{}) {
	m.buf.WriteString(fmt.Sprintf(format, v...))
}
func (m *mockWriter) Println(v ...interface{}) { m.buf.WriteString(fmt.Sprintln(v...)) }
func (m *mockWriter) Warning(v ...interface{}) { m.buf.WriteString("Warning: " + fmt.Sprintln(v...)) }
func (m *mockWriter) Warningf(format string, v ...interface{}) {
	m.buf.WriteString("Warning: " + fmt.Sprintf(format, v...) + "\n")
}
func (m *mockWriter) GetWriter() io.Writer { return m.buf }
func (m *mockWriter) String() string       { return m.buf.String() }
