package output

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// Sink is where an invocation's output ends up: streamed to the console, or
// accumulated in memory and written to a file once at the end. Errors raised
// after output started are appended to the file in file mode so nothing is
// lost when stderr is not being watched.
type Sink struct {
	path string
	buf  bytes.Buffer
}

// NewSink returns a sink for path, or a console sink when path is empty.
func NewSink(path string) *Sink {
	return &Sink{path: path}
}

// ToFile reports whether output is being accumulated for a file.
func (s *Sink) ToFile() bool { return s.path != "" }

// Writer returns the destination command results are rendered into.
func (s *Sink) Writer() io.Writer {
	if s.path == "" {
		return os.Stdout
	}
	return &s.buf
}

// AppendError records a failure message. In file mode it is appended to the
// pending file content; in console mode it goes to stderr.
func (s *Sink) AppendError(msg string) {
	if s.path == "" {
		fmt.Fprintln(os.Stderr, "Error:", msg)
		return
	}
	fmt.Fprintln(&s.buf, "Error:", msg)
}

// Close flushes accumulated output to the file. A console sink has nothing
// to flush.
func (s *Sink) Close() error {
	if s.path == "" {
		return nil
	}
	if err := os.WriteFile(s.path, s.buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write output file %s: %w", s.path, err)
	}
	return nil
}
