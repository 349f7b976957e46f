// Package output serializes command results to the console or a file,
// pretty-printed at the resolved indent width, with credentials redacted.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/bibkit/bibkit/pkg/secrets"
	"gopkg.in/yaml.v3"
)

// Format selects the serialization applied to command results.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Writer renders one command's result. The indent width applies to JSON;
// YAML uses its own fixed indentation.
type Writer struct {
	out      io.Writer
	format   Format
	indent   int
	redactor *secrets.Redactor
}

// NewWriter creates a writer for the given sink and format.
func NewWriter(out io.Writer, format Format, indent int, redactor *secrets.Redactor) *Writer {
	if format == "" {
		format = FormatJSON
	}
	return &Writer{out: out, format: format, indent: indent, redactor: redactor}
}

// Write serializes data, redacts secrets, and emits the result followed by
// a newline.
func (w *Writer) Write(data any) error {
	var encoded []byte
	var err error

	switch w.format {
	case FormatYAML:
		encoded, err = yaml.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
	default:
		encoded, err = json.MarshalIndent(data, "", strings.Repeat(" ", w.indent))
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
	}

	encoded = w.redactor.RedactBytes(encoded)
	if _, err := w.out.Write(encoded); err != nil {
		return err
	}
	if len(encoded) == 0 || encoded[len(encoded)-1] != '\n' {
		_, err = w.out.Write([]byte("\n"))
	}
	return err
}
