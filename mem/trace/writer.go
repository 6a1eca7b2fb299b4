package trace

import (
	"bufio"
	"io"

	"github.com/sarchlab/cachesim/mem/cache/hierarchy"
)

// A Writer writes one line of three codes per record.
type Writer struct {
	w *bufio.Writer
}

// NewWriter creates a Writer. Flush must be called after the last record.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: bufio.NewWriter(w)}
}

// Write writes a record.
func (w *Writer) Write(record hierarchy.Record) error {
	if _, err := w.w.WriteString(record.String()); err != nil {
		return err
	}

	return w.w.WriteByte('\n')
}

// Flush writes the buffered lines to the underlying writer.
func (w *Writer) Flush() error {
	return w.w.Flush()
}
