package assembly

import (
	"bufio"
	"context"
	"io"

	"github.com/solatis/stemkeeper/internal/records"
	"github.com/solatis/stemkeeper/internal/stock"
)

// WriterSink writes one bouquet record per line through a buffer.
// Call Flush before the underlying writer is closed.
type WriterSink struct {
	w   *bufio.Writer
	buf []byte
}

// NewWriterSink wraps w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: bufio.NewWriter(w), buf: make([]byte, 0, 64)}
}

// Emit implements Sink.
func (s *WriterSink) Emit(_ context.Context, b stock.Bouquet) error {
	s.buf = records.AppendBouquet(s.buf[:0], b)
	s.buf = append(s.buf, '\n')
	_, err := s.w.Write(s.buf)
	return err
}

// Flush writes any buffered records.
func (s *WriterSink) Flush() error {
	return s.w.Flush()
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, b stock.Bouquet) error

// Emit implements Sink.
func (f SinkFunc) Emit(ctx context.Context, b stock.Bouquet) error {
	return f(ctx, b)
}
