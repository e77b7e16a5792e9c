package utf8stream

import (
	"errors"
	"unicode/utf8"
)

// ErrClosed is returned by Write after Close.
var ErrClosed = errors.New("utf8stream: write after close")

// Sink receives chunks in push order on the writer's goroutine. It must not
// call back into the Writer that invoked it.
type Sink func(chunk []byte) error

// Stats summarizes what a Writer delivered.
type Stats struct {
	// Chunks is the number of sink calls made, including the final residue.
	Chunks int `json:"chunks"`
	// Bytes is the total number of bytes handed to the sink.
	Bytes int `json:"bytes"`
	// Opaque counts bytes passed through as one-byte units because they could
	// not start a sequence.
	Opaque int `json:"opaque"`
	// MaxCarry is the largest number of bytes held back after any Write.
	MaxCarry int `json:"max_carry"`
	// Residue is the length of the tail flushed by Close.
	Residue int `json:"residue"`
	// Truncated is set when the residue was not valid UTF-8.
	Truncated bool `json:"truncated"`
}

// Writer feeds written bytes through a Reassembler and forwards each aligned
// chunk to a Sink. Close flushes the residue, which may be an incomplete
// sequence if the stream was cut short.
//
// Once the sink returns an error the Writer keeps returning it.
type Writer struct {
	r      Reassembler
	sink   Sink
	stats  Stats
	err    error
	closed bool
}

// NewWriter returns a Writer delivering to sink. A nil sink discards chunks.
func NewWriter(sink Sink) *Writer {
	if sink == nil {
		sink = func([]byte) error { return nil }
	}
	return &Writer{sink: sink}
}

// Write consumes all of p. The error, if any, comes from the sink.
func (w *Writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, ErrClosed
	}
	if w.err != nil {
		return 0, w.err
	}
	chunk := w.r.Feed(p)
	if c := w.r.Buffered(); c > w.stats.MaxCarry {
		w.stats.MaxCarry = c
	}
	if chunk == nil {
		return len(p), nil
	}
	w.stats.Opaque += countOpaque(chunk)
	if err := w.deliver(chunk); err != nil {
		return len(p), err
	}
	return len(p), nil
}

// WriteString is Write for string pieces, as produced by most engine bindings.
func (w *Writer) WriteString(s string) (int, error) {
	return w.Write([]byte(s))
}

// Close flushes any pending bytes to the sink. It is safe to call more than
// once; only the first call flushes.
func (w *Writer) Close() error {
	if w.closed {
		return w.err
	}
	w.closed = true
	if w.err != nil {
		return w.err
	}
	tail := w.r.Finish()
	if tail == nil {
		return nil
	}
	w.stats.Residue = len(tail)
	w.stats.Truncated = !utf8.Valid(tail)
	return w.deliver(tail)
}

// Buffered reports how many bytes are held back.
func (w *Writer) Buffered() int { return w.r.Buffered() }

// Stats returns a copy of the delivery counters.
func (w *Writer) Stats() Stats { return w.stats }

func (w *Writer) deliver(chunk []byte) error {
	w.stats.Chunks++
	w.stats.Bytes += len(chunk)
	if err := w.sink(chunk); err != nil {
		w.err = err
		return err
	}
	return nil
}

// countOpaque walks an aligned chunk and counts lead positions holding bytes
// that cannot start a sequence.
func countOpaque(chunk []byte) int {
	n := 0
	for i := 0; i < len(chunk); i += seqLen(chunk[i]) {
		if opaque(chunk[i]) {
			n++
		}
	}
	return n
}
