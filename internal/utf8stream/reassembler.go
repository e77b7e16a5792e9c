// Package utf8stream reassembles raw byte fragments from a token stream into
// chunks that never end inside a multi-byte UTF-8 sequence.
//
// A text-generation engine emits token pieces as bytes, and a single code point
// may be split across two or more pieces. Reassembler holds back the trailing
// bytes of an incomplete sequence until the rest arrives, so every chunk handed
// to a consumer mid-stream is aligned to code-point boundaries.
//
// Malformed lead bytes are not rejected: they are passed through as one-byte
// units so a stream never stalls on bad input.
package utf8stream

import "unicode/utf8"

// MaxCarry is the most bytes a Reassembler holds between Feed calls.
const MaxCarry = utf8.UTFMax - 1

// Reassembler is a single-stream carry buffer. It is not safe for concurrent
// use; create one per stream and serialize calls.
type Reassembler struct {
	pending []byte
}

// Feed appends p to the pending bytes and returns the longest prefix made of
// complete sequences, or nil when no such prefix exists yet. The returned
// slice is owned by the caller. p is never retained.
func (r *Reassembler) Feed(p []byte) []byte {
	if len(p) == 0 {
		return nil
	}
	buf := p
	if len(r.pending) > 0 {
		buf = append(r.pending, p...)
	}
	n := alignedPrefix(buf)
	var chunk []byte
	if n > 0 {
		chunk = append([]byte(nil), buf[:n]...)
	}
	r.pending = append(r.pending[:0], buf[n:]...)
	return chunk
}

// Finish returns whatever is still pending, which may be an incomplete
// sequence, and resets the Reassembler. It returns nil when nothing is
// pending.
func (r *Reassembler) Finish() []byte {
	if len(r.pending) == 0 {
		return nil
	}
	tail := append([]byte(nil), r.pending...)
	r.pending = r.pending[:0]
	return tail
}

// Buffered reports how many bytes are held back waiting for the rest of a
// sequence.
func (r *Reassembler) Buffered() int { return len(r.pending) }

// alignedPrefix returns the length of the longest prefix of b whose sequences
// are all complete according to their lead bytes.
func alignedPrefix(b []byte) int {
	i := 0
	for i < len(b) {
		n := seqLen(b[i])
		if i+n > len(b) {
			break
		}
		i += n
	}
	return i
}

// seqLen returns the sequence length declared by lead byte b. Continuation
// bytes and invalid lead patterns count as one-byte units.
func seqLen(b byte) int {
	switch {
	case b&0x80 == 0x00:
		return 1
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	default:
		return 1
	}
}

// opaque reports whether b is a non-ASCII byte that cannot start a sequence.
func opaque(b byte) bool { return b >= 0x80 && seqLen(b) == 1 }
