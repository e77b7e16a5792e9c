package manager

import (
	"encoding/json"
	"io"
	"unicode/utf8"

	"tokstream/internal/utf8stream"
	"tokstream/pkg/types"
)

// lineWriter encodes NDJSON lines and flushes after each one.
type lineWriter struct {
	w     io.Writer
	flush func()
	lines int
	err   error // first write failure; later lines are dropped
}

func (lw *lineWriter) encode(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if lw.err != nil {
		return lw.err
	}
	if _, err := lw.w.Write(append(b, '\n')); err != nil {
		lw.err = err
		return err
	}
	lw.lines++
	if lw.flush != nil {
		lw.flush()
	}
	return nil
}

// chunkLine builds the NDJSON line for one chunk. Chunks that are not valid
// UTF-8 (passed-through garbage or the end-of-stream residue) also carry
// their exact bytes, since JSON strings cannot.
func chunkLine(chunk []byte, residue bool) types.ChunkLine {
	line := types.ChunkLine{Text: string(chunk)}
	if !utf8.Valid(chunk) {
		line.Raw = chunk
		line.Partial = residue
	}
	return line
}

func doneLine(content string, finishReason string, usage types.Usage, st utf8stream.Stats) types.DoneLine {
	return types.DoneLine{
		Done:         true,
		Content:      content,
		FinishReason: finishReason,
		Usage:        usage,
		Stats: types.StreamStats{
			Chunks:    st.Chunks,
			Bytes:     st.Bytes,
			Opaque:    st.Opaque,
			MaxCarry:  st.MaxCarry,
			Residue:   st.Residue,
			Truncated: st.Truncated,
		},
	}
}
