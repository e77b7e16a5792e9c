package manager

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tokstream/internal/engine"
	"tokstream/pkg/types"
)

// fakeAdapter is a lightweight in-memory engine used for tests.
type fakeAdapter struct {
	startErr   error
	genErr     error // returned after all fragments are pushed
	fragments  [][]byte
	final      engine.FinalResult
	receivedMP string
}

func (f *fakeAdapter) Start(modelPath string, params engine.Params) (engine.Session, error) {
	f.receivedMP = modelPath
	if f.startErr != nil {
		return nil, f.startErr
	}
	return fakeSession{f: f}, nil
}

type fakeSession struct{ f *fakeAdapter }

func (s fakeSession) Generate(ctx context.Context, prompt string, onFragment engine.FragmentFunc) (engine.FinalResult, error) {
	for _, p := range s.f.fragments {
		if err := ctx.Err(); err != nil {
			return engine.FinalResult{}, err
		}
		if err := onFragment(p); err != nil {
			return engine.FinalResult{}, err
		}
	}
	if s.f.genErr != nil {
		return engine.FinalResult{}, s.f.genErr
	}
	return s.f.final, nil
}

func (s fakeSession) Close() error { return nil }

// frags converts string pieces (which may hold partial sequences) to fragments.
func frags(pieces ...string) [][]byte {
	out := make([][]byte, len(pieces))
	for i, p := range pieces {
		out[i] = []byte(p)
	}
	return out
}

func newTestManager(a engine.Adapter, models ...string) *Manager {
	reg := make([]types.Model, len(models))
	for i, id := range models {
		reg[i] = types.Model{ID: id, Path: "/models/" + id + ".gguf"}
	}
	return New(Config{Registry: reg, Adapter: a, Logger: zerolog.Nop(), MaxWait: 200 * time.Millisecond})
}

// streamOutput is the decoded NDJSON produced by Infer.
type streamOutput struct {
	chunks []types.ChunkLine
	done   *types.DoneLine
	errMsg string
}

func decodeStream(t *testing.T, b []byte) streamOutput {
	t.Helper()
	var out streamOutput
	sc := bufio.NewScanner(bytes.NewReader(b))
	for sc.Scan() {
		line := sc.Bytes()
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(line, &probe); err != nil {
			t.Fatalf("bad NDJSON line %q: %v", line, err)
		}
		switch {
		case probe["done"] != nil:
			var d types.DoneLine
			_ = json.Unmarshal(line, &d)
			out.done = &d
		case probe["error"] != nil:
			var e types.ErrorResponse
			_ = json.Unmarshal(line, &e)
			out.errMsg = e.Error
		default:
			var c types.ChunkLine
			_ = json.Unmarshal(line, &c)
			out.chunks = append(out.chunks, c)
		}
	}
	return out
}

func (o streamOutput) texts() []string {
	var s []string
	for _, c := range o.chunks {
		s = append(s, c.Text)
	}
	return s
}

// errWriter writes once, then returns an error on subsequent writes.
type errWriter struct{ wrote int }

func (e *errWriter) Write(p []byte) (int, error) {
	if e.wrote == 0 {
		e.wrote += len(p)
		return len(p), nil
	}
	return 0, errors.New("write fail")
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

func joinTexts(s []string) string { return strings.Join(s, "") }
