package httpapi

import (
	"bufio"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"tokstream/internal/engine"
	"tokstream/internal/manager"
	"tokstream/pkg/types"
)

func TestInfer_ReplayEngineOverHTTP(t *testing.T) {
	mgr := manager.New(manager.Config{
		Registry:   []types.Model{{ID: "echo", Path: "/dev/null"}},
		EngineKind: engine.KindReplay,
		Adapter:    engine.NewReplayAdapter(engine.ReplayConfig{FragmentSize: 1}),
		Logger:     zerolog.Nop(),
	})
	ts := httptest.NewServer(NewMux(mgr))
	defer ts.Close()

	prompt := "naïve 日本 🚀"
	body, _ := json.Marshal(types.InferRequest{Prompt: prompt})
	resp, err := http.Post(ts.URL+"/infer", "application/json", strings.NewReader(string(body)))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status=%d", resp.StatusCode)
	}

	var text strings.Builder
	var done types.DoneLine
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := sc.Bytes()
		if strings.Contains(string(line), `"done"`) {
			if err := json.Unmarshal(line, &done); err != nil {
				t.Fatalf("done line: %v", err)
			}
			continue
		}
		var c types.ChunkLine
		if err := json.Unmarshal(line, &c); err != nil {
			t.Fatalf("chunk line %q: %v", line, err)
		}
		if c.Raw != nil || c.Partial {
			t.Fatalf("chunk %q split a code point", c.Text)
		}
		text.WriteString(c.Text)
	}
	if err := sc.Err(); err != nil {
		t.Fatalf("scan: %v", err)
	}
	if text.String() != prompt || !done.Done || done.Content != prompt {
		t.Fatalf("got %q, done=%+v", text.String(), done)
	}
	// one chunk per code point when every fragment is a single byte
	if done.Stats.Chunks != len([]rune(prompt)) {
		t.Fatalf("chunks=%d, want %d", done.Stats.Chunks, len([]rune(prompt)))
	}

	st := httptest.NewRecorder()
	NewMux(mgr).ServeHTTP(st, httptest.NewRequest(http.MethodGet, "/status", nil))
	var status types.StatusResponse
	if err := json.Unmarshal(st.Body.Bytes(), &status); err != nil {
		t.Fatalf("status json: %v", err)
	}
	if len(status.Models) != 1 || status.Models[0].StreamsTotal != 1 {
		t.Fatalf("unexpected status: %+v", status)
	}
}
