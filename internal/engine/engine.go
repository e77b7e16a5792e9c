package engine

import (
	"context"
	"fmt"
	"strings"
)

// Kind names an engine runtime.
type Kind string

const (
	KindReplay      Kind = "replay"
	KindLlama       Kind = "llama"
	KindLlamaServer Kind = "llama_server"
)

// ParseKind validates an engine name from configuration.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindReplay, KindLlama, KindLlamaServer:
		return k, nil
	case "":
		return KindReplay, nil
	default:
		return "", fmt.Errorf("unknown engine %q (want replay, llama or llama_server)", s)
	}
}

// Adapter starts generation sessions for a model.
type Adapter interface {
	// Start prepares a session for the given model path (or remote model
	// name) and parameters.
	Start(modelPath string, params Params) (Session, error)
}

// FragmentFunc receives raw bytes in production order. Returning an error
// stops generation; Generate then returns that error.
type FragmentFunc func(p []byte) error

// Session is one generation request.
type Session interface {
	// Generate pushes fragments for prompt to onFragment and returns when the
	// engine is done or ctx is canceled.
	Generate(ctx context.Context, prompt string, onFragment FragmentFunc) (FinalResult, error)
	// Close releases any resources associated with the session.
	Close() error
}

// Params captures generation parameters passed to the engine.
type Params struct {
	Temperature   float32
	TopP          float32
	TopK          int
	MaxTokens     int
	Stop          []string
	Seed          int
	RepeatPenalty float32
}

// tokenCap returns the MaxTokens limit; ok is false when generation is
// uncapped (MaxTokens <= 0).
func (p Params) tokenCap() (int, bool) {
	if p.MaxTokens <= 0 {
		return 0, false
	}
	return p.MaxTokens, true
}

// FinalResult summarizes the generation after streaming.
type FinalResult struct {
	FinishReason string
	Usage        Usage
}

// Usage contains token accounting.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}
