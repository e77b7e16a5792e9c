package engine

import (
	"context"
	"time"
)

const defaultFragmentSize = 3

// ReplayConfig tunes the replay engine.
type ReplayConfig struct {
	// FragmentSize is the byte length of each emitted fragment. The default
	// of 3 cuts most 2- and 4-byte sequences and some 3-byte ones.
	FragmentSize int
	// Delay is slept between fragments; zero streams as fast as possible.
	Delay time.Duration
	// Script, when set, is replayed instead of the prompt.
	Script string
}

type replayAdapter struct {
	cfg ReplayConfig
}

// NewReplayAdapter returns an engine that replays text as raw fragments.
func NewReplayAdapter(cfg ReplayConfig) Adapter {
	if cfg.FragmentSize <= 0 {
		cfg.FragmentSize = defaultFragmentSize
	}
	return &replayAdapter{cfg: cfg}
}

func (a *replayAdapter) Start(modelPath string, params Params) (Session, error) {
	s := &replaySession{cfg: a.cfg}
	if n, ok := params.tokenCap(); ok {
		s.maxBytes = n * a.cfg.FragmentSize
	}
	return s, nil
}

type replaySession struct {
	cfg ReplayConfig
	// maxBytes caps output when MaxTokens is set; one fragment stands in for
	// one token.
	maxBytes int
}

func (s *replaySession) Generate(ctx context.Context, prompt string, onFragment FragmentFunc) (FinalResult, error) {
	text := []byte(prompt)
	if s.cfg.Script != "" {
		text = []byte(s.cfg.Script)
	}
	finish := "stop"
	if s.maxBytes > 0 && len(text) > s.maxBytes {
		text = text[:s.maxBytes]
		finish = "length"
	}
	n := 0
	for off := 0; off < len(text); off += s.cfg.FragmentSize {
		if err := ctx.Err(); err != nil {
			return FinalResult{}, err
		}
		end := off + s.cfg.FragmentSize
		if end > len(text) {
			end = len(text)
		}
		if err := onFragment(text[off:end]); err != nil {
			return FinalResult{}, err
		}
		n++
		if s.cfg.Delay > 0 && end < len(text) {
			select {
			case <-time.After(s.cfg.Delay):
			case <-ctx.Done():
				return FinalResult{}, ctx.Err()
			}
		}
	}
	return FinalResult{
		FinishReason: finish,
		Usage:        Usage{CompletionTokens: n, TotalTokens: n},
	}, nil
}

func (s *replaySession) Close() error { return nil }
