//go:build llama

package engine

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
const llamaBuilt = true

// llamaAdapter holds global config used to initialize a model instance
type llamaAdapter struct {
	ctxSize int
	threads int
}

// NewLlamaAdapter returns the in-process go-llama.cpp engine.
func NewLlamaAdapter(ctxSize, threads int) Adapter {
	return &llamaAdapter{ctxSize: ctxSize, threads: threads}
}

// llamaSession owns the loaded model
type llamaSession struct {
	model      *llama.LLama
	threads    int
	baseParams Params
}

func (a *llamaAdapter) Start(modelPath string, params Params) (Session, error) {
	if strings.TrimSpace(modelPath) == "" {
		return nil, errors.New("model path is empty")
	}
	m, err := llama.New(modelPath, llama.SetContext(a.ctxSize))
	if err != nil {
		return nil, err
	}
	return &llamaSession{model: m, threads: a.threads, baseParams: params}, nil
}

func (s *llamaSession) Generate(ctx context.Context, prompt string, onFragment FragmentFunc) (FinalResult, error) {
	if s.model == nil {
		return FinalResult{}, errors.New("llama model not initialized")
	}
	// Token pieces are byte strings straight from the detokenizer and may end
	// mid code point.
	var cbErr error
	n := 0
	s.model.SetTokenCallback(func(tok string) bool {
		select {
		case <-ctx.Done():
			return false
		default:
		}
		if err := onFragment([]byte(tok)); err != nil {
			cbErr = err
			return false
		}
		n++
		return true
	})
	_, err := s.model.Predict(prompt, predictOptions(s.baseParams, s.threads)...)
	if cbErr != nil {
		return FinalResult{}, cbErr
	}
	if ctx.Err() != nil {
		return FinalResult{}, ctx.Err()
	}
	if err != nil {
		return FinalResult{}, err
	}
	finish := "stop"
	if limit, ok := s.baseParams.tokenCap(); ok && n >= limit {
		finish = "length"
	}
	return FinalResult{
		FinishReason: finish,
		Usage:        Usage{CompletionTokens: n, TotalTokens: n},
	}, nil
}

func (s *llamaSession) Close() error {
	if s.model != nil {
		s.model.Free()
		s.model = nil
	}
	return nil
}

func orInt(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func orFloat(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// predictOptions converts engine params into go-llama.cpp options.
func predictOptions(params Params, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetThreads(orInt(threads, 1)),
		llama.SetTopP(orFloat(params.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(orInt(params.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(orFloat(params.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(orFloat(params.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if n, ok := params.tokenCap(); ok {
		po = append(po, llama.SetTokens(n))
	}
	if params.Seed != 0 {
		po = append(po, llama.SetSeed(params.Seed))
	}
	if len(params.Stop) > 0 {
		po = append(po, llama.SetStopWords(params.Stop...))
	}
	return po
}
