package engine

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// ServerConfig configures the llama_server engine.
type ServerConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
	ConnectTimeout time.Duration
	Logger         zerolog.Logger
}

// llamaServerAdapter talks to a running llama.cpp server over its
// OpenAI-compatible streaming completion endpoint.
type llamaServerAdapter struct {
	baseURL    string
	apiKey     string
	reqTimeout time.Duration
	httpClient *http.Client
	log        zerolog.Logger
}

// NewLlamaServerAdapter constructs a server-backed engine.
func NewLlamaServerAdapter(cfg ServerConfig) Adapter {
	connect := cfg.ConnectTimeout
	if connect <= 0 {
		connect = 5 * time.Second
	}
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	// Timeout=0: every request carries a context deadline instead.
	return &llamaServerAdapter{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		reqTimeout: cfg.RequestTimeout,
		httpClient: &http.Client{Transport: tr, Timeout: 0},
		log:        cfg.Logger.With().Str("engine", string(KindLlamaServer)).Logger(),
	}
}

type llamaServerSession struct {
	adapter    *llamaServerAdapter
	modelID    string
	baseParams Params
}

func (a *llamaServerAdapter) Start(modelPath string, params Params) (Session, error) {
	if a.baseURL == "" {
		return nil, ErrDependencyUnavailable("llama server url not configured")
	}
	// The server selects models by name; the path is passed through as-is.
	return &llamaServerSession{
		adapter:    a,
		modelID:    strings.TrimSpace(modelPath),
		baseParams: params,
	}, nil
}

// completionRequest is the payload for /v1/completions.
type completionRequest struct {
	Model         string   `json:"model,omitempty"`
	Prompt        string   `json:"prompt"`
	MaxTokens     int      `json:"max_tokens,omitempty"`
	Temperature   float32  `json:"temperature,omitempty"`
	TopP          float32  `json:"top_p,omitempty"`
	TopK          int      `json:"top_k,omitempty"`
	Stop          []string `json:"stop,omitempty"`
	Seed          int      `json:"seed,omitempty"`
	Stream        bool     `json:"stream"`
	RepeatPenalty float32  `json:"repeat_penalty,omitempty"`
}

// streamResponse is the subset of a streamed completion event we read.
// Completions put text in choices[].text, chat completions in
// choices[].delta.content; llama.cpp native events use top-level content.
type streamResponse struct {
	Content string `json:"content"`
	Choices []struct {
		Text  string `json:"text"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

func (r streamResponse) fragment() string {
	if len(r.Choices) > 0 {
		if r.Choices[0].Text != "" {
			return r.Choices[0].Text
		}
		return r.Choices[0].Delta.Content
	}
	return r.Content
}

func (s *llamaServerSession) Generate(ctx context.Context, prompt string, onFragment FragmentFunc) (FinalResult, error) {
	a := s.adapter
	if a.reqTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.reqTimeout)
		defer cancel()
	}
	payload := completionRequest{
		Model:         s.modelID,
		Prompt:        prompt,
		MaxTokens:     s.baseParams.MaxTokens,
		Temperature:   s.baseParams.Temperature,
		TopP:          s.baseParams.TopP,
		TopK:          s.baseParams.TopK,
		Stop:          s.baseParams.Stop,
		Seed:          s.baseParams.Seed,
		Stream:        true,
		RepeatPenalty: s.baseParams.RepeatPenalty,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return FinalResult{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/v1/completions", bytes.NewReader(body))
	if err != nil {
		return FinalResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+a.apiKey)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return FinalResult{}, ctx.Err()
		}
		return FinalResult{}, ErrDependencyUnavailable("llama server unreachable: " + err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return FinalResult{}, fmt.Errorf("llama server http error: %s: %s", resp.Status, strings.TrimSpace(string(b)))
	}

	// Server-Sent Events: one "data: <json>" line per event.
	r := bufio.NewReader(resp.Body)
	var final FinalResult
	for {
		line, rerr := r.ReadString('\n')
		if l := strings.TrimSpace(line); l != "" && strings.HasPrefix(strings.ToLower(l), "data:") {
			data := strings.TrimSpace(l[len("data:"):])
			if data == "[DONE]" {
				break
			}
			var msg streamResponse
			if err := json.Unmarshal([]byte(data), &msg); err != nil {
				a.log.Debug().Str("line", l).Msg("unknown stream line")
			} else {
				if frag := msg.fragment(); frag != "" {
					if err := onFragment([]byte(frag)); err != nil {
						return final, err
					}
				}
				if len(msg.Choices) > 0 && msg.Choices[0].FinishReason != "" {
					final.FinishReason = msg.Choices[0].FinishReason
				}
				if msg.Usage != nil {
					final.Usage = Usage{
						PromptTokens:     msg.Usage.PromptTokens,
						CompletionTokens: msg.Usage.CompletionTokens,
						TotalTokens:      msg.Usage.TotalTokens,
					}
				}
			}
		}
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			if ctx.Err() != nil {
				return final, ctx.Err()
			}
			a.log.Warn().Err(rerr).Msg("stream read error")
			return final, rerr
		}
	}
	return final, nil
}

func (s *llamaServerSession) Close() error { return nil }
