package types

// InferRequest represents an inference request payload.
type InferRequest struct {
	// Optional model identifier. If empty, the server default is used.
	// example: qwen2-0.5b-q4
	Model string `json:"model,omitempty" example:"qwen2-0.5b-q4"`
	// Required prompt text to generate a completion for.
	// example: 用一句话介绍你自己。
	Prompt string `json:"prompt" example:"用一句话介绍你自己。"`
	// Maximum number of new tokens to generate.
	// example: 128
	MaxTokens int `json:"max_tokens,omitempty" example:"128"`
	// Sampling temperature (higher = more random).
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty" example:"0.7"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP float64 `json:"top_p,omitempty" example:"0.9"`
	// Top-K sampling: limit candidates to top K tokens.
	// example: 40
	TopK int `json:"top_k,omitempty" example:"40"`
	// Optional stop sequences.
	// example: ["\n\n"]
	Stop []string `json:"stop,omitempty" example:"[\"\\n\\n\"]"`
	// Random seed for reproducibility; 0 or omitted lets the engine choose.
	// example: 42
	Seed int64 `json:"seed,omitempty" example:"42"`
	// Repeat penalty applied by llama engines.
	// example: 1.1
	RepeatPenalty float64 `json:"repeat_penalty,omitempty" example:"1.1"`
}

// ChunkLine is one NDJSON line of /infer output carrying reassembled text.
type ChunkLine struct {
	// Code-point aligned text.
	// example: 你好
	Text string `json:"text" example:"你好"`
	// Set on the end-of-stream residue when it is an incomplete sequence.
	Partial bool `json:"partial,omitempty"`
	// Exact chunk bytes (base64) whenever the chunk is not valid UTF-8:
	// malformed bytes passed through mid-stream or the end-of-stream
	// residue. Text cannot carry invalid UTF-8.
	Raw []byte `json:"raw,omitempty"`
}

// StreamStats reports reassembly counters for one stream.
type StreamStats struct {
	Chunks    int  `json:"chunks"`
	Bytes     int  `json:"bytes"`
	Opaque    int  `json:"opaque"`
	MaxCarry  int  `json:"max_carry"`
	Residue   int  `json:"residue"`
	Truncated bool `json:"truncated"`
}

// Usage contains token accounting when the engine reports it.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// DoneLine is the final NDJSON line of /infer output.
type DoneLine struct {
	Done bool `json:"done"`
	// Full generated text as delivered.
	Content      string      `json:"content"`
	FinishReason string      `json:"finish_reason,omitempty"`
	Usage        Usage       `json:"usage"`
	Stats        StreamStats `json:"stats"`
}

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// ModelStatus summarizes admission state for one model.
type ModelStatus struct {
	// example: qwen2-0.5b-q4
	ModelID string `json:"model_id" example:"qwen2-0.5b-q4"`
	// Requests waiting for the in-flight slot, including the running one.
	// example: 0
	QueueLen int `json:"queue_len" example:"0"`
	// example: 1
	Inflight int `json:"inflight" example:"1"`
	// example: 32
	MaxQueueDepth int `json:"max_queue_depth" example:"32"`
	// Streams completed for this model.
	// example: 12
	StreamsTotal uint64 `json:"streams_total" example:"12"`
	// Last time this model served a request (unix seconds, 0 if never).
	// example: 1700000000
	LastUsed int64 `json:"last_used_unix" example:"1700000000"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Engine backing inference (replay, llama, llama_server).
	// example: replay
	Engine string        `json:"engine" example:"replay"`
	Models []ModelStatus `json:"models"`
	// Last error observed by the service (if any).
	LastError string `json:"last_error,omitempty"`
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
}
