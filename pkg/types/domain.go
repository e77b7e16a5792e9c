package types

// Model represents a model the daemon can stream from.
type Model struct {
	// Stable identifier for the model.
	// example: qwen2-0.5b-q4
	ID string `json:"id" yaml:"id" toml:"id" example:"qwen2-0.5b-q4"`
	// Human-friendly name.
	// example: Qwen2 0.5B (Q4)
	Name string `json:"name,omitempty" yaml:"name" toml:"name" example:"Qwen2 0.5B (Q4)"`
	// Path to the model file, or the model name sent to a remote server.
	// example: /home/user/models/qwen2-0_5b-instruct-q4_k_m.gguf
	Path string `json:"path" yaml:"path" toml:"path" example:"/home/user/models/qwen2-0_5b-instruct-q4_k_m.gguf"`
}
