package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"tokstream/pkg/types"
)

// Config holds runtime parameters for the daemon.
// Zero values mean "unspecified" and are filled by Defaults.
type Config struct {
	Addr         string        `json:"addr" yaml:"addr" toml:"addr"`
	LogLevel     string        `json:"log_level" yaml:"log_level" toml:"log_level"`
	LogFormat    string        `json:"log_format" yaml:"log_format" toml:"log_format"`
	// RequestLog is the default per-request /infer log level
	// (off|error|info|debug); empty leaves the HTTP layer default.
	RequestLog   string        `json:"request_log" yaml:"request_log" toml:"request_log"`
	ModelsDir    string        `json:"models_dir" yaml:"models_dir" toml:"models_dir"`
	Models       []types.Model `json:"models" yaml:"models" toml:"models"`
	DefaultModel string        `json:"default_model" yaml:"default_model" toml:"default_model"`

	Engine      string `json:"engine" yaml:"engine" toml:"engine"`
	Replay      Replay `json:"replay" yaml:"replay" toml:"replay"`
	Llama       Llama  `json:"llama" yaml:"llama" toml:"llama"`
	LlamaServer Server `json:"llama_server" yaml:"llama_server" toml:"llama_server"`

	MaxQueueDepth       int   `json:"max_queue_depth" yaml:"max_queue_depth" toml:"max_queue_depth"`
	MaxWaitSeconds      int   `json:"max_wait_seconds" yaml:"max_wait_seconds" toml:"max_wait_seconds"`
	MaxBodyBytes        int64 `json:"max_body_bytes" yaml:"max_body_bytes" toml:"max_body_bytes"`
	InferTimeoutSeconds int64 `json:"infer_timeout_seconds" yaml:"infer_timeout_seconds" toml:"infer_timeout_seconds"`

	CORS CORS `json:"cors" yaml:"cors" toml:"cors"`
}

// Replay configures the replay engine.
type Replay struct {
	FragmentSize int    `json:"fragment_size" yaml:"fragment_size" toml:"fragment_size"`
	DelayMS      int    `json:"delay_ms" yaml:"delay_ms" toml:"delay_ms"`
	Script       string `json:"script" yaml:"script" toml:"script"`
}

// Llama configures the in-process llama engine.
type Llama struct {
	CtxSize int `json:"ctx_size" yaml:"ctx_size" toml:"ctx_size"`
	Threads int `json:"threads" yaml:"threads" toml:"threads"`
}

// Server configures the llama_server engine.
type Server struct {
	URL                   string `json:"url" yaml:"url" toml:"url"`
	APIKey                string `json:"api_key" yaml:"api_key" toml:"api_key"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds" yaml:"request_timeout_seconds" toml:"request_timeout_seconds"`
	ConnectTimeoutSeconds int    `json:"connect_timeout_seconds" yaml:"connect_timeout_seconds" toml:"connect_timeout_seconds"`
}

// CORS is opt-in; disabled means no CORS middleware.
type CORS struct {
	Enabled bool     `json:"enabled" yaml:"enabled" toml:"enabled"`
	Origins []string `json:"origins" yaml:"origins" toml:"origins"`
	Methods []string `json:"methods" yaml:"methods" toml:"methods"`
	Headers []string `json:"headers" yaml:"headers" toml:"headers"`
}

// Load reads a configuration file based on its extension.
// Supports: .yaml/.yml, .json, .toml
func Load(path string) (Config, error) {
	var cfg Config
	if path == "" {
		return cfg, fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".json":
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		return cfg, fmt.Errorf("unsupported config extension: %s", ext)
	}
	return cfg, nil
}
