package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"tokstream/internal/engine"
)

// Defaults fills unset fields.
func (c *Config) Defaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}
	if c.Engine == "" {
		c.Engine = string(engine.KindReplay)
	}
	if c.Llama.CtxSize <= 0 {
		c.Llama.CtxSize = 2048
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = 1 << 20
	}
	if c.CORS.Enabled && len(c.CORS.Methods) == 0 {
		c.CORS.Methods = []string{"GET", "POST", "OPTIONS"}
	}
}

// ApplyEnv overrides fields from TOKSTREAM_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if getenv == nil {
		getenv = os.Getenv
	}
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := strings.TrimSpace(getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}
	str("TOKSTREAM_ADDR", &c.Addr)
	str("TOKSTREAM_LOG_LEVEL", &c.LogLevel)
	str("TOKSTREAM_LOG_FORMAT", &c.LogFormat)
	str("TOKSTREAM_REQUEST_LOG", &c.RequestLog)
	str("TOKSTREAM_MODELS_DIR", &c.ModelsDir)
	str("TOKSTREAM_DEFAULT_MODEL", &c.DefaultModel)
	str("TOKSTREAM_ENGINE", &c.Engine)
	str("TOKSTREAM_LLAMA_SERVER_URL", &c.LlamaServer.URL)
	str("TOKSTREAM_LLAMA_SERVER_API_KEY", &c.LlamaServer.APIKey)
	if err := num("TOKSTREAM_MAX_QUEUE_DEPTH", &c.MaxQueueDepth); err != nil {
		return err
	}
	if err := num("TOKSTREAM_MAX_WAIT_SECONDS", &c.MaxWaitSeconds); err != nil {
		return err
	}
	if err := num("TOKSTREAM_REPLAY_FRAGMENT_SIZE", &c.Replay.FragmentSize); err != nil {
		return err
	}
	if v := getenv("TOKSTREAM_CORS_ORIGINS"); v != "" {
		c.CORS.Enabled = true
		c.CORS.Origins = SplitCSV(v)
	}
	return nil
}

// Validate checks field combinations Defaults cannot repair.
func (c Config) Validate() error {
	kind, err := engine.ParseKind(c.Engine)
	if err != nil {
		return err
	}
	if kind == engine.KindLlamaServer && strings.TrimSpace(c.LlamaServer.URL) == "" {
		return fmt.Errorf("engine %s requires llama_server.url", kind)
	}
	if len(c.Models) == 0 && c.ModelsDir == "" {
		return fmt.Errorf("no models: set models or models_dir")
	}
	seen := make(map[string]bool, len(c.Models))
	for _, m := range c.Models {
		if m.ID == "" {
			return fmt.Errorf("model with empty id")
		}
		if seen[m.ID] {
			return fmt.Errorf("duplicate model id %q", m.ID)
		}
		seen[m.ID] = true
	}
	switch c.RequestLog {
	case "", "off", "error", "info", "debug":
	default:
		return fmt.Errorf("unknown request_log %q (want off, error, info or debug)", c.RequestLog)
	}
	if c.Replay.FragmentSize < 0 || c.MaxQueueDepth < 0 || c.MaxWaitSeconds < 0 {
		return fmt.Errorf("negative limits are not allowed")
	}
	return nil
}

// SplitCSV splits a comma-separated list, dropping empty items.
func SplitCSV(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
