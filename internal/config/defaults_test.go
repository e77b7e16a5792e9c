package config

import (
	"testing"

	"tokstream/pkg/types"
)

func TestDefaults(t *testing.T) {
	var c Config
	c.Defaults()
	if c.Addr != ":8080" || c.LogLevel != "info" || c.LogFormat != "json" || c.Engine != "replay" || c.MaxBodyBytes != 1<<20 || c.Llama.CtxSize != 2048 {
		t.Fatalf("unexpected defaults: %+v", c)
	}
	if c.RequestLog != "" {
		t.Fatalf("request log defaulted from log level: %q", c.RequestLog)
	}
	if c.CORS.Methods != nil {
		t.Fatalf("cors methods set while cors disabled")
	}
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"TOKSTREAM_ADDR":                 ":9000",
		"TOKSTREAM_ENGINE":               "llama_server",
		"TOKSTREAM_LLAMA_SERVER_URL":     "http://gpu:8081",
		"TOKSTREAM_REPLAY_FRAGMENT_SIZE": "4",
		"TOKSTREAM_CORS_ORIGINS":         "http://a, http://b",
		"TOKSTREAM_REQUEST_LOG":          "debug",
	}
	c := Config{Addr: ":1"}
	if err := c.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if c.Addr != ":9000" || c.Engine != "llama_server" || c.LlamaServer.URL != "http://gpu:8081" || c.Replay.FragmentSize != 4 {
		t.Fatalf("unexpected cfg: %+v", c)
	}
	if c.RequestLog != "debug" || c.LogLevel != "" {
		t.Fatalf("request log not kept apart from log level: %+v", c)
	}
	if !c.CORS.Enabled || len(c.CORS.Origins) != 2 || c.CORS.Origins[1] != "http://b" {
		t.Fatalf("unexpected cors: %+v", c.CORS)
	}
	bad := Config{}
	if err := bad.ApplyEnv(func(k string) string {
		if k == "TOKSTREAM_MAX_QUEUE_DEPTH" {
			return "many"
		}
		return ""
	}); err == nil {
		t.Fatalf("expected error for non-numeric queue depth")
	}
}

func TestValidate(t *testing.T) {
	ok := Config{Engine: "replay", Models: []types.Model{{ID: "echo"}}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	cases := map[string]Config{
		"unknown engine":  {Engine: "mnn", Models: []types.Model{{ID: "a"}}},
		"server no url":   {Engine: "llama_server", Models: []types.Model{{ID: "a"}}},
		"no models":       {Engine: "replay"},
		"empty id":        {Engine: "replay", Models: []types.Model{{Path: "/x"}}},
		"duplicate id":    {Engine: "replay", Models: []types.Model{{ID: "a"}, {ID: "a"}}},
		"negative limits": {Engine: "replay", ModelsDir: "/m", MaxQueueDepth: -1},
		"bad request log": {Engine: "replay", ModelsDir: "/m", RequestLog: "verbose"},
	}
	for name, c := range cases {
		if err := c.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestSplitCSV(t *testing.T) {
	cases := []struct {
		in   string
		want []string
	}{
		{"a,b,c", []string{"a", "b", "c"}},
		{" a , b , c ", []string{"a", "b", "c"}},
		{"a,,c", []string{"a", "c"}},
		{"", nil},
	}
	for _, c := range cases {
		got := SplitCSV(c.in)
		if len(got) != len(c.want) {
			t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
		}
		for i := range got {
			if got[i] != c.want[i] {
				t.Fatalf("%q -> %v, want %v", c.in, got, c.want)
			}
		}
	}
}
