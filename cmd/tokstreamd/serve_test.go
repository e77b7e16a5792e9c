package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"tokstream/internal/config"
	"tokstream/internal/engine"
	"tokstream/pkg/types"
)

func noEnv(string) string { return "" }

func TestBuildConfig_Layering(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "cfg.yaml")
	if err := os.WriteFile(p, []byte("addr: :7000\nengine: replay\nmodels:\n  - id: echo\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cmd := newServeCmd(&rootOptions{})
	if err := cmd.Flags().Parse([]string{"--addr", ":7001"}); err != nil {
		t.Fatalf("parse: %v", err)
	}
	env := func(k string) string {
		if k == "TOKSTREAM_DEFAULT_MODEL" {
			return "echo"
		}
		return ""
	}
	cfg, err := buildConfig(p, env, cmd, serveFlags{addr: ":7001"})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.Addr != ":7001" || cfg.DefaultModel != "echo" || cfg.LogLevel != "info" {
		t.Fatalf("unexpected cfg: %+v", cfg)
	}
}

func TestBuildConfig_RequestLogIndependentOfLogLevel(t *testing.T) {
	env := map[string]string{"TOKSTREAM_MODELS_DIR": t.TempDir(), "TOKSTREAM_LOG_LEVEL": "debug"}
	cfg, err := buildConfig("", func(k string) string { return env[k] }, nil, serveFlags{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if cfg.LogLevel != "debug" || cfg.RequestLog != "" {
		t.Fatalf("log level leaked into request log: %+v", cfg)
	}
	env["TOKSTREAM_REQUEST_LOG"] = "info"
	if cfg, err = buildConfig("", func(k string) string { return env[k] }, nil, serveFlags{}); err != nil || cfg.RequestLog != "info" {
		t.Fatalf("request log not applied: %q, %v", cfg.RequestLog, err)
	}
}

func TestBuildConfig_Invalid(t *testing.T) {
	if _, err := buildConfig("", noEnv, nil, serveFlags{}); err == nil {
		t.Fatalf("expected validation error without models")
	}
}

func TestNewAdapter_Kinds(t *testing.T) {
	cases := map[string]engine.Kind{
		"":             engine.KindReplay,
		"replay":       engine.KindReplay,
		"llama":        engine.KindLlama,
		"llama_server": engine.KindLlamaServer,
	}
	for name, want := range cases {
		kind, a, err := newAdapter(config.Config{Engine: name}, zerolog.Nop())
		if err != nil || kind != want || a == nil {
			t.Fatalf("%q: kind=%q adapter=%v err=%v", name, kind, a, err)
		}
	}
	if _, _, err := newAdapter(config.Config{Engine: "vllm"}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for unknown engine")
	}
}

func TestNewManager_MergesModelsDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "qwen.gguf"), nil, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg := config.Config{ModelsDir: dir, Engine: "replay", Models: []types.Model{{ID: "echo"}}}
	mgr, err := newManager(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	models := mgr.ListModels()
	if len(models) != 2 || models[0].ID != "echo" || models[1].ID != "qwen" {
		t.Fatalf("unexpected models: %+v", models)
	}
	if models[1].Path != filepath.Join(dir, "qwen.gguf") {
		t.Fatalf("unexpected path: %q", models[1].Path)
	}
	if _, err := newManager(config.Config{ModelsDir: filepath.Join(dir, "missing")}, zerolog.Nop()); err == nil {
		t.Fatalf("expected error for missing models dir")
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	cfg, err := buildConfig("", func(k string) string {
		if k == "TOKSTREAM_MODELS_DIR" {
			return t.TempDir()
		}
		return ""
	}, nil, serveFlags{})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	cfg.Addr = freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, cfg, zerolog.Nop()) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + cfg.Addr + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server did not come up: %v", err)
		}
		time.Sleep(20 * time.Millisecond)
	}
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not return after cancel")
	}
}
