package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"tokstream/internal/config"
	"tokstream/internal/engine"
	"tokstream/internal/httpapi"
	"tokstream/internal/manager"
	"tokstream/internal/registry"
	"tokstream/pkg/types"
)

type serveFlags struct {
	addr           string
	modelsDir      string
	defaultModel   string
	engine         string
	llamaServerURL string
	fragmentSize   int
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	var f serveFlags
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the NDJSON streaming API",
		Example: "  tokstreamd serve --engine replay --models-dir ~/models/llm\n  tokstreamd serve -c tokstream.yaml",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := buildConfig(opts.configPath, os.Getenv, cmd, f)
			if err != nil {
				return err
			}
			log, err := opts.logger(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.addr, "addr", "", "HTTP listen address, e.g. :8080")
	fl.StringVar(&f.modelsDir, "models-dir", "", "Directory to scan for *.gguf model files")
	fl.StringVar(&f.defaultModel, "default-model", "", "Default model id when request omits model")
	fl.StringVar(&f.engine, "engine", "", "Engine: replay|llama|llama_server")
	fl.StringVar(&f.llamaServerURL, "llama-server-url", "", "Base URL of a llama.cpp server (engine llama_server)")
	fl.IntVar(&f.fragmentSize, "fragment-size", 0, "Replay engine fragment size in bytes")
	return cmd
}

// buildConfig layers file, environment and changed flags, then fills
// defaults and validates.
func buildConfig(path string, getenv func(string) string, cmd *cobra.Command, f serveFlags) (config.Config, error) {
	var cfg config.Config
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}
	if err := cfg.ApplyEnv(getenv); err != nil {
		return cfg, err
	}
	changed := func(name string) bool { return cmd != nil && cmd.Flags().Changed(name) }
	if changed("addr") {
		cfg.Addr = f.addr
	}
	if changed("models-dir") {
		cfg.ModelsDir = f.modelsDir
	}
	if changed("default-model") {
		cfg.DefaultModel = f.defaultModel
	}
	if changed("engine") {
		cfg.Engine = f.engine
	}
	if changed("llama-server-url") {
		cfg.LlamaServer.URL = f.llamaServerURL
	}
	if changed("fragment-size") {
		cfg.Replay.FragmentSize = f.fragmentSize
	}
	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// newAdapter constructs the engine named by cfg.Engine.
func newAdapter(cfg config.Config, log zerolog.Logger) (engine.Kind, engine.Adapter, error) {
	kind, err := engine.ParseKind(cfg.Engine)
	if err != nil {
		return "", nil, err
	}
	switch kind {
	case engine.KindLlama:
		if !engine.Available(kind) {
			log.Warn().Msg("llama engine selected but binary built without the llama tag; inference will return 503")
		}
		return kind, engine.NewLlamaAdapter(cfg.Llama.CtxSize, cfg.Llama.Threads), nil
	case engine.KindLlamaServer:
		return kind, engine.NewLlamaServerAdapter(engine.ServerConfig{
			BaseURL:        cfg.LlamaServer.URL,
			APIKey:         cfg.LlamaServer.APIKey,
			RequestTimeout: time.Duration(cfg.LlamaServer.RequestTimeoutSeconds) * time.Second,
			ConnectTimeout: time.Duration(cfg.LlamaServer.ConnectTimeoutSeconds) * time.Second,
			Logger:         log,
		}), nil
	default:
		return kind, engine.NewReplayAdapter(engine.ReplayConfig{
			FragmentSize: cfg.Replay.FragmentSize,
			Delay:        time.Duration(cfg.Replay.DelayMS) * time.Millisecond,
			Script:       cfg.Replay.Script,
		}), nil
	}
}

// newManager assembles the registry and engine into a Manager.
func newManager(cfg config.Config, log zerolog.Logger) (*manager.Manager, error) {
	var scanned []types.Model
	if cfg.ModelsDir != "" {
		var err error
		if scanned, err = registry.LoadDir(cfg.ModelsDir); err != nil {
			return nil, fmt.Errorf("failed to load models: %w", err)
		}
	}
	models := registry.Merge(cfg.Models, scanned)
	kind, adapter, err := newAdapter(cfg, log)
	if err != nil {
		return nil, err
	}
	return manager.New(manager.Config{
		Registry:      models,
		DefaultModel:  cfg.DefaultModel,
		MaxQueueDepth: cfg.MaxQueueDepth,
		MaxWait:       time.Duration(cfg.MaxWaitSeconds) * time.Second,
		EngineKind:    kind,
		Adapter:       adapter,
		Publisher:     manager.NewLogPublisher(log),
		Logger:        log,
	}), nil
}

func serve(ctx context.Context, cfg config.Config, log zerolog.Logger) error {
	mgr, err := newManager(cfg, log)
	if err != nil {
		return err
	}

	httpapi.SetLogger(log)
	if cfg.RequestLog != "" {
		httpapi.SetRequestLogLevel(cfg.RequestLog)
	}
	httpapi.SetMaxBodyBytes(cfg.MaxBodyBytes)
	httpapi.SetInferTimeoutSeconds(cfg.InferTimeoutSeconds)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, cfg.CORS.Methods, cfg.CORS.Headers)
	httpapi.SetBaseContext(ctx)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           httpapi.NewMux(mgr),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("engine", cfg.Engine).Int("models", len(mgr.ListModels())).Msg("tokstreamd listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("graceful shutdown error")
	}
	log.Info().Msg("tokstreamd stopped")
	return nil
}
