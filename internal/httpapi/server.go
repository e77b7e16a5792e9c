package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"tokstream/internal/manager"
	"tokstream/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
type Service interface {
	ListModels() []types.Model
	Status() types.StatusResponse
	Infer(ctx context.Context, req types.InferRequest, w io.Writer, flush func()) error
	Ready() bool
}

// NewMux builds the HTTP router.
func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(middleware.Compress(5))
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	r.Get("/models", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, types.ModelsResponse{Models: svc.ListModels()})
	})

	r.Get("/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, svc.Status())
	})

	r.Post("/infer", func(w http.ResponseWriter, r *http.Request) {
		handleInfer(svc, w, r)
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte("no models"))
	})

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)
	return r
}

// handleInfer streams an inference as NDJSON.
//
// @Summary  Stream an inference as NDJSON
// @Accept   json
// @Produce  application/x-ndjson
// @Param    request body types.InferRequest true "inference request"
// @Success  200 {object} types.ChunkLine
// @Failure  400,404,415,429,500,503 {object} types.ErrorResponse
// @Router   /infer [post]
func handleInfer(svc Service, w http.ResponseWriter, r *http.Request) {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.InferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}

	lvl := requestLogLevel(r)
	log := zlog.With().Str("path", r.URL.Path).Str("model", req.Model).Logger()
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		log = log.With().Str("request_id", rid).Logger()
	}
	if lvl >= LevelInfo {
		log.Info().Msg("infer start")
	}

	// Headers are sent on the first NDJSON write; errors before that still
	// get a JSON error body.
	w.Header().Set("Content-Type", "application/x-ndjson")
	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	writer := io.Writer(w)
	if lvl >= LevelDebug {
		writer = io.MultiWriter(w, &loggingLineWriter{log: log})
	}

	ctx, cancel := requestContext(r.Context(), serverBaseCtx)
	defer cancel()
	if inferTimeout > 0 {
		var tcancel context.CancelFunc
		ctx, tcancel = context.WithTimeout(ctx, inferTimeout)
		defer tcancel()
	}

	start := time.Now()
	err := svc.Infer(ctx, req, writer, flush)
	switch {
	case err == nil:
		if lvl >= LevelInfo {
			log.Info().Int("status", http.StatusOK).Dur("dur", time.Since(start)).Msg("infer end")
		}
	case r.Context().Err() != nil || serverBaseCtx.Err() != nil:
		// client went away or the server is shutting down
		if lvl >= LevelInfo {
			log.Info().Err(err).Dur("dur", time.Since(start)).Msg("infer canceled")
		}
	case manager.IsStreamStarted(err):
		if lvl >= LevelError {
			log.Error().Err(err).Dur("dur", time.Since(start)).Msg("infer stream interrupted")
		}
	default:
		status, reason := inferStatus(err)
		if status == http.StatusTooManyRequests {
			IncrementBackpressure(reason)
		}
		writeJSONError(w, status, err.Error())
		if lvl >= LevelInfo {
			logEnd(log, status, start, err)
		}
	}
}

func logEnd(log zerolog.Logger, status int, start time.Time, err error) {
	ev := log.Info()
	if status >= http.StatusInternalServerError {
		ev = log.Error()
	}
	ev.Int("status", status).Dur("dur", time.Since(start)).Err(err).Msg("infer end")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		writeJSONError(w, http.StatusInternalServerError, "failed to encode response")
	}
}
