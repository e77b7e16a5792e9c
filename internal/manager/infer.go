package manager

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"tokstream/internal/engine"
	"tokstream/internal/utf8stream"
	"tokstream/pkg/types"
)

// Infer streams a completion for req to w as NDJSON: one {"text": ...} line
// per aligned chunk, then a {"done": true, ...} summary. flush, when set, is
// called after every line.
//
// Errors before the first line leave w untouched. Errors after it are
// reported as an {"error": ...} line and returned wrapped so that
// IsStreamStarted reports true.
func (m *Manager) Infer(ctx context.Context, req types.InferRequest, w io.Writer, flush func()) error {
	mdl, err := m.resolveModel(req.Model)
	if err != nil {
		return err
	}
	if m.adapter == nil {
		return engine.ErrDependencyUnavailable("no engine configured")
	}
	release, err := m.beginGeneration(ctx, mdl.ID)
	if err != nil {
		if IsTooBusy(err) {
			streamsTotal.WithLabelValues(mdl.ID, "busy").Inc()
			m.log.Warn().Str("model", mdl.ID).Dur("max_wait", m.maxWait).Msg("admission rejected")
		}
		return err
	}
	defer release()

	start := time.Now()
	sess, err := m.adapter.Start(mdl.Path, paramsFromRequest(req))
	if err != nil {
		m.fail(mdl.ID, start, err)
		return err
	}
	defer func() { _ = sess.Close() }()
	m.publisher.Publish(Event{Name: EventStreamStart, ModelID: mdl.ID})

	out := &lineWriter{w: w, flush: flush}
	var content strings.Builder
	residue := false
	stream := utf8stream.NewWriter(func(chunk []byte) error {
		content.Write(chunk)
		return out.encode(chunkLine(chunk, residue))
	})

	final, err := sess.Generate(ctx, req.Prompt, func(p []byte) error {
		streamFragmentsTotal.Inc()
		_, werr := stream.Write(p)
		return werr
	})
	if err == nil {
		residue = true
		err = stream.Close()
	}
	st := stream.Stats()
	observeStats(st)
	if err != nil {
		// An abandoned stream drops its carry; only delivered bytes count.
		m.fail(mdl.ID, start, err)
		if out.lines == 0 {
			return err
		}
		if out.err == nil && ctx.Err() == nil {
			_ = out.encode(types.ErrorResponse{Error: err.Error(), Code: 500})
		}
		return streamStartedError{err: err}
	}

	usage := types.Usage{
		PromptTokens:     final.Usage.PromptTokens,
		CompletionTokens: final.Usage.CompletionTokens,
		TotalTokens:      final.Usage.TotalTokens,
	}
	if err := out.encode(doneLine(content.String(), final.FinishReason, usage, st)); err != nil {
		m.fail(mdl.ID, start, err)
		return streamStartedError{err: err}
	}
	streamsTotal.WithLabelValues(mdl.ID, "ok").Inc()
	streamDuration.WithLabelValues("ok").Observe(time.Since(start).Seconds())
	m.publisher.Publish(Event{Name: EventStreamEnd, ModelID: mdl.ID, Fields: map[string]any{
		"chunks":    st.Chunks,
		"bytes":     st.Bytes,
		"truncated": st.Truncated,
		"finish":    final.FinishReason,
	}})
	return nil
}

func (m *Manager) fail(modelID string, start time.Time, err error) {
	outcome := "error"
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		outcome = "canceled"
	}
	ev := m.log.Error()
	if outcome == "canceled" {
		ev = m.log.Debug()
	}
	ev.Err(err).Str("model", modelID).Dur("dur", time.Since(start)).Msg("stream failed")
	streamsTotal.WithLabelValues(modelID, outcome).Inc()
	streamDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	m.setLastError(err)
	m.publisher.Publish(Event{Name: EventStreamError, ModelID: modelID, Fields: map[string]any{"error": err.Error()}})
}

func observeStats(st utf8stream.Stats) {
	streamChunksTotal.Add(float64(st.Chunks))
	streamBytesTotal.Add(float64(st.Bytes))
	streamOpaqueBytesTotal.Add(float64(st.Opaque))
	streamMaxCarry.Observe(float64(st.MaxCarry))
	if st.Truncated {
		streamTruncatedTotal.Inc()
	}
}

func paramsFromRequest(req types.InferRequest) engine.Params {
	return engine.Params{
		Temperature:   float32(req.Temperature),
		TopP:          float32(req.TopP),
		TopK:          req.TopK,
		MaxTokens:     req.MaxTokens,
		Stop:          req.Stop,
		Seed:          int(req.Seed),
		RepeatPenalty: float32(req.RepeatPenalty),
	}
}
