// Package manager coordinates streaming inference: it resolves the model,
// admits the request, starts an engine session and pipes the engine's raw
// byte fragments through a utf8stream.Writer into NDJSON lines.
//
// Files by concern:
//
//   - manager.go: Manager type, constructor, model lookup, Ready.
//   - config.go: Config and package defaults.
//   - admission.go: per-model FIFO queue with a single in-flight stream.
//   - infer.go: Infer, the streaming entry point.
//   - ndjson.go: line encoding of chunks and the final summary.
//   - status.go: Status reporting.
//   - events.go, eventpub_*.go: lifecycle events.
//   - metrics.go: Prometheus stream metrics.
//   - errors.go: error types and Is* helpers.
//
// One utf8stream.Writer is created per request and never shared; the sink
// runs on the engine's callback goroutine.
package manager
