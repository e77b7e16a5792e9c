// Package engine holds the text-generation runtimes that feed raw byte
// fragments into a stream. Engines are treated as opaque producers: they push
// pieces in order, with no promise that a piece ends on a UTF-8 boundary, and
// returning from Generate is the end-of-stream signal.
//
// Runtimes:
//
//   - replay: deterministic producer that re-emits the prompt (or a fixed
//     script) cut into fixed-size byte fragments. Always available.
//   - llama: in-process go-llama.cpp, enabled with `-tags=llama`. Without the
//     tag a stub fails fast with a dependency-unavailable error.
//   - llama_server: client of an OpenAI-compatible llama.cpp server.
package engine
