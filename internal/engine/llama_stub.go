//go:build !llama

package engine

// No-CGO stub for the llama engine, compiled when the 'llama' build tag is
// not set so default builds stay CGO-free.

const llamaBuilt = false

type llamaAdapter struct {
	ctxSize int
	threads int
}

// NewLlamaAdapter returns a stub that refuses to start sessions.
func NewLlamaAdapter(ctxSize, threads int) Adapter {
	return &llamaAdapter{ctxSize: ctxSize, threads: threads}
}

func (a *llamaAdapter) Start(modelPath string, params Params) (Session, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}

