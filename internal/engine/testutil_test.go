package engine

import (
	"context"
	"testing"
	"time"
)

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

// collect returns a FragmentFunc that appends copies of fragments to dst.
func collect(dst *[][]byte) FragmentFunc {
	return func(p []byte) error {
		*dst = append(*dst, append([]byte(nil), p...))
		return nil
	}
}
