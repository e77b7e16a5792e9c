package httpapi

import "context"

// serverBaseCtx is canceled on shutdown; Background until SetBaseContext.
var serverBaseCtx = context.Background()

// SetBaseContext sets the process-level context whose cancellation also
// cancels in-flight /infer streams.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	serverBaseCtx = ctx
}

// requestContext derives a context from the request that is also canceled
// when base is done. Request-scoped values are preserved.
func requestContext(req, base context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(req)
	stop := context.AfterFunc(base, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}
