package manager

import (
	"time"

	"github.com/rs/zerolog"

	"tokstream/internal/engine"
	"tokstream/pkg/types"
)

// Defaults applied when corresponding Config fields are unset.
const (
	defaultMaxQueueDepth = 32
	defaultMaxWait       = 30 * time.Second
)

// Config encapsulates all tunables for Manager construction.
type Config struct {
	Registry      []types.Model
	DefaultModel  string
	MaxQueueDepth int
	MaxWait       time.Duration
	// EngineKind names the runtime behind Adapter, for status and readiness.
	EngineKind engine.Kind
	Adapter    engine.Adapter
	// Publisher receives lifecycle events; nil drops them.
	Publisher EventPublisher
	Logger    zerolog.Logger
}
