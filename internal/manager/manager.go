package manager

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"tokstream/internal/engine"
	"tokstream/pkg/types"
)

// Manager serves streaming inference over a fixed model registry.
type Manager struct {
	mu           sync.RWMutex
	registry     []types.Model
	defaultModel string
	engineKind   engine.Kind
	adapter      engine.Adapter
	slots        map[string]*slot
	lastErr      string

	maxQueueDepth int
	maxWait       time.Duration

	publisher EventPublisher
	log       zerolog.Logger
	startTime time.Time
}

// New constructs a Manager from cfg, applying package defaults.
func New(cfg Config) *Manager {
	m := &Manager{
		registry:      append([]types.Model(nil), cfg.Registry...),
		defaultModel:  cfg.DefaultModel,
		engineKind:    cfg.EngineKind,
		adapter:       cfg.Adapter,
		slots:         make(map[string]*slot),
		maxQueueDepth: cfg.MaxQueueDepth,
		maxWait:       cfg.MaxWait,
		publisher:     cfg.Publisher,
		log:           cfg.Logger,
		startTime:     time.Now(),
	}
	if m.maxQueueDepth <= 0 {
		m.maxQueueDepth = defaultMaxQueueDepth
	}
	if m.maxWait <= 0 {
		m.maxWait = defaultMaxWait
	}
	if m.engineKind == "" {
		m.engineKind = engine.KindReplay
	}
	if m.publisher == nil {
		m.publisher = noopPublisher{}
	}
	return m
}

// Ready reports whether the manager can serve a request.
func (m *Manager) Ready() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.registry) > 0 && m.adapter != nil && engine.Available(m.engineKind)
}

// ListModels returns a copy of the registry.
func (m *Manager) ListModels() []types.Model {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Model, len(m.registry))
	copy(out, m.registry)
	return out
}

// resolveModel maps a requested id to a registry entry. An empty id selects
// the default model, or the only model when exactly one is registered.
func (m *Manager) resolveModel(id string) (types.Model, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id == "" {
		id = m.defaultModel
		if id == "" && len(m.registry) == 1 {
			return m.registry[0], nil
		}
		if id == "" {
			return types.Model{}, modelNotFoundError{id: "(unspecified)"}
		}
	}
	for _, mdl := range m.registry {
		if mdl.ID == id {
			return mdl, nil
		}
	}
	return types.Model{}, modelNotFoundError{id: id}
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err.Error()
	m.mu.Unlock()
}
