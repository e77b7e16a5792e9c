package manager

import (
	"context"
	"time"
)

// slot serializes streams for one model: a bounded FIFO queue in front of a
// single in-flight stream.
type slot struct {
	genCh    chan struct{} // size 1: single in-flight stream
	queueCh  chan struct{} // buffered: queue slots
	lastUsed time.Time
	streams  uint64
}

// slotFor returns the admission slot for modelID, creating it on first use.
func (m *Manager) slotFor(modelID string) *slot {
	m.mu.RLock()
	s := m.slots[modelID]
	m.mu.RUnlock()
	if s != nil {
		return s
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if s = m.slots[modelID]; s == nil {
		s = &slot{
			genCh:   make(chan struct{}, 1),
			queueCh: make(chan struct{}, m.maxQueueDepth),
		}
		m.slots[modelID] = s
	}
	return s
}

// beginGeneration reserves a queue slot and then the single in-flight slot.
// Returns a release func to be deferred.
func (m *Manager) beginGeneration(ctx context.Context, modelID string) (func(), error) {
	s := m.slotFor(modelID)

	if err := ctx.Err(); err != nil {
		return func() {}, err
	}

	timer := time.NewTimer(m.maxWait)
	defer timer.Stop()
	select {
	case s.queueCh <- struct{}{}:
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer.C:
		return func() {}, tooBusyError{modelID: modelID}
	}

	acquired := false
	defer func() {
		if !acquired {
			<-s.queueCh
		}
	}()
	if err := ctx.Err(); err != nil {
		return func() {}, err
	}
	timer2 := time.NewTimer(m.maxWait)
	defer timer2.Stop()
	select {
	case s.genCh <- struct{}{}:
		acquired = true
		m.mu.Lock()
		s.lastUsed = time.Now()
		m.mu.Unlock()
		return func() {
			m.mu.Lock()
			s.streams++
			m.mu.Unlock()
			<-s.genCh
			<-s.queueCh
		}, nil
	case <-ctx.Done():
		return func() {}, ctx.Err()
	case <-timer2.C:
		return func() {}, tooBusyError{modelID: modelID}
	}
}
