package manager

import (
	"sort"
	"time"

	"tokstream/pkg/types"
)

// Status builds the response for /status. Every registered model is listed,
// whether or not it has served a stream yet.
func (m *Manager) Status() types.StatusResponse {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now()
	resp := types.StatusResponse{
		Engine:         string(m.engineKind),
		LastError:      m.lastErr,
		UptimeSeconds:  int64(now.Sub(m.startTime).Seconds()),
		ServerTimeUnix: now.Unix(),
		Models:         make([]types.ModelStatus, 0, len(m.registry)),
	}
	for _, mdl := range m.registry {
		ms := types.ModelStatus{ModelID: mdl.ID, MaxQueueDepth: m.maxQueueDepth}
		if s := m.slots[mdl.ID]; s != nil {
			ms.QueueLen = len(s.queueCh)
			ms.Inflight = len(s.genCh)
			ms.StreamsTotal = s.streams
			if !s.lastUsed.IsZero() {
				ms.LastUsed = s.lastUsed.Unix()
			}
		}
		resp.Models = append(resp.Models, ms)
	}
	sort.Slice(resp.Models, func(i, j int) bool { return resp.Models[i].ModelID < resp.Models[j].ModelID })
	return resp
}
