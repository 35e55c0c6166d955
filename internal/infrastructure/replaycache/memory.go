package replaycache

import (
	"context"
	"sync"
	"time"

	"paygate/internal/shared/biztime"
)

// Memory is the in-process replay cache, used in tests and single-node
// deployments where redis is not configured.
type Memory struct {
	mu      sync.Mutex
	entries map[string]time.Time
}

func NewMemory() *Memory {
	return &Memory{entries: make(map[string]time.Time)}
}

func (m *Memory) Seen(ctx context.Context, eventID string, ttl time.Duration) (bool, error) {
	now := biztime.NowUTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Opportunistic sweep of expired entries.
	for id, expiry := range m.entries {
		if now.After(expiry) {
			delete(m.entries, id)
		}
	}

	if expiry, ok := m.entries[eventID]; ok && now.Before(expiry) {
		return true, nil
	}
	m.entries[eventID] = now.Add(ttl)
	return false, nil
}
