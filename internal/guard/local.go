package guard

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type localEntry struct {
	token   string
	expires time.Time
}

type localBackend struct {
	mu   sync.Mutex
	held map[string]localEntry
}

// NewLocal returns a Locker that only serializes callers in this process.
func NewLocal(opts Options, logger *zerolog.Logger) *Locker {
	return &Locker{b: &localBackend{held: make(map[string]localEntry)}, opts: opts.withDefaults(), logger: logger}
}

func (m *localBackend) tryLock(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	if e, ok := m.held[key]; ok && now.Before(e.expires) {
		return false, nil
	}
	m.held[key] = localEntry{token: token, expires: now.Add(ttl)}
	return true, nil
}

func (m *localBackend) unlock(_ context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.held[key]; ok && e.token == token {
		delete(m.held, key)
	}
	return nil
}

func (m *localBackend) name() string { return "local" }
