package session

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/promptrepo-hq/promptrepo-go/internal/domain"
)

// Package session persists the bearer credential between runs. The bbolt
// store survives restarts; the memory store lasts for one process, matching
// the local-storage / session-storage split of the web frontend.

// Store holds at most one current session.
type Store interface {
	Close() error
	Current() (domain.Session, bool, error)
	Save(sess domain.Session) error
	Clear() error
}

// NewStore creates the configured session backend.
func NewStore(typ, path string) (Store, error) {
	switch strings.TrimSpace(strings.ToLower(typ)) {
	case "", "none", "memory":
		return &memoryStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt session store requires a path")
		}
		return openBolt(path)
	default:
		return nil, fmt.Errorf("unsupported session store type %q", typ)
	}
}

// memoryStore keeps the session for the lifetime of the process only.
type memoryStore struct {
	mu   sync.RWMutex
	sess *domain.Session
}

func (m *memoryStore) Close() error { return nil }

func (m *memoryStore) Current() (domain.Session, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.sess == nil || m.sess.Expired(time.Now()) {
		return domain.Session{}, false, nil
	}
	return *m.sess, true, nil
}

func (m *memoryStore) Save(sess domain.Session) error {
	m.mu.Lock()
	cp := sess
	m.sess = &cp
	m.mu.Unlock()
	return nil
}

func (m *memoryStore) Clear() error {
	m.mu.Lock()
	m.sess = nil
	m.mu.Unlock()
	return nil
}
