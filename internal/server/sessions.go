package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mohammad-safakhou/ctxmerge/internal/orchestrator"
)

const (
	DefaultSessionTTL  = 30 * time.Minute
	DefaultMaxSessions = 1024
)

// SessionStore keeps live sessions in memory. Entries expire after ttl and
// the least recently used session is evicted once size is reached.
type SessionStore struct {
	cache *expirable.LRU[string, *orchestrator.Session]
}

func NewSessionStore(size int, ttl time.Duration) *SessionStore {
	if size <= 0 {
		size = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionStore{cache: expirable.NewLRU[string, *orchestrator.Session](size, nil, ttl)}
}

// Create registers a new session under a fresh id.
func (s *SessionStore) Create(req orchestrator.Request) *orchestrator.Session {
	sess := orchestrator.NewSession(uuid.NewString(), req)
	s.cache.Add(sess.ID, sess)
	return sess
}

func (s *SessionStore) Get(id string) (*orchestrator.Session, bool) {
	return s.cache.Get(id)
}

func (s *SessionStore) Remove(id string) {
	s.cache.Remove(id)
}

func (s *SessionStore) Len() int {
	return s.cache.Len()
}
