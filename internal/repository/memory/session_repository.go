package memory

import (
	"time"

	"ai-oneshot-console/pkg/session"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps live query sessions in memory. Reads slide the
// expiry, so a session only expires after ttl of inactivity.
type SessionRepository struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewSessionRepository(ttl, cleanupInterval time.Duration) *SessionRepository {
	c := cache.New(ttl, cleanupInterval)
	return &SessionRepository{
		cache: c,
		ttl:   ttl,
	}
}

// OnEvicted registers fn to run when a session expires or is deleted.
func (r *SessionRepository) OnEvicted(fn func(id string, s *session.QuerySession)) {
	r.cache.OnEvicted(func(key string, value interface{}) {
		if s, ok := value.(*session.QuerySession); ok {
			fn(key, s)
		}
	})
}

func (r *SessionRepository) Save(s *session.QuerySession) {
	r.cache.Set(s.ID(), s, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*session.QuerySession, bool) {
	x, found := r.cache.Get(sessionID)
	if !found {
		return nil, false
	}
	s := x.(*session.QuerySession)
	// Replace fails if the janitor evicted the entry since the read; the
	// session is already cancelled then and must not come back.
	if err := r.cache.Replace(sessionID, s, cache.DefaultExpiration); err != nil {
		return nil, false
	}
	return s, true
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}

func (r *SessionRepository) Count() int {
	return r.cache.ItemCount()
}
