package memory

import (
	"testing"
	"time"

	"ai-oneshot-console/internal/pkg/logger"
	"ai-oneshot-console/pkg/session"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSession(id string) *session.QuerySession {
	return session.NewQuerySession(id, nil, logger.NewNopLogger(), 0)
}

func TestGetSlidesExpiry(t *testing.T) {
	repo := NewSessionRepository(200*time.Millisecond, time.Hour)
	repo.Save(newSession("s1"))

	time.Sleep(120 * time.Millisecond)
	_, ok := repo.Get("s1")
	require.True(t, ok)

	time.Sleep(120 * time.Millisecond)
	got, ok := repo.Get("s1")
	require.True(t, ok)
	assert.Equal(t, "s1", got.ID())
}

func TestGetDoesNotRestoreExpiredSession(t *testing.T) {
	repo := NewSessionRepository(20*time.Millisecond, time.Hour)
	repo.Save(newSession("s1"))

	time.Sleep(50 * time.Millisecond)
	_, ok := repo.Get("s1")
	assert.False(t, ok)
	_, ok = repo.Get("s1")
	assert.False(t, ok)
}

func TestDeleteRunsEvictionCallbackOnce(t *testing.T) {
	repo := NewSessionRepository(time.Hour, time.Hour)
	var evicted []string
	repo.OnEvicted(func(id string, s *session.QuerySession) {
		evicted = append(evicted, id)
	})

	repo.Save(newSession("s1"))
	repo.Delete("s1")

	_, ok := repo.Get("s1")
	assert.False(t, ok)
	assert.Equal(t, []string{"s1"}, evicted)
	assert.Equal(t, 0, repo.Count())
}
