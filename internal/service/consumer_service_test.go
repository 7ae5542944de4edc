package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"ai-oneshot-console/internal/dto"
	"ai-oneshot-console/internal/pkg/logger"
	"ai-oneshot-console/internal/repository/memory"
	"ai-oneshot-console/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	sent   map[string][][]byte
	closed []string
}

func (b *recordingBroadcaster) CloseSession(sessionID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = append(b.closed, sessionID)
}

func (b *recordingBroadcaster) closedSessions() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.closed...)
}

type sentView struct {
	Version   uint64 `json:"version"`
	IsLoading bool   `json:"is_loading"`
	ActiveTab string `json:"active_tab"`
}

func (b *recordingBroadcaster) views(t *testing.T, sessionID string) []sentView {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]sentView, 0, len(b.sent[sessionID]))
	for _, payload := range b.sent[sessionID] {
		var msg struct {
			Data sentView `json:"data"`
		}
		require.NoError(t, json.Unmarshal(payload, &msg))
		out = append(out, msg.Data)
	}
	return out
}

func (b *recordingBroadcaster) Send(sessionID string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sent == nil {
		b.sent = make(map[string][][]byte)
	}
	b.sent[sessionID] = append(b.sent[sessionID], payload)
}

func (b *recordingBroadcaster) count(sessionID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sent[sessionID])
}

func (b *recordingBroadcaster) first(sessionID string) []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sent[sessionID][0]
}

const testTopic = "test.session_events"

func TestEventBusRoutesEvents(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	broadcaster := &recordingBroadcaster{}
	audit := &recordingPublisher{}
	consumer := NewConsumerService(pubSub, testTopic, broadcaster, audit, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(testTopic, pubSub)

	require.NoError(t, publisher.Publish(ctx, events.New(events.TypeSessionUpdated, "s1", map[string]interface{}{
		"view": map[string]interface{}{"id": "s1", "is_loading": true},
	})))
	require.NoError(t, publisher.Publish(ctx, events.New(events.TypeAnswerFailed, "s1", map[string]interface{}{
		"error": "Unknown error",
	})))

	require.Eventually(t, func() bool {
		return broadcaster.count("s1") == 1 && audit.last(events.TypeAnswerFailed) != nil
	}, time.Second, 10*time.Millisecond)

	var msg struct {
		Type string `json:"type"`
		Data struct {
			Id        string `json:"id"`
			IsLoading bool   `json:"is_loading"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(broadcaster.first("s1"), &msg))
	assert.Equal(t, "session", msg.Type)
	assert.Equal(t, "s1", msg.Data.Id)
	assert.True(t, msg.Data.IsLoading)

	forwarded := audit.last(events.TypeAnswerFailed).(events.BaseEvent)
	assert.Equal(t, "s1", forwarded.SessionID)
	assert.JSONEq(t, `"Unknown error"`, string(forwarded.Data["error"].(json.RawMessage)))

	// View updates never reach the audit stream.
	assert.Nil(t, audit.last(events.TypeSessionUpdated))
}

func TestConsumerWithoutAudit(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	t.Cleanup(func() { _ = pubSub.Close() })

	broadcaster := &recordingBroadcaster{}
	consumer := NewConsumerService(pubSub, testTopic, broadcaster, nil, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(testTopic, pubSub)
	require.NoError(t, publisher.Publish(ctx, events.New(events.TypeSessionCreated, "s2", nil)))
	require.NoError(t, publisher.Publish(ctx, events.New(events.TypeSessionUpdated, "s2", map[string]interface{}{
		"view": map[string]interface{}{"id": "s2"},
	})))

	require.Eventually(t, func() bool {
		return broadcaster.count("s2") == 1
	}, time.Second, 10*time.Millisecond)
}

func TestSessionViewsReachViewersInOrder(t *testing.T) {
	bus := NewEventBus(watermill.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	broadcaster := &recordingBroadcaster{}
	consumer := NewConsumerService(bus, testTopic, broadcaster, nil, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	repo := memory.NewSessionRepository(time.Hour, time.Hour)
	svc := NewSessionService(repo, &stubClient{resp: answerWithData()}, NewPublisherService(testTopic, bus), logger.NewNopLogger(), time.Second)

	created, err := svc.CreateSession(ctx)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.ToggleTab(ctx, created.Id, &dto.ToggleTabRequest{Tab: "monitoring"})
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 5; i++ {
			_, _ = svc.Ask(ctx, created.Id, &dto.AskRequest{Question: "q"})
		}
	}()
	wg.Wait()

	// Publish returns once the consumer acked, so every view is delivered here.
	views := broadcaster.views(t, created.Id)
	require.Len(t, views, 60)
	for i := 1; i < len(views); i++ {
		assert.Greater(t, views[i].Version, views[i-1].Version)
	}

	current, err := svc.GetSession(ctx, created.Id)
	require.NoError(t, err)
	last := views[len(views)-1]
	assert.Equal(t, current.Version, last.Version)
	assert.False(t, last.IsLoading)
}

func TestConsumerDropsOutdatedViewsAndClosesDeletedSessions(t *testing.T) {
	bus := NewEventBus(watermill.NopLogger{})
	t.Cleanup(func() { _ = bus.Close() })

	broadcaster := &recordingBroadcaster{}
	consumer := NewConsumerService(bus, testTopic, broadcaster, nil, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, consumer.Consume(ctx))

	publisher := NewPublisherService(testTopic, bus)
	publishView := func(version uint64) {
		require.NoError(t, publisher.Publish(ctx, events.New(events.TypeSessionUpdated, "s3", map[string]interface{}{
			"view": map[string]interface{}{"id": "s3", "version": version},
		})))
	}

	publishView(2)
	publishView(1)
	publishView(2)
	publishView(3)

	views := broadcaster.views(t, "s3")
	require.Len(t, views, 2)
	assert.Equal(t, uint64(2), views[0].Version)
	assert.Equal(t, uint64(3), views[1].Version)

	require.NoError(t, publisher.Publish(ctx, events.New(events.TypeSessionDeleted, "s3", nil)))
	assert.Equal(t, []string{"s3"}, broadcaster.closedSessions())
}
