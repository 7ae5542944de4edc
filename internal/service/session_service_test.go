package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"ai-oneshot-console/internal/dto"
	"ai-oneshot-console/internal/pkg/logger"
	"ai-oneshot-console/internal/repository/memory"
	"ai-oneshot-console/pkg/ask"
	"ai-oneshot-console/pkg/events"
	"ai-oneshot-console/pkg/inspection"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClient struct {
	resp *ask.Response
	err  error
}

func (c *stubClient) Submit(ctx context.Context, req ask.Request) (*ask.Response, error) {
	return c.resp, c.err
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

func (p *recordingPublisher) last(eventType string) events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i].EventType() == eventType {
			return p.events[i]
		}
	}
	return nil
}

func newTestService(client ask.AnswerClient) (ISessionService, *recordingPublisher) {
	pub := &recordingPublisher{}
	repo := memory.NewSessionRepository(time.Hour, time.Hour)
	return NewSessionService(repo, client, pub, logger.NewNopLogger(), time.Second), pub
}

func answerWithData() *ask.Response {
	return &ask.Response{
		Answer:     "Use the leave form [hr.pdf].",
		Thoughts:   []ask.LabeledValue{{Label: "query"}},
		DataPoints: []json.RawMessage{json.RawMessage(`{"id":"hr.pdf","score":0.7,"content":"..."}`)},
	}
}

func TestCreateSession(t *testing.T) {
	svc, pub := newTestService(&stubClient{})

	view, err := svc.CreateSession(context.Background())
	require.NoError(t, err)

	assert.NotEmpty(t, view.Id)
	assert.True(t, view.ShowExamples)
	assert.False(t, view.ShowAnswer)
	assert.Equal(t, ask.DefaultConfiguration(), view.Configuration)
	assert.Contains(t, pub.types(), events.TypeSessionCreated)

	got, err := svc.GetSession(context.Background(), view.Id)
	require.NoError(t, err)
	assert.Equal(t, view.Id, got.Id)
}

func TestUnknownSession(t *testing.T) {
	svc, _ := newTestService(&stubClient{})

	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = svc.Ask(context.Background(), "missing", &dto.AskRequest{Question: "q"})
	assert.ErrorIs(t, err, ErrSessionNotFound)

	assert.ErrorIs(t, svc.DeleteSession(context.Background(), "missing"), ErrSessionNotFound)
}

func TestAskSuccess(t *testing.T) {
	svc, pub := newTestService(&stubClient{resp: answerWithData()})
	created, _ := svc.CreateSession(context.Background())

	view, err := svc.Ask(context.Background(), created.Id, &dto.AskRequest{Question: "How do I take leave?"})
	require.NoError(t, err)

	assert.True(t, view.ShowAnswer)
	assert.False(t, view.ShowExamples)
	assert.False(t, view.IsLoading)
	assert.Empty(t, view.Error)
	require.Len(t, view.SupportingContent, 1)
	assert.Equal(t, "hr.pdf", view.SupportingContent[0].ID.Text())
	require.Len(t, view.Tabs, len(inspection.Tabs))

	evt := pub.last(events.TypeAnswerReceived)
	require.NotNil(t, evt)
	assert.Equal(t, 1, evt.Payload()["data_points"])
	assert.Equal(t, created.Id, evt.Payload()["session_id"])
	assert.NotNil(t, pub.last(events.TypeQuestionAsked))
	assert.NotNil(t, pub.last(events.TypeSessionUpdated))
}

func TestAskFailureIsReportedInView(t *testing.T) {
	svc, pub := newTestService(&stubClient{err: &ask.ServiceError{StatusCode: 500, Message: ask.UnknownErrorMessage}})
	created, _ := svc.CreateSession(context.Background())

	view, err := svc.Ask(context.Background(), created.Id, &dto.AskRequest{Question: "q"})
	require.NoError(t, err)

	assert.Equal(t, ask.UnknownErrorMessage, view.Error)
	assert.False(t, view.ShowAnswer)
	assert.False(t, view.IsLoading)

	evt := pub.last(events.TypeAnswerFailed)
	require.NotNil(t, evt)
	assert.Equal(t, "service_error", evt.Payload()["kind"])
}

func TestRetry(t *testing.T) {
	client := &stubClient{err: errors.New("connection refused")}
	svc, _ := newTestService(client)
	created, _ := svc.CreateSession(context.Background())

	_, err := svc.Retry(context.Background(), created.Id)
	assert.ErrorIs(t, err, ErrNoQuestion)

	view, _ := svc.Ask(context.Background(), created.Id, &dto.AskRequest{Question: "q"})
	require.NotEmpty(t, view.Error)

	client.err = nil
	client.resp = answerWithData()
	view, err = svc.Retry(context.Background(), created.Id)
	require.NoError(t, err)
	assert.Empty(t, view.Error)
	assert.True(t, view.ShowAnswer)
	assert.Equal(t, "q", view.LastQuestion)
}

func TestUpdateConfiguration(t *testing.T) {
	svc, _ := newTestService(&stubClient{})
	created, _ := svc.CreateSession(context.Background())

	semantic := string(ask.SearchOptionSemantic)
	captions := true
	top := 12
	temp := 0.33
	view, err := svc.UpdateConfiguration(context.Background(), created.Id, &dto.UpdateConfigurationRequest{
		SearchOption:        &semantic,
		UseSemanticCaptions: &captions,
		RetrieveCount:       &top,
		Temperature:         &temp,
	})
	require.NoError(t, err)

	assert.Equal(t, ask.SearchOptionSemantic, view.Configuration.SearchOption)
	assert.True(t, view.Configuration.UseSemanticCaptions)
	assert.True(t, view.SemanticCaptionsEditable)
	assert.Equal(t, 12, view.Configuration.RetrieveCount)
	assert.InDelta(t, 0.3, view.Configuration.Temperature, 1e-9)
}

func TestUpdateConfigurationRejectsCaptionsWithoutSemanticSearch(t *testing.T) {
	svc, _ := newTestService(&stubClient{})
	created, _ := svc.CreateSession(context.Background())

	captions := true
	_, err := svc.UpdateConfiguration(context.Background(), created.Id, &dto.UpdateConfigurationRequest{
		UseSemanticCaptions: &captions,
	})
	assert.ErrorIs(t, err, ask.ErrInvalidConfiguration)
}

func TestToggleTabAndCitation(t *testing.T) {
	svc, _ := newTestService(&stubClient{resp: answerWithData()})
	created, _ := svc.CreateSession(context.Background())
	_, _ = svc.Ask(context.Background(), created.Id, &dto.AskRequest{Question: "q"})

	view, err := svc.ToggleTab(context.Background(), created.Id, &dto.ToggleTabRequest{Tab: "thoughtProcess"})
	require.NoError(t, err)
	assert.Equal(t, inspection.TabThoughtProcess, view.ActiveTab)
	assert.True(t, view.ShowAnalysisPanel)

	view, err = svc.ShowCitation(context.Background(), created.Id, &dto.ShowCitationRequest{Citation: "hr.pdf"})
	require.NoError(t, err)
	assert.Equal(t, inspection.TabCitation, view.ActiveTab)
	assert.Equal(t, "/content/hr.pdf", view.CitationPath)

	view, err = svc.ShowCitation(context.Background(), created.Id, &dto.ShowCitationRequest{Citation: "hr.pdf"})
	require.NoError(t, err)
	assert.Equal(t, inspection.TabNone, view.ActiveTab)
	assert.Empty(t, view.CitationPath)
	assert.False(t, view.ShowAnalysisPanel)
}

func TestCancelWithoutSubmission(t *testing.T) {
	svc, _ := newTestService(&stubClient{})
	created, _ := svc.CreateSession(context.Background())

	res, err := svc.Cancel(context.Background(), created.Id)
	require.NoError(t, err)
	assert.False(t, res.Cancelled)
}

func TestDeleteSession(t *testing.T) {
	svc, pub := newTestService(&stubClient{})
	created, _ := svc.CreateSession(context.Background())

	require.NoError(t, svc.DeleteSession(context.Background(), created.Id))

	_, err := svc.GetSession(context.Background(), created.Id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
	assert.NotNil(t, pub.last(events.TypeSessionDeleted))
}

func TestGetOptions(t *testing.T) {
	svc, _ := newTestService(&stubClient{})

	opts := svc.GetOptions()
	assert.Len(t, opts.SearchOptions, 5)
	assert.Equal(t, ask.Examples, opts.Examples)
}
