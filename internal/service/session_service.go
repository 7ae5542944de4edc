package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-oneshot-console/internal/dto"
	"ai-oneshot-console/internal/mapper"
	"ai-oneshot-console/internal/pkg/logger"
	"ai-oneshot-console/internal/repository/memory"
	"ai-oneshot-console/pkg/ask"
	"ai-oneshot-console/pkg/events"
	"ai-oneshot-console/pkg/inspection"
	"ai-oneshot-console/pkg/metrics"
	"ai-oneshot-console/pkg/session"

	"github.com/google/uuid"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoQuestion      = errors.New("session has no question to retry")
)

type ISessionService interface {
	GetOptions() *dto.OptionsResponse
	CreateSession(ctx context.Context) (*dto.SessionView, error)
	GetSession(ctx context.Context, id string) (*dto.SessionView, error)
	DeleteSession(ctx context.Context, id string) error
	UpdateConfiguration(ctx context.Context, id string, req *dto.UpdateConfigurationRequest) (*dto.SessionView, error)
	Ask(ctx context.Context, id string, req *dto.AskRequest) (*dto.SessionView, error)
	Retry(ctx context.Context, id string) (*dto.SessionView, error)
	Cancel(ctx context.Context, id string) (*dto.CancelResponse, error)
	ToggleTab(ctx context.Context, id string, req *dto.ToggleTabRequest) (*dto.SessionView, error)
	ShowCitation(ctx context.Context, id string, req *dto.ShowCitationRequest) (*dto.SessionView, error)
}

type sessionService struct {
	repo             *memory.SessionRepository
	client           ask.AnswerClient
	publisherService IPublisherService
	logger           logger.ILogger
	askTimeout       time.Duration
}

func NewSessionService(
	repo *memory.SessionRepository,
	client ask.AnswerClient,
	publisherService IPublisherService,
	log logger.ILogger,
	askTimeout time.Duration,
) ISessionService {
	s := &sessionService{
		repo:             repo,
		client:           client,
		publisherService: publisherService,
		logger:           log,
		askTimeout:       askTimeout,
	}
	repo.OnEvicted(s.onEvicted)
	return s
}

func (s *sessionService) GetOptions() *dto.OptionsResponse {
	return &dto.OptionsResponse{Catalog: ask.DefaultCatalog()}
}

func (s *sessionService) CreateSession(ctx context.Context) (*dto.SessionView, error) {
	qs := session.NewQuerySession(uuid.NewString(), s.client, s.logger, s.askTimeout)
	qs.OnChange(s.onChange)
	s.repo.Save(qs)
	metrics.ActiveSessions.Set(float64(s.repo.Count()))

	s.publish(ctx, events.New(events.TypeSessionCreated, qs.ID(), nil))
	s.logger.Info("SessionService", "Session created", map[string]interface{}{"session_id": qs.ID()})

	return mapper.ToSessionView(qs.Snapshot()), nil
}

func (s *sessionService) GetSession(ctx context.Context, id string) (*dto.SessionView, error) {
	qs, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return mapper.ToSessionView(qs.Snapshot()), nil
}

func (s *sessionService) DeleteSession(ctx context.Context, id string) error {
	if _, err := s.find(id); err != nil {
		return err
	}
	s.repo.Delete(id)
	return nil
}

// UpdateConfiguration applies the requested fields in a fixed order. The
// search option goes before captions so both can change in one request.
// Fields applied before a failing one stay applied.
func (s *sessionService) UpdateConfiguration(ctx context.Context, id string, req *dto.UpdateConfigurationRequest) (*dto.SessionView, error) {
	qs, err := s.find(id)
	if err != nil {
		return nil, err
	}

	if req.Approach != nil {
		if err := qs.SetApproach(ask.Approach(*req.Approach)); err != nil {
			return nil, err
		}
	}
	if req.Deployment != nil {
		if err := qs.SetDeployment(ask.Deployment(*req.Deployment)); err != nil {
			return nil, err
		}
	}
	if req.Index != nil {
		if err := qs.SetIndex(ask.Index(*req.Index)); err != nil {
			return nil, err
		}
	}
	if req.SearchOption != nil {
		if err := qs.SetSearchOption(ask.SearchOption(*req.SearchOption)); err != nil {
			return nil, err
		}
	}
	if req.RetrieveCount != nil {
		if err := qs.SetRetrieveCount(*req.RetrieveCount); err != nil {
			return nil, err
		}
	}
	if req.Temperature != nil {
		if err := qs.SetTemperature(*req.Temperature); err != nil {
			return nil, err
		}
	}
	if req.UseSemanticCaptions != nil {
		if err := qs.SetUseSemanticCaptions(*req.UseSemanticCaptions); err != nil {
			return nil, err
		}
	}

	return mapper.ToSessionView(qs.Snapshot()), nil
}

func (s *sessionService) Ask(ctx context.Context, id string, req *dto.AskRequest) (*dto.SessionView, error) {
	qs, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return s.submit(ctx, qs, req.Question), nil
}

func (s *sessionService) Retry(ctx context.Context, id string) (*dto.SessionView, error) {
	qs, err := s.find(id)
	if err != nil {
		return nil, err
	}
	question := qs.Snapshot().LastQuestion
	if question == "" {
		return nil, ErrNoQuestion
	}
	return s.submit(ctx, qs, question), nil
}

func (s *sessionService) Cancel(ctx context.Context, id string) (*dto.CancelResponse, error) {
	qs, err := s.find(id)
	if err != nil {
		return nil, err
	}
	return &dto.CancelResponse{Cancelled: qs.Cancel()}, nil
}

func (s *sessionService) ToggleTab(ctx context.Context, id string, req *dto.ToggleTabRequest) (*dto.SessionView, error) {
	qs, err := s.find(id)
	if err != nil {
		return nil, err
	}
	tab, err := inspection.ParseTab(req.Tab)
	if err != nil {
		return nil, err
	}
	qs.ToggleTab(tab)
	return mapper.ToSessionView(qs.Snapshot()), nil
}

func (s *sessionService) ShowCitation(ctx context.Context, id string, req *dto.ShowCitationRequest) (*dto.SessionView, error) {
	qs, err := s.find(id)
	if err != nil {
		return nil, err
	}
	qs.ShowCitation(req.Citation)
	return mapper.ToSessionView(qs.Snapshot()), nil
}

func (s *sessionService) submit(ctx context.Context, qs *session.QuerySession, question string) *dto.SessionView {
	cfg := qs.Snapshot().Configuration
	s.publish(ctx, events.New(events.TypeQuestionAsked, qs.ID(), map[string]interface{}{
		"question":      question,
		"approach":      cfg.Approach,
		"deployment":    cfg.Deployment,
		"index":         cfg.Index,
		"search_option": cfg.SearchOption,
	}))

	state := qs.Submit(ctx, question)

	switch {
	case state.Discarded:
		s.publish(ctx, events.New(events.TypeStaleAnswerDrop, qs.ID(), map[string]interface{}{
			"question": question,
		}))
	case state.Err != nil:
		s.publish(ctx, events.New(events.TypeAnswerFailed, qs.ID(), map[string]interface{}{
			"question": question,
			"error":    state.Err.Error(),
			"kind":     errorKind(state.Err),
		}))
	case state.Answer != nil:
		s.publish(ctx, events.New(events.TypeAnswerReceived, qs.ID(), map[string]interface{}{
			"question":    question,
			"data_points": len(state.Answer.DataPoints),
		}))
	}

	return mapper.ToSessionView(state)
}

func (s *sessionService) find(id string) (*session.QuerySession, error) {
	qs, ok := s.repo.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return qs, nil
}

func (s *sessionService) onChange(state session.SessionState) {
	s.publish(context.Background(), events.New(events.TypeSessionUpdated, state.ID, map[string]interface{}{
		"view": mapper.ToSessionView(state),
	}))
}

func (s *sessionService) onEvicted(id string, qs *session.QuerySession) {
	qs.Cancel()
	metrics.ActiveSessions.Set(float64(s.repo.Count()))
	s.publish(context.Background(), events.New(events.TypeSessionDeleted, id, nil))
	s.logger.Info("SessionService", "Session removed", map[string]interface{}{"session_id": id})
}

func (s *sessionService) publish(ctx context.Context, event events.Event) {
	if s.publisherService == nil {
		return
	}
	if err := s.publisherService.Publish(ctx, event); err != nil {
		s.logger.Error("SessionService", "Failed to publish event", map[string]interface{}{
			"event_type": event.EventType(),
			"error":      err.Error(),
		})
	}
}

func errorKind(err error) string {
	if ask.IsServiceError(err) {
		return metrics.OutcomeServiceError
	}
	return metrics.OutcomeTransportError
}
