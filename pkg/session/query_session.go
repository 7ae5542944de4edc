package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ai-oneshot-console/internal/pkg/logger"
	"ai-oneshot-console/pkg/ask"
	"ai-oneshot-console/pkg/inspection"
	"ai-oneshot-console/pkg/metrics"
)

// SessionState is an immutable snapshot of a QuerySession.
type SessionState struct {
	ID             string
	Configuration  ask.Configuration
	LastQuestion   string
	IsLoading      bool
	Err            error
	Answer         *ask.Response
	ActiveCitation string
	ActiveTab      inspection.Tab
	Generation     uint64

	// Version increases with every change notification. Observers can drop
	// a snapshot whose version is not above the last one they saw.
	Version uint64

	// Discarded is set on the state returned by a Submit whose response was
	// superseded by a newer submission.
	Discarded bool
}

// QuerySession orchestrates one user's question/answer cycle. It is the
// single writer of its state; every mutation goes through a method.
//
// Callers are expected to suppress new submissions while IsLoading is true.
// The session does not enforce it, but a response that settles after a newer
// submission was issued is discarded instead of overwriting the newer result.
type QuerySession struct {
	id      string
	client  ask.AnswerClient
	logger  logger.ILogger
	timeout time.Duration

	mu           sync.Mutex
	cfg          ask.Configuration
	lastQuestion string
	isLoading    bool
	err          error
	answer       *ask.Response
	view         inspection.Controller
	generation   uint64
	version      uint64
	cancel       context.CancelFunc
	onChange     func(SessionState)

	// notifyMu keeps observer calls in version order.
	notifyMu sync.Mutex
}

// NewQuerySession creates a session with the default configuration.
// timeout bounds every submission; zero means no bound.
func NewQuerySession(id string, client ask.AnswerClient, log logger.ILogger, timeout time.Duration) *QuerySession {
	return &QuerySession{
		id:      id,
		client:  client,
		logger:  log,
		timeout: timeout,
		cfg:     ask.DefaultConfiguration(),
	}
}

func (s *QuerySession) ID() string {
	return s.id
}

// OnChange registers fn to receive a snapshot after every state change.
// Calls are serialized in Version order and run outside the state lock;
// fn must not mutate the session.
func (s *QuerySession) OnChange(fn func(SessionState)) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

func (s *QuerySession) Snapshot() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *QuerySession) snapshotLocked() SessionState {
	return SessionState{
		ID:             s.id,
		Configuration:  s.cfg,
		LastQuestion:   s.lastQuestion,
		IsLoading:      s.isLoading,
		Err:            s.err,
		Answer:         s.answer,
		ActiveCitation: s.view.ActiveCitation(),
		ActiveTab:      s.view.ActiveTab(),
		Generation:     s.generation,
		Version:        s.version,
	}
}

// Submit asks question with the current configuration and blocks until the
// request settles. Failures are recorded in the session, not returned: the
// session stays usable and a previous answer is kept in memory.
func (s *QuerySession) Submit(ctx context.Context, question string) SessionState {
	s.mu.Lock()
	s.lastQuestion = question
	s.err = nil
	s.view.Reset()
	s.isLoading = true
	s.generation++
	gen := s.generation
	req := ask.BuildRequest(question, s.cfg)

	var runCtx context.Context
	var cancel context.CancelFunc
	if s.timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
	} else {
		runCtx, cancel = context.WithCancel(ctx)
	}
	s.cancel = cancel
	s.mu.Unlock()
	s.notify()

	s.logger.Info("QuerySession", "Question submitted", map[string]interface{}{
		"session_id":    s.id,
		"generation":    gen,
		"approach":      req.Approach,
		"deployment":    req.Deployment,
		"index":         req.Index,
		"search_option": *req.Overrides.SearchOption,
		"top":           *req.Overrides.Top,
	})

	start := time.Now()
	resp, err := s.client.Submit(runCtx, req)
	cancel()
	elapsed := time.Since(start)
	observe(req, err, elapsed)

	s.mu.Lock()
	if gen != s.generation {
		latest := s.generation
		s.mu.Unlock()
		metrics.StaleResponsesTotal.Inc()
		s.logger.Warn("QuerySession", "Discarding stale response", map[string]interface{}{
			"session_id": s.id,
			"generation": gen,
			"latest":     latest,
		})
		state := s.Snapshot()
		state.Discarded = true
		return state
	}

	s.cancel = nil
	if err != nil {
		s.err = classify(err)
	} else {
		s.answer = resp
	}
	s.isLoading = false
	state := s.snapshotLocked()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("QuerySession", "Question failed", map[string]interface{}{
			"session_id": s.id,
			"generation": gen,
			"error":      err.Error(),
			"elapsed_ms": elapsed.Milliseconds(),
		})
	} else {
		s.logger.Info("QuerySession", "Answer received", map[string]interface{}{
			"session_id":  s.id,
			"generation":  gen,
			"data_points": len(resp.DataPoints),
			"elapsed_ms":  elapsed.Milliseconds(),
		})
	}

	s.notify()
	return state
}

// Retry re-submits the last question with the current configuration.
func (s *QuerySession) Retry(ctx context.Context) SessionState {
	s.mu.Lock()
	question := s.lastQuestion
	s.mu.Unlock()
	return s.Submit(ctx, question)
}

// Cancel aborts the in-flight submission, if any. It reports whether there
// was one to abort.
func (s *QuerySession) Cancel() bool {
	s.mu.Lock()
	cancel := s.cancel
	loading := s.isLoading
	s.mu.Unlock()

	if cancel == nil || !loading {
		return false
	}
	cancel()
	return true
}

func (s *QuerySession) ToggleTab(t inspection.Tab) {
	s.mu.Lock()
	s.view.ToggleTab(t)
	s.mu.Unlock()
	s.notify()
}

func (s *QuerySession) ShowCitation(citation string) {
	s.mu.Lock()
	s.view.ShowCitation(citation)
	s.mu.Unlock()
	s.notify()
}

func (s *QuerySession) SetApproach(a ask.Approach) error {
	if !a.Valid() {
		return fmt.Errorf("%w: unknown approach %q", ask.ErrInvalidConfiguration, a)
	}
	return s.mutate(func(cfg *ask.Configuration) error {
		cfg.Approach = a
		return nil
	})
}

func (s *QuerySession) SetDeployment(d ask.Deployment) error {
	if !d.Valid() {
		return fmt.Errorf("%w: unknown deployment %q", ask.ErrInvalidConfiguration, d)
	}
	return s.mutate(func(cfg *ask.Configuration) error {
		cfg.Deployment = d
		return nil
	})
}

func (s *QuerySession) SetIndex(i ask.Index) error {
	if !i.Valid() {
		return fmt.Errorf("%w: unknown index %q", ask.ErrInvalidConfiguration, i)
	}
	return s.mutate(func(cfg *ask.Configuration) error {
		cfg.Index = i
		return nil
	})
}

// SetSearchOption changes the search mode. The semantic captions value is
// kept as-is even when the new mode disables the control.
func (s *QuerySession) SetSearchOption(o ask.SearchOption) error {
	if !o.Valid() {
		return fmt.Errorf("%w: unknown search option %q", ask.ErrInvalidConfiguration, o)
	}
	return s.mutate(func(cfg *ask.Configuration) error {
		cfg.SearchOption = o
		return nil
	})
}

func (s *QuerySession) SetRetrieveCount(n int) error {
	if err := ask.ValidateRetrieveCount(n); err != nil {
		return err
	}
	return s.mutate(func(cfg *ask.Configuration) error {
		cfg.RetrieveCount = n
		return nil
	})
}

func (s *QuerySession) SetTemperature(t float64) error {
	normalized, err := ask.NormalizeTemperature(t)
	if err != nil {
		return err
	}
	return s.mutate(func(cfg *ask.Configuration) error {
		cfg.Temperature = normalized
		return nil
	})
}

// SetUseSemanticCaptions rejects enabling captions while the current search
// option has the control disabled. Disabling is always allowed.
func (s *QuerySession) SetUseSemanticCaptions(enabled bool) error {
	return s.mutate(func(cfg *ask.Configuration) error {
		if enabled && !cfg.SemanticCaptionsEnabled() {
			return fmt.Errorf("%w: semantic captions require a semantic search option, got %q", ask.ErrInvalidConfiguration, cfg.SearchOption)
		}
		cfg.UseSemanticCaptions = enabled
		return nil
	})
}

func (s *QuerySession) mutate(apply func(cfg *ask.Configuration) error) error {
	s.mu.Lock()
	next := s.cfg
	if err := apply(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.cfg = next
	s.mu.Unlock()
	s.notify()
	return nil
}

func (s *QuerySession) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.version++
	fn := s.onChange
	state := s.snapshotLocked()
	s.mu.Unlock()

	if fn != nil {
		fn(state)
	}
}

// classify keeps service and transport errors as they are and treats any
// other failure as a transport failure.
func classify(err error) error {
	if ask.IsServiceError(err) || ask.IsTransportError(err) {
		return err
	}
	return &ask.TransportError{Err: err}
}

func observe(req ask.Request, err error, elapsed time.Duration) {
	outcome := metrics.OutcomeSuccess
	switch {
	case err == nil:
	case ask.IsServiceError(err):
		outcome = metrics.OutcomeServiceError
	default:
		outcome = metrics.OutcomeTransportError
	}
	metrics.AskTotal.WithLabelValues(string(req.Approach), string(req.Deployment), outcome).Inc()
	metrics.AskDuration.WithLabelValues(string(req.Approach), string(req.Deployment)).Observe(elapsed.Seconds())
}
