// Package poll drives in_progress sessions to a terminal state by
// periodically checking the store for delivered results and, failing that,
// the engine for execution status. One cooperative loop per session, one
// pending timer at a time, explicitly cancellable so teardown never leaks a
// schedule.
package poll

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tiktok-scraping-service/internal/config"
	"tiktok-scraping-service/internal/domain/model"
	"tiktok-scraping-service/internal/domain/ports/adapter"
	"tiktok-scraping-service/internal/domain/ports/repository"
	"tiktok-scraping-service/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const (
	defaultInterval    = 5 * time.Second
	defaultMaxAttempts = 60
)

// Poller watches sessions until completion, failure, or attempt exhaustion.
type Poller struct {
	interval    time.Duration
	maxAttempts int
	repo        repository.SessionRepository
	engine      adapter.WorkflowEngine
	log         *zerolog.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	watched map[string]context.CancelFunc
	wg      sync.WaitGroup
}

func New(cfg config.PollConfig, repo repository.SessionRepository, eng adapter.WorkflowEngine, logger *zerolog.Logger) *Poller {
	interval := cfg.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = defaultMaxAttempts
	}
	l := logger.With().Str("component", "Poller").Logger()
	return &Poller{
		interval:    interval,
		maxAttempts: attempts,
		repo:        repo,
		engine:      eng,
		log:         &l,
		watched:     map[string]context.CancelFunc{},
	}
}

// Start sets the parent context for all watch loops. Calling Start more than
// once has no effect.
func (p *Poller) Start(parentCtx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx != nil {
		return
	}
	p.ctx, p.cancel = context.WithCancel(parentCtx)
}

// Watch begins polling for a session. A session already being watched keeps
// its existing loop; there is never more than one timer per session.
func (p *Poller) Watch(sessionID, executionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.ctx == nil {
		p.log.Error().Str("session_id", sessionID).Msg("poller not started; dropping watch")
		return
	}
	if _, ok := p.watched[sessionID]; ok {
		return
	}
	ctx, cancel := context.WithCancel(p.ctx)
	p.watched[sessionID] = cancel
	p.wg.Add(1)
	go p.loop(ctx, sessionID, executionID)
}

// Cancel stops the loop for one session without touching its stored status.
func (p *Poller) Cancel(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cancel, ok := p.watched[sessionID]; ok {
		cancel()
		delete(p.watched, sessionID)
	}
}

// Stop cancels every loop and waits for them to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	if p.cancel != nil {
		p.cancel()
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Poller) forget(sessionID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if cancel, ok := p.watched[sessionID]; ok {
		cancel()
		delete(p.watched, sessionID)
	}
}

func (p *Poller) loop(ctx context.Context, sessionID, executionID string) {
	defer p.wg.Done()
	defer p.forget(sessionID)

	log := p.log.With().Str("session_id", sessionID).Str("execution_id", executionID).Logger()

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return
		case <-time.After(p.interval):
		}

		metrics.IncPollAttempt()
		done, err := p.check(ctx, sessionID, executionID)
		if err != nil {
			// Transient errors are absorbed; the attempt still counts.
			log.Debug().Err(err).Int("attempt", attempt).Msg("poll attempt failed")
			continue
		}
		if done {
			log.Info().Int("attempt", attempt).Msg("session reached terminal state")
			return
		}
	}

	// Attempt bound exhausted: deterministic timeout.
	metrics.IncPollTimeout()
	msg := fmt.Sprintf("scraping timed out after %d attempts", p.maxAttempts)
	if err := p.fail(ctx, sessionID, msg); err != nil {
		log.Error().Err(err).Msg("failed to mark session as timed out")
		return
	}
	log.Warn().Msg("session failed: poll attempts exhausted")
}

// check performs one poll attempt. It returns done=true once the session is
// terminal. Store results are consulted first; only when none have arrived is
// the engine asked for execution status.
func (p *Poller) check(ctx context.Context, sessionID, executionID string) (bool, error) {
	s, err := p.repo.FindByID(ctx, sessionID)
	if err != nil {
		return false, err
	}
	if s.Terminal() {
		return true, nil
	}
	if len(s.Results) > 0 {
		return true, p.complete(ctx, s)
	}

	state, err := p.engine.ExecutionStatus(ctx, executionID)
	if err != nil {
		return false, err
	}
	switch state {
	case adapter.RunStateFailed:
		return true, p.fail(ctx, sessionID, "workflow execution failed")
	case adapter.RunStateCompleted:
		// The engine finished; re-check once in case the callback just
		// landed. If it is still in flight, keep polling.
		s, err := p.repo.FindByID(ctx, sessionID)
		if err != nil {
			return false, err
		}
		if s.Terminal() {
			return true, nil
		}
		if len(s.Results) > 0 {
			return true, p.complete(ctx, s)
		}
		return false, nil
	default:
		return false, nil
	}
}

func (p *Poller) complete(ctx context.Context, s *model.ScrapingSession) error {
	if err := s.Complete(s.Results); err != nil {
		return err
	}
	if err := p.repo.Save(ctx, s); err != nil {
		return err
	}
	metrics.IncTransition(string(model.SessionStatusCompleted))
	return nil
}

func (p *Poller) fail(ctx context.Context, sessionID, msg string) error {
	s, err := p.repo.FindByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.Terminal() {
		return nil
	}
	if err := s.Fail(msg); err != nil {
		return err
	}
	if err := p.repo.Save(ctx, s); err != nil {
		return err
	}
	metrics.IncTransition(string(model.SessionStatusFailed))
	return nil
}
