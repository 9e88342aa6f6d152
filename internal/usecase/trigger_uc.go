// File: internal/usecase/trigger_uc.go
package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tiktok-scraping-service/internal/domain"
	"tiktok-scraping-service/internal/domain/model"
	"tiktok-scraping-service/internal/domain/ports/adapter"
	"tiktok-scraping-service/internal/domain/ports/repository"
	"tiktok-scraping-service/internal/infra/metrics"

	"github.com/rs/zerolog"
)

const maxVideosCeiling = 1000

// Watcher is the slice of the poll controller the trigger path needs: start
// watching a session once the engine accepted it.
type Watcher interface {
	Watch(sessionID, executionID string)
}

// TriggerScrapingRequest is the inbound scrape submission.
type TriggerScrapingRequest struct {
	SessionName  string   `json:"sessionName"`
	AccountNames []string `json:"accountNames"`
	Hashtags     []string `json:"hashtags"`
	MaxVideos    int      `json:"maxVideos"`
	UserID       string   `json:"userId"`
}

// TriggerUseCase validates scrape requests, records the session, and forwards
// the work to the workflow engine.
type TriggerUseCase struct {
	repo        repository.SessionRepository
	engine      adapter.WorkflowEngine
	watcher     Watcher
	callbackURL string
	log         *zerolog.Logger
}

func NewTriggerUseCase(repo repository.SessionRepository, eng adapter.WorkflowEngine, watcher Watcher, callbackURL string, logger *zerolog.Logger) *TriggerUseCase {
	l := logger.With().Str("component", "TriggerUC").Logger()
	return &TriggerUseCase{
		repo:        repo,
		engine:      eng,
		watcher:     watcher,
		callbackURL: callbackURL,
		log:         &l,
	}
}

// Start runs one trigger submission end to end. The session record is created
// in pending before the engine is contacted; a failed forward marks it failed
// rather than leaving an orphaned pending record.
func (uc *TriggerUseCase) Start(ctx context.Context, req TriggerScrapingRequest) (*model.ScrapingSession, error) {
	typ, err := validateTrigger(&req)
	if err != nil {
		return nil, err
	}

	meta := model.SessionMetadata{
		AccountNames: req.AccountNames,
		Hashtags:     req.Hashtags,
		MaxVideos:    req.MaxVideos,
	}
	s := model.NewScrapingSession(req.UserID, req.SessionName, typ, meta)
	if err := uc.repo.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save pending session: %w", err)
	}
	metrics.IncSessionCreated(string(typ))
	metrics.IncTransition(string(model.SessionStatusPending))

	execID, err := uc.engine.Trigger(ctx, adapter.TriggerRequest{
		SessionName:  req.SessionName,
		AccountNames: req.AccountNames,
		Hashtags:     req.Hashtags,
		MaxVideos:    req.MaxVideos,
		UserID:       req.UserID,
		CallbackURL:  uc.callbackURL,
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		uc.log.Error().Err(err).Str("session_id", s.ID).Msg("engine trigger failed")
		if ferr := s.Fail("failed to start scraping process"); ferr == nil {
			if serr := uc.repo.Save(ctx, s); serr != nil {
				uc.log.Error().Err(serr).Str("session_id", s.ID).Msg("failed to persist failed session")
			}
			metrics.IncTransition(string(model.SessionStatusFailed))
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
	}

	if err := s.Begin(execID); err != nil {
		return nil, err
	}
	if err := uc.repo.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save in_progress session: %w", err)
	}
	metrics.IncTransition(string(model.SessionStatusInProgress))

	uc.watcher.Watch(s.ID, execID)
	uc.log.Info().Str("session_id", s.ID).Str("execution_id", execID).Msg("scraping started")
	return s, nil
}

// validateTrigger enforces the trigger contract and derives the session type.
// Exactly one of accountNames/hashtags must be set.
func validateTrigger(req *TriggerScrapingRequest) (model.SessionType, error) {
	req.SessionName = strings.TrimSpace(req.SessionName)
	if req.SessionName == "" {
		return "", domain.NewFieldError("sessionName", "must be a non-empty string")
	}
	if strings.TrimSpace(req.UserID) == "" {
		return "", domain.NewFieldError("userId", "must be a non-empty string")
	}

	hasAccounts := len(req.AccountNames) > 0
	hasHashtags := len(req.Hashtags) > 0
	switch {
	case !hasAccounts && !hasHashtags:
		return "", domain.NewFieldError("accountNames", "either accountNames or hashtags is required")
	case hasAccounts && hasHashtags:
		return "", domain.NewFieldError("accountNames", "accountNames and hashtags are mutually exclusive")
	}

	targets, field := req.AccountNames, "accountNames"
	if hasHashtags {
		targets, field = req.Hashtags, "hashtags"
	}
	for _, t := range targets {
		if strings.TrimSpace(t) == "" {
			return "", domain.NewFieldError(field, "entries must be non-empty strings")
		}
	}

	if req.MaxVideos < 1 || req.MaxVideos > maxVideosCeiling {
		return "", domain.NewFieldError("maxVideos", fmt.Sprintf("must be an integer between 1 and %d", maxVideosCeiling))
	}

	if hasHashtags {
		return model.SessionTypeHashtag, nil
	}
	return model.SessionTypeAccount, nil
}
