// File: internal/usecase/session_uc.go
package usecase

import (
	"context"
	"strings"
	"time"

	"tiktok-scraping-service/internal/domain"
	"tiktok-scraping-service/internal/domain/model"
	"tiktok-scraping-service/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

// Canceller is the slice of the poll controller the deletion path needs.
type Canceller interface {
	Cancel(sessionID string)
}

// SessionUseCase serves the human review surface: list, get, replace, delete.
type SessionUseCase struct {
	repo      repository.SessionRepository
	pool      repository.ResultPool
	canceller Canceller
	log       *zerolog.Logger
}

func NewSessionUseCase(repo repository.SessionRepository, pool repository.ResultPool, canceller Canceller, logger *zerolog.Logger) *SessionUseCase {
	l := logger.With().Str("component", "SessionUC").Logger()
	return &SessionUseCase{repo: repo, pool: pool, canceller: canceller, log: &l}
}

// Get retrieves a session by id.
func (uc *SessionUseCase) Get(ctx context.Context, id string) (*model.ScrapingSession, error) {
	return uc.repo.FindByID(ctx, id)
}

// List returns all sessions, newest first.
func (uc *SessionUseCase) List(ctx context.Context) ([]*model.ScrapingSession, error) {
	return uc.repo.ListAll(ctx)
}

// AllResults returns the global append-only result pool.
func (uc *SessionUseCase) AllResults(ctx context.Context) ([]model.ScrapingResult, error) {
	return uc.pool.ListAll(ctx)
}

// Replace overwrites a stored session wholesale (full-session replace, not a
// field-level patch). The id and creation instant are immutable.
func (uc *SessionUseCase) Replace(ctx context.Context, id string, updated *model.ScrapingSession) (*model.ScrapingSession, error) {
	existing, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(updated.Name) == "" {
		return nil, domain.NewFieldError("name", "must be a non-empty string")
	}

	updated.ID = existing.ID
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	updated.TotalVideos = len(updated.Results)
	updated.UpdatedAt = time.Now()

	if err := uc.repo.Save(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes a session and stops any poll loop still watching it.
func (uc *SessionUseCase) Delete(ctx context.Context, id string) error {
	if err := uc.repo.Delete(ctx, id); err != nil {
		return err
	}
	uc.canceller.Cancel(id)
	uc.log.Info().Str("session_id", id).Msg("session deleted")
	return nil
}
