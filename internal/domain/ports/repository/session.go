package repository

import (
	"context"

	"tiktok-scraping-service/internal/domain/model"
)

// SessionRepository is the port for scraping-session storage. Save overwrites
// any existing record with the same id (last write wins); implementations
// must serialize per-call so writes are never torn.
type SessionRepository interface {
	Save(ctx context.Context, s *model.ScrapingSession) error
	FindByID(ctx context.Context, id string) (*model.ScrapingSession, error)
	ListAll(ctx context.Context) ([]*model.ScrapingSession, error)
	Delete(ctx context.Context, id string) error
}

// ResultPool is the global append-only pool of ingested results. Repeated
// deliveries for the same session accumulate duplicates here on purpose.
type ResultPool interface {
	Append(ctx context.Context, results []model.ScrapingResult) error
	ListAll(ctx context.Context) ([]model.ScrapingResult, error)
}
