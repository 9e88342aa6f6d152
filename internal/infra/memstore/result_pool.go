package memstore

import (
	"context"
	"sync"

	"tiktok-scraping-service/internal/domain/model"
	"tiktok-scraping-service/internal/domain/ports/repository"
)

var _ repository.ResultPool = (*ResultPool)(nil)

// ResultPool is the in-memory append-only pool of every ingested result.
type ResultPool struct {
	mu      sync.RWMutex
	results []model.ScrapingResult
}

func NewResultPool() *ResultPool { return &ResultPool{} }

func (p *ResultPool) Append(ctx context.Context, results []model.ScrapingResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, results...)
	return nil
}

func (p *ResultPool) ListAll(ctx context.Context) ([]model.ScrapingResult, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := make([]model.ScrapingResult, len(p.results))
	copy(out, p.results)
	return out, nil
}
