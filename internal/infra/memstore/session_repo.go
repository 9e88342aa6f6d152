// Package memstore holds sessions and the result pool in process memory.
// Store lifetime equals process lifetime: a restart loses everything. That is
// a documented property of the default deployment, not a bug; the redis
// backend exists for deployments that need sessions to survive restarts.
package memstore

import (
	"context"
	"sort"
	"sync"

	"tiktok-scraping-service/internal/domain"
	"tiktok-scraping-service/internal/domain/model"
	"tiktok-scraping-service/internal/domain/ports/repository"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo is a mutex-guarded keyed map. The mutex preserves the
// "last write wins, no torn writes" contract under Go's multi-threaded
// runtime.
type SessionRepo struct {
	mu       sync.RWMutex
	sessions map[string]*model.ScrapingSession
}

func NewSessionRepo() *SessionRepo {
	return &SessionRepo{sessions: map[string]*model.ScrapingSession{}}
}

func (r *SessionRepo) Save(ctx context.Context, s *model.ScrapingSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := cloneSession(s)
	r.sessions[s.ID] = cp
	return nil
}

func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.ScrapingSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneSession(s), nil
}

func (r *SessionRepo) ListAll(ctx context.Context) ([]*model.ScrapingSession, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.ScrapingSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, cloneSession(s))
	}
	// newest first, id as tie-break to keep the order deterministic
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.sessions, id)
	return nil
}

// cloneSession copies the session and its results slice so callers never
// share memory with the stored record.
func cloneSession(s *model.ScrapingSession) *model.ScrapingSession {
	cp := *s
	if s.Results != nil {
		cp.Results = make([]model.ScrapingResult, len(s.Results))
		copy(cp.Results, s.Results)
	}
	return &cp
}
