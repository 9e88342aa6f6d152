package usecase

import (
	"context"
	"sort"
	"sync"

	"tiktok-scraping-service/internal/domain"
	"tiktok-scraping-service/internal/domain/model"
	"tiktok-scraping-service/internal/domain/ports/adapter"
)

//
// ---------------- in-memory repo mocks ----------------
//

type memSessionRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.ScrapingSession
	errSave error
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byID: map[string]*model.ScrapingSession{}}
}

func (m *memSessionRepo) Save(ctx context.Context, s *model.ScrapingSession) error {
	if m.errSave != nil {
		return m.errSave
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.byID[s.ID] = &cp
	return nil
}

func (m *memSessionRepo) FindByID(ctx context.Context, id string) (*model.ScrapingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *memSessionRepo) ListAll(ctx context.Context) ([]*model.ScrapingSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.ScrapingSession, 0, len(m.byID))
	for _, s := range m.byID {
		cp := *s
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memSessionRepo) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memSessionRepo) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memResultPool struct {
	mu      sync.Mutex
	results []model.ScrapingResult
}

func newMemResultPool() *memResultPool { return &memResultPool{} }

func (p *memResultPool) Append(ctx context.Context, results []model.ScrapingResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, results...)
	return nil
}

func (p *memResultPool) ListAll(ctx context.Context) ([]model.ScrapingResult, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.ScrapingResult, len(p.results))
	copy(out, p.results)
	return out, nil
}

//
// ---------------- engine + poller fakes ----------------
//

type fakeEngine struct {
	mu          sync.Mutex
	execID      string
	errTrigger  error
	state       adapter.RunState
	errStatus   error
	triggers    []adapter.TriggerRequest
	statusCalls int
	onTrigger   func(req adapter.TriggerRequest)
}

func newFakeEngine(execID string) *fakeEngine {
	return &fakeEngine{execID: execID, state: adapter.RunStateRunning}
}

func (f *fakeEngine) Trigger(ctx context.Context, req adapter.TriggerRequest) (string, error) {
	f.mu.Lock()
	hook := f.onTrigger
	f.triggers = append(f.triggers, req)
	f.mu.Unlock()
	if hook != nil {
		hook(req)
	}
	if f.errTrigger != nil {
		return "", f.errTrigger
	}
	return f.execID, nil
}

func (f *fakeEngine) ExecutionStatus(ctx context.Context, executionID string) (adapter.RunState, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statusCalls++
	if f.errStatus != nil {
		return "", f.errStatus
	}
	return f.state, nil
}

type recWatcher struct {
	mu      sync.Mutex
	watched map[string]string // sessionID -> executionID
}

func newRecWatcher() *recWatcher { return &recWatcher{watched: map[string]string{}} }

func (w *recWatcher) Watch(sessionID, executionID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.watched[sessionID] = executionID
}

type recCanceller struct {
	mu        sync.Mutex
	cancelled []string
}

func (c *recCanceller) Cancel(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cancelled = append(c.cancelled, sessionID)
}
