package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"tiktok-scraping-service/internal/domain"
	"tiktok-scraping-service/internal/domain/model"
)

func seedSession(t *testing.T, repo *memSessionRepo) *model.ScrapingSession {
	t.Helper()
	s := model.NewScrapingSession("u1", "Review Me", model.SessionTypeAccount, model.SessionMetadata{
		AccountNames: []string{"acct1"},
		MaxVideos:    5,
	})
	if err := repo.Save(context.Background(), s); err != nil {
		t.Fatalf("seed Save: %v", err)
	}
	return s
}

func TestSessionUC_GetAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemSessionRepo()
	uc := NewSessionUseCase(repo, newMemResultPool(), &recCanceller{}, newLogger())
	seed := seedSession(t, repo)

	got, err := uc.Get(ctx, seed.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != seed.ID {
		t.Fatalf("Get returned %q, want %q", got.ID, seed.ID)
	}

	if _, err := uc.Get(ctx, "session_u1_missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Get missing: got %v, want ErrNotFound", err)
	}

	all, err := uc.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("List returned %d sessions, want 1", len(all))
	}
}

func TestSessionUC_Replace(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemSessionRepo()
	uc := NewSessionUseCase(repo, newMemResultPool(), &recCanceller{}, newLogger())
	seed := seedSession(t, repo)

	updated := &model.ScrapingSession{
		ID:        "attacker-chosen-id",
		UserID:    "u2",
		Name:      "Renamed",
		Type:      seed.Type,
		Status:    model.SessionStatusCompleted,
		Results:   []model.ScrapingResult{{ID: "1"}, {ID: "2"}},
		CreatedAt: time.Now().Add(time.Hour),
	}

	got, err := uc.Replace(ctx, seed.ID, updated)
	if err != nil {
		t.Fatalf("Replace: %v", err)
	}

	// identity and creation instant are immutable
	if got.ID != seed.ID || got.UserID != seed.UserID {
		t.Fatalf("identity changed: id=%q userId=%q", got.ID, got.UserID)
	}
	if !got.CreatedAt.Equal(seed.CreatedAt) {
		t.Fatalf("createdAt changed on replace")
	}
	// totalVideos is recomputed, never trusted from the payload
	if got.TotalVideos != 2 {
		t.Fatalf("totalVideos = %d, want 2", got.TotalVideos)
	}
	if got.Name != "Renamed" {
		t.Fatalf("name = %q, want Renamed", got.Name)
	}

	stored, err := repo.FindByID(ctx, seed.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Name != "Renamed" || stored.TotalVideos != 2 {
		t.Fatalf("replacement not persisted: %+v", stored)
	}
}

func TestSessionUC_Replace_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemSessionRepo()
	uc := NewSessionUseCase(repo, newMemResultPool(), &recCanceller{}, newLogger())
	seed := seedSession(t, repo)

	_, err := uc.Replace(ctx, "session_u1_missing", &model.ScrapingSession{Name: "x"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Replace missing: got %v, want ErrNotFound", err)
	}

	_, err = uc.Replace(ctx, seed.ID, &model.ScrapingSession{Name: "   "})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("Replace blank name: got %v, want ErrInvalidArgument", err)
	}
}

func TestSessionUC_Delete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemSessionRepo()
	canceller := &recCanceller{}
	uc := NewSessionUseCase(repo, newMemResultPool(), canceller, newLogger())
	seed := seedSession(t, repo)

	if err := uc.Delete(ctx, seed.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.FindByID(ctx, seed.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("session still present after delete")
	}
	// any poll loop still watching the session is stopped
	if len(canceller.cancelled) != 1 || canceller.cancelled[0] != seed.ID {
		t.Fatalf("canceller calls = %v", canceller.cancelled)
	}

	if err := uc.Delete(ctx, seed.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("second Delete: got %v, want ErrNotFound", err)
	}
	if len(canceller.cancelled) != 1 {
		t.Fatalf("canceller invoked on failed delete")
	}
}

func TestSessionUC_AllResults(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	pool := newMemResultPool()
	uc := NewSessionUseCase(newMemSessionRepo(), pool, &recCanceller{}, newLogger())

	if err := pool.Append(ctx, []model.ScrapingResult{{ID: "1"}, {ID: "2"}}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	got, err := uc.AllResults(ctx)
	if err != nil {
		t.Fatalf("AllResults: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("results = %d, want 2", len(got))
	}
}
