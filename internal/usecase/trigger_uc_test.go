package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tiktok-scraping-service/internal/domain"
	"tiktok-scraping-service/internal/domain/model"
	"tiktok-scraping-service/internal/domain/ports/adapter"

	"github.com/rs/zerolog"
)

func newLogger() *zerolog.Logger { l := zerolog.Nop(); return &l }

func validTriggerRequest() TriggerScrapingRequest {
	return TriggerScrapingRequest{
		SessionName:  "Test",
		AccountNames: []string{"acct1"},
		MaxVideos:    5,
		UserID:       "u1",
	}
}

func TestTriggerUC_Start_HappyPath(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemSessionRepo()
	eng := newFakeEngine("abc123")
	watcher := newRecWatcher()
	uc := NewTriggerUseCase(repo, eng, watcher, "http://svc.local/api/scraping-results", newLogger())

	s, err := uc.Start(ctx, validTriggerRequest())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Status != model.SessionStatusInProgress {
		t.Fatalf("status = %s, want in_progress", s.Status)
	}
	if s.ExecutionID != "abc123" {
		t.Fatalf("executionId = %q, want abc123", s.ExecutionID)
	}
	if s.Type != model.SessionTypeAccount {
		t.Fatalf("type = %s, want account", s.Type)
	}
	if s.ID != "session_u1_test" {
		t.Fatalf("id = %q", s.ID)
	}

	stored, err := repo.FindByID(ctx, s.ID)
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Status != model.SessionStatusInProgress {
		t.Fatalf("stored status = %s", stored.Status)
	}

	if got := watcher.watched[s.ID]; got != "abc123" {
		t.Fatalf("watcher not started: %q", got)
	}

	if len(eng.triggers) != 1 {
		t.Fatalf("engine called %d times, want exactly 1", len(eng.triggers))
	}
	fwd := eng.triggers[0]
	if fwd.CallbackURL != "http://svc.local/api/scraping-results" {
		t.Fatalf("callbackUrl = %q", fwd.CallbackURL)
	}
	if fwd.Timestamp == "" {
		t.Fatalf("timestamp not set on forwarded payload")
	}
}

func TestTriggerUC_Start_PendingBeforeForward(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemSessionRepo()
	eng := newFakeEngine("abc123")
	watcher := newRecWatcher()
	uc := NewTriggerUseCase(repo, eng, watcher, "http://cb", newLogger())

	// Observe the store from inside the engine call: the pending record must
	// exist before any network activity.
	var statusAtForward model.SessionStatus
	eng.onTrigger = func(req adapter.TriggerRequest) {
		s, err := repo.FindByID(ctx, model.SessionID(req.UserID, req.SessionName))
		if err != nil {
			t.Errorf("session missing during forward: %v", err)
			return
		}
		statusAtForward = s.Status
	}

	if _, err := uc.Start(ctx, validTriggerRequest()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if statusAtForward != model.SessionStatusPending {
		t.Fatalf("status during forward = %s, want pending", statusAtForward)
	}
}

func TestTriggerUC_Start_EngineFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemSessionRepo()
	eng := newFakeEngine("")
	eng.errTrigger = errors.New("connection refused")
	watcher := newRecWatcher()
	uc := NewTriggerUseCase(repo, eng, watcher, "http://cb", newLogger())

	_, err := uc.Start(ctx, validTriggerRequest())
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Fatalf("got %v, want ErrEngineUnavailable", err)
	}

	// No dangling pending record: the optimistic insert is marked failed.
	stored, err := repo.FindByID(ctx, "session_u1_test")
	if err != nil {
		t.Fatalf("FindByID: %v", err)
	}
	if stored.Status != model.SessionStatusFailed {
		t.Fatalf("stored status = %s, want failed", stored.Status)
	}
	if stored.Error != "failed to start scraping process" {
		t.Fatalf("stored error = %q", stored.Error)
	}
	if len(watcher.watched) != 0 {
		t.Fatalf("watcher should not be started on forward failure")
	}
}

func TestTriggerUC_Start_Validation(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name      string
		mutate    func(r *TriggerScrapingRequest)
		wantField string
	}{
		{"empty session name", func(r *TriggerScrapingRequest) { r.SessionName = "  " }, "sessionName"},
		{"empty user id", func(r *TriggerScrapingRequest) { r.UserID = "" }, "userId"},
		{"neither accounts nor hashtags", func(r *TriggerScrapingRequest) { r.AccountNames = nil }, "accountNames"},
		{"both accounts and hashtags", func(r *TriggerScrapingRequest) { r.Hashtags = []string{"h"} }, "accountNames"},
		{"empty account entry", func(r *TriggerScrapingRequest) { r.AccountNames = []string{"a", " "} }, "accountNames"},
		{"empty hashtag entry", func(r *TriggerScrapingRequest) {
			r.AccountNames = nil
			r.Hashtags = []string{""}
		}, "hashtags"},
		{"maxVideos too small", func(r *TriggerScrapingRequest) { r.MaxVideos = 0 }, "maxVideos"},
		{"maxVideos too large", func(r *TriggerScrapingRequest) { r.MaxVideos = 1001 }, "maxVideos"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ctx := context.Background()
			repo := newMemSessionRepo()
			eng := newFakeEngine("abc123")
			uc := NewTriggerUseCase(repo, eng, newRecWatcher(), "http://cb", newLogger())

			req := validTriggerRequest()
			c.mutate(&req)

			_, err := uc.Start(ctx, req)
			if !errors.Is(err, domain.ErrInvalidArgument) {
				t.Fatalf("got %v, want ErrInvalidArgument", err)
			}
			if !strings.Contains(err.Error(), c.wantField) {
				t.Fatalf("error %q does not name field %q", err.Error(), c.wantField)
			}
			// validation failure creates no partial state
			if repo.len() != 0 {
				t.Fatalf("session created despite validation failure")
			}
			if len(eng.triggers) != 0 {
				t.Fatalf("engine called despite validation failure")
			}
		})
	}
}

func TestTriggerUC_Start_HashtagType(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	repo := newMemSessionRepo()
	eng := newFakeEngine("hx1")
	uc := NewTriggerUseCase(repo, eng, newRecWatcher(), "http://cb", newLogger())

	s, err := uc.Start(ctx, TriggerScrapingRequest{
		SessionName: "Tag Hunt",
		Hashtags:    []string{"fyp", "golang"},
		MaxVideos:   10,
		UserID:      "u2",
	})
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	if s.Type != model.SessionTypeHashtag {
		t.Fatalf("type = %s, want hashtag", s.Type)
	}
	if len(eng.triggers[0].Hashtags) != 2 {
		t.Fatalf("hashtags not forwarded: %+v", eng.triggers[0])
	}
}
