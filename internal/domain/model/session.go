package model

import (
	"strings"
	"time"

	"tiktok-scraping-service/internal/domain"
)

type SessionStatus string

const (
	SessionStatusPending    SessionStatus = "pending"
	SessionStatusInProgress SessionStatus = "in_progress"
	SessionStatusCompleted  SessionStatus = "completed"
	SessionStatusFailed     SessionStatus = "failed"
)

type SessionType string

const (
	SessionTypeAccount SessionType = "account"
	SessionTypeHashtag SessionType = "hashtag"
)

// SessionMetadata echoes the triggering request. Immutable after creation.
type SessionMetadata struct {
	AccountNames []string `json:"accountNames,omitempty"`
	Hashtags     []string `json:"hashtags,omitempty"`
	MaxVideos    int      `json:"maxVideos"`
}

// ScrapingSession is one scraping run from submission to terminal state.
// Status only moves forward: pending -> in_progress -> completed|failed.
type ScrapingSession struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	Name        string           `json:"name"`
	Type        SessionType      `json:"type"`
	Status      SessionStatus    `json:"status"`
	Results     []ScrapingResult `json:"results"`
	TotalVideos int              `json:"totalVideos"`
	ExecutionID string           `json:"executionId,omitempty"`
	Error       string           `json:"error,omitempty"`
	Metadata    SessionMetadata  `json:"metadata"`
	CreatedAt   time.Time        `json:"dateCreated"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// SessionID derives the deterministic session id used by both the trigger
// and ingestion paths: session_<userId>_<slug(sessionName)>. One formula on
// both sides, so a callback for a triggered session lands on the same record.
func SessionID(userID, name string) string {
	return "session_" + Slugify(userID) + "_" + Slugify(name)
}

// Slugify lowercases and maps every non-alphanumeric run to a single dash.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if !dash && b.Len() > 0 {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// NewScrapingSession builds a pending session for a validated trigger request.
func NewScrapingSession(userID, name string, typ SessionType, meta SessionMetadata) *ScrapingSession {
	now := time.Now()
	return &ScrapingSession{
		ID:        SessionID(userID, name),
		UserID:    userID,
		Name:      name,
		Type:      typ,
		Status:    SessionStatusPending,
		Metadata:  meta,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

var statusRank = map[SessionStatus]int{
	SessionStatusPending:    0,
	SessionStatusInProgress: 1,
	SessionStatusCompleted:  2,
	SessionStatusFailed:     2,
}

// CanTransition reports whether moving to next is a legal forward step.
// Re-applying the current status is allowed (idempotent re-delivery);
// crossing between the terminal states is not.
func (s *ScrapingSession) CanTransition(next SessionStatus) bool {
	if next == s.Status {
		return true
	}
	return statusRank[next] > statusRank[s.Status] && !s.Terminal()
}

// Terminal reports whether the session reached completed or failed.
func (s *ScrapingSession) Terminal() bool {
	return s.Status == SessionStatusCompleted || s.Status == SessionStatusFailed
}

// Begin records the engine execution id and moves pending -> in_progress.
// ExecutionID is set at most once.
func (s *ScrapingSession) Begin(executionID string) error {
	if s.Status != SessionStatusPending {
		return domain.ErrInvalidTransition
	}
	if executionID == "" {
		return domain.NewFieldError("executionId", "must not be empty")
	}
	s.ExecutionID = executionID
	s.Status = SessionStatusInProgress
	s.UpdatedAt = time.Now()
	return nil
}

// Complete stores the results and moves the session to completed.
func (s *ScrapingSession) Complete(results []ScrapingResult) error {
	if !s.CanTransition(SessionStatusCompleted) {
		return domain.ErrInvalidTransition
	}
	s.Status = SessionStatusCompleted
	s.Results = results
	s.TotalVideos = len(results)
	s.Error = ""
	s.UpdatedAt = time.Now()
	return nil
}

// Fail moves the session to failed with a user-facing message. Results stay
// empty on the failure path.
func (s *ScrapingSession) Fail(msg string) error {
	if !s.CanTransition(SessionStatusFailed) {
		return domain.ErrInvalidTransition
	}
	s.Status = SessionStatusFailed
	s.Error = msg
	s.UpdatedAt = time.Now()
	return nil
}
