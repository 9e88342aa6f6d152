// File: internal/usecase/ingest_uc.go
package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tiktok-scraping-service/internal/domain"
	"tiktok-scraping-service/internal/domain/model"
	"tiktok-scraping-service/internal/domain/ports/repository"
	"tiktok-scraping-service/internal/infra/metrics"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"
)

// ingestEnvelope is the object form of the callback payload. The engine may
// also POST the results array itself at the top level (compatibility
// fallback); see Ingest.
type ingestEnvelope struct {
	SessionName  string          `json:"sessionName"`
	AccountNames []string        `json:"accountNames"`
	Hashtags     []string        `json:"hashtags"`
	MaxVideos    int             `json:"maxVideos"`
	UserID       string          `json:"userId"`
	Results      json.RawMessage `json:"results"`
}

// IngestUseCase normalizes engine callback payloads and upserts the matching
// session record.
type IngestUseCase struct {
	repo repository.SessionRepository
	pool repository.ResultPool
	log  *zerolog.Logger
}

func NewIngestUseCase(repo repository.SessionRepository, pool repository.ResultPool, logger *zerolog.Logger) *IngestUseCase {
	l := logger.With().Str("component", "IngestUC").Logger()
	return &IngestUseCase{repo: repo, pool: pool, log: &l}
}

// Ingest accepts one result delivery. The raw body may be an envelope object
// or a bare results array; nested one-level batch wrappers are flattened. The
// session id is derived from (userId, sessionName) — the same formula the
// trigger path uses — so a second delivery for the same logical session
// overwrites the record in place. The global result pool, by contrast, is
// append-only and accumulates duplicates across re-deliveries.
func (uc *IngestUseCase) Ingest(ctx context.Context, body []byte) (*model.ScrapingSession, error) {
	env, err := decodeEnvelope(body)
	if err != nil {
		return nil, err
	}

	if len(env.Results) == 0 && len(env.AccountNames) == 0 && len(env.Hashtags) == 0 && env.SessionName == "" {
		return nil, domain.NewFieldError("results", "payload carries neither results nor identifying fields")
	}

	results, err := normalizeResults(env.Results)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, domain.NewFieldError("results", "must be a non-empty array")
	}

	userID, name := env.UserID, env.SessionName
	if userID == "" {
		userID = "unknown"
	}
	if name == "" {
		name = fallbackSessionName(results)
	}

	id := model.SessionID(userID, name)
	s, err := uc.repo.FindByID(ctx, id)
	switch {
	case err == nil:
		// keep identity and trigger-time fields, replace the rest
	case err == domain.ErrNotFound:
		// callback for a session this process never triggered (or lost on
		// restart) — create the record so the results are not dropped
		typ := model.SessionTypeAccount
		if len(env.Hashtags) > 0 {
			typ = model.SessionTypeHashtag
		}
		s = model.NewScrapingSession(userID, name, typ, model.SessionMetadata{
			AccountNames: env.AccountNames,
			Hashtags:     env.Hashtags,
			MaxVideos:    env.MaxVideos,
		})
	default:
		return nil, err
	}

	// Upsert is record replacement, not a guarded transition: a delivery
	// always lands as completed, even after a local poll timeout.
	s.Status = model.SessionStatusCompleted
	s.Results = results
	s.TotalVideos = len(results)
	s.Error = ""
	s.UpdatedAt = time.Now()

	if err := uc.repo.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("save ingested session: %w", err)
	}
	if err := uc.pool.Append(ctx, results); err != nil {
		return nil, fmt.Errorf("append result pool: %w", err)
	}

	metrics.ObserveIngest(len(results))
	metrics.IncTransition(string(model.SessionStatusCompleted))
	uc.log.Info().
		Str("delivery_id", newDeliveryID()).
		Str("session_id", s.ID).
		Int("videos", len(results)).
		Msg("results ingested")
	return s, nil
}

// decodeEnvelope handles the tagged union at the boundary: object envelope or
// bare top-level array.
func decodeEnvelope(body []byte) (*ingestEnvelope, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, domain.NewFieldError("body", "must be a JSON object or array")
	}

	if trimmed[0] == '[' {
		var env ingestEnvelope
		env.Results = json.RawMessage(trimmed)
		return &env, nil
	}
	if trimmed[0] != '{' {
		return nil, domain.NewFieldError("body", "must be a JSON object or array")
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	var env ingestEnvelope
	if err := dec.Decode(&env); err != nil {
		return nil, domain.NewFieldError("body", "malformed JSON: "+err.Error())
	}
	return &env, nil
}

// normalizeResults produces the canonical flat result list. An element that
// is itself a batch wrapper carrying a nested non-empty "results" array is
// flattened one level; anything else is decoded as a result.
func normalizeResults(raw json.RawMessage) ([]model.ScrapingResult, error) {
	if len(raw) == 0 {
		return nil, nil
	}

	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		return nil, domain.NewFieldError("results", "must be an array")
	}

	out := make([]model.ScrapingResult, 0, len(elements))
	for _, el := range elements {
		var wrapper struct {
			Results []model.ScrapingResult `json:"results"`
		}
		if err := json.Unmarshal(el, &wrapper); err == nil && len(wrapper.Results) > 0 {
			out = append(out, wrapper.Results...)
			continue
		}
		var r model.ScrapingResult
		if err := json.Unmarshal(el, &r); err != nil {
			return nil, domain.NewFieldError("results", "element is not a result object: "+err.Error())
		}
		out = append(out, r)
	}
	return out, nil
}

// fallbackSessionName names a bare-array delivery after its first result's
// account or hashtag so the derived id stays deterministic across
// re-deliveries of the same batch.
func fallbackSessionName(results []model.ScrapingResult) string {
	if results[0].Account != "" {
		return results[0].Account
	}
	if results[0].Hashtag != "" {
		return results[0].Hashtag
	}
	return "untitled"
}

func newDeliveryID() string { return ulid.Make().String() }
