package redis

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"tiktok-scraping-service/internal/domain"
	"tiktok-scraping-service/internal/domain/model"
	"tiktok-scraping-service/internal/domain/ports/repository"
)

const (
	sessionKeyPrefix = "scrape:session:"
	sessionIndexKey  = "scrape:sessions"
)

var _ repository.SessionRepository = (*SessionRepo)(nil)

// SessionRepo stores session records as JSON blobs keyed by session id, with
// a set index for listing. Single-key SET/GET keeps the last-write-wins
// contract; records have no TTL, so sessions survive a process restart.
type SessionRepo struct {
	client RedisClient
}

func NewSessionRepo(client RedisClient) *SessionRepo {
	return &SessionRepo{client: client}
}

func sessionKey(id string) string { return sessionKeyPrefix + id }

func (r *SessionRepo) Save(ctx context.Context, s *model.ScrapingSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, sessionKey(s.ID), data, 0); err != nil {
		return err
	}
	return r.client.SAdd(ctx, sessionIndexKey, s.ID)
}

func (r *SessionRepo) FindByID(ctx context.Context, id string) (*model.ScrapingSession, error) {
	data, err := r.client.Get(ctx, sessionKey(id))
	if err != nil {
		if errors.Is(err, Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	var s model.ScrapingSession
	if err := json.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepo) ListAll(ctx context.Context) ([]*model.ScrapingSession, error) {
	ids, err := r.client.SMembers(ctx, sessionIndexKey)
	if err != nil {
		return nil, err
	}
	out := make([]*model.ScrapingSession, 0, len(ids))
	for _, id := range ids {
		s, err := r.FindByID(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue // index can lag a concurrent delete
			}
			return nil, err
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *SessionRepo) Delete(ctx context.Context, id string) error {
	if _, err := r.FindByID(ctx, id); err != nil {
		return err
	}
	if err := r.client.Del(ctx, sessionKey(id)); err != nil {
		return err
	}
	return r.client.SRem(ctx, sessionIndexKey, id)
}
