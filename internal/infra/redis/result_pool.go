package redis

import (
	"context"
	"encoding/json"

	"tiktok-scraping-service/internal/domain/model"
	"tiktok-scraping-service/internal/domain/ports/repository"
)

const resultPoolKey = "scrape:results"

var _ repository.ResultPool = (*ResultPool)(nil)

// ResultPool keeps the global append-only result pool in a Redis list.
type ResultPool struct {
	client RedisClient
}

func NewResultPool(client RedisClient) *ResultPool {
	return &ResultPool{client: client}
}

func (p *ResultPool) Append(ctx context.Context, results []model.ScrapingResult) error {
	if len(results) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(results))
	for _, r := range results {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		values = append(values, data)
	}
	return p.client.RPush(ctx, resultPoolKey, values...)
}

func (p *ResultPool) ListAll(ctx context.Context) ([]model.ScrapingResult, error) {
	items, err := p.client.LRange(ctx, resultPoolKey, 0, -1)
	if err != nil {
		return nil, err
	}
	out := make([]model.ScrapingResult, 0, len(items))
	for _, item := range items {
		var r model.ScrapingResult
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
