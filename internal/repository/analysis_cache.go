package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"tsumego_exe/internal/domain/tsumego"
)

// AnalysisCache keeps finished reports. A report depends only on the collection graph and
// the position, so entries never need invalidation while the graph is unchanged.
type AnalysisCache struct {
	redis *redis.Client
	ttl   time.Duration
}

func NewAnalysisCache(redis *redis.Client, ttl time.Duration) *AnalysisCache {
	return &AnalysisCache{
		redis: redis,
		ttl:   ttl,
	}
}

func analysisKey(slug string, position tsumego.Position) string {
	return "analysis:" + slug + ":" + position.HexKey()
}

func (a *AnalysisCache) Get(ctx context.Context, slug string, position tsumego.Position) (*tsumego.AnalysisResult, bool, error) {
	val, err := a.redis.Get(ctx, analysisKey(slug, position)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var result tsumego.AnalysisResult
	if err = json.Unmarshal(val, &result); err != nil {
		return nil, false, err
	}
	return &result, true, nil
}

func (a *AnalysisCache) Put(ctx context.Context, slug string, position tsumego.Position, result tsumego.AnalysisResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return a.redis.Set(ctx, analysisKey(slug, position), data, a.ttl).Err()
}
