package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/ds124wfegd/linkhub/internal/entity"

	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("cache miss")

const popularBlocksKey = "popular_blocks"

type CacheRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCacheRepository(client *redis.Client, ttl time.Duration) *CacheRepository {
	return &CacheRepository{
		client: client,
		ttl:    ttl,
	}
}

func (r *CacheRepository) SetPublicPage(ctx context.Context, username string, page *entity.PublicUser) error {
	data, err := json.Marshal(page)
	if err != nil {
		return err
	}

	return r.client.Set(ctx, "public_page:"+username, data, r.ttl).Err()
}

func (r *CacheRepository) GetPublicPage(ctx context.Context, username string) (*entity.PublicUser, error) {
	data, err := r.client.Get(ctx, "public_page:"+username).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}

	var page entity.PublicUser
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, err
	}

	return &page, nil
}

func (r *CacheRepository) DeletePublicPage(ctx context.Context, username string) error {
	return r.client.Del(ctx, "public_page:"+username).Err()
}

func (r *CacheRepository) IncrementPopularity(ctx context.Context, blockID string) error {
	return r.client.ZIncrBy(ctx, popularBlocksKey, 1, blockID).Err()
}

func (r *CacheRepository) GetPopularBlocks(ctx context.Context, count int) ([]string, error) {
	return r.client.ZRevRange(ctx, popularBlocksKey, 0, int64(count-1)).Result()
}
