package service

import (
	"context"
	"errors"
	"time"

	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/ds124wfegd/linkhub/internal/entity"
)

type PageService interface {
	GetOrCreate(ctx context.Context, email string) (*entity.Page, error)
	Update(ctx context.Context, email string, req entity.UpdatePageRequest) (*entity.Page, error)
	GetPublic(ctx context.Context, username string) (*entity.PublicUser, error)
}

type BlockService interface {
	Create(ctx context.Context, email string, req entity.CreateBlockRequest) (*entity.Block, error)
	Update(ctx context.Context, email, id string, req entity.UpdateBlockRequest) (*entity.Block, error)
	Delete(ctx context.Context, email, id string) error
}

type AnalyticsService interface {
	RecordClick(ctx context.Context, blockID, userAgent, ip string) error
	GetAnalytics(ctx context.Context, email string) (*entity.Analytics, error)
}

// ImageService owns the image reference slots of pages and blocks.
type ImageService interface {
	crop.Attacher
	ResolveRef(ctx context.Context, email string, target crop.Target, targetID string) (crop.Ref, error)
	Remove(ctx context.Context, email string, target crop.Target, targetID string) (*entity.ImageRefResponse, error)
	Replaced(ctx context.Context, ref crop.Ref, oldURL, newURL, publicID string)
}

type CropService interface {
	Kinds() []crop.Kind
	Kind(name string) (crop.Kind, error)
	Open(ctx context.Context, email, kind, targetID string, file crop.File) (crop.Snapshot, error)
	Get(ctx context.Context, email, id string) (crop.Snapshot, error)
	Recapture(ctx context.Context, email, id string, file crop.File) (crop.Snapshot, error)
	Apply(ctx context.Context, email, id string, events []crop.Event) (crop.Snapshot, error)
	Preview(ctx context.Context, email, id string) ([]byte, crop.Kind, error)
	Publish(ctx context.Context, email, id string) (crop.PublishResult, error)
	Cancel(ctx context.Context, email, id string) error
	ExpireIdle(ctx context.Context, now time.Time) int
	CancelAll(ctx context.Context) int
}

// Cache is the public page cache plus the block popularity ranking.
type Cache interface {
	GetPublicPage(ctx context.Context, username string) (*entity.PublicUser, error)
	SetPublicPage(ctx context.Context, username string, page *entity.PublicUser) error
	DeletePublicPage(ctx context.Context, username string) error
	IncrementPopularity(ctx context.Context, blockID string) error
	GetPopularBlocks(ctx context.Context, count int) ([]string, error)
}

type LeaseStore interface {
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key, token string) error
	Refresh(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
}

// EventProducer is satisfied by both the kafka and rabbitmq producers.
type EventProducer interface {
	SendMessage(ctx context.Context, key string, message interface{}) error
}

var errCacheDisabled = errors.New("cache disabled")

type nopCache struct{}

// NewNopCache is used when redis is disabled: every read misses.
func NewNopCache() Cache { return nopCache{} }

func (nopCache) GetPublicPage(context.Context, string) (*entity.PublicUser, error) {
	return nil, errCacheDisabled
}
func (nopCache) SetPublicPage(context.Context, string, *entity.PublicUser) error { return nil }
func (nopCache) DeletePublicPage(context.Context, string) error                  { return nil }
func (nopCache) IncrementPopularity(context.Context, string) error               { return nil }
func (nopCache) GetPopularBlocks(context.Context, int) ([]string, error)         { return nil, nil }
