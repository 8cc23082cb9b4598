package postgres

import (
	"context"
	"time"

	"github.com/ds124wfegd/linkhub/internal/entity"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByUsername(ctx context.Context, username string) (*entity.User, error)
}

type PageRepository interface {
	Create(ctx context.Context, page *entity.Page) error
	GetByID(ctx context.Context, id string) (*entity.Page, error)
	GetByUserID(ctx context.Context, userID string) (*entity.Page, error)
	Update(ctx context.Context, page *entity.Page) error

	// Image reference swaps return the URL they replaced.
	SetAvatar(ctx context.Context, pageID, url string) (string, error)
	SetBanner(ctx context.Context, pageID, url string) (string, error)
}

type BlockRepository interface {
	Create(ctx context.Context, block *entity.Block) error
	GetByID(ctx context.Context, id string) (*entity.Block, error)
	GetByPageID(ctx context.Context, pageID string, activeOnly bool) ([]*entity.Block, error)
	Update(ctx context.Context, block *entity.Block) error
	Delete(ctx context.Context, id string) error

	SetBanner(ctx context.Context, blockID, url string) (string, error)
	SetImage(ctx context.Context, blockID, url string) (string, error)
}

type ClickRepository interface {
	Create(ctx context.Context, click *entity.Click) error
	CountByDay(ctx context.Context, pageID string, since time.Time) (map[string]int, error)
	StatsByBlock(ctx context.Context, pageID string) ([]entity.BlockStat, error)
}
