package uploader

import (
	"context"
	"fmt"

	"github.com/ds124wfegd/linkhub/config"
	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/ds124wfegd/linkhub/internal/database"
)

// Uploader hosts rendered crops.
type Uploader interface {
	Upload(ctx context.Context, asset crop.Asset) (crop.UploadResult, error)
	Delete(ctx context.Context, publicID string) error
	// PublicID resolves a hosted URL back to its asset id. ok is false for
	// URLs this uploader did not produce.
	PublicID(url string) (id string, ok bool)
}

func New(cfg *config.Config, assets database.AssetRepository) (Uploader, error) {
	switch cfg.Upload.Provider {
	case "cloudinary":
		return NewCloudinary(cfg.Upload.CloudName, cfg.Upload.APIKey, cfg.Upload.APISecret)
	case "local":
		return NewLocal(assets, cfg.Storage.BaseURL), nil
	default:
		return nil, fmt.Errorf("unknown upload provider %q", cfg.Upload.Provider)
	}
}
