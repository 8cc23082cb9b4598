package database

import (
	"io"

	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/ds124wfegd/linkhub/internal/pkg/storage"
)

// AssetRepository keeps locally hosted images and their metadata.
type AssetRepository interface {
	Save(asset *entity.Asset) error
	FindByID(publicID string) (*entity.Asset, error)
	Delete(publicID string) error
	SaveFile(path string, file io.Reader) error
}

type fileAssetRepository struct {
	storage storage.FileStorage
}
