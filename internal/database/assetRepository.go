package database

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ds124wfegd/linkhub/internal/entity"
	"github.com/ds124wfegd/linkhub/internal/pkg/storage"
)

var ErrAssetNotFound = errors.New("asset not found")

func NewAssetRepository(storage storage.FileStorage) AssetRepository {
	return &fileAssetRepository{storage: storage}
}

func (r *fileAssetRepository) Save(asset *entity.Asset) error {
	data, err := json.Marshal(asset)
	if err != nil {
		return err
	}

	return r.storage.Save(metadataPath(asset.PublicID), bytes.NewReader(data))
}

func (r *fileAssetRepository) FindByID(publicID string) (*entity.Asset, error) {
	reader, err := r.storage.Get(metadataPath(publicID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrAssetNotFound
		}
		return nil, err
	}
	defer reader.Close()

	var asset entity.Asset
	if err := json.NewDecoder(reader).Decode(&asset); err != nil {
		return nil, err
	}

	return &asset, nil
}

// Delete removes the file and its metadata. Missing files are not an error.
func (r *fileAssetRepository) Delete(publicID string) error {
	asset, err := r.FindByID(publicID)
	if err != nil {
		if errors.Is(err, ErrAssetNotFound) {
			return nil
		}
		return err
	}

	if err := r.storage.Delete(asset.Path); err != nil && !os.IsNotExist(err) {
		return err
	}

	if err := r.storage.Delete(metadataPath(publicID)); err != nil && !os.IsNotExist(err) {
		return err
	}

	return nil
}

func (r *fileAssetRepository) SaveFile(path string, file io.Reader) error {
	return r.storage.Save(path, file)
}

func metadataPath(publicID string) string {
	return filepath.Join("metadata", strings.ReplaceAll(publicID, "/", "_")+".json")
}
