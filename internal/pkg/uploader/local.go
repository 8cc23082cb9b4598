package uploader

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/ds124wfegd/linkhub/internal/database"
	"github.com/ds124wfegd/linkhub/internal/entity"
)

// AssetsDir is the storage subdirectory served under /media.
const AssetsDir = "assets"

type localUploader struct {
	assets  database.AssetRepository
	baseURL string
}

// NewLocal stores crops on disk through the asset repository and serves them
// from baseURL.
func NewLocal(assets database.AssetRepository, baseURL string) Uploader {
	return &localUploader{assets: assets, baseURL: strings.TrimRight(baseURL, "/")}
}

func (u *localUploader) Upload(_ context.Context, asset crop.Asset) (crop.UploadResult, error) {
	publicID := path.Join(asset.Folder, asset.Name)
	file := publicID + asset.Format.Extension()

	if err := u.assets.SaveFile(path.Join(AssetsDir, file), bytes.NewReader(asset.Data)); err != nil {
		return crop.UploadResult{}, fmt.Errorf("failed to store %s: %w", publicID, err)
	}

	record := &entity.Asset{
		PublicID:  publicID,
		URL:       u.baseURL + "/" + file,
		Path:      path.Join(AssetsDir, file),
		Folder:    asset.Folder,
		Format:    string(asset.Format),
		Width:     asset.Width,
		Height:    asset.Height,
		Bytes:     len(asset.Data),
		CreatedAt: time.Now().UTC(),
	}
	if err := u.assets.Save(record); err != nil {
		return crop.UploadResult{}, fmt.Errorf("failed to store metadata for %s: %w", publicID, err)
	}

	return crop.UploadResult{
		URL:      record.URL,
		PublicID: record.PublicID,
		Width:    record.Width,
		Height:   record.Height,
		Format:   record.Format,
		Bytes:    record.Bytes,
	}, nil
}

func (u *localUploader) Delete(_ context.Context, publicID string) error {
	return u.assets.Delete(publicID)
}

func (u *localUploader) PublicID(url string) (string, bool) {
	rest, ok := strings.CutPrefix(url, u.baseURL+"/")
	if !ok || rest == "" {
		return "", false
	}
	return strings.TrimSuffix(rest, path.Ext(rest)), true
}
