package uploader

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	cldapi "github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/sirupsen/logrus"
)

type cloudinaryUploader struct {
	cld       *cloudinary.Cloudinary
	cloudName string
}

func NewCloudinary(cloudName, apiKey, apiSecret string) (Uploader, error) {
	if cloudName == "" || apiKey == "" || apiSecret == "" {
		return nil, fmt.Errorf("cloudinary credentials are not configured")
	}

	cld, err := cloudinary.NewFromParams(cloudName, apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to init cloudinary: %w", err)
	}

	return &cloudinaryUploader{cld: cld, cloudName: cloudName}, nil
}

func (u *cloudinaryUploader) Upload(ctx context.Context, asset crop.Asset) (crop.UploadResult, error) {
	resp, err := u.cld.Upload.Upload(ctx, bytes.NewReader(asset.Data), cldapi.UploadParams{
		PublicID: asset.Name,
		Folder:   asset.Folder,
	})
	if err != nil {
		return crop.UploadResult{}, fmt.Errorf("cloudinary upload: %w", err)
	}
	if resp.Error.Message != "" {
		return crop.UploadResult{}, fmt.Errorf("cloudinary upload: %s", resp.Error.Message)
	}

	logrus.WithFields(logrus.Fields{
		"public_id": resp.PublicID,
		"bytes":     resp.Bytes,
	}).Debug("uploaded to cloudinary")

	return crop.UploadResult{
		URL:      resp.SecureURL,
		PublicID: resp.PublicID,
		Width:    resp.Width,
		Height:   resp.Height,
		Format:   resp.Format,
		Bytes:    resp.Bytes,
	}, nil
}

func (u *cloudinaryUploader) Delete(ctx context.Context, publicID string) error {
	resp, err := u.cld.Upload.Destroy(ctx, cldapi.DestroyParams{PublicID: publicID})
	if err != nil {
		return fmt.Errorf("cloudinary destroy: %w", err)
	}
	if resp.Error.Message != "" {
		return fmt.Errorf("cloudinary destroy: %s", resp.Error.Message)
	}
	// "not found" means it is already gone
	if resp.Result != "ok" && resp.Result != "not found" {
		return fmt.Errorf("cloudinary destroy %s: %s", publicID, resp.Result)
	}
	return nil
}

var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicID parses https://res.cloudinary.com/<cloud>/image/upload/[<transforms>/][v<n>/]<id>.<ext>.
func (u *cloudinaryUploader) PublicID(raw string) (string, bool) {
	return cloudinaryPublicID(u.cloudName, raw)
}

func cloudinaryPublicID(cloudName, raw string) (string, bool) {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host != "res.cloudinary.com" {
		return "", false
	}

	prefix := "/" + cloudName + "/image/upload/"
	if !strings.HasPrefix(parsed.Path, prefix) {
		return "", false
	}

	segments := strings.Split(strings.TrimPrefix(parsed.Path, prefix), "/")
	for i, s := range segments {
		if versionSegment.MatchString(s) {
			segments = segments[i+1:]
			break
		}
	}
	if len(segments) == 0 {
		return "", false
	}

	id := strings.Join(segments, "/")
	id = strings.TrimSuffix(id, path.Ext(id))
	return id, id != ""
}
