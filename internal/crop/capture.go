package crop

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"

	_ "golang.org/x/image/webp"
)

// DefaultMaxPixels applies when a kind does not set its own pixel limit.
const DefaultMaxPixels int64 = 40_000_000

var allowedMediaTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// File is an uploaded file as declared by the client.
type File struct {
	Name      string
	Size      int64
	MediaType string
	Data      io.Reader
}

// SourceImage is the decoded picture a session edits. It is never mutated.
type SourceImage struct {
	Width     int
	Height    int
	MediaType string
	Image     image.Image
}

// Validate checks the declared metadata only.
func (f File) Validate(maxBytes int64) error {
	mediaType := strings.ToLower(strings.TrimSpace(f.MediaType))
	if i := strings.IndexByte(mediaType, ';'); i >= 0 {
		mediaType = strings.TrimSpace(mediaType[:i])
	}
	if !strings.HasPrefix(mediaType, "image/") {
		return &ValidationError{Reason: fmt.Sprintf("%q is not an image", f.MediaType)}
	}
	if !allowedMediaTypes[mediaType] {
		return &ValidationError{Reason: fmt.Sprintf("unsupported image type %s, use JPEG, PNG, WebP or GIF", mediaType)}
	}
	if f.Size > maxBytes {
		return tooLarge(maxBytes)
	}
	return nil
}

// Capture validates and decodes f. Validation failures are *ValidationError,
// unreadable content is *DecodeError. maxPixels bounds the decoded size, since
// a few compressed kilobytes can declare a huge canvas.
func Capture(f File, maxBytes, maxPixels int64) (*SourceImage, error) {
	if err := f.Validate(maxBytes); err != nil {
		return nil, err
	}
	if f.Data == nil {
		return nil, &ValidationError{Reason: "empty file"}
	}

	// the declared size is not trusted
	data, err := io.ReadAll(io.LimitReader(f.Data, maxBytes+1))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if int64(len(data)) > maxBytes {
		return nil, tooLarge(maxBytes)
	}
	if len(data) == 0 {
		return nil, &ValidationError{Reason: "empty file"}
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, &ValidationError{Reason: fmt.Sprintf("file content is %s, not an image", detected.String())}
	}
	if !isAllowed(detected) {
		return nil, &ValidationError{Reason: fmt.Sprintf("file content is %s, use JPEG, PNG, WebP or GIF", detected.String())}
	}

	// header only, nothing is allocated for pixels yet
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return nil, &ValidationError{
			Reason:   fmt.Sprintf("image is %dx%d, limit is %.1f megapixels", cfg.Width, cfg.Height, float64(maxPixels)/1e6),
			TooLarge: true,
		}
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, &DecodeError{Err: fmt.Errorf("image has no pixels")}
	}

	return &SourceImage{
		Width:     b.Dx(),
		Height:    b.Dy(),
		MediaType: detected.String(),
		Image:     img,
	}, nil
}

func isAllowed(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if allowedMediaTypes[m.String()] {
			return true
		}
	}
	return false
}

func tooLarge(maxBytes int64) error {
	return &ValidationError{
		Reason:   fmt.Sprintf("file exceeds %.1f MB limit", float64(maxBytes)/(1<<20)),
		TooLarge: true,
	}
}
