package crop

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

var bannerKind = Kind{
	Name:     "link_banner",
	Frame:    Frame{Width: 450, Height: 150},
	Output:   OutputSpec{Width: 600, Height: 200, Format: FormatJPEG, Quality: 90},
	MaxBytes: 10 << 20,
	Folder:   "linkhub/banners",
	Target:   TargetBlockBanner,
}

// splitImage is red inside region and blue elsewhere.
func splitImage(w, h int, region image.Rectangle) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if image.Pt(x, y).In(region) {
				img.SetNRGBA(x, y, red)
			} else {
				img.SetNRGBA(x, y, blue)
			}
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func source(img image.Image) *SourceImage {
	b := img.Bounds()
	return &SourceImage{Width: b.Dx(), Height: b.Dy(), MediaType: "image/png", Image: img}
}

func pngFile(t *testing.T, img image.Image) File {
	data := pngBytes(t, img)
	return File{Name: "pic.png", Size: int64(len(data)), MediaType: "image/png", Data: bytes.NewReader(data)}
}
