package crop

import (
	"bytes"
	"fmt"
	"image"
	"io"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
)

const DefaultQuality = 90

// Encode writes img in the output format.
func Encode(w io.Writer, img image.Image, out OutputSpec) error {
	quality := out.Quality
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	switch out.Format {
	case FormatJPEG, "":
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: false, Quality: float32(quality)})
	default:
		return fmt.Errorf("unsupported output format %q", out.Format)
	}
}

// Render rasterizes and encodes in one step.
func Render(src *SourceImage, v Viewport, kind Kind) ([]byte, error) {
	img, err := Rasterize(src, v, kind)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, img, kind.Output); err != nil {
		return nil, fmt.Errorf("failed to encode %s: %w", kind.Output.Format, err)
	}
	return buf.Bytes(), nil
}
