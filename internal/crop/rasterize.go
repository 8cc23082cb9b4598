package crop

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// RectF is a rectangle in source pixel space.
type RectF struct {
	X, Y, Width, Height float64
}

// SourceRect returns the part of a width x height source visible through the
// frame, clipped to the source. It fails with *EmptyCropError when nothing of
// the image is inside the frame.
func SourceRect(width, height int, v Viewport, frame Frame) (RectF, error) {
	x0 := -v.Offset.X / v.Scale
	y0 := -v.Offset.Y / v.Scale
	x1 := x0 + float64(frame.Width)/v.Scale
	y1 := y0 + float64(frame.Height)/v.Scale

	x0, x1 = math.Max(x0, 0), math.Min(x1, float64(width))
	y0, y1 = math.Max(y0, 0), math.Min(y1, float64(height))

	if x1 <= x0 || y1 <= y0 {
		return RectF{}, &EmptyCropError{Offset: v.Offset, Scale: v.Scale}
	}
	return RectF{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, nil
}

// Background is the canvas colour left where the frame shows no image.
func Background(f Format) color.Color {
	if f == FormatJPEG {
		return color.White
	}
	return color.Transparent
}

// Rasterize renders what the frame shows under v into an image of exactly
// the kind's output size. v must be a snapshot, not live editor state.
func Rasterize(src *SourceImage, v Viewport, kind Kind) (*image.NRGBA, error) {
	if src == nil || src.Image == nil {
		return nil, ErrNoImage
	}
	if v.Scale <= 0 {
		return nil, &EmptyCropError{Offset: v.Offset, Scale: v.Scale}
	}

	r, err := SourceRect(src.Width, src.Height, v, kind.Frame)
	if err != nil {
		return nil, err
	}

	sx0 := int(math.Floor(r.X))
	sy0 := int(math.Floor(r.Y))
	sx1 := min(src.Width, int(math.Ceil(r.X+r.Width)))
	sy1 := min(src.Height, int(math.Ceil(r.Y+r.Height)))

	k := kind.Ratio()
	dx0 := int(math.Round((float64(sx0)*v.Scale + v.Offset.X) * k))
	dy0 := int(math.Round((float64(sy0)*v.Scale + v.Offset.Y) * k))
	dx1 := int(math.Round((float64(sx1)*v.Scale + v.Offset.X) * k))
	dy1 := int(math.Round((float64(sy1)*v.Scale + v.Offset.Y) * k))
	dw, dh := max(dx1-dx0, 1), max(dy1-dy0, 1)

	b := src.Image.Bounds()
	region := imaging.Crop(src.Image, image.Rect(b.Min.X+sx0, b.Min.Y+sy0, b.Min.X+sx1, b.Min.Y+sy1))
	resampled := imaging.Resize(region, dw, dh, imaging.Lanczos)

	canvas := imaging.New(kind.Output.Width, kind.Output.Height, Background(kind.Output.Format))
	return imaging.Paste(canvas, resampled, image.Pt(dx0, dy0)), nil
}
