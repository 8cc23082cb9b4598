package crop

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceRect(t *testing.T) {
	frame := Frame{450, 150}

	tests := []struct {
		name string
		v    Viewport
		want RectF
	}{
		{
			name: "banner scenario",
			v:    Viewport{Offset: Point{0, 0}, Scale: 0.6},
			want: RectF{X: 0, Y: 0, Width: 750, Height: 250},
		},
		{
			name: "initial cover",
			v:    Cover(800, 800, frame),
			want: RectF{X: 0, Y: 266.6666666666667, Width: 800, Height: 266.6666666666667},
		},
		{
			name: "clipped on the left and top",
			v:    Viewport{Offset: Point{90, 30}, Scale: 1},
			want: RectF{X: 0, Y: 0, Width: 360, Height: 120},
		},
		{
			name: "clipped on the right",
			v:    Viewport{Offset: Point{-700, 0}, Scale: 1},
			want: RectF{X: 700, Y: 0, Width: 100, Height: 150},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SourceRect(800, 800, tt.v, frame)
			require.NoError(t, err)
			assert.InDelta(t, tt.want.X, got.X, 1e-6)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-6)
			assert.InDelta(t, tt.want.Width, got.Width, 1e-6)
			assert.InDelta(t, tt.want.Height, got.Height, 1e-6)
		})
	}
}

func TestRasterizeEmptyCrop(t *testing.T) {
	src := source(image.NewNRGBA(image.Rect(0, 0, 800, 800)))

	tests := []struct {
		name string
		v    Viewport
	}{
		{"past the right edge", Viewport{Offset: Point{451, 0}, Scale: 1}},
		{"past the bottom edge", Viewport{Offset: Point{0, 150}, Scale: 1}},
		{"above the frame", Viewport{Offset: Point{0, -800}, Scale: 1}},
		{"left of the frame", Viewport{Offset: Point{-1700, 0}, Scale: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Rasterize(src, tt.v, bannerKind)

			var empty *EmptyCropError
			require.True(t, errors.As(err, &empty), "got %v", err)
			assert.Nil(t, img)
		})
	}
}

func TestRasterizeBannerScenario(t *testing.T) {
	src := source(splitImage(800, 800, image.Rect(0, 0, 750, 250)))

	out, err := Rasterize(src, Viewport{Offset: Point{0, 0}, Scale: 0.6}, bannerKind)
	require.NoError(t, err)

	assert.Equal(t, 600, out.Bounds().Dx())
	assert.Equal(t, 200, out.Bounds().Dy())

	for _, p := range []image.Point{{0, 0}, {599, 0}, {0, 199}, {599, 199}, {300, 100}} {
		assert.Equal(t, red, out.NRGBAAt(p.X, p.Y), "pixel %v", p)
	}
}

func TestRasterizeFillsMarginWithBackground(t *testing.T) {
	src := source(splitImage(100, 100, image.Rect(0, 0, 100, 100)))

	tests := []struct {
		format Format
		want   color.NRGBA
	}{
		{FormatJPEG, color.NRGBA{R: 255, G: 255, B: 255, A: 255}},
		{FormatPNG, color.NRGBA{}},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			kind := Kind{
				Name:   "icon",
				Frame:  Frame{200, 200},
				Output: OutputSpec{Width: 64, Height: 64, Format: tt.format},
			}

			// image occupies the top-left quarter of the frame
			out, err := Rasterize(src, Viewport{Offset: Point{0, 0}, Scale: 1}, kind)
			require.NoError(t, err)

			assert.Equal(t, 64, out.Bounds().Dx())
			assert.Equal(t, red, out.NRGBAAt(10, 10))
			assert.Equal(t, tt.want, out.NRGBAAt(60, 60))
		})
	}
}

func TestRasterizeAspectForEveryKind(t *testing.T) {
	kinds := Kinds{
		"link_banner": bannerKind,
		"link_icon":   {Name: "link_icon", Frame: Frame{200, 200}, Output: OutputSpec{Width: 64, Height: 64, Format: FormatPNG}},
		"page_banner": {Name: "page_banner", Frame: Frame{400, 100}, Output: OutputSpec{Width: 1200, Height: 300, Format: FormatJPEG}},
		"avatar":      {Name: "avatar", Frame: Frame{200, 200}, Output: OutputSpec{Width: 200, Height: 200, Format: FormatWebP}},
	}
	src := source(splitImage(640, 480, image.Rect(0, 0, 640, 480)))

	for _, kind := range kinds.Sorted() {
		t.Run(kind.Name, func(t *testing.T) {
			require.NoError(t, kind.Validate())

			out, err := Rasterize(src, Cover(src.Width, src.Height, kind.Frame), kind)
			require.NoError(t, err)
			assert.Equal(t, kind.Output.Width, out.Bounds().Dx())
			assert.Equal(t, kind.Output.Height, out.Bounds().Dy())
		})
	}
}

func TestEncodeFormats(t *testing.T) {
	img := imaging.New(60, 20, red)

	for _, format := range []Format{FormatJPEG, FormatPNG, FormatWebP} {
		t.Run(string(format), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Encode(&buf, img, OutputSpec{Width: 60, Height: 20, Format: format, Quality: 90}))

			decoded, name, err := image.Decode(&buf)
			require.NoError(t, err)
			assert.Equal(t, string(format), name)
			assert.Equal(t, 60, decoded.Bounds().Dx())
		})
	}

	var buf bytes.Buffer
	assert.Error(t, Encode(&buf, img, OutputSpec{Format: "bmp"}))
}
