package crop

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestCover(t *testing.T) {
	tests := []struct {
		name   string
		width  int
		height int
		frame  Frame
	}{
		{"square into banner", 800, 800, Frame{450, 150}},
		{"wide into banner", 3000, 500, Frame{450, 150}},
		{"tall into banner", 300, 2000, Frame{400, 100}},
		{"tiny into icon", 16, 9, Frame{200, 200}},
		{"exact fit", 450, 150, Frame{450, 150}},
		{"huge into avatar", 12000, 9000, Frame{200, 200}},
		{"one pixel", 1, 1, Frame{450, 150}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := Cover(tt.width, tt.height, tt.frame)

			scaledW := float64(tt.width) * v.Scale
			scaledH := float64(tt.height) * v.Scale
			fw, fh := float64(tt.frame.Width), float64(tt.frame.Height)

			// covers both axes, touches at least one
			assert.GreaterOrEqual(t, scaledW, fw-eps)
			assert.GreaterOrEqual(t, scaledH, fh-eps)
			assert.True(t, abs(scaledW-fw) < 1e-6 || abs(scaledH-fh) < 1e-6,
				"expected equality on one axis, got %vx%v for frame %vx%v", scaledW, scaledH, fw, fh)

			// visible region centred on the image
			center := v.FrameCenterInSource(tt.frame)
			assert.InDelta(t, float64(tt.width)/2, center.X, 1e-6)
			assert.InDelta(t, float64(tt.height)/2, center.Y, 1e-6)
		})
	}
}

func TestCoverDegenerate(t *testing.T) {
	v := Cover(0, 0, Frame{450, 150})
	assert.Equal(t, MinCoverScale, v.Scale)
}

func TestCoverBannerScenario(t *testing.T) {
	v := Cover(800, 800, Frame{450, 150})

	assert.InDelta(t, 0.5625, v.Scale, eps)
	assert.InDelta(t, 0, v.Offset.X, eps)
	assert.InDelta(t, -150, v.Offset.Y, eps)
}

func TestAnchoredRescaleKeepsCenter(t *testing.T) {
	frame := Frame{450, 150}
	tr := NewTransform(frame, DefaultScaleBounds, ScaleAnchored)
	tr.Init(800, 800)

	anchor := tr.Viewport.FrameCenterInSource(frame)
	for _, scale := range []float64{1.0, 0.3, 2.75, 0.1, 3.0, 0.5625, 1.7} {
		t.Run(fmt.Sprintf("scale %.2f", scale), func(t *testing.T) {
			tr.SetScale(scale)

			require.InDelta(t, scale, tr.Viewport.Scale, eps)
			got := tr.Viewport.FrameCenterInSource(frame)
			assert.InDelta(t, anchor.X, got.X, 1e-6)
			assert.InDelta(t, anchor.Y, got.Y, 1e-6)
		})
	}
}

func TestAnchoredRescaleBannerScenario(t *testing.T) {
	frame := Frame{450, 150}
	tr := NewTransform(frame, DefaultScaleBounds, ScaleAnchored)
	tr.Init(800, 800)

	tr.SetScale(1.0)

	// frame centre (225, 75) stays on source point (400, 400)
	assert.InDelta(t, 225-400, tr.Viewport.Offset.X, eps)
	assert.InDelta(t, 75-400, tr.Viewport.Offset.Y, eps)
}

func TestAnchoredRescaleAfterDrag(t *testing.T) {
	frame := Frame{200, 200}
	tr := NewTransform(frame, DefaultScaleBounds, ScaleAnchored)
	tr.Init(1000, 600)

	tr.BeginDrag(Point{100, 100})
	tr.MoveDrag(Point{160, 70})
	tr.EndDrag()

	anchor := tr.Viewport.FrameCenterInSource(frame)
	tr.SetScale(1.25)
	tr.SetScale(0.4)

	got := tr.Viewport.FrameCenterInSource(frame)
	assert.InDelta(t, anchor.X, got.X, 1e-6)
	assert.InDelta(t, anchor.Y, got.Y, 1e-6)
}

func TestNaiveRescaleKeepsCorner(t *testing.T) {
	tr := NewTransform(Frame{450, 150}, DefaultScaleBounds, ScaleNaive)
	tr.Init(800, 800)
	before := tr.Viewport.Offset

	tr.SetScale(2)

	assert.Equal(t, before, tr.Viewport.Offset)
	assert.Equal(t, 2.0, tr.Viewport.Scale)
}

func TestSetScaleClamps(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		want  float64
	}{
		{"below floor", 0.01, 0.1},
		{"negative", -4, 0.1},
		{"zero", 0, 0.1},
		{"inside", 1.5, 1.5},
		{"above ceiling", 9, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTransform(Frame{200, 200}, DefaultScaleBounds, ScaleAnchored)
			tr.Init(400, 400)

			tr.SetScale(tt.value)

			assert.Equal(t, tt.want, tr.Viewport.Scale)
		})
	}
}

func TestDrag(t *testing.T) {
	tr := NewTransform(Frame{450, 150}, DefaultScaleBounds, ScaleAnchored)
	tr.Init(800, 800)

	t.Run("move before start is ignored", func(t *testing.T) {
		assert.False(t, tr.MoveDrag(Point{10, 10}))
		assert.Equal(t, Point{0, -150}, tr.Viewport.Offset)
	})

	t.Run("image follows the pointer", func(t *testing.T) {
		tr.BeginDrag(Point{100, 50})
		assert.True(t, tr.MoveDrag(Point{130, 40}))
		assert.Equal(t, Point{30, -160}, tr.Viewport.Offset)

		// no clamping
		tr.MoveDrag(Point{2000, -900})
		assert.Equal(t, Point{1900, -1100}, tr.Viewport.Offset)
	})

	t.Run("end freezes the offset", func(t *testing.T) {
		tr.MoveDrag(Point{150, 60})
		tr.EndDrag()
		frozen := tr.Viewport.Offset

		tr.MoveDrag(Point{0, 0})
		assert.Equal(t, frozen, tr.Viewport.Offset)
		assert.False(t, tr.Dragging())
	})
}

func TestParseScalePolicy(t *testing.T) {
	p, err := ParseScalePolicy("anchored")
	require.NoError(t, err)
	assert.Equal(t, ScaleAnchored, p)

	_, err = ParseScalePolicy("center")
	assert.Error(t, err)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
