package crop

import (
	"fmt"
	"math"
)

// MinCoverScale keeps the initial transform invertible for degenerate inputs.
const MinCoverScale = 1e-4

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Sub(q Point) Point { return Point{X: p.X - q.X, Y: p.Y - q.Y} }
func (p Point) Add(q Point) Point { return Point{X: p.X + q.X, Y: p.Y + q.Y} }

// Viewport places the source image under the frame: the image top-left
// corner sits at Offset and every source pixel spans Scale frame units.
type Viewport struct {
	Offset Point   `json:"offset"`
	Scale  float64 `json:"scale"`
}

// Cover returns the viewport that fills the frame on both axes and centres
// the image.
func Cover(imageWidth, imageHeight int, frame Frame) Viewport {
	scale := MinCoverScale
	if imageWidth > 0 && imageHeight > 0 {
		scale = math.Max(scale, math.Max(
			float64(frame.Width)/float64(imageWidth),
			float64(frame.Height)/float64(imageHeight),
		))
	}
	return Viewport{
		Offset: Point{
			X: (float64(frame.Width) - float64(imageWidth)*scale) / 2,
			Y: (float64(frame.Height) - float64(imageHeight)*scale) / 2,
		},
		Scale: scale,
	}
}

// ToSource maps a frame point into source pixel space.
func (v Viewport) ToSource(p Point) Point {
	return Point{X: (p.X - v.Offset.X) / v.Scale, Y: (p.Y - v.Offset.Y) / v.Scale}
}

// FrameCenterInSource is the source pixel currently under the frame centre.
func (v Viewport) FrameCenterInSource(frame Frame) Point {
	return v.ToSource(Point{X: float64(frame.Width) / 2, Y: float64(frame.Height) / 2})
}

type ScalePolicy string

const (
	// ScaleNaive keeps the image top-left corner fixed.
	ScaleNaive ScalePolicy = "naive"
	// ScaleAnchored keeps the source point under the frame centre fixed.
	ScaleAnchored ScalePolicy = "anchored"
)

func ParseScalePolicy(s string) (ScalePolicy, error) {
	switch ScalePolicy(s) {
	case ScaleNaive, ScaleAnchored:
		return ScalePolicy(s), nil
	}
	return "", fmt.Errorf("unknown scale policy %q", s)
}

// Rescale applies a new scale under the given policy.
func (v Viewport) Rescale(scale float64, frame Frame, policy ScalePolicy) Viewport {
	if policy != ScaleAnchored {
		return Viewport{Offset: v.Offset, Scale: scale}
	}
	c := Point{X: float64(frame.Width) / 2, Y: float64(frame.Height) / 2}
	p := v.ToSource(c)
	return Viewport{
		Offset: Point{X: c.X - p.X*scale, Y: c.Y - p.Y*scale},
		Scale:  scale,
	}
}

type ScaleBounds struct {
	Min float64
	Max float64
}

var DefaultScaleBounds = ScaleBounds{Min: 0.1, Max: 3.0}

func (b ScaleBounds) Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return b.Min
	}
	return math.Min(b.Max, math.Max(b.Min, v))
}

// Transform is the interactive state behind the editor: a viewport plus the
// drag gesture in progress. It is not safe for concurrent use.
type Transform struct {
	Viewport Viewport
	frame    Frame
	bounds   ScaleBounds
	policy   ScalePolicy

	dragging      bool
	dragStart     Point
	offsetAtStart Point
}

func NewTransform(frame Frame, bounds ScaleBounds, policy ScalePolicy) *Transform {
	return &Transform{frame: frame, bounds: bounds, policy: policy}
}

// Init resets the viewport to cover the image and drops any active drag.
func (t *Transform) Init(imageWidth, imageHeight int) {
	t.Viewport = Cover(imageWidth, imageHeight, t.frame)
	t.dragging = false
}

func (t *Transform) BeginDrag(p Point) {
	t.dragging = true
	t.dragStart = p
	t.offsetAtStart = t.Viewport.Offset
}

// MoveDrag translates the image rigidly with the pointer. Moves outside a
// drag are ignored.
func (t *Transform) MoveDrag(p Point) bool {
	if !t.dragging {
		return false
	}
	t.Viewport.Offset = p.Sub(t.dragStart.Sub(t.offsetAtStart))
	return true
}

func (t *Transform) EndDrag() {
	t.dragging = false
}

func (t *Transform) Dragging() bool { return t.dragging }

// SetScale clamps value into the configured bounds and applies it.
func (t *Transform) SetScale(value float64) {
	prev := t.Viewport.Offset
	t.Viewport = t.Viewport.Rescale(t.bounds.Clamp(value), t.frame, t.policy)
	if t.dragging {
		// keep a drag in progress continuous across the rescale
		t.offsetAtStart = t.offsetAtStart.Add(t.Viewport.Offset.Sub(prev))
	}
}

func (t *Transform) Policy() ScalePolicy { return t.policy }
