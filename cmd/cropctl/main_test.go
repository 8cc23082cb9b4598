package main

import (
	"image/color"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderViewport(t *testing.T) {
	src := &crop.SourceImage{Width: 900, Height: 300}
	kind := crop.Kind{Name: "link_banner", Frame: crop.Frame{Width: 450, Height: 150}}
	cover := crop.Cover(900, 300, kind.Frame)

	tests := []struct {
		name string
		cmd  renderCmd
		want crop.Viewport
	}{
		{name: "in bounds", cmd: renderCmd{Scale: 1.2, OffsetX: -10, OffsetY: 5}, want: crop.Viewport{Offset: crop.Point{X: -10, Y: 5}, Scale: 1.2}},
		{name: "above max", cmd: renderCmd{Scale: 50}, want: crop.Viewport{Scale: 3}},
		{name: "below min", cmd: renderCmd{Scale: 0.01, OffsetY: 7}, want: crop.Viewport{Offset: crop.Point{Y: 7}, Scale: 0.1}},
		{name: "zero means cover", cmd: renderCmd{}, want: cover},
		{name: "auto ignores scale", cmd: renderCmd{Scale: 2, OffsetX: 40, Auto: true}, want: cover},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.cmd.viewport(src, kind, crop.DefaultScaleBounds)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRenderRun(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	require.NoError(t, imaging.Save(imaging.New(900, 300, color.NRGBA{R: 200, A: 255}), input))

	t.Run("writes the kind's output size", func(t *testing.T) {
		output := filepath.Join(dir, "out.jpg")
		cmd := &renderCmd{Input: input, Output: output, Kind: "link_banner", Scale: 40}
		require.NoError(t, cmd.Run())

		img, err := imaging.Open(output)
		require.NoError(t, err)
		assert.Equal(t, 600, img.Bounds().Dx())
		assert.Equal(t, 200, img.Bounds().Dy())
	})

	t.Run("unknown kind", func(t *testing.T) {
		cmd := &renderCmd{Input: input, Output: filepath.Join(dir, "x.jpg"), Kind: "poster"}
		assert.ErrorContains(t, cmd.Run(), "unknown kind")
	})
}
