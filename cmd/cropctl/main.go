// offline crop tool: renders a kind's output from a local image
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/ds124wfegd/linkhub/config"
	"github.com/ds124wfegd/linkhub/internal/crop"
	"github.com/gabriel-vasile/mimetype"
	"github.com/sirupsen/logrus"
)

type cliArgs struct {
	Render renderCmd `cmd:"" help:"Crop an image the way the editor would and write the encoded output"`
	Kinds  kindsCmd  `cmd:"" help:"List configured crop kinds"`
}

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	var args cliArgs
	cliCtx := kong.Parse(
		&args,
		kong.Name("cropctl"),
		kong.Description("Render LinkHub crops without the API."),
		kong.UsageOnError(),
	)
	if err := cliCtx.Run(); err != nil {
		logrus.Fatal(err)
	}
}

type renderCmd struct {
	Input   string  `arg:"" help:"Source image (JPEG, PNG, WebP or GIF)" type:"existingfile"`
	Output  string  `arg:"" help:"Where to write the encoded crop"`
	Kind    string  `help:"Crop kind" default:"link_banner"`
	OffsetX float64 `help:"Image offset inside the frame, x"`
	OffsetY float64 `help:"Image offset inside the frame, y"`
	Scale   float64 `help:"Display scale; 0 means cover"`
	Auto    bool    `help:"Ignore offset and scale and use the centered cover placement"`
	Verbose bool    `help:"Enable debug logging"`
}

func (cmd *renderCmd) Run() error {
	if cmd.Verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	kinds, err := crop.KindsFromConfig(cfg.Crop)
	if err != nil {
		return err
	}
	kind, ok := kinds.Get(cmd.Kind)
	if !ok {
		return fmt.Errorf("unknown kind %q", cmd.Kind)
	}

	mt, err := mimetype.DetectFile(cmd.Input)
	if err != nil {
		return err
	}
	info, err := os.Stat(cmd.Input)
	if err != nil {
		return err
	}
	f, err := os.Open(cmd.Input)
	if err != nil {
		return err
	}
	defer f.Close()

	src, err := crop.Capture(crop.File{
		Name:      info.Name(),
		Size:      info.Size(),
		MediaType: mt.String(),
		Data:      f,
	}, kind.MaxBytes, kind.MaxPixels)
	if err != nil {
		return err
	}

	v := cmd.viewport(src, kind, crop.ScaleBounds{Min: cfg.Crop.MinScale, Max: cfg.Crop.MaxScale})

	visible, err := crop.SourceRect(src.Width, src.Height, v, kind.Frame)
	if err != nil {
		return err
	}
	logrus.WithFields(logrus.Fields{
		"source":   fmt.Sprintf("%dx%d", src.Width, src.Height),
		"offset_x": v.Offset.X,
		"offset_y": v.Offset.Y,
		"scale":    v.Scale,
		"visible":  fmt.Sprintf("%.1f,%.1f %.1fx%.1f", visible.X, visible.Y, visible.Width, visible.Height),
	}).Debug("viewport")

	data, err := crop.Render(src, v, kind)
	if err != nil {
		return err
	}
	if err := os.WriteFile(cmd.Output, data, 0o644); err != nil {
		return err
	}

	logrus.Infof("wrote %s (%dx%d %s, %d bytes)", cmd.Output, kind.Output.Width, kind.Output.Height, kind.Output.Format, len(data))
	return nil
}

// viewport applies the same slider bounds the editor does.
func (cmd *renderCmd) viewport(src *crop.SourceImage, kind crop.Kind, bounds crop.ScaleBounds) crop.Viewport {
	if cmd.Auto || cmd.Scale <= 0 {
		return crop.Cover(src.Width, src.Height, kind.Frame)
	}

	scale := bounds.Clamp(cmd.Scale)
	if scale != cmd.Scale {
		logrus.Warnf("scale %v is outside [%v, %v], using %v", cmd.Scale, bounds.Min, bounds.Max, scale)
	}
	return crop.Viewport{Offset: crop.Point{X: cmd.OffsetX, Y: cmd.OffsetY}, Scale: scale}
}

type kindsCmd struct{}

func (cmd *kindsCmd) Run() error {
	kinds, err := loadKinds()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	for _, k := range kinds.Sorted() {
		if err := enc.Encode(k); err != nil {
			return err
		}
	}
	return nil
}

func loadKinds() (crop.Kinds, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return crop.KindsFromConfig(cfg.Crop)
}

// loadConfig prefers ./config/config.yaml and falls back to the built-in
// defaults when there is none.
func loadConfig() (*config.Config, error) {
	if v, err := config.LoadConfig(); err == nil {
		return config.ParseConfig(v)
	}
	return config.Defaults()
}
