package crop

import (
	"sort"

	"github.com/ds124wfegd/linkhub/config"
)

// Frame is the fixed crop window, in the logical units the editor reports
// pointer coordinates in.
type Frame struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Format string

const (
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

func (f Format) MediaType() string {
	return "image/" + string(f)
}

func (f Format) Extension() string {
	if f == FormatJPEG {
		return ".jpg"
	}
	return "." + string(f)
}

type OutputSpec struct {
	Width   int    `json:"width"`
	Height  int    `json:"height"`
	Format  Format `json:"format"`
	Quality int    `json:"quality"`
}

// Target names the image reference slot a kind writes into.
type Target string

const (
	TargetBlockBanner Target = "block_banner"
	TargetBlockImage  Target = "block_image"
	TargetPageBanner  Target = "page_banner"
	TargetPageAvatar  Target = "page_avatar"
)

func (t Target) IsBlock() bool {
	return t == TargetBlockBanner || t == TargetBlockImage
}

// Kind is one crop preset: link banner, link icon, page banner or avatar.
type Kind struct {
	Name     string     `json:"name"`
	Frame    Frame      `json:"frame"`
	Output   OutputSpec `json:"output"`
	MaxBytes int64      `json:"max_bytes"`
	// MaxPixels bounds the decoded source; zero means DefaultMaxPixels.
	MaxPixels int64  `json:"max_pixels"`
	Folder    string `json:"folder"`
	Target    Target `json:"target"`
}

// Validate checks that the output keeps the frame aspect ratio exactly.
func (k Kind) Validate() error {
	return config.CheckGeometry(k.Name, k.Frame.Width, k.Frame.Height, k.Output.Width, k.Output.Height)
}

// Ratio is k, the factor from frame units to output pixels.
func (k Kind) Ratio() float64 {
	return float64(k.Output.Width) / float64(k.Frame.Width)
}

type Kinds map[string]Kind

func (ks Kinds) Get(name string) (Kind, bool) {
	k, ok := ks[name]
	return k, ok
}

// Sorted returns the kinds ordered by name.
func (ks Kinds) Sorted() []Kind {
	list := make([]Kind, 0, len(ks))
	for _, k := range ks {
		list = append(list, k)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	return list
}

func KindsFromConfig(cfg config.CropConfig) (Kinds, error) {
	kinds := make(Kinds, len(cfg.Kinds))
	for name, kc := range cfg.Kinds {
		k := Kind{
			Name:  name,
			Frame: Frame{Width: kc.FrameWidth, Height: kc.FrameHeight},
			Output: OutputSpec{
				Width:   kc.OutputWidth,
				Height:  kc.OutputHeight,
				Format:  Format(kc.Format),
				Quality: cfg.Quality,
			},
			MaxBytes:  kc.MaxBytes,
			MaxPixels: cfg.MaxPixels,
			Folder:    kc.Folder,
			Target:    Target(kc.Target),
		}
		if err := k.Validate(); err != nil {
			return nil, err
		}
		kinds[name] = k
	}
	return kinds, nil
}
