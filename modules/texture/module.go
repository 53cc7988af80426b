package texture

import (
	"context"
	"fmt"
	"image"

	"github.com/specialistvlad/assetgrid/internal/imaging"
	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/specialistvlad/assetgrid/internal/processor"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Processor converts an image into a PNG texture with optional mip levels.
type Processor struct{}

// Describe implements processor.Processor.
func (Processor) Describe() processor.Details {
	return processor.Details{
		Name:        "texture",
		Description: "Converts an image into a PNG texture, optionally downsized and with mip levels.",
		Extensions:  []string{".png", ".jpg", ".jpeg", ".gif", ".bmp", ".tif", ".tiff", ".webp"},
		Parameters: []processor.Parameter{
			{
				Name:        "max_size",
				Description: "Longest side in pixels. Larger images are downsized. Zero keeps the source size.",
				Group:       "Size",
				Kind:        params.KindInt,
				Default:     params.Int(0),
			},
			{
				Name:        "mipmaps",
				Description: "Writes <stem>.mip<N>.png for every level down to 1x1.",
				Group:       "Size",
				Kind:        params.KindBool,
				Default:     params.Bool(false),
			},
			{
				Name:        "filter",
				Description: "Resampling filter used for downsizing and mip levels.",
				Group:       "Size",
				Kind:        params.KindEnum,
				Default:     params.Enum(imaging.FilterBilinear),
				Options:     imaging.Filters,
			},
		},
	}
}

// Process implements processor.Processor.
func (Processor) Process(ctx context.Context, pc *processor.Context) error {
	data, err := pc.ReadInput(pc.Asset.Path)
	if err != nil {
		return fmt.Errorf("read source: %w", err)
	}
	src, format, err := imaging.Decode(data)
	if err != nil {
		return err
	}

	maxSize := pc.Parameters.GetInt("max_size", 0)
	if maxSize < 0 {
		pc.Warnf("Ignoring negative max_size %d.", maxSize)
		maxSize = 0
	}
	filter := pc.Parameters.GetEnum("filter", imaging.Filters, imaging.FilterBilinear)

	b := src.Bounds()
	w, h := imaging.Fit(b.Dx(), b.Dy(), int(maxSize))
	var base image.Image
	if w == b.Dx() && h == b.Dy() {
		base = imaging.ToNRGBA(src)
	} else {
		pc.Verbosef("Downsizing %dx%d %s to %dx%d.", b.Dx(), b.Dy(), format, w, h)
		if base, err = imaging.Scale(src, w, h, filter); err != nil {
			return err
		}
	}

	stem := pc.Stem()
	if err := writePNG(pc, stem+".png", base); err != nil {
		return err
	}

	if !pc.Parameters.GetBool("mipmaps", false) {
		return nil
	}
	levels, err := imaging.MipChain(base, filter)
	if err != nil {
		return err
	}
	for i, level := range levels {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := writePNG(pc, fmt.Sprintf("%s.mip%d.png", stem, i+1), level); err != nil {
			return err
		}
	}
	pc.Verbosef("Wrote %d mip levels.", len(levels))
	return nil
}

func writePNG(pc *processor.Context, rel string, img image.Image) error {
	data, err := imaging.EncodePNG(img)
	if err != nil {
		return err
	}
	return pc.WriteOutput(rel, data)
}

// Register registers the processor with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor(Processor{})
}
