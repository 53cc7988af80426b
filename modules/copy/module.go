package copy

import (
	"context"
	"fmt"

	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/specialistvlad/assetgrid/internal/processor"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Processor copies the source file to the output folder unchanged.
type Processor struct{}

// Describe implements processor.Processor.
func (Processor) Describe() processor.Details {
	return processor.Details{
		Name:        "copy",
		Description: "Copies the source file to the output folder unchanged.",
		Parameters: []processor.Parameter{
			{
				Name:        "rename",
				Description: "Output path relative to the output folder. Defaults to the asset path.",
				Kind:        params.KindString,
				Default:     params.String(""),
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

	target := pc.Parameters.GetString("rename", "")
	if target == "" {
		target = pc.Asset.Path
	}
	if err := pc.WriteOutput(target, data); err != nil {
		return err
	}
	pc.Verbosef("Copied %d bytes to %s.", len(data), target)
	return nil
}

// Register registers the processor with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor(Processor{})
}
