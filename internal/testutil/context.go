package testutil

import (
	"sync"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/processor"
)

// Deps records declared dependencies in place of a tracker.
type Deps struct {
	mu      sync.Mutex
	inputs  []string
	outputs []string
}

func (d *Deps) AddInputDependency(_, file string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.inputs = append(d.inputs, file)
	return nil
}

func (d *Deps) AddOutputDependency(_, file string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.outputs = append(d.outputs, file)
	return nil
}

func (d *Deps) Inputs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.inputs...)
}

func (d *Deps) Outputs() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.outputs...)
}

// ProcessorHarness bundles a processor context with the recorders behind it.
type ProcessorHarness struct {
	Context *processor.Context
	Deps    *Deps
	Log     *Recorder
}

// NewProcessorHarness builds a context for a with its base parameters.
func NewProcessorHarness(a *asset.Asset, contentFolder, outputFolder string) *ProcessorHarness {
	bus := buildlog.New()
	rec := &Recorder{}
	bus.Subscribe(rec)
	deps := &Deps{}
	return &ProcessorHarness{
		Context: processor.NewContext(a, "", contentFolder, outputFolder, a.BaseParameters, bus, deps),
		Deps:    deps,
		Log:     rec,
	}
}
