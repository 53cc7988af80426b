package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/assetgrid/internal/builder"
	"github.com/specialistvlad/assetgrid/internal/processor"
)

// Status reports the staleness of every asset without building.
func (a *App) Status(ctx context.Context) ([]builder.PlanEntry, error) {
	ctx = a.context(ctx)
	m, err := a.loadManifest(ctx)
	if err != nil {
		return nil, err
	}
	req, err := a.request()
	if err != nil {
		return nil, err
	}
	return a.newBuilder(m, nil).Plan(ctx, m, req)
}

// Problem is one issue found by Validate.
type Problem struct {
	Asset string
	Err   error
}

// Validate loads the manifest and checks every asset against its processor:
// the processor must exist, bundles must resolve and parameters must match
// the processor's declaration.
func (a *App) Validate(ctx context.Context) ([]Problem, error) {
	ctx = a.context(ctx)
	m, err := a.loadManifest(ctx)
	if err != nil {
		return nil, err
	}

	var problems []Problem
	for _, as := range m.Assets {
		proc, err := a.registry.Lookup(as.ProcessorName)
		if err != nil {
			problems = append(problems, Problem{Asset: as.Path, Err: err})
			continue
		}
		details := proc.Describe()
		bundles := append([]string{""}, as.BundleNames()...)
		for _, b := range bundles {
			set, err := as.ResolvedParameters(b)
			if err != nil {
				problems = append(problems, Problem{Asset: as.Path, Err: err})
				continue
			}
			for _, verr := range processor.ValidateParameters(details, set) {
				if b != "" {
					verr = fmt.Errorf("bundle '%s': %w", b, verr)
				}
				problems = append(problems, Problem{Asset: as.Path, Err: verr})
			}
		}
	}
	a.logger.Debug("Manifest validated.", "assets", m.Len(), "problems", len(problems))
	return problems, nil
}

// Prune forgets assets that were removed from the manifest and, with
// removeOutputs, deletes their outputs. It returns the pruned asset paths.
func (a *App) Prune(ctx context.Context, removeOutputs bool) ([]string, error) {
	ctx = a.context(ctx)
	m, err := a.loadManifest(ctx)
	if err != nil {
		return nil, err
	}
	removed, err := a.newBuilder(m, nil).Prune(ctx, m, a.config.OutputPath, removeOutputs)
	if err != nil {
		return nil, err
	}
	paths := make([]string, 0, len(removed))
	for _, rec := range removed {
		paths = append(paths, rec.AssetPath)
	}
	return paths, nil
}

// Clean deletes every tracked output and resets the tracker.
func (a *App) Clean(ctx context.Context) (int, error) {
	ctx = a.context(ctx)
	m, err := a.loadManifest(ctx)
	if err != nil {
		return 0, err
	}
	return a.newBuilder(m, nil).Clean(ctx, m, a.config.OutputPath)
}

// Processors describes every registered processor.
func (a *App) Processors() []processor.Details {
	return a.registry.Details()
}
