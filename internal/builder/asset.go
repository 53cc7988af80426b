package builder

import (
	"context"
	"fmt"

	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/processor"
	"github.com/specialistvlad/assetgrid/internal/tracker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/specialistvlad/assetgrid/internal/builder")

// buildAsset decides whether j must be rebuilt, rebuilds it if so and returns
// its final status.
func (b *Builder) buildAsset(ctx context.Context, r *run, j job) (buildlog.Status, error) {
	logger := ctxlog.FromContext(ctx)
	a := j.asset

	if !r.req.ForceRebuildAll {
		reason, err := r.tracker.Staleness(a, j.bundle)
		if err != nil {
			logger.Debug("Staleness check failed, rebuilding.", "error", err)
			reason = tracker.Untracked
		}
		if !reason.Stale() {
			b.bus.SetStatus(buildlog.Skipped, a.Path)
			return buildlog.Skipped, nil
		}
		b.bus.Log(buildlog.Verbose, fmt.Sprintf("Rebuilding: %s.", reason), a.Path)
	}

	b.bus.SetStatus(buildlog.Building, a.Path)
	warnings, err := b.process(ctx, r, j)
	if err != nil {
		b.bus.Log(buildlog.Error, err.Error(), a.Path)
		r.tracker.RemoveAsset(a.Path)
		b.bus.SetStatus(buildlog.Failed, a.Path)
		return buildlog.Failed, err
	}

	status := buildlog.Success
	if warnings > 0 {
		status = buildlog.SuccessWithWarning
	}
	b.bus.SetStatus(status, a.Path)
	return status, nil
}

// process runs the processor of j and returns how many warnings it logged.
func (b *Builder) process(ctx context.Context, r *run, j job) (int, error) {
	a := j.asset
	ctx, span := tracer.Start(ctx, "process "+a.Path, trace.WithAttributes(
		attribute.String("asset.path", a.Path),
		attribute.String("asset.processor", a.ProcessorName),
		attribute.String("asset.bundle", j.bundle),
	))
	defer span.End()

	warnings, err := b.invoke(ctx, r, j)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return warnings, err
}

func (b *Builder) invoke(ctx context.Context, r *run, j job) (int, error) {
	a := j.asset
	if err := r.tracker.BeginTracking(a, j.bundle); err != nil {
		return 0, err
	}

	proc, err := b.processors.Lookup(a.ProcessorName)
	if err != nil {
		return 0, fmt.Errorf("asset '%s': %w", a.Path, err)
	}

	set, err := a.ResolvedParameters(j.bundle)
	if err != nil {
		return 0, err
	}
	pc := processor.NewContext(a, j.bundle, r.content, r.req.OutputFolder, set, b.bus, r.tracker)

	_, exists, err := fsutil.ModTime(pc.SourcePath())
	if err != nil {
		return 0, fmt.Errorf("stat source of '%s': %w", a.Path, err)
	}
	if !exists {
		return 0, fmt.Errorf("%w '%s'", ErrMissingSourceFile, a.Path)
	}
	if err := r.tracker.AddInputDependency(a.Path, a.Path); err != nil {
		return 0, err
	}

	for _, verr := range processor.ValidateParameters(proc.Describe(), set) {
		pc.Warnf("%v", verr)
	}

	if err := safeProcess(ctx, proc, pc); err != nil {
		return pc.Warnings(), &processor.Error{Asset: a.Path, Processor: a.ProcessorName, Err: err}
	}
	return pc.Warnings(), nil
}

// safeProcess turns a panicking processor into an error.
func safeProcess(ctx context.Context, proc processor.Processor, pc *processor.Context) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return proc.Process(ctx, pc)
}
