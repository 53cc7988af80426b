package builder

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/tracker"
)

type job struct {
	asset  *asset.Asset
	bundle string
}

// run is the mutable state of one Build call.
type run struct {
	req     Request
	content string
	tracker *tracker.Tracker

	mu       sync.Mutex
	statuses map[string]buildlog.Status
	errs     map[string]error
}

func (r *run) finish(assetPath string, status buildlog.Status, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statuses[assetPath] = status
	if err != nil {
		r.errs[assetPath] = err
	}
}

// Build brings the outputs of every asset in m up to date. Per-asset failures
// are reported in the Report; the returned error is reserved for failures of
// the build as a whole and for cancellation of ctx.
func (b *Builder) Build(ctx context.Context, m *asset.Manifest, req Request) (*Report, error) {
	start := time.Now()
	logger := ctxlog.FromContext(ctx)

	if err := os.MkdirAll(req.OutputFolder, 0755); err != nil {
		return nil, fmt.Errorf("create output folder %s: %w", req.OutputFolder, err)
	}

	cfg := b.trackerConfig(m, req.OutputFolder)
	if b.bus != nil {
		cfg.Warn = func(msg string) { b.bus.Log(buildlog.Warning, msg, "") }
	}
	trk := tracker.New(b.store, cfg)
	if err := trk.Load(ctx); err != nil {
		return nil, err
	}

	r := &run{
		req:      req,
		content:  m.ContentRoot,
		tracker:  trk,
		statuses: make(map[string]buildlog.Status, m.Len()),
		errs:     make(map[string]error),
	}

	jobs := make(chan job, m.Len())
	for _, a := range m.Assets {
		r.statuses[a.Path] = buildlog.Waiting
		b.bus.SetStatus(buildlog.Waiting, a.Path)
		jobs <- job{asset: a, bundle: b.bundleFor(a, req.Parameters)}
	}
	close(jobs)

	logger.Info("Build started.", "assets", m.Len(), "workers", b.opts.Workers, "output", req.OutputFolder, "force", req.ForceRebuildAll)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i := range b.opts.Workers {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			b.worker(runCtx, r, jobs, cancel, workerID)
		}(i + 1)
	}
	wg.Wait()

	report := r.report(time.Since(start))
	// The tracker is saved even when ctx was cancelled.
	saveErr := trk.Save(context.WithoutCancel(ctx))

	logger.Info("Build finished.",
		"success", report.Success,
		"built", report.Built,
		"skipped", report.Skipped,
		"failed", report.Failed,
		"warned", report.Warned,
		"aborted", report.Aborted,
		"duration", report.Duration,
	)

	if saveErr != nil {
		report.Success = false
		return report, saveErr
	}
	if err := ctx.Err(); err != nil {
		return report, err
	}
	return report, nil
}

// worker is the processing loop of a single concurrent worker.
func (b *Builder) worker(ctx context.Context, r *run, jobs <-chan job, cancel context.CancelFunc, workerID int) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)

	for j := range jobs {
		if ctx.Err() != nil {
			// Drain without starting; the asset stays Waiting.
			continue
		}
		workerCtx := ctxlog.With(ctx, "workerID", workerID, "asset", j.asset.Path)

		status, err := b.buildAsset(workerCtx, r, j)
		r.finish(j.asset.Path, status, err)

		if status == buildlog.Failed && b.opts.FailFast {
			ctxlog.FromContext(workerCtx).Debug("Stopping build after first failure.")
			cancel()
		}
	}
	logger.Debug("Worker finished.", "workerID", workerID)
}

func (r *run) report(d time.Duration) *Report {
	r.mu.Lock()
	defer r.mu.Unlock()

	rep := &Report{
		Statuses: make(map[string]buildlog.Status, len(r.statuses)),
		Errors:   make(map[string]error, len(r.errs)),
		Duration: d,
	}
	for p, s := range r.statuses {
		rep.Statuses[p] = s
		switch s {
		case buildlog.Success:
			rep.Built++
		case buildlog.SuccessWithWarning:
			rep.Built++
			rep.Warned++
		case buildlog.Skipped:
			rep.Skipped++
		case buildlog.Failed:
			rep.Failed++
		default:
			rep.Aborted++
		}
	}
	for p, err := range r.errs {
		rep.Errors[p] = err
	}
	rep.Success = rep.Failed == 0 && rep.Aborted == 0
	return rep
}
