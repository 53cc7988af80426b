package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/assetgrid/internal/builder"
	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/livefeed"
	"github.com/specialistvlad/assetgrid/internal/telemetry"
)

// Build runs one incremental build of the configured manifest. A build in
// which assets failed returns its report without an error; callers decide on
// the exit code from Report.Success.
func (a *App) Build(ctx context.Context) (*builder.Report, error) {
	ctx = a.context(ctx)
	a.logger.Debug("App.Build method started.")

	shutdown, err := telemetry.Setup(ctx, a.config.OTelEndpoint, Version)
	if err != nil {
		a.logger.Warn("Tracing disabled, exporter setup failed.", "error", err)
	}
	defer func() {
		if err := shutdown(context.WithoutCancel(ctx)); err != nil {
			a.logger.Warn("Flushing traces failed.", "error", err)
		}
	}()

	m, err := a.loadManifest(ctx)
	if err != nil {
		return nil, err
	}
	req, err := a.request()
	if err != nil {
		return nil, err
	}

	bus := buildlog.New()
	bus.Subscribe(buildlog.NewSlogSubscriber(a.logger))
	tally := buildlog.NewTally()
	bus.Subscribe(tally)

	if a.config.FeedURL != "" {
		feed, err := livefeed.Dial(ctx, a.config.FeedURL, livefeed.Options{})
		if err != nil {
			a.logger.Warn("Live feed unavailable, continuing without it.", "url", a.config.FeedURL, "error", err)
		} else {
			unsubscribe := bus.Subscribe(feed)
			defer feed.Close()
			defer unsubscribe()
		}
	}

	if a.config.StatusPort > 0 {
		srv, err := startStatusServer(ctx, a.config.StatusPort, tally)
		if err != nil {
			return nil, fmt.Errorf("failed to start status server: %w", err)
		}
		defer srv.Close(ctx)
	}

	a.logger.Info("🚀 Starting build...", "assets", m.Len(), "manifest", a.config.ManifestPath)
	report, err := a.newBuilder(m, bus).Build(ctx, m, req)
	if err != nil {
		return report, fmt.Errorf("build failed: %w", err)
	}
	a.logger.Info("🏁 Build finished.", "success", report.Success, "built", report.Built, "skipped", report.Skipped, "failed", report.Failed)
	return report, nil
}
