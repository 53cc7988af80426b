package builder

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/tracker"
	"github.com/specialistvlad/assetgrid/internal/trackerstore"
)

// PlanEntry is the staleness verdict for one asset.
type PlanEntry struct {
	Asset     string
	Processor string
	Bundle    string
	Reason    tracker.Reason
}

// Plan reports, without building anything, which assets of m a Build with req
// would process and why.
func (b *Builder) Plan(ctx context.Context, m *asset.Manifest, req Request) ([]PlanEntry, error) {
	trk := b.newTracker(m, req.OutputFolder)
	if err := trk.Load(ctx); err != nil {
		return nil, err
	}

	entries := make([]PlanEntry, 0, m.Len())
	for _, a := range m.Assets {
		bundle := b.bundleFor(a, req.Parameters)
		reason, err := trk.Staleness(a, bundle)
		if err != nil {
			return nil, err
		}
		entries = append(entries, PlanEntry{Asset: a.Path, Processor: a.ProcessorName, Bundle: bundle, Reason: reason})
	}
	return entries, nil
}

// Prune drops tracker records of assets no longer in m. With removeOutputs
// their recorded output files are deleted as well.
func (b *Builder) Prune(ctx context.Context, m *asset.Manifest, outputFolder string, removeOutputs bool) ([]*trackerstore.Record, error) {
	logger := ctxlog.FromContext(ctx)
	trk := b.newTracker(m, outputFolder)
	if err := trk.Load(ctx); err != nil {
		return nil, err
	}

	removed := trk.Prune(m)
	if removeOutputs {
		for _, rec := range removed {
			n, err := removeFiles(outputFolder, rec.Outputs)
			if err != nil {
				return nil, err
			}
			logger.Debug("Removed outputs of pruned asset.", "asset", rec.AssetPath, "files", n)
		}
	}
	if err := trk.Save(ctx); err != nil {
		return nil, err
	}
	logger.Info("Tracker pruned.", "removed", len(removed))
	return removed, nil
}

// Clean deletes every output file the tracker knows about and empties the
// tracker. It returns the number of files removed.
func (b *Builder) Clean(ctx context.Context, m *asset.Manifest, outputFolder string) (int, error) {
	trk := b.newTracker(m, outputFolder)
	if err := trk.Load(ctx); err != nil {
		return 0, err
	}

	total := 0
	for _, p := range trk.Paths() {
		rec, _ := trk.Record(p)
		n, err := removeFiles(outputFolder, rec.Outputs)
		total += n
		if err != nil {
			return total, err
		}
		trk.RemoveAsset(p)
	}
	if err := trk.Save(ctx); err != nil {
		return total, err
	}
	ctxlog.FromContext(ctx).Info("Outputs cleaned.", "files", total)
	return total, nil
}

// removeFiles deletes root-relative files, ignoring the ones already gone.
func removeFiles(root string, files []string) (int, error) {
	n := 0
	for _, f := range files {
		err := os.Remove(filepath.Join(root, filepath.FromSlash(f)))
		switch {
		case err == nil:
			n++
		case errors.Is(err, fs.ErrNotExist):
		default:
			return n, fmt.Errorf("remove output '%s': %w", f, err)
		}
	}
	return n, nil
}
