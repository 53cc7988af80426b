package tracker

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/specialistvlad/assetgrid/internal/trackerstore"
)

// ErrUnknownAsset is returned when dependencies are added for an asset whose
// tracking has not begun.
var ErrUnknownAsset = errors.New("unknown asset")

// Config holds the roots dependency paths are relative to and the fingerprint
// settings of a tracker.
type Config struct {
	// ContentRoot resolves input dependencies.
	ContentRoot string
	// OutputRoot resolves output dependencies.
	OutputRoot string
	// HashMode is passed to asset.FingerprintWith.
	HashMode params.HashMode
	// ToolModTime is the modification time of the build tool. A store file
	// older than this is ignored on Load. The zero time disables the check.
	ToolModTime time.Time
	// Warn, when set, receives warnings raised by Load instead of the context
	// logger.
	Warn func(msg string)
}

// Tracker is the dependency tracker for one content root.
type Tracker struct {
	cfg   Config
	store trackerstore.Store

	mu      sync.RWMutex
	records map[string]*trackerstore.Record
}

// New creates an empty tracker persisted through store.
func New(store trackerstore.Store, cfg Config) *Tracker {
	return &Tracker{
		cfg:     cfg,
		store:   store,
		records: make(map[string]*trackerstore.Record),
	}
}

// Config returns the configuration the tracker was created with.
func (t *Tracker) Config() Config { return t.cfg }

// Load replaces the in-memory index with the persisted store. A corrupt store
// or one older than the build tool is discarded and the tracker starts empty;
// only I/O failures and cancellation are returned.
func (t *Tracker) Load(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx).With("tracker", t.store.Path())

	storeTime, exists, err := fsutil.ModTime(t.store.Path())
	if err != nil {
		return fmt.Errorf("stat tracker store: %w", err)
	}
	if !exists {
		logger.Debug("No tracker store found, every asset is untracked.")
		t.reset(nil)
		return nil
	}
	if !t.cfg.ToolModTime.IsZero() && storeTime.Before(t.cfg.ToolModTime) {
		logger.Info("Tracker store predates the build tool, forcing a full rebuild.",
			"store_time", storeTime, "tool_time", t.cfg.ToolModTime)
		t.reset(nil)
		return nil
	}

	snap, err := t.store.Load(ctx)
	if err != nil {
		if errors.Is(err, trackerstore.ErrCorrupt) {
			if t.cfg.Warn != nil {
				t.cfg.Warn(fmt.Sprintf("Tracker store is corrupt, discarding it: %v.", err))
			} else {
				logger.Warn("Tracker store is corrupt, discarding it.", "error", err)
			}
			t.reset(nil)
			return nil
		}
		return fmt.Errorf("load tracker store: %w", err)
	}
	t.reset(snap)
	logger.Debug("Tracker store loaded.", "records", len(snap))
	return nil
}

// Save persists the in-memory index.
func (t *Tracker) Save(ctx context.Context) error {
	snap := t.Snapshot()
	if err := t.store.Save(ctx, snap); err != nil {
		return fmt.Errorf("save tracker store: %w", err)
	}
	ctxlog.FromContext(ctx).Debug("Tracker store saved.", "tracker", t.store.Path(), "records", len(snap))
	return nil
}

func (t *Tracker) reset(snap trackerstore.Snapshot) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records = make(map[string]*trackerstore.Record, len(snap))
	for p, rec := range snap {
		t.records[p] = rec.Clone()
	}
}

// Snapshot returns a deep copy of the index.
func (t *Tracker) Snapshot() trackerstore.Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	snap := make(trackerstore.Snapshot, len(t.records))
	for p, rec := range t.records {
		snap[p] = rec.Clone()
	}
	return snap
}

// Record returns a copy of the record for assetPath.
func (t *Tracker) Record(assetPath string) (*trackerstore.Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[assetPath]
	if !ok {
		return nil, false
	}
	return rec.Clone(), true
}

// Paths returns the tracked asset paths, sorted.
func (t *Tracker) Paths() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	paths := make([]string, 0, len(t.records))
	for p := range t.records {
		paths = append(paths, p)
	}
	slices.Sort(paths)
	return paths
}

// Len returns the number of tracked assets.
func (t *Tracker) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// BeginTracking creates or replaces the record for a with no dependencies and
// a's current fingerprint for bundle.
func (t *Tracker) BeginTracking(a *asset.Asset, bundle string) error {
	fp, err := a.FingerprintWith(bundle, t.cfg.HashMode)
	if err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.records[a.Path] = &trackerstore.Record{AssetPath: a.Path, Fingerprint: fp}
	return nil
}

// AddInputDependency appends a content-relative file to the inputs of assetPath.
func (t *Tracker) AddInputDependency(assetPath, file string) error {
	return t.addDependency(assetPath, file, false)
}

// AddOutputDependency appends an output-relative file to the outputs of assetPath.
func (t *Tracker) AddOutputDependency(assetPath, file string) error {
	return t.addDependency(assetPath, file, true)
}

func (t *Tracker) addDependency(assetPath, file string, output bool) error {
	file = filepath.ToSlash(filepath.Clean(file))
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[assetPath]
	if !ok {
		return fmt.Errorf("add dependency '%s': %w '%s'", file, ErrUnknownAsset, assetPath)
	}
	list := &rec.Inputs
	if output {
		list = &rec.Outputs
	}
	if !slices.Contains(*list, file) {
		*list = append(*list, file)
	}
	return nil
}

// RemoveAsset drops the record for assetPath. Removing an untracked path is a
// no-op.
func (t *Tracker) RemoveAsset(assetPath string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.records, assetPath)
}

// Prune removes the records of assets that are no longer in m and returns them.
func (t *Tracker) Prune(m *asset.Manifest) []*trackerstore.Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	var removed []*trackerstore.Record
	for p, rec := range t.records {
		if _, ok := m.Lookup(p); !ok {
			removed = append(removed, rec)
			delete(t.records, p)
		}
	}
	slices.SortFunc(removed, func(a, b *trackerstore.Record) int {
		return cmp.Compare(a.AssetPath, b.AssetPath)
	})
	return removed
}

// logger is used by methods that have no context to draw one from.
func (t *Tracker) logger() *slog.Logger {
	return slog.Default().With("tracker", t.store.Path())
}
