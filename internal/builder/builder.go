package builder

import (
	"errors"
	"runtime"
	"time"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/specialistvlad/assetgrid/internal/processor"
	"github.com/specialistvlad/assetgrid/internal/tracker"
	"github.com/specialistvlad/assetgrid/internal/trackerstore"
)

// DefaultBundleKey is the build parameter that selects asset bundles.
const DefaultBundleKey = "Platform"

// ErrMissingSourceFile is reported for an asset whose primary source file does
// not exist in the content folder.
var ErrMissingSourceFile = errors.New("missing source file")

// Processors resolves processor names. *registry.Registry implements it.
type Processors interface {
	Lookup(name string) (processor.Processor, error)
}

// Options tune a Builder.
type Options struct {
	// Workers is the number of assets processed concurrently. Values below
	// one mean runtime.NumCPU().
	Workers int
	// FailFast stops starting new assets after the first failure.
	FailFast bool
	// BundleKey names the build parameter that selects a bundle. Empty means
	// DefaultBundleKey.
	BundleKey string
	// HashMode selects the parameter hash used in fingerprints.
	HashMode params.HashMode
	// ToolModTime invalidates tracker stores written before it. The zero time
	// disables the check.
	ToolModTime time.Time
}

// Request describes one build.
type Request struct {
	OutputFolder    string
	Parameters      *params.Set
	ForceRebuildAll bool
}

// Report summarizes a finished build.
type Report struct {
	// Success is true when no asset failed and the build was not aborted.
	Success bool
	// Statuses holds the final status of every asset.
	Statuses map[string]buildlog.Status
	// Errors holds the failure of every Failed asset.
	Errors map[string]error

	Built    int
	Skipped  int
	Failed   int
	Warned   int
	Aborted  int
	Duration time.Duration
}

// Builder runs builds against one tracker store.
type Builder struct {
	processors Processors
	store      trackerstore.Store
	bus        *buildlog.Bus
	opts       Options
}

// New creates a Builder. bus may be nil when nobody listens.
func New(processors Processors, store trackerstore.Store, bus *buildlog.Bus, opts Options) *Builder {
	if opts.Workers < 1 {
		opts.Workers = runtime.NumCPU()
	}
	if opts.BundleKey == "" {
		opts.BundleKey = DefaultBundleKey
	}
	return &Builder{processors: processors, store: store, bus: bus, opts: opts}
}

// Options returns the effective options.
func (b *Builder) Options() Options { return b.opts }

func (b *Builder) newTracker(m *asset.Manifest, outputFolder string) *tracker.Tracker {
	return tracker.New(b.store, b.trackerConfig(m, outputFolder))
}

func (b *Builder) trackerConfig(m *asset.Manifest, outputFolder string) tracker.Config {
	return tracker.Config{
		ContentRoot: m.ContentRoot,
		OutputRoot:  outputFolder,
		HashMode:    b.opts.HashMode,
		ToolModTime: b.opts.ToolModTime,
	}
}

// bundleFor picks the bundle of a for this build, or "" for base parameters.
func (b *Builder) bundleFor(a *asset.Asset, buildParams *params.Set) string {
	name := buildParams.GetString(b.opts.BundleKey, "")
	if name != "" && a.HasBundle(name) {
		return name
	}
	return ""
}
