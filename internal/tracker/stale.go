package tracker

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
)

// Reason explains a staleness decision.
type Reason int

const (
	// Fresh means the asset is up to date.
	Fresh Reason = iota
	// Untracked means no record exists for the asset.
	Untracked
	// FingerprintChanged means the path, processor or parameters changed.
	FingerprintChanged
	// MissingInput means a recorded input file no longer exists.
	MissingInput
	// MissingOutput means a recorded output file no longer exists.
	MissingOutput
	// InputNewer means an input was modified after the oldest output.
	InputNewer
)

// String returns a short name for the reason.
func (r Reason) String() string {
	switch r {
	case Fresh:
		return "fresh"
	case Untracked:
		return "untracked"
	case FingerprintChanged:
		return "fingerprint"
	case MissingInput:
		return "missing-input"
	case MissingOutput:
		return "missing-output"
	case InputNewer:
		return "input-newer"
	default:
		return fmt.Sprintf("reason(%d)", int(r))
	}
}

// Stale reports whether the reason requires a rebuild.
func (r Reason) Stale() bool { return r != Fresh }

// IsStale reports whether a must be rebuilt for bundle.
func (t *Tracker) IsStale(a *asset.Asset, bundle string) (bool, error) {
	r, err := t.Staleness(a, bundle)
	if err != nil {
		return true, err
	}
	return r.Stale(), nil
}

// Staleness returns why a must be rebuilt for bundle, or Fresh. A file whose
// modification time cannot be read counts as missing.
func (t *Tracker) Staleness(a *asset.Asset, bundle string) (Reason, error) {
	rec, ok := t.Record(a.Path)
	if !ok {
		return Untracked, nil
	}

	fp, err := a.FingerprintWith(bundle, t.cfg.HashMode)
	if err != nil {
		return Untracked, err
	}
	if fp != rec.Fingerprint {
		return FingerprintChanged, nil
	}

	newestInput, ok := t.extremeModTime(t.cfg.ContentRoot, rec.Inputs, true)
	if !ok {
		return MissingInput, nil
	}
	oldestOutput, ok := t.extremeModTime(t.cfg.OutputRoot, rec.Outputs, false)
	if !ok {
		return MissingOutput, nil
	}

	if len(rec.Inputs) > 0 && len(rec.Outputs) > 0 && newestInput.After(oldestOutput) {
		return InputNewer, nil
	}
	return Fresh, nil
}

// extremeModTime returns the newest (newest=true) or oldest modification time
// among files under root. ok is false as soon as one file is missing or
// unreadable.
func (t *Tracker) extremeModTime(root string, files []string, newest bool) (time.Time, bool) {
	var extreme time.Time
	for i, f := range files {
		mt, exists, err := fsutil.ModTime(filepath.Join(root, filepath.FromSlash(f)))
		if err != nil {
			t.logger().Debug("Cannot stat dependency, treating it as missing.", "file", f, "error", err)
			return time.Time{}, false
		}
		if !exists {
			return time.Time{}, false
		}
		if i == 0 || (newest && mt.After(extreme)) || (!newest && mt.Before(extreme)) {
			extreme = mt
		}
	}
	return extreme, true
}
