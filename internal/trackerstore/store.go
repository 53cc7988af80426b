// Package trackerstore defines the persistence contract for the dependency
// tracker: the record shape and the Store interface implemented by the HCL
// and SQLite backends.
package trackerstore

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/assetgrid/internal/asset"
)

// ErrCorrupt is returned by Store.Load when the persisted data cannot be
// decoded. Callers recover by treating the store as empty.
var ErrCorrupt = errors.New("corrupt tracker store")

// Record is the persisted build state of one asset.
type Record struct {
	// AssetPath matches asset.Asset.Path.
	AssetPath string
	// Fingerprint is the asset fingerprint the record was built with.
	Fingerprint string
	// Inputs are files read by the build, relative to the content root.
	Inputs []string
	// Outputs are files written by the build, relative to the output root.
	Outputs []string
}

// Clone returns a deep copy of r.
func (r *Record) Clone() *Record {
	return &Record{
		AssetPath:   r.AssetPath,
		Fingerprint: r.Fingerprint,
		Inputs:      slices.Clone(r.Inputs),
		Outputs:     slices.Clone(r.Outputs),
	}
}

// Snapshot maps asset paths to their records.
type Snapshot map[string]*Record

// Normalize returns snap with every asset, input and output path in the form
// asset.NormalizePath produces. A path that is empty, absolute or escapes its
// root makes the whole snapshot corrupt, since maintenance commands delete
// recorded outputs.
func Normalize(snap Snapshot) (Snapshot, error) {
	out := make(Snapshot, len(snap))
	for key, rec := range snap {
		p, err := asset.NormalizePath(rec.AssetPath)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if key != rec.AssetPath {
			return nil, fmt.Errorf("%w: asset '%s' recorded under '%s'", ErrCorrupt, rec.AssetPath, key)
		}
		if _, dup := out[p]; dup {
			return nil, fmt.Errorf("%w: asset '%s' recorded twice", ErrCorrupt, p)
		}
		n := &Record{AssetPath: p, Fingerprint: rec.Fingerprint}
		if n.Inputs, err = normalizeAll(rec.Inputs); err != nil {
			return nil, fmt.Errorf("%w: inputs of '%s': %v", ErrCorrupt, p, err)
		}
		if n.Outputs, err = normalizeAll(rec.Outputs); err != nil {
			return nil, fmt.Errorf("%w: outputs of '%s': %v", ErrCorrupt, p, err)
		}
		out[p] = n
	}
	return out, nil
}

func normalizeAll(paths []string) ([]string, error) {
	if len(paths) == 0 {
		return nil, nil
	}
	out := make([]string, len(paths))
	for i, p := range paths {
		n, err := asset.NormalizePath(p)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Store persists a Snapshot as a single file.
type Store interface {
	// Path is the file backing the store. The tracker compares its modification
	// time against the build tool's binary.
	Path() string
	// Load reads the persisted snapshot. A missing file yields an empty snapshot
	// and no error; undecodable content yields an error wrapping ErrCorrupt.
	Load(ctx context.Context) (Snapshot, error)
	// Save replaces the persisted snapshot.
	Save(ctx context.Context, snap Snapshot) error
}
