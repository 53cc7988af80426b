// Package asset describes the content items a build operates on: an Asset, its
// named Bundle variants and the Manifest that collects them.
package asset

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"path"
	"slices"

	"github.com/specialistvlad/assetgrid/internal/params"
)

// ErrUnknownBundle is returned when a bundle name has no matching entry.
var ErrUnknownBundle = errors.New("unknown bundle")

// Bundle is a named build variant whose parameters override the asset's base
// parameters.
type Bundle struct {
	Name               string
	OverrideParameters *params.Set
}

// Asset is one declared content item. Path is its identity within a manifest
// and in the dependency tracker.
type Asset struct {
	Path           string
	ProcessorName  string
	BaseParameters *params.Set
	Bundles        map[string]*Bundle
}

// New creates an asset with a normalized path and empty parameters.
func New(p, processorName string) (*Asset, error) {
	norm, err := NormalizePath(p)
	if err != nil {
		return nil, err
	}
	return &Asset{
		Path:           norm,
		ProcessorName:  processorName,
		BaseParameters: params.NewSet(),
		Bundles:        make(map[string]*Bundle),
	}, nil
}

// Name returns the file name of the asset, extension included.
func (a *Asset) Name() string {
	return path.Base(a.Path)
}

// AddBundle registers a bundle, replacing any bundle of the same name.
func (a *Asset) AddBundle(b *Bundle) {
	if a.Bundles == nil {
		a.Bundles = make(map[string]*Bundle)
	}
	a.Bundles[b.Name] = b
}

// HasBundle reports whether the asset declares a bundle called name.
func (a *Asset) HasBundle(name string) bool {
	_, ok := a.Bundles[name]
	return ok
}

// BundleNames returns the declared bundle names, sorted.
func (a *Asset) BundleNames() []string {
	names := make([]string, 0, len(a.Bundles))
	for n := range a.Bundles {
		names = append(names, n)
	}
	slices.Sort(names)
	return names
}

// ResolvedParameters returns a fresh set holding the base parameters with the
// named bundle's overrides merged on top. An empty bundle name yields the base
// parameters alone.
func (a *Asset) ResolvedParameters(bundle string) (*params.Set, error) {
	resolved := a.BaseParameters.Clone()
	if bundle == "" {
		return resolved, nil
	}
	b, ok := a.Bundles[bundle]
	if !ok {
		return nil, fmt.Errorf("asset '%s': %w '%s'", a.Path, ErrUnknownBundle, bundle)
	}
	resolved.Merge(b.OverrideParameters)
	return resolved, nil
}

// Fingerprint identifies the semantic input of a build of this asset: its path,
// processor and fully resolved parameters.
func (a *Asset) Fingerprint(bundle string) (string, error) {
	return a.FingerprintWith(bundle, params.HashSorted)
}

// FingerprintWith is Fingerprint with an explicit parameter hash mode.
func (a *Asset) FingerprintWith(bundle string, mode params.HashMode) (string, error) {
	resolved, err := a.ResolvedParameters(bundle)
	if err != nil {
		return "", err
	}
	h := sha256.New()
	h.Write([]byte(a.Path))
	h.Write([]byte{0})
	h.Write([]byte(a.ProcessorName))
	h.Write([]byte{0})
	h.Write([]byte(resolved.HashWith(mode)))
	return hex.EncodeToString(h.Sum(nil)), nil
}
