package asset

import (
	"fmt"
)

// Manifest is the ordered collection of assets declared for one content root.
// Asset paths are unique.
type Manifest struct {
	// ContentRoot is the directory asset paths are relative to.
	ContentRoot string
	// Assets in declaration order.
	Assets []*Asset

	index map[string]*Asset
}

// NewManifest creates an empty manifest rooted at contentRoot.
func NewManifest(contentRoot string) *Manifest {
	return &Manifest{
		ContentRoot: contentRoot,
		index:       make(map[string]*Asset),
	}
}

// Add appends an asset, rejecting a second asset with the same path.
func (m *Manifest) Add(a *Asset) error {
	if m.index == nil {
		m.index = make(map[string]*Asset)
	}
	if _, exists := m.index[a.Path]; exists {
		return fmt.Errorf("duplicate asset path '%s' in manifest", a.Path)
	}
	m.index[a.Path] = a
	m.Assets = append(m.Assets, a)
	return nil
}

// Lookup returns the asset declared at path.
func (m *Manifest) Lookup(path string) (*Asset, bool) {
	a, ok := m.index[path]
	return a, ok
}

// Len returns the number of assets.
func (m *Manifest) Len() int {
	return len(m.Assets)
}
