package config

import (
	"context"

	"github.com/specialistvlad/assetgrid/internal/asset"
)

// Loader is the interface for a format-specific manifest loader.
type Loader interface {
	// Load reads every manifest file found at paths (files or directories)
	// and merges them into one manifest.
	Load(ctx context.Context, paths ...string) (*asset.Manifest, error)
}
