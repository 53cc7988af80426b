package hcl_adapter

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// ContentRoot, when set, wins over content_root in the files.
	ContentRoot string
}

// NewLoader creates a new HCL manifest loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Load parses every .hcl file found at paths, in lexical order per directory,
// and merges their assets into one manifest. Two assets with the same path are
// an error, as are files that disagree on content_root.
func (l *Loader) Load(ctx context.Context, paths ...string) (*asset.Manifest, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := l.findAllHCLFiles(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no manifest files found in %v", paths)
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var (
		roots     []*fileRoot
		declRoot  string
		declaring string
	)

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}
		roots = append(roots, &root)

		if root.ContentRoot != nil {
			dir := *root.ContentRoot
			if !filepath.IsAbs(dir) {
				dir = filepath.Join(filepath.Dir(file), dir)
			}
			dir = filepath.Clean(dir)
			if declaring != "" && dir != declRoot {
				return nil, fmt.Errorf("content_root of %s (%s) conflicts with %s (%s)", file, dir, declaring, declRoot)
			}
			declRoot, declaring = dir, file
		}
	}

	contentRoot := l.ContentRoot
	switch {
	case contentRoot != "":
	case declRoot != "":
		contentRoot = declRoot
	default:
		contentRoot = defaultContentRoot(paths[0])
	}

	m := asset.NewManifest(contentRoot)
	for i, root := range roots {
		for _, blk := range root.Assets {
			a, err := translateAsset(ctx, blk)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", files[i], err)
			}
			if err := m.Add(a); err != nil {
				return nil, fmt.Errorf("%s: %w", files[i], err)
			}
		}
	}

	logger.Debug("HCL loading complete.", "assets", m.Len(), "content_root", contentRoot)
	return m, nil
}

// findAllHCLFiles walks all given paths and returns a flat list of all .hcl
// files found, without duplicates.
func (l *Loader) findAllHCLFiles(paths []string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]struct{})
	add := func(p string) {
		if _, wasSeen := seen[p]; !wasSeen {
			allFiles = append(allFiles, p)
			seen[p] = struct{}{}
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("manifest path %s does not exist", path)
			}
			return nil, fmt.Errorf("error accessing path %s: %w", path, err)
		}

		if !info.IsDir() {
			add(path)
			continue
		}
		found, err := fsutil.FindFilesByExtension(path, ".hcl")
		if err != nil {
			return nil, err
		}
		for _, f := range found {
			add(f)
		}
	}
	return allFiles, nil
}

// defaultContentRoot is the manifest directory itself, or the directory of a
// single manifest file.
func defaultContentRoot(p string) string {
	if info, err := os.Stat(p); err == nil && info.IsDir() {
		return filepath.Clean(p)
	}
	return filepath.Dir(p)
}
