// Package hclstore persists the tracker snapshot as an HCL file:
//
//	version = 1
//	asset "textures/stone.png" {
//	  fingerprint = "9f2c..."
//	  inputs      = ["textures/stone.png"]
//	  outputs     = ["textures/stone.png"]
//	}
package hclstore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/trackerstore"
	"github.com/zclconf/go-cty/cty"
)

// formatVersion is written to every file; other versions are rejected as corrupt.
const formatVersion = 1

// Store is a trackerstore.Store backed by one HCL file.
type Store struct {
	path string
}

// New creates a store for the file at path. Nothing is read until Load.
func New(path string) *Store {
	return &Store{path: path}
}

// fileRoot is the decoding schema of a tracker file.
type fileRoot struct {
	Version int           `hcl:"version"`
	Assets  []*assetBlock `hcl:"asset,block"`
}

type assetBlock struct {
	Path        string   `hcl:"path,label"`
	Fingerprint string   `hcl:"fingerprint"`
	Inputs      []string `hcl:"inputs,optional"`
	Outputs     []string `hcl:"outputs,optional"`
}

// Path implements trackerstore.Store.
func (s *Store) Path() string { return s.path }

// Load implements trackerstore.Store.
func (s *Store) Load(ctx context.Context) (trackerstore.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return trackerstore.Snapshot{}, nil
		}
		return nil, fmt.Errorf("read tracker file %s: %w", s.path, err)
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(data, s.path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", trackerstore.ErrCorrupt, diags.Error())
	}

	var root fileRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", trackerstore.ErrCorrupt, diags.Error())
	}
	if root.Version != formatVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", trackerstore.ErrCorrupt, root.Version)
	}

	snap := make(trackerstore.Snapshot, len(root.Assets))
	for _, blk := range root.Assets {
		if _, dup := snap[blk.Path]; dup {
			return nil, fmt.Errorf("%w: asset '%s' recorded twice", trackerstore.ErrCorrupt, blk.Path)
		}
		snap[blk.Path] = &trackerstore.Record{
			AssetPath:   blk.Path,
			Fingerprint: blk.Fingerprint,
			Inputs:      blk.Inputs,
			Outputs:     blk.Outputs,
		}
	}
	return trackerstore.Normalize(snap)
}

// Save implements trackerstore.Store. Assets are written in path order so the
// file diffs cleanly between runs.
func (s *Store) Save(ctx context.Context, snap trackerstore.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := fsutil.WriteFileAtomic(s.path, Encode(snap), 0644); err != nil {
		return fmt.Errorf("write tracker file %s: %w", s.path, err)
	}
	return nil
}

// Encode renders snap in the tracker file format.
func Encode(snap trackerstore.Snapshot) []byte {
	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("version", cty.NumberIntVal(formatVersion))

	paths := make([]string, 0, len(snap))
	for p := range snap {
		paths = append(paths, p)
	}
	slices.Sort(paths)

	for _, p := range paths {
		rec := snap[p]
		body.AppendNewline()
		blk := body.AppendNewBlock("asset", []string{p}).Body()
		blk.SetAttributeValue("fingerprint", cty.StringVal(rec.Fingerprint))
		blk.SetAttributeValue("inputs", stringList(rec.Inputs))
		blk.SetAttributeValue("outputs", stringList(rec.Outputs))
	}
	return f.Bytes()
}

func stringList(items []string) cty.Value {
	if len(items) == 0 {
		return cty.ListValEmpty(cty.String)
	}
	vals := make([]cty.Value, len(items))
	for i, s := range items {
		vals[i] = cty.StringVal(s)
	}
	return cty.ListVal(vals)
}
