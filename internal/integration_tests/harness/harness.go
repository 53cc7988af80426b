// Package harness runs the assetgrid command line against a project laid out
// in a temporary directory.
package harness

import (
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/specialistvlad/assetgrid/internal/cli"
	"github.com/specialistvlad/assetgrid/internal/imaging"
	"github.com/specialistvlad/assetgrid/internal/registry"
	"github.com/specialistvlad/assetgrid/internal/testutil"
	"github.com/stretchr/testify/require"
)

// Project is a content project on disk.
type Project struct {
	t       *testing.T
	Dir     string
	OutDir  string
	modules []registry.Module
}

// Result captures one command run.
type Result struct {
	Output string
	Err    error
}

// NewProject writes files (slash path → content) into a fresh directory.
// modules replace the compiled-in processors when given.
func NewProject(t *testing.T, files map[string]string, modules ...registry.Module) *Project {
	t.Helper()
	dir := t.TempDir()
	testutil.WriteFiles(t, dir, files)
	// Outputs live outside Dir so generated .hcl files never join the manifest.
	return &Project{t: t, Dir: dir, OutDir: t.TempDir(), modules: modules}
}

// Path resolves a project-relative slash path.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.Dir, filepath.FromSlash(rel))
}

// Run executes a command against the project manifest and output folder.
func (p *Project) Run(command string, extra ...string) Result {
	p.t.Helper()
	args := append([]string{command, "--manifest", p.Dir, "--output", p.OutDir, "--log-level", "verbose"}, extra...)
	out := &testutil.SafeBuffer{}
	err := cli.Run(context.Background(), args, out, p.modules...)
	return Result{Output: out.String(), Err: err}
}

// Write replaces or adds project files.
func (p *Project) Write(files map[string]string) {
	p.t.Helper()
	testutil.WriteFiles(p.t, p.Dir, files)
}

// Output reads a file from the output folder.
func (p *Project) Output(rel string) string {
	p.t.Helper()
	return testutil.ReadFile(p.t, filepath.Join(p.OutDir, filepath.FromSlash(rel)))
}

// OutputImage decodes an image from the output folder.
func (p *Project) OutputImage(rel string) image.Image {
	p.t.Helper()
	data, err := os.ReadFile(filepath.Join(p.OutDir, filepath.FromSlash(rel)))
	require.NoError(p.t, err)
	img, _, err := imaging.Decode(data)
	require.NoError(p.t, err)
	return img
}

// PNG returns an encoded w×h image filled with c, ready to be used as file
// content.
func PNG(t *testing.T, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	data, err := imaging.EncodePNG(img)
	require.NoError(t, err)
	return string(data)
}
