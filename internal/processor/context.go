package processor

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/fsutil"
	"github.com/specialistvlad/assetgrid/internal/params"
)

// DependencyRecorder receives the files a processor declares. The dependency
// tracker implements it.
type DependencyRecorder interface {
	AddInputDependency(assetPath, file string) error
	AddOutputDependency(assetPath, file string) error
}

// Context is handed to a processor for a single invocation. It is safe for
// concurrent use by goroutines the processor starts itself.
type Context struct {
	Asset         *asset.Asset
	Bundle        string
	ContentFolder string
	OutputFolder  string
	// Parameters is a private copy of the resolved parameters.
	Parameters *params.Set

	bus      *buildlog.Bus
	deps     DependencyRecorder
	warnings atomic.Int32
}

// NewContext binds a processor invocation to its asset and collaborators.
// bus and deps may be nil.
func NewContext(a *asset.Asset, bundle, contentFolder, outputFolder string, set *params.Set, bus *buildlog.Bus, deps DependencyRecorder) *Context {
	return &Context{
		Asset:         a,
		Bundle:        bundle,
		ContentFolder: contentFolder,
		OutputFolder:  outputFolder,
		Parameters:    set.Clone(),
		bus:           bus,
		deps:          deps,
	}
}

// SourcePath is the absolute location of the asset's primary source file.
func (pc *Context) SourcePath() string {
	return pc.ContentPath(pc.Asset.Path)
}

// ContentPath resolves a content-relative slash path.
func (pc *Context) ContentPath(rel string) string {
	return filepath.Join(pc.ContentFolder, filepath.FromSlash(rel))
}

// OutputPath resolves an output-relative slash path.
func (pc *Context) OutputPath(rel string) string {
	return filepath.Join(pc.OutputFolder, filepath.FromSlash(rel))
}

// SiblingPath returns the content-relative path of name in the asset's
// directory.
func (pc *Context) SiblingPath(name string) string {
	return path.Join(path.Dir(pc.Asset.Path), name)
}

// Stem returns the asset path without its extension.
func (pc *Context) Stem() string {
	return strings.TrimSuffix(pc.Asset.Path, path.Ext(pc.Asset.Path))
}

// Log publishes a message tagged with the asset path.
func (pc *Context) Log(level buildlog.Level, msg string) {
	if level == buildlog.Warning {
		pc.warnings.Add(1)
	}
	pc.bus.Log(level, msg, pc.Asset.Path)
}

func (pc *Context) Errorf(format string, args ...any) {
	pc.Log(buildlog.Error, fmt.Sprintf(format, args...))
}

func (pc *Context) Warnf(format string, args ...any) {
	pc.Log(buildlog.Warning, fmt.Sprintf(format, args...))
}

func (pc *Context) Infof(format string, args ...any) {
	pc.Log(buildlog.Info, fmt.Sprintf(format, args...))
}

func (pc *Context) Verbosef(format string, args ...any) {
	pc.Log(buildlog.Verbose, fmt.Sprintf(format, args...))
}

// Warnings returns how many warnings were logged through this context.
func (pc *Context) Warnings() int {
	return int(pc.warnings.Load())
}

// AddInputDependency declares a file that was read. rel is relative to the
// content folder; an absolute path inside it is accepted too.
func (pc *Context) AddInputDependency(rel string) error {
	rel, err := relativeTo(pc.ContentFolder, rel)
	if err != nil {
		return fmt.Errorf("input dependency: %w", err)
	}
	if pc.deps == nil {
		return nil
	}
	return pc.deps.AddInputDependency(pc.Asset.Path, rel)
}

// AddOutputDependency declares a file that was written. rel is relative to the
// output folder; an absolute path inside it is accepted too.
func (pc *Context) AddOutputDependency(rel string) error {
	rel, err := relativeTo(pc.OutputFolder, rel)
	if err != nil {
		return fmt.Errorf("output dependency: %w", err)
	}
	if pc.deps == nil {
		return nil
	}
	return pc.deps.AddOutputDependency(pc.Asset.Path, rel)
}

// ReadInput reads a content-relative file and declares it as an input.
func (pc *Context) ReadInput(rel string) ([]byte, error) {
	clean, err := relativeTo(pc.ContentFolder, rel)
	if err != nil {
		return nil, fmt.Errorf("input dependency: %w", err)
	}
	data, err := os.ReadFile(pc.ContentPath(clean))
	if err != nil {
		return nil, err
	}
	if err := pc.AddInputDependency(clean); err != nil {
		return nil, err
	}
	return data, nil
}

// WriteOutput writes data to an output-relative path, creating directories as
// needed, and declares it as an output.
func (pc *Context) WriteOutput(rel string, data []byte) error {
	clean, err := relativeTo(pc.OutputFolder, rel)
	if err != nil {
		return fmt.Errorf("output dependency: %w", err)
	}
	if err := fsutil.WriteFileAtomic(pc.OutputPath(clean), data, 0644); err != nil {
		return fmt.Errorf("write output '%s': %w", clean, err)
	}
	return pc.AddOutputDependency(clean)
}

func relativeTo(root, p string) (string, error) {
	if filepath.IsAbs(p) {
		r, err := filepath.Rel(root, p)
		if err != nil {
			return "", err
		}
		p = r
	}
	clean, err := asset.NormalizePath(filepath.ToSlash(p))
	if err != nil {
		return "", fmt.Errorf("'%s' is outside %s: %w", p, root, err)
	}
	return clean, nil
}
