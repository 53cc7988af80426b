package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/specialistvlad/assetgrid/internal/processor"
)

// ErrUnknownProcessor is returned by Lookup for a name nothing registered.
var ErrUnknownProcessor = errors.New("unknown processor")

// Module is the interface that all processor modules must implement to be
// registered.
type Module interface {
	Register(r *Registry)
}

// Registry holds the processors of a single application instance.
type Registry struct {
	processors map[string]processor.Processor
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{processors: make(map[string]processor.Processor)}
}

// NewWithModules creates a Registry and lets every module register into it.
func NewWithModules(modules ...Module) *Registry {
	r := New()
	for _, m := range modules {
		m.Register(r)
	}
	return r
}

// RegisterProcessor adds p under its Describe().Name. Registering two
// processors with the same name is a programming error and panics.
func (r *Registry) RegisterProcessor(p processor.Processor) {
	name := p.Describe().Name
	if name == "" {
		panic("processor registered without a name")
	}
	if _, exists := r.processors[name]; exists {
		panic(fmt.Sprintf("processor with name '%s' already registered", name))
	}
	slog.Debug("Registering processor.", "name", name)
	r.processors[name] = p
}

// Lookup returns the processor registered under name.
func (r *Registry) Lookup(name string) (processor.Processor, error) {
	p, ok := r.processors[name]
	if !ok {
		return nil, fmt.Errorf("%w '%s'", ErrUnknownProcessor, name)
	}
	return p, nil
}

// Names returns the registered processor names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.processors))
	for name := range r.processors {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Details returns the self-description of every processor, sorted by name.
func (r *Registry) Details() []processor.Details {
	names := r.Names()
	out := make([]processor.Details, 0, len(names))
	for _, name := range names {
		out = append(out, r.processors[name].Describe())
	}
	return out
}
