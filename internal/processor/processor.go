package processor

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/specialistvlad/assetgrid/internal/params"
)

// ErrProcessorFailure matches every error wrapped in an *Error.
var ErrProcessorFailure = errors.New("processor failure")

// Processor converts one source asset into output files.
type Processor interface {
	// Describe returns static metadata. It must not depend on any asset.
	Describe() Details
	// Process builds pc.Asset. Implementations must be safe for concurrent
	// use on different assets.
	Process(ctx context.Context, pc *Context) error
}

// Parameter documents one parameter a processor reads.
type Parameter struct {
	Name        string
	Description string
	Group       string
	Kind        params.Kind
	Default     params.Value
	// Options lists the allowed tags of an enum parameter.
	Options []string
}

// Details is the self-description of a processor.
type Details struct {
	Name        string
	Description string
	// Extensions lists source file extensions the processor is meant for,
	// lowercase with a leading dot.
	Extensions []string
	Parameters []Parameter
	// ExtraParameters accepts parameter names beyond Parameters, for
	// processors that hand arbitrary parameters to user code.
	ExtraParameters bool
}

// Parameter looks up a declared parameter by name.
func (d Details) Parameter(name string) (Parameter, bool) {
	i := slices.IndexFunc(d.Parameters, func(p Parameter) bool { return p.Name == name })
	if i < 0 {
		return Parameter{}, false
	}
	return d.Parameters[i], true
}

// Defaults returns the declared defaults in declaration order.
func (d Details) Defaults() *params.Set {
	set := params.NewSet()
	for _, p := range d.Parameters {
		set.Set(p.Name, p.Default)
	}
	return set
}

// Error is a failure reported by a processor for one asset.
type Error struct {
	Asset     string
	Processor string
	Err       error
}

func (e *Error) Error() string {
	return fmt.Sprintf("processor '%s' failed on asset '%s': %v", e.Processor, e.Asset, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is makes every *Error match ErrProcessorFailure.
func (e *Error) Is(target error) bool { return target == ErrProcessorFailure }
