package registry

import (
	"context"
	"fmt"
	"strings"

	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/specialistvlad/assetgrid/internal/processor"
)

// ValidateRegistry checks that every registered processor describes itself
// consistently: unique parameter names, enum parameters with options, and
// defaults that fit their declared kind.
func (r *Registry) ValidateRegistry(ctx context.Context) error {
	var errs []string
	logger := ctxlog.FromContext(ctx)

	for _, d := range r.Details() {
		seen := make(map[string]struct{}, len(d.Parameters))
		for _, p := range d.Parameters {
			if _, dup := seen[p.Name]; dup {
				errs = append(errs, fmt.Sprintf("processor '%s': parameter '%s' declared twice", d.Name, p.Name))
			}
			seen[p.Name] = struct{}{}

			if p.Kind == params.KindEnum && len(p.Options) == 0 {
				errs = append(errs, fmt.Sprintf("processor '%s': enum parameter '%s' has no options", d.Name, p.Name))
			}
			if p.Description == "" {
				logger.Warn("Processor parameter has no description.", "processor", d.Name, "parameter", p.Name)
			}
		}

		for _, err := range processor.ValidateParameters(d, d.Defaults()) {
			errs = append(errs, fmt.Sprintf("processor '%s': default %v", d.Name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("registry validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}
