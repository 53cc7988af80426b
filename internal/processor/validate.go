package processor

import (
	"fmt"
	"slices"

	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// ValidateParameters checks set against the parameters d declares. Unknown
// names, unless d accepts extra parameters, and values that do not convert to the declared kind are reported, one
// error per parameter, in the set's order.
func ValidateParameters(d Details, set *params.Set) []error {
	var errs []error
	for _, name := range set.Keys() {
		v, _ := set.Get(name)
		decl, ok := d.Parameter(name)
		if !ok {
			if d.ExtraParameters {
				continue
			}
			errs = append(errs, fmt.Errorf("processor '%s' has no parameter '%s'", d.Name, name))
			continue
		}
		if err := checkKind(decl, v); err != nil {
			errs = append(errs, fmt.Errorf("parameter '%s': %w", name, err))
		}
	}
	return errs
}

func checkKind(decl Parameter, v params.Value) error {
	raw := cty.StringVal(v.String())
	switch decl.Kind {
	case params.KindInt:
		n, err := convert.Convert(raw, cty.Number)
		if err != nil {
			return fmt.Errorf("'%s' is not a number", v)
		}
		if !n.AsBigFloat().IsInt() {
			return fmt.Errorf("'%s' is not a whole number", v)
		}
	case params.KindFloat:
		if _, err := convert.Convert(raw, cty.Number); err != nil {
			return fmt.Errorf("'%s' is not a number", v)
		}
	case params.KindBool:
		if _, err := convert.Convert(raw, cty.Bool); err != nil {
			return fmt.Errorf("'%s' is not a bool", v)
		}
	case params.KindEnum:
		if !slices.Contains(decl.Options, v.String()) {
			return fmt.Errorf("'%s' is not one of %v", v, decl.Options)
		}
	}
	return nil
}
