package hcl_adapter

import (
	"context"
	"fmt"
	"math/big"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/specialistvlad/assetgrid/internal/asset"
	"github.com/specialistvlad/assetgrid/internal/ctxlog"
	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/zclconf/go-cty/cty"
)

func translateAsset(ctx context.Context, blk *assetBlock) (*asset.Asset, error) {
	a, err := asset.New(blk.Path, blk.Processor)
	if err != nil {
		return nil, err
	}
	if blk.Processor == "" {
		return nil, fmt.Errorf("asset '%s' has an empty processor", a.Path)
	}

	base, err := translateParameters(ctx, blk.Parameters)
	if err != nil {
		return nil, fmt.Errorf("asset '%s': %w", a.Path, err)
	}
	a.BaseParameters = base

	for _, b := range blk.Bundles {
		if a.HasBundle(b.Name) {
			return nil, fmt.Errorf("asset '%s': bundle '%s' declared twice", a.Path, b.Name)
		}
		override, err := translateParameters(ctx, b.Parameters)
		if err != nil {
			return nil, fmt.Errorf("asset '%s', bundle '%s': %w", a.Path, b.Name, err)
		}
		a.AddBundle(&asset.Bundle{Name: b.Name, OverrideParameters: override})
	}

	ctxlog.FromContext(ctx).Debug("Translated asset.", "asset", a.Path, "processor", a.ProcessorName,
		"parameters", a.BaseParameters.Len(), "bundles", len(a.Bundles))
	return a, nil
}

// translateParameters evaluates the attributes of a parameters block in
// source order.
func translateParameters(ctx context.Context, blk *parametersBlock) (*params.Set, error) {
	set := params.NewSet()
	if blk == nil || blk.Body == nil {
		return set, nil
	}
	attrs, diags := blk.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, fmt.Errorf("invalid parameters block: %w", diags)
	}

	ordered := make([]*hcl.Attribute, 0, len(attrs))
	for _, attr := range attrs {
		ordered = append(ordered, attr)
	}
	slices.SortFunc(ordered, func(a, b *hcl.Attribute) int {
		return a.Range.Start.Byte - b.Range.Start.Byte
	})

	for _, attr := range ordered {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parameter '%s': %w", attr.Name, diags)
		}
		v, err := valueFromCty(val)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter '%s': %w", attr.Range, attr.Name, err)
		}
		set.Set(attr.Name, v)
	}
	return set, nil
}

// valueFromCty maps a primitive HCL value onto a parameter value.
func valueFromCty(val cty.Value) (params.Value, error) {
	if val.IsNull() {
		return params.Value{}, fmt.Errorf("value must not be null")
	}
	if !val.IsKnown() {
		return params.Value{}, fmt.Errorf("value must be known")
	}
	switch val.Type() {
	case cty.String:
		return params.String(val.AsString()), nil
	case cty.Bool:
		return params.Bool(val.True()), nil
	case cty.Number:
		bf := val.AsBigFloat()
		if bf.IsInt() {
			if i, acc := bf.Int64(); acc == big.Exact {
				return params.Int(i), nil
			}
		}
		f, _ := bf.Float64()
		return params.Float(f), nil
	default:
		return params.Value{}, fmt.Errorf("unsupported type %s, expected string, number or bool", val.Type().FriendlyName())
	}
}
