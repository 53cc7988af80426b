// Package config defines the format-agnostic entry point for loading build
// manifests.
//
// The asset.Manifest is the single source of truth for the builder. Concrete
// Loader implementations, such as the HCL one in hcl_adapter, turn files on
// disk into that model.
package config
