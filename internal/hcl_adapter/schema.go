package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is the top-level structure of a manifest file.
type fileRoot struct {
	ContentRoot *string       `hcl:"content_root,optional"`
	Assets      []*assetBlock `hcl:"asset,block"`
}

type assetBlock struct {
	Path       string           `hcl:"path,label"`
	Processor  string           `hcl:"processor"`
	Parameters *parametersBlock `hcl:"parameters,block"`
	Bundles    []*bundleBlock   `hcl:"bundle,block"`
}

type bundleBlock struct {
	Name       string           `hcl:"name,label"`
	Parameters *parametersBlock `hcl:"parameters,block"`
}

// parametersBlock holds free-form attributes.
type parametersBlock struct {
	Body hcl.Body `hcl:",remain"`
}
