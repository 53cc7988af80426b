// Package hcl_adapter implements config.Loader for HCL manifests.
//
// A manifest file declares an optional content root and any number of assets:
//
//	content_root = "content"
//
//	asset "textures/stone.png" {
//	  processor = "texture"
//	  parameters {
//	    max_size = 1024
//	    mipmaps  = true
//	  }
//	  bundle "android" {
//	    parameters { max_size = 512 }
//	  }
//	}
//
// Parameter attributes keep their source order. Strings, whole numbers,
// fractional numbers and bools become the matching params.Value kinds.
package hcl_adapter
