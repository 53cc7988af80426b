// Package registry provides the glue between manifests and compiled
// processors.
//
// Manifests name a processor by string (processor = "texture"); the Registry
// maps those names to the Processor implementations compiled into the binary.
// Modules add their processors through Register during application startup,
// after which the registry is validated and only read.
package registry
