// Package processor defines the contract between the builder and the code that
// turns one source asset into output files.
//
// A Processor is invoked once per stale asset with a Context. Through the
// Context it reads its parameters, resolves paths, logs messages on the build
// bus and declares every file it read or wrote, so that the dependency tracker
// can tell on the next run whether the asset is still up to date.
package processor
