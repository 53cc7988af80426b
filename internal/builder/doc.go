// Package builder orchestrates an incremental build of a manifest.
//
// # How It Works
//
// For every asset of the manifest the builder:
//  1. **Resolves the bundle:** the build parameter named by Options.BundleKey
//     selects one of the asset's bundles; assets without that bundle build
//     with their base parameters.
//  2. **Checks staleness:** the dependency tracker compares the asset's
//     fingerprint and the modification times of the files recorded on the
//     last successful build.
//  3. **Processes stale assets:** tracking restarts from scratch, the primary
//     source is recorded as the first input, and the processor named by the
//     asset runs with a processor.Context bound to the asset.
//  4. **Records the outcome:** a failed asset loses its tracking record so the
//     next run retries it; a successful one keeps the dependencies the
//     processor declared.
//
// Assets are independent. They are drained from a channel by a fixed number of
// workers, and a failure never prevents other assets from building unless
// Options.FailFast is set. After all workers return, the tracker is saved once.
//
// # Status Protocol
//
// Every asset is announced as Waiting before any work starts, then moves to
// Building and finally to exactly one of Skipped, Success, SuccessWithWarning
// or Failed. Assets that were never started because the build was cancelled
// stay Waiting and are counted as aborted in the Report.
package builder
