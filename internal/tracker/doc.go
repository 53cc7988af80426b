// Package tracker implements the dependency tracker: the in-memory index of
// what every asset was last built with, the staleness decision, and loading
// and saving that index through a trackerstore.Store.
//
// # Staleness
//
// An asset is stale, checked in this order, when:
//   - it has no record (untracked),
//   - its current fingerprint differs from the recorded one,
//   - a recorded input file is missing,
//   - a recorded output file is missing,
//   - the newest input is newer than the oldest output.
//
// Any uncertainty means rebuild.
//
// # Concurrency
//
// A single mutex guards the record index. Workers building different assets
// call BeginTracking and the Add*Dependency methods concurrently; file stats
// done by IsStale happen outside the lock on a copy of the record.
package tracker
