// Package bundler orchestrates the offline installer build: it provisions a
// temporary conda runtime, fetches the configured package set without
// installing it, copies the downloaded archives into a local offline channel,
// indexes the channel, and emits a platform install script plus a bundle
// manifest.
//
// The pipeline is a single forward-only sequence. No step is retried or
// skipped, and any failure aborts the run; a failed run is re-executed from
// the start after manual inspection.
package bundler
