// Package conda wraps invocations of the conda binary inside the scratch
// install: download-only fetches, cache cleaning, bulk updates, and channel
// indexing. Every invocation runs with CONDARC pointed at the bundle's
// pinning condarc, and on Windows with Library\bin prepended to PATH so
// conda can locate its crypto libraries.
package conda
