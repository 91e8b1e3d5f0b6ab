// Package config defines the bundle specification consumed by the bundler:
// the distribution to download, the package set to ship offline, and the
// working directories. Specs are YAML files with sensible defaults so an
// empty file (or no file at all) produces the standard bundle.
package config
