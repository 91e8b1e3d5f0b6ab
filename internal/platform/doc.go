// Package platform describes per-OS installer conventions: installer
// filename patterns, conda channel architectures, and the layout of a
// conda install prefix. The bundler selects a Descriptor for the host
// platform instead of branching on runtime.GOOS throughout the pipeline.
package platform
