// Package app wires the lattice loaders, the pass method registry and the
// tracking engine into a runnable application. It owns configuration
// layering (file, environment, flags) and the logger.
package app
