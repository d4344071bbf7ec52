// Package load reads lattice descriptions from files. Formats are
// registered by file extension.
package load

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/lattice"
)

// Options carries the parameters some formats cannot express themselves.
type Options struct {
	// Energy is the nominal beam energy in eV. Required by the Elegant
	// format.
	Energy float64
	// HarmonicNumber is the RF harmonic number. Required by the Elegant
	// format.
	HarmonicNumber int
	// LatticeKey names the sequence to expand. Required by the Elegant
	// format; defaults to "cell" for Tracy files.
	LatticeKey string
}

// Format describes a registered lattice file format.
type Format struct {
	Load        func(path string, opts Options) (*lattice.Lattice, error)
	Description string
}

var formats = map[string]Format{
	".lat": {Load: loadTracy, Description: "Tracy format"},
	".lte": {Load: loadElegant, Description: "Elegant format"},
	".hcl": {Load: loadHCL, Description: "native HCL format"},
}

// Register registers a loader for a file extension (including the dot).
func Register(ext string, f Format) {
	if _, exists := formats[ext]; exists {
		panic(fmt.Sprintf("lattice format '%s' already registered", ext))
	}
	formats[ext] = f
}

// Formats returns the registered extensions and their descriptions.
func Formats() map[string]string {
	out := make(map[string]string, len(formats))
	for ext, f := range formats {
		out[ext] = f.Description
	}
	return out
}

// File loads a lattice, choosing the format from the file extension.
func File(path string, opts Options) (*lattice.Lattice, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formats[ext]
	if !ok {
		exts := make([]string, 0, len(formats))
		for e := range formats {
			exts = append(exts, e)
		}
		sort.Strings(exts)
		return nil, fmt.Errorf("unknown lattice format %q, expected one of %s", ext, strings.Join(exts, ", "))
	}
	return f.Load(path, opts)
}

// flipped returns the line in reverse order with all elements shared.
func flipped(line []element.Element) []element.Element {
	out := make([]element.Element, len(line))
	for i, el := range line {
		out[len(line)-1-i] = el
	}
	return out
}

// reversed returns the line in reverse order. Dipoles are replaced by copies
// with entrance and exit angles swapped; other elements are shared.
func reversed(line []element.Element) []element.Element {
	out := make([]element.Element, 0, len(line))
	for i := len(line) - 1; i >= 0; i-- {
		if d, ok := line[i].(*element.Dipole); ok {
			c := d.Copy().(*element.Dipole)
			c.EntranceAngle, c.ExitAngle = d.ExitAngle, d.EntranceAngle
			c.FringeInt1, c.FringeInt2 = d.FringeInt2, d.FringeInt1
			out = append(out, c)
			continue
		}
		out = append(out, line[i])
	}
	return out
}
