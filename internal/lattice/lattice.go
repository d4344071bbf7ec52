// Package lattice provides the ring container and helper functions for
// working with element sequences.
//
// The reference point helpers select observation points in a ring. Indexing
// runs from zero (the start of the first element) to n (the end of the last
// element).
package lattice

import (
	"github.com/vk/latticego/internal/element"
)

// Speed of light in vacuum, m/s.
const C0 = 299792458.0

// Lattice is a named ordered sequence of elements with ring-wide parameters.
type Lattice struct {
	// Name identifies the lattice, usually the source file or cell name.
	Name string
	// Energy is the nominal beam energy in eV.
	Energy float64
	// Periodicity is the number of super-periods making up the full ring.
	Periodicity int
	// Elements is the element sequence.
	Elements []element.Element
}

// Length returns the total path length of the ring.
func (l *Lattice) Length() float64 {
	return Length(l.Elements)
}

// RevolutionTime returns the revolution time T0 = L/c of the ring.
func (l *Lattice) RevolutionTime() float64 {
	return l.Length() / C0
}

// Length returns the sum of element lengths of a ring.
func Length(ring []element.Element) float64 {
	var sum float64
	for _, el := range ring {
		sum += el.Len()
	}
	return sum
}

// SPos returns the s positions of the given reference points. A nil refs
// selects every point from the start of the ring to the end of the last
// element.
func SPos(ring []element.Element, refs []int) []float64 {
	// Positions at the end of each element, with the start of the first
	// element prepended.
	spos := make([]float64, len(ring)+1)
	for i, el := range ring {
		spos[i+1] = spos[i] + el.Len()
	}
	if refs == nil {
		return spos
	}
	out := make([]float64, len(refs))
	for i, r := range refs {
		out[i] = spos[r]
	}
	return out
}
