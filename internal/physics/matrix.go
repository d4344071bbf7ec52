package physics

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/lattice"
	"github.com/vk/latticego/internal/track"
)

// XYDefStep is the default transverse step used for numerical
// differentiation of the one-turn map.
const XYDefStep = 6.055454452393343e-6

const eps66 = 1e-10

// FindM44 determines the 4x4 one-turn matrix of the ring on the closed
// orbit, together with the cumulative transfer matrices at the requested
// reference points. A nil orbit4 makes it find the closed orbit first.
func FindM44(ctx context.Context, eng *track.Engine, ring []element.Element, dp float64, refs []int, orbit4 []float64) ([4][4]float64, [][4][4]float64, error) {
	var m44 [4][4]float64

	// The end of the ring is needed for the overall matrix. Remember
	// whether it was requested so it can be trimmed from the output.
	refs, err := lattice.URefPts(refs, len(ring))
	if err != nil {
		return m44, nil, err
	}
	lastRequested := refs[len(refs)-1] == len(ring)
	if !lastRequested {
		refs = append(refs, len(ring))
	}

	keep := false
	if orbit4 == nil {
		orbit4, _, err = FindOrbit4(ctx, eng, ring, dp, nil)
		if err != nil {
			return m44, nil, err
		}
		keep = true
	}

	// Probe pairs displaced by +-XYStep/2 along each transverse
	// coordinate around the closed orbit.
	probes := make([][]float64, 8)
	for i := range probes {
		p := make([]float64, 6)
		copy(p, orbit4)
		p[4] = dp
		if i < 4 {
			p[i] += 0.5 * XYDefStep
		} else {
			p[i-4] -= 0.5 * XYDefStep
		}
		probes[i] = p
	}

	result, err := eng.Track(ctx, ring, probes, 1, track.Options{RefPts: refs, KeepLattice: keep})
	if err != nil {
		return m44, nil, fmt.Errorf("transfer matrix: %w", err)
	}

	mstack := make([][4][4]float64, len(refs))
	for ref := range refs {
		for j := 0; j < 4; j++ {
			plus := result.At(0, ref, j)
			minus := result.At(0, ref, j+4)
			for i := 0; i < 4; i++ {
				mstack[ref][i][j] = (plus[i] - minus[i]) / XYDefStep
			}
		}
	}
	m44 = mstack[len(mstack)-1]
	if !lastRequested {
		mstack = mstack[:len(mstack)-1]
	}
	return m44, mstack, nil
}

// M66 returns the 6x6 one-turn matrix of the ring from unit-scaled
// differences around the zero orbit.
func M66(ctx context.Context, eng *track.Engine, ring []element.Element) (*mat.Dense, error) {
	probes := make([][]float64, 6)
	for i := range probes {
		probes[i] = make([]float64, 6)
		probes[i][i] = eps66
	}
	result, err := eng.Track(ctx, ring, probes, 1, track.Options{})
	if err != nil {
		return nil, fmt.Errorf("one-turn matrix: %w", err)
	}
	m := mat.NewDense(6, 6, nil)
	for i := 0; i < 6; i++ {
		out := result.At(0, 0, i)
		for j := 0; j < 6; j++ {
			m.Set(j, i, out[j]/eps66)
		}
	}
	return m, nil
}
