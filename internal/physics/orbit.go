// Package physics computes linear optics quantities from tracking: closed
// orbit, transfer matrices, Twiss parameters, tune and chromaticity.
package physics

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/vk/latticego/internal/ctxlog"
	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/track"
)

const (
	orbitStep          = 1e-6
	orbitConvergence   = 1e-12
	orbitMaxIterations = 20
)

// FindOrbit4 finds the closed orbit in the 4-d transverse phase space by
// numerically solving for a fixed point of the one-turn map under the
// constant momentum constraint dp = const, with no constraint on ct.
//
// A physical storage ring does the opposite: the momentum of the particle on
// the closed orbit settles so that the revolution stays synchronous with the
// RF cavity. To impose the artificial constant-dp constraint, the pass
// methods in the ring must not change dp (cavities, radiating magnets) and
// must not be time dependent.
//
// It returns the closed orbit at the start of the ring and at each requested
// reference point.
func FindOrbit4(ctx context.Context, eng *track.Engine, ring []element.Element, dp float64, refs []int) ([]float64, [][]float64, error) {
	logger := ctxlog.FromContext(ctx)

	// Newton iteration on g(r) = f(r) - r, where f is the one-turn map:
	// r' = r - (J4 - I)^-1 (f(r) - r), with J4 the Jacobian of f from
	// numerical differentiation.
	rin := make([]float64, 6)
	rin[4] = dp
	keep := false
	for iter := 0; iter < orbitMaxIterations; iter++ {
		// Reference particle plus four probes displaced along each
		// transverse coordinate.
		probes := make([][]float64, 5)
		for i := range probes {
			probes[i] = append([]float64(nil), rin...)
			if i < 4 {
				probes[i][i] += orbitStep
			}
		}
		if _, err := eng.Track(ctx, ring, probes, 1, track.Options{KeepLattice: keep}); err != nil {
			return nil, nil, fmt.Errorf("closed orbit search: %w", err)
		}
		keep = true

		refOut := probes[4]
		a := mat.NewDense(4, 4, nil)
		b := mat.NewVecDense(4, nil)
		for i := 0; i < 4; i++ {
			for j := 0; j < 4; j++ {
				jac := (probes[j][i] - refOut[i]) / orbitStep
				if i == j {
					jac -= 1
				}
				a.Set(i, j, jac)
			}
			b.SetVec(i, refOut[i]-rin[i])
		}

		var qr mat.QR
		qr.Factorize(a)
		var step mat.VecDense
		if err := qr.SolveVecTo(&step, false, b); err != nil {
			return nil, nil, fmt.Errorf("closed orbit search: singular one-turn map: %w", err)
		}

		change := 0.0
		for i := 0; i < 4; i++ {
			d := step.AtVec(i)
			rin[i] -= d
			change += d * d
		}
		if change < orbitConvergence*orbitConvergence {
			logger.Debug("Closed orbit converged.", "iterations", iter+1)
			break
		}
	}

	probe := [][]float64{append([]float64(nil), rin...)}
	result, err := eng.Track(ctx, ring, probe, 1, track.Options{RefPts: refs, KeepLattice: true})
	if err != nil {
		return nil, nil, fmt.Errorf("closed orbit search: %w", err)
	}
	at := make([][]float64, len(result.RefPts))
	for i := range at {
		at[i] = append([]float64(nil), result.At(0, i, 0)[:4]...)
	}
	return rin[:4], at, nil
}
