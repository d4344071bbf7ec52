package integrators

import (
	"fmt"
	"math"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/lattice"
	"github.com/vk/latticego/internal/track"
)

// cavityPass applies the RF cavity energy kick
//
//	dp += (V/E) * sin(2*pi*f*(ct - TimeLag)/c)
//
// split around two half drifts when the cavity has a length.
func cavityPass(el element.Element) (track.Kernel, error) {
	cav, ok := el.(*element.RFCavity)
	if !ok {
		return nil, fmt.Errorf("CavityPass requires an RF cavity element, got %T", el)
	}
	if cav.Energy <= 0 {
		return nil, fmt.Errorf("cavity %s has no energy set", cav.FamName())
	}
	nv := cav.Voltage / cav.Energy
	twoPiF := 2 * math.Pi * cav.Frequency
	lag := cav.TimeLag
	half := cav.Length / 2
	kick := func(r []float64) {
		r[4] += -nv * math.Sin(twoPiF*(r[5]-lag)/lattice.C0)
	}
	if cav.Length == 0 {
		return func(r []float64, p *track.Params) {
			kick(r)
		}, nil
	}
	return func(r []float64, p *track.Params) {
		drift(r, half)
		kick(r)
		drift(r, half)
	}, nil
}
