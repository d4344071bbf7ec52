package integrators

import (
	"fmt"
	"math"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/track"
)

// Fourth-order symplectic integrator coefficients (Forest-Ruth).
const (
	drift1 = 0.6756035959798286638
	drift2 = -0.1756035959798286639
	kick1  = 1.351207191959657328
	kick2  = -1.702414383919314656
)

// multipoler is satisfied by every element carrying multipole coefficients.
type multipoler interface {
	element.Element
	Polynoms() (polyA, polyB []float64)
	Order() int
}

// stepped is satisfied by thick multipole elements.
type stepped interface {
	Steps() int
	Kicks() []float64
}

// multipoleData is the compile-time snapshot of a multipole element.
type multipoleData struct {
	polyA, polyB []float64
	maxOrder     int
	length       float64
	steps        int
	align        alignment
	lim          limits
}

func snapshotMultipole(el element.Element) (*multipoleData, error) {
	mp, ok := el.(multipoler)
	if !ok {
		return nil, fmt.Errorf("%s requires multipole coefficients, %T has none", el.Method(), el)
	}
	polyA, polyB := mp.Polynoms()
	d := &multipoleData{
		polyA:    cloneVec(polyA),
		polyB:    cloneVec(polyB),
		maxOrder: mp.Order(),
		length:   el.Len(),
		steps:    element.DefaultIntSteps,
		align:    snapshotAlignment(el),
		lim:      snapshotLimits(el),
	}
	if d.maxOrder >= len(d.polyA) || d.maxOrder >= len(d.polyB) {
		return nil, fmt.Errorf("multipole order %d exceeds polynomial length", d.maxOrder)
	}
	if st, ok := el.(stepped); ok {
		if st.Steps() > 0 {
			d.steps = st.Steps()
		}
		// Fold the corrector component into the dipole coefficients.
		if ka := st.Kicks(); len(ka) == 2 && d.length > 0 {
			d.polyB[0] -= math.Sin(ka[0]) / d.length
			d.polyA[0] += math.Sin(ka[1]) / d.length
		}
	}
	return d, nil
}

// strKick applies a thin multipole kick of integrated length l. The field is
// evaluated by a Horner recurrence over the complex polynomial
// sum (PolynomB[i] + i*PolynomA[i]) * (x + i*y)^i.
func strKick(r, polyA, polyB []float64, l float64, maxOrder int) {
	re := polyB[maxOrder]
	im := polyA[maxOrder]
	for i := maxOrder - 1; i >= 0; i-- {
		re, im = re*r[0]-im*r[2]+polyB[i], im*r[0]+re*r[2]+polyA[i]
	}
	r[1] -= l * re
	r[3] += l * im
}

// strMPolePass integrates a straight thick multipole with the 4th-order
// symplectic drift-kick scheme.
func strMPolePass(el element.Element) (track.Kernel, error) {
	d, err := snapshotMultipole(el)
	if err != nil {
		return nil, err
	}
	sl := d.length / float64(d.steps)
	l1, l2 := sl*drift1, sl*drift2
	k1, k2 := sl*kick1, sl*kick2
	return func(r []float64, p *track.Params) {
		d.align.enter(r)
		if d.lim.check(r) {
			return
		}
		for m := 0; m < d.steps; m++ {
			drift(r, l1)
			strKick(r, d.polyA, d.polyB, k1, d.maxOrder)
			drift(r, l2)
			strKick(r, d.polyA, d.polyB, k2, d.maxOrder)
			drift(r, l2)
			strKick(r, d.polyA, d.polyB, k1, d.maxOrder)
			drift(r, l1)
		}
		if d.lim.check(r) {
			return
		}
		d.align.exit(r)
	}, nil
}

// thinMPolePass applies the multipole coefficients as a single integrated
// kick.
func thinMPolePass(el element.Element) (track.Kernel, error) {
	mp, ok := el.(multipoler)
	if !ok {
		return nil, fmt.Errorf("ThinMPolePass requires multipole coefficients, %T has none", el)
	}
	polyA, polyB := mp.Polynoms()
	d := &multipoleData{
		polyA:    cloneVec(polyA),
		polyB:    cloneVec(polyB),
		maxOrder: mp.Order(),
		align:    snapshotAlignment(el),
		lim:      snapshotLimits(el),
	}
	if d.maxOrder >= len(d.polyA) || d.maxOrder >= len(d.polyB) {
		return nil, fmt.Errorf("multipole order %d exceeds polynomial length", d.maxOrder)
	}
	return func(r []float64, p *track.Params) {
		d.align.enter(r)
		if d.lim.check(r) {
			return
		}
		strKick(r, d.polyA, d.polyB, 1, d.maxOrder)
		d.align.exit(r)
	}, nil
}
