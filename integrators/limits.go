package integrators

import "math"

// limits holds the physical aperture snapshot of an element. Rectangular
// limits are [xmin xmax ymin ymax], elliptic limits [rx ry].
type limits struct {
	rect []float64
	ell  []float64
}

type bounded interface {
	Apertures() (rect, ell []float64)
}

// snapshotLimits copies the element apertures, if any, at compile time.
func snapshotLimits(el any) limits {
	b, ok := el.(bounded)
	if !ok {
		return limits{}
	}
	rect, ell := b.Apertures()
	return limits{rect: cloneVec(rect), ell: cloneVec(ell)}
}

func (l *limits) empty() bool {
	return l.rect == nil && l.ell == nil
}

// check marks the particle lost when it sits outside the physical aperture
// and reports whether it did.
func (l *limits) check(r []float64) bool {
	if l.rect != nil && (r[0] < l.rect[0] || r[0] > l.rect[1] || r[2] < l.rect[2] || r[2] > l.rect[3]) {
		r[0] = math.Inf(1)
		return true
	}
	if l.ell != nil {
		x := r[0] / l.ell[0]
		y := r[2] / l.ell[1]
		if x*x+y*y > 1 {
			r[0] = math.Inf(1)
			return true
		}
	}
	return false
}
