package integrators

import (
	"fmt"
	"math"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/track"
)

// bender is satisfied by dipole elements.
type bender interface {
	multipoler
	Geometry() (angle, entrance, exit float64)
	Fringe() (gap, fint1, fint2 float64)
}

// bendData is the compile-time snapshot of a dipole element.
type bendData struct {
	*multipoleData
	irho           float64
	entrance, exit float64
	psiIn, psiOut  float64
}

func snapshotBend(el element.Element) (*bendData, error) {
	b, ok := el.(bender)
	if !ok {
		return nil, fmt.Errorf("%s requires a dipole element, got %T", el.Method(), el)
	}
	mp, err := snapshotMultipole(el)
	if err != nil {
		return nil, err
	}
	angle, e1, e2 := b.Geometry()
	if el.Len() <= 0 {
		return nil, fmt.Errorf("dipole %s must have a positive length", el.FamName())
	}
	d := &bendData{
		multipoleData: mp,
		irho:          angle / el.Len(),
		entrance:      e1,
		exit:          e2,
	}
	gap, fint1, fint2 := b.Fringe()
	if gap != 0 {
		d.psiIn = fringePsi(d.irho, gap, fint1, e1)
		d.psiOut = fringePsi(d.irho, gap, fint2, e2)
	}
	return d, nil
}

// fringePsi is the vertical focusing reduction from the extended fringe
// field of a dipole edge.
func fringePsi(irho, gap, fint, edge float64) float64 {
	sin := math.Sin(edge)
	return irho * gap * fint * (1 + sin*sin) / math.Cos(edge)
}

// edge applies the pole face focusing of a dipole edge. psi reduces the
// vertical focusing when a fringe field correction is present.
func edge(r []float64, irho, angle, psi float64) {
	r[1] += r[0] * irho * math.Tan(angle)
	r[3] -= r[2] * irho * math.Tan(angle-psi)
}

// bendLinearPass tracks through a dipole with the linear map of a combined
// function sector magnet: pole face focusing at the edges, horizontal
// focusing h^2+k, vertical -k, first-order dispersion and the dispersive
// path lengthening h*integral(x).
func bendLinearPass(el element.Element) (track.Kernel, error) {
	d, err := snapshotBend(el)
	if err != nil {
		return nil, err
	}
	k := 0.0
	if len(d.polyB) > 1 {
		k = d.polyB[1]
	}
	length := d.length
	return func(r []float64, p *track.Params) {
		d.align.enter(r)
		if d.lim.check(r) {
			return
		}
		edge(r, d.irho, d.entrance, d.psiIn)

		pnorm := 1 / (1 + r[4])
		dpp := r[4]
		h := d.irho
		kx := h*h + k*pnorm
		xpr := r[1] * pnorm

		var x, xprn, path, xInt float64
		switch {
		case kx > 0:
			g := math.Sqrt(kx)
			phi := g * length
			c, s := math.Cos(phi), math.Sin(phi)
			x = c*r[0] + s/g*xpr + h*(1-c)/(kx)*dpp
			xprn = -g*s*r[0] + c*xpr + h*s/g*dpp
			// integral of x(s) over the magnet, for the dispersive
			// path term
			xInt = s/g*r[0] + (1-c)/kx*xpr + h*(length-s/g)/kx*dpp
			_, _, path = planeQuad(r[0], xpr, kx, length)
		case kx == 0:
			x = r[0] + length*xpr + h*length*length/2*dpp
			xprn = xpr + h*length*dpp
			xInt = length*r[0] + length*length/2*xpr + h*length*length*length/6*dpp
			path = length * xpr * xpr / 2
		default:
			g := math.Sqrt(-kx)
			phi := g * length
			ch, sh := math.Cosh(phi), math.Sinh(phi)
			x = ch*r[0] + sh/g*xpr + h*(ch-1)/(g*g)*dpp
			xprn = g*sh*r[0] + ch*xpr + h*sh/g*dpp
			xInt = sh/g*r[0] + (ch-1)/(g*g)*xpr + h*(sh/g-length)/(g*g)*dpp
			_, _, path = planeQuad(r[0], xpr, kx, length)
		}

		y, ypr, ypath := planeQuad(r[2], r[3]*pnorm, -k*pnorm, length)

		r[0], r[1] = x, xprn/pnorm
		r[2], r[3] = y, ypr/pnorm
		r[5] += h*xInt + path + ypath

		edge(r, d.irho, d.exit, d.psiOut)
		if d.lim.check(r) {
			return
		}
		d.align.exit(r)
	}, nil
}

// bndKick applies a thin combined function kick of integrated length l in
// curved coordinates with curvature irho.
func bndKick(r, polyA, polyB []float64, l, irho float64, maxOrder int) {
	re := polyB[maxOrder]
	im := polyA[maxOrder]
	for i := maxOrder - 1; i >= 0; i-- {
		re, im = re*r[0]-im*r[2]+polyB[i], im*r[0]+re*r[2]+polyA[i]
	}
	r[1] -= l * (re - (r[4]-r[0]*irho)*irho)
	r[3] += l * im
	r[5] += l * irho * r[0]
}

// bndMPolePass integrates a curved thick multipole with the 4th-order
// symplectic drift-kick scheme and dipole edge focusing.
func bndMPolePass(el element.Element) (track.Kernel, error) {
	d, err := snapshotBend(el)
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
		edge(r, d.irho, d.entrance, d.psiIn)
		for m := 0; m < d.steps; m++ {
			drift(r, l1)
			bndKick(r, d.polyA, d.polyB, k1, d.irho, d.maxOrder)
			drift(r, l2)
			bndKick(r, d.polyA, d.polyB, k2, d.irho, d.maxOrder)
			drift(r, l2)
			bndKick(r, d.polyA, d.polyB, k1, d.irho, d.maxOrder)
			drift(r, l1)
		}
		edge(r, d.irho, d.exit, d.psiOut)
		if d.lim.check(r) {
			return
		}
		d.align.exit(r)
	}, nil
}
