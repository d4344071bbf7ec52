package integrators

import (
	"fmt"
	"math"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/track"
)

// planeQuad advances one transverse plane (position u, geometric slope upr)
// through a pure gradient of strength k over length l. Positive k focuses.
// It returns the new coordinates and the second-order path lengthening
// contribution of the plane.
func planeQuad(u, upr, k, l float64) (un, uprn, path float64) {
	switch {
	case k == 0:
		return u + l*upr, upr, l * upr * upr / 2
	case k > 0:
		g := math.Sqrt(k)
		phi := g * l
		c, s := math.Cos(phi), math.Sin(phi)
		un = c*u + s/g*upr
		uprn = -g*s*u + c*upr
		// path = integral of u'(s)^2/2 with u' = a*cos(gs) + b*sin(gs)
		a, b := upr, -u*g
		s2, c2 := math.Sin(2*phi), math.Cos(2*phi)
		path = (a*a*(l/2+s2/(4*g)) + b*b*(l/2-s2/(4*g)) + a*b*(1-c2)/(2*g)) / 2
		return un, uprn, path
	default:
		g := math.Sqrt(-k)
		phi := g * l
		ch, sh := math.Cosh(phi), math.Sinh(phi)
		un = ch*u + sh/g*upr
		uprn = g*sh*u + ch*upr
		a, b := upr, u*g
		sh2, ch2 := math.Sinh(2*phi), math.Cosh(2*phi)
		path = (a*a*(l/2+sh2/(4*g)) + b*b*(-l/2+sh2/(4*g)) + a*b*(ch2-1)/(2*g)) / 2
		return un, uprn, path
	}
}

// quadLinearPass tracks through a quadrupole with the exact linear map of
// each transverse plane, including the second-order path lengthening.
func quadLinearPass(el element.Element) (track.Kernel, error) {
	mp, ok := el.(multipoler)
	if !ok {
		return nil, fmt.Errorf("QuadLinearPass requires multipole coefficients, %T has none", el)
	}
	_, polyB := mp.Polynoms()
	k := 0.0
	if len(polyB) > 1 {
		k = polyB[1]
	}
	length := el.Len()
	align := snapshotAlignment(el)
	lim := snapshotLimits(el)
	return func(r []float64, p *track.Params) {
		align.enter(r)
		if lim.check(r) {
			return
		}
		pnorm := 1 / (1 + r[4])
		keff := k * pnorm
		x, xpr, dx := planeQuad(r[0], r[1]*pnorm, keff, length)
		y, ypr, dy := planeQuad(r[2], r[3]*pnorm, -keff, length)
		r[0], r[1] = x, xpr/pnorm
		r[2], r[3] = y, ypr/pnorm
		r[5] += dx + dy
		if lim.check(r) {
			return
		}
		align.exit(r)
	}, nil
}
