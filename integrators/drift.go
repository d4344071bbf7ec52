package integrators

import (
	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/track"
)

// identityPass leaves the coordinates untouched.
func identityPass(el element.Element) (track.Kernel, error) {
	return func(r []float64, p *track.Params) {}, nil
}

// driftPass tracks through a field-free straight section, checking the
// physical apertures at the entrance and exit when present.
func driftPass(el element.Element) (track.Kernel, error) {
	length := el.Len()
	align := snapshotAlignment(el)
	lim := snapshotLimits(el)
	if align.empty() && lim.empty() {
		return func(r []float64, p *track.Params) {
			drift(r, length)
		}, nil
	}
	return func(r []float64, p *track.Params) {
		align.enter(r)
		if lim.check(r) {
			return
		}
		drift(r, length)
		if lim.check(r) {
			return
		}
		align.exit(r)
	}, nil
}

// drift advances through a field-free region of the given length, including
// the second-order path lengthening term.
func drift(r []float64, length float64) {
	pnorm := 1 / (1 + r[4])
	norml := length * pnorm
	r[0] += norml * r[1]
	r[2] += norml * r[3]
	r[5] += norml * pnorm * (r[1]*r[1] + r[3]*r[3]) / 2
}
