package integrators

import (
	"fmt"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/track"
)

// correctorPass applies the corrector kick angles, distributed over the
// element length when it is not thin.
func correctorPass(el element.Element) (track.Kernel, error) {
	cor, ok := el.(*element.Corrector)
	if !ok {
		return nil, fmt.Errorf("CorrectorPass requires a corrector element, got %T", el)
	}
	if len(cor.KickAngle) != 2 {
		return nil, fmt.Errorf("corrector %s kick angle must be [horizontal vertical]", cor.FamName())
	}
	xkick, ykick := cor.KickAngle[0], cor.KickAngle[1]
	length := cor.Length
	if length == 0 {
		return func(r []float64, p *track.Params) {
			r[1] += xkick
			r[3] += ykick
		}, nil
	}
	return func(r []float64, p *track.Params) {
		pnorm := 1 / (1 + r[4])
		norml := length * pnorm
		r[5] += norml * pnorm * (xkick*xkick/3 + ykick*ykick/3 +
			r[1]*r[1] + r[3]*r[3] + r[1]*xkick + r[3]*ykick) / 2
		r[0] += norml * (r[1] + xkick/2)
		r[2] += norml * (r[3] + ykick/2)
		r[1] += xkick
		r[3] += ykick
	}, nil
}
