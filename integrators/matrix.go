package integrators

import (
	"fmt"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/track"
)

// matrix66Pass applies an arbitrary linear map to the coordinates.
func matrix66Pass(el element.Element) (track.Kernel, error) {
	m66, ok := el.(*element.M66)
	if !ok {
		return nil, fmt.Errorf("Matrix66Pass requires a linear map element, got %T", el)
	}
	if len(m66.M) != 36 {
		return nil, fmt.Errorf("linear map %s must be a 6x6 matrix, got %d values", m66.FamName(), len(m66.M))
	}
	m := cloneVec(m66.M)
	return func(r []float64, p *track.Params) {
		mulMatVec(r, m)
	}, nil
}
