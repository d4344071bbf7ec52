package integrators

import (
	"fmt"
	"math"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/track"
)

// aperturePass checks the particle against rectangular limits and marks
// violators as lost by setting their horizontal position to +Inf. The other
// coordinates are left untouched.
func aperturePass(el element.Element) (track.Kernel, error) {
	ap, ok := el.(*element.Aperture)
	if !ok {
		return nil, fmt.Errorf("AperturePass requires an aperture element, got %T", el)
	}
	if len(ap.Limits) != 4 {
		return nil, fmt.Errorf("aperture limits must be [xmin xmax ymin ymax], got %d values", len(ap.Limits))
	}
	limits := cloneVec(ap.Limits)
	return func(r []float64, p *track.Params) {
		if r[0] < limits[0] || r[0] > limits[1] || r[2] < limits[2] || r[2] > limits[3] {
			r[0] = math.Inf(1)
		}
	}, nil
}
