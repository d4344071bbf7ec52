// Package integrators provides the bundled pass method kernels. Each pass
// method advances one particle's phase-space 6-vector (x, px, y, py, dp, ct)
// through one element.
package integrators

import (
	"github.com/vk/latticego/internal/track"
)

// Module registers the bundled pass methods with an engine registry.
type Module struct{}

// Register registers every bundled pass method.
func (m Module) Register(r *track.Registry) {
	r.Register("IdentityPass", identityPass)
	r.Register("AperturePass", aperturePass)
	r.Register("DriftPass", driftPass)
	r.Register("ThinMPolePass", thinMPolePass)
	r.Register("StrMPoleSymplectic4Pass", strMPolePass)
	r.Register("BndMPoleSymplectic4Pass", bndMPolePass)
	r.Register("BendLinearPass", bendLinearPass)
	r.Register("QuadLinearPass", quadLinearPass)
	r.Register("CavityPass", cavityPass)
	r.Register("CorrectorPass", correctorPass)
	r.Register("Matrix66Pass", matrix66Pass)
}

// NewRegistry returns a registry with the bundled pass methods registered.
func NewRegistry() *track.Registry {
	return track.NewRegistry(Module{})
}
