// Package element defines the lattice element types understood by the
// tracking engine.
//
// Each element carries a default pass method name for which it has the
// appropriate attributes. If a different pass method is set, it is the
// caller's responsibility to ensure the required attributes are present.
package element

// Element is implemented by every lattice element.
type Element interface {
	// FamName returns the family name of the element.
	FamName() string
	// Len returns the physical length of the element in metres.
	Len() float64
	// Method returns the name of the pass method used to track through
	// the element.
	Method() string
	// Copy returns a shallow copy of the element.
	Copy() Element
}

// Attrs holds the attributes shared by every element type. Concrete element
// types embed it.
type Attrs struct {
	// Name is the family name of the element.
	Name string
	// Length is the physical length in metres.
	Length float64
	// PassMethod names the integrator used to track through the element.
	PassMethod string

	// T1 and T2 are optional entrance and exit misalignment shifts
	// (6-vectors added to the particle coordinates).
	T1, T2 []float64
	// R1 and R2 are optional entrance and exit rotations (6x6 matrices
	// in row-major order).
	R1, R2 []float64

	// RApertures is an optional rectangular aperture [xmin xmax ymin ymax].
	RApertures []float64
	// EApertures is an optional elliptic aperture [rx ry].
	EApertures []float64
}

func (a *Attrs) FamName() string { return a.Name }
func (a *Attrs) Len() float64    { return a.Length }
func (a *Attrs) Method() string  { return a.PassMethod }

// SetMethod overrides the pass method.
func (a *Attrs) SetMethod(name string) { a.PassMethod = name }

// Pass method names for the bundled integrators.
const (
	IdentityPass   = "IdentityPass"
	AperturePass   = "AperturePass"
	DriftPass      = "DriftPass"
	ThinMPolePass  = "ThinMPolePass"
	StrMPolePass   = "StrMPoleSymplectic4Pass"
	BndMPolePass   = "BndMPoleSymplectic4Pass"
	BendLinearPass = "BendLinearPass"
	QuadLinearPass = "QuadLinearPass"
	CavityPass     = "CavityPass"
	CorrectorPass  = "CorrectorPass"
	Matrix66Pass   = "Matrix66Pass"
)
