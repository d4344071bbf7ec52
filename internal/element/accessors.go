package element

// Alignment returns the entrance shift/rotation and exit rotation/shift.
// Integrators sandwich their maps between these when present.
func (a *Attrs) Alignment() (t1, r1, r2, t2 []float64) {
	return a.T1, a.R1, a.R2, a.T2
}

// Apertures returns the rectangular and elliptic physical apertures, nil
// when absent.
func (a *Attrs) Apertures() (rect, ell []float64) {
	return a.RApertures, a.EApertures
}

// SetApertures sets the rectangular and elliptic physical apertures.
func (a *Attrs) SetApertures(rect, ell []float64) {
	a.RApertures = rect
	a.EApertures = ell
}

// Polynoms returns the skew and straight multipole coefficients.
func (m *ThinMultipole) Polynoms() (polyA, polyB []float64) {
	return m.PolynomA, m.PolynomB
}

// Order returns the highest multipole order used by the integrator.
func (m *ThinMultipole) Order() int { return m.MaxOrder }

// SetPolynoms replaces the multipole coefficients. Both slices are padded
// to a common length and MaxOrder is raised to cover them.
func (m *ThinMultipole) SetPolynoms(polyA, polyB []float64) {
	m.PolynomA = polyA
	m.PolynomB = polyB
	if n := len(polyA) - 1; n > m.MaxOrder {
		m.MaxOrder = n
	}
	if n := len(polyB) - 1; n > m.MaxOrder {
		m.MaxOrder = n
	}
	m.normalize()
}

// Steps returns the number of integration slices.
func (m *Multipole) Steps() int { return m.NumIntSteps }

// SetSteps sets the number of integration slices. Values below one are
// ignored.
func (m *Multipole) SetSteps(n int) {
	if n > 0 {
		m.NumIntSteps = n
	}
}

// Kicks returns the optional corrector component, nil when absent.
func (m *Multipole) Kicks() []float64 { return m.KickAngle }

// Geometry returns the bend angle and the pole face rotations.
func (d *Dipole) Geometry() (angle, entrance, exit float64) {
	return d.BendingAngle, d.EntranceAngle, d.ExitAngle
}

// Fringe returns the magnet gap and the entrance and exit fringe field
// integrals.
func (d *Dipole) Fringe() (gap, fint1, fint2 float64) {
	return d.FullGap, d.FringeInt1, d.FringeInt2
}
