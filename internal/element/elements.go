package element

// Marker is a zero-length element with no effect on the beam.
type Marker struct {
	Attrs
}

// NewMarker creates a marker element.
func NewMarker(name string) *Marker {
	return &Marker{Attrs: Attrs{Name: name, PassMethod: IdentityPass}}
}

func (m *Marker) Copy() Element { c := *m; return &c }

// Monitor is a beam position monitor. It behaves as a marker during tracking.
type Monitor struct {
	Attrs
}

// NewMonitor creates a monitor element.
func NewMonitor(name string) *Monitor {
	return &Monitor{Attrs: Attrs{Name: name, PassMethod: IdentityPass}}
}

func (m *Monitor) Copy() Element { c := *m; return &c }

// Aperture is a zero-length rectangular collimator. Particles outside
// Limits are marked as lost.
type Aperture struct {
	Attrs
	// Limits is [xmin xmax ymin ymax] in metres.
	Limits []float64
}

// NewAperture creates an aperture element with the given limits.
func NewAperture(name string, limits []float64) *Aperture {
	return &Aperture{
		Attrs:  Attrs{Name: name, PassMethod: AperturePass},
		Limits: limits,
	}
}

func (a *Aperture) Copy() Element { c := *a; return &c }

// Drift is a field-free straight section.
type Drift struct {
	Attrs
}

// NewDrift creates a drift space of the given length.
func NewDrift(name string, length float64) *Drift {
	return &Drift{Attrs: Attrs{Name: name, Length: length, PassMethod: DriftPass}}
}

func (d *Drift) Copy() Element { c := *d; return &c }

// ThinMultipole is a zero-length multipole kick.
type ThinMultipole struct {
	Attrs
	// PolynomA and PolynomB are the skew and straight multipole
	// coefficients. Both are padded to the same length, at least
	// MaxOrder+1.
	PolynomA, PolynomB []float64
	// MaxOrder is the index of the highest multipole order used by the
	// integrator.
	MaxOrder int
}

// NewThinMultipole creates a thin multipole from skew and straight
// coefficients.
func NewThinMultipole(name string, polyA, polyB []float64) *ThinMultipole {
	m := &ThinMultipole{
		Attrs:    Attrs{Name: name, PassMethod: ThinMPolePass},
		PolynomA: polyA,
		PolynomB: polyB,
	}
	m.normalize()
	return m
}

// normalize pads PolynomA and PolynomB to a common length covering MaxOrder.
func (m *ThinMultipole) normalize() {
	size := m.MaxOrder + 1
	if len(m.PolynomA) > size {
		size = len(m.PolynomA)
	}
	if len(m.PolynomB) > size {
		size = len(m.PolynomB)
	}
	m.PolynomA = pad(m.PolynomA, size)
	m.PolynomB = pad(m.PolynomB, size)
}

func pad(p []float64, size int) []float64 {
	out := make([]float64, size)
	copy(out, p)
	return out
}

func (m *ThinMultipole) Copy() Element { c := *m; return &c }

// Multipole is a thick multipole magnet integrated in NumIntSteps slices.
type Multipole struct {
	ThinMultipole
	// NumIntSteps is the number of integration steps (default 10).
	NumIntSteps int
	// KickAngle is an optional [horizontal vertical] orbit corrector
	// component superimposed on the field.
	KickAngle []float64
}

// NewMultipole creates a thick multipole.
func NewMultipole(name string, length float64, polyA, polyB []float64) *Multipole {
	m := &Multipole{
		ThinMultipole: ThinMultipole{
			Attrs:    Attrs{Name: name, Length: length, PassMethod: StrMPolePass},
			PolynomA: polyA,
			PolynomB: polyB,
		},
		NumIntSteps: DefaultIntSteps,
	}
	m.normalize()
	return m
}

// DefaultIntSteps is the default number of integration slices for thick
// multipole magnets.
const DefaultIntSteps = 10

func (m *Multipole) Copy() Element { c := *m; return &c }

// Dipole is a bending magnet. Bend is a synonym.
type Dipole struct {
	Multipole
	// BendingAngle is the total bend angle in radians.
	BendingAngle float64
	// EntranceAngle and ExitAngle are the pole face rotations in radians.
	EntranceAngle, ExitAngle float64
	// FullGap is the magnet gap used for the fringe field correction.
	FullGap float64
	// FringeInt1 and FringeInt2 are the entrance and exit fringe field
	// integrals.
	FringeInt1, FringeInt2 float64
}

// NewDipole creates a dipole with the given bend angle and quadrupole
// component k.
func NewDipole(name string, length, angle, k float64) *Dipole {
	d := &Dipole{
		Multipole: Multipole{
			ThinMultipole: ThinMultipole{
				Attrs:    Attrs{Name: name, Length: length, PassMethod: BendLinearPass},
				PolynomB: []float64{0, k},
			},
			NumIntSteps: DefaultIntSteps,
		},
		BendingAngle: angle,
	}
	d.normalize()
	return d
}

// K returns the quadrupole component PolynomB[1].
func (d *Dipole) K() float64 { return d.PolynomB[1] }

// SetK sets the quadrupole component PolynomB[1].
func (d *Dipole) SetK(k float64) { d.PolynomB[1] = k }

func (d *Dipole) Copy() Element { c := *d; return &c }

// Quadrupole is a quadrupole magnet.
type Quadrupole struct {
	Multipole
}

// NewQuadrupole creates a quadrupole of strength k. Positive k focuses
// horizontally.
func NewQuadrupole(name string, length, k float64) *Quadrupole {
	q := &Quadrupole{
		Multipole: Multipole{
			ThinMultipole: ThinMultipole{
				Attrs:    Attrs{Name: name, Length: length, PassMethod: QuadLinearPass},
				PolynomB: []float64{0, k},
				MaxOrder: 1,
			},
			NumIntSteps: DefaultIntSteps,
		},
	}
	q.normalize()
	return q
}

// K returns the quadrupole strength PolynomB[1].
func (q *Quadrupole) K() float64 { return q.PolynomB[1] }

// SetK sets the quadrupole strength PolynomB[1].
func (q *Quadrupole) SetK(k float64) { q.PolynomB[1] = k }

func (q *Quadrupole) Copy() Element { c := *q; return &c }

// Sextupole is a sextupole magnet.
type Sextupole struct {
	Multipole
}

// NewSextupole creates a sextupole of strength h = PolynomB[2].
func NewSextupole(name string, length, h float64) *Sextupole {
	s := &Sextupole{
		Multipole: Multipole{
			ThinMultipole: ThinMultipole{
				Attrs:    Attrs{Name: name, Length: length, PassMethod: StrMPolePass},
				PolynomB: []float64{0, 0, h},
				MaxOrder: 2,
			},
			NumIntSteps: DefaultIntSteps,
		},
	}
	s.normalize()
	return s
}

func (s *Sextupole) Copy() Element { c := *s; return &c }

// Octupole is an octupole magnet, with no changes from Multipole at present.
type Octupole struct {
	Multipole
}

// NewOctupole creates an octupole from its multipole coefficients.
func NewOctupole(name string, length float64, polyA, polyB []float64) *Octupole {
	o := &Octupole{
		Multipole: Multipole{
			ThinMultipole: ThinMultipole{
				Attrs:    Attrs{Name: name, Length: length, PassMethod: StrMPolePass},
				PolynomA: polyA,
				PolynomB: polyB,
				MaxOrder: 3,
			},
			NumIntSteps: DefaultIntSteps,
		},
	}
	o.normalize()
	return o
}

func (o *Octupole) Copy() Element { c := *o; return &c }

// RFCavity is an accelerating cavity.
type RFCavity struct {
	Attrs
	// Voltage is the peak cavity voltage in volts.
	Voltage float64
	// Frequency is the RF frequency in Hz.
	Frequency float64
	// HarmNumber is the RF harmonic number.
	HarmNumber int
	// Energy is the nominal beam energy in eV.
	Energy float64
	// TimeLag is the time lag with respect to the reference particle,
	// expressed as a path length in metres.
	TimeLag float64
}

// NewRFCavity creates an RF cavity.
func NewRFCavity(name string, length, voltage, frequency float64, harmNumber int, energy float64) *RFCavity {
	return &RFCavity{
		Attrs:      Attrs{Name: name, Length: length, PassMethod: CavityPass},
		Voltage:    voltage,
		Frequency:  frequency,
		HarmNumber: harmNumber,
		Energy:     energy,
	}
}

func (c *RFCavity) Copy() Element { cc := *c; return &cc }

// RingParam carries ring-wide parameters. It has no effect on tracking.
type RingParam struct {
	Attrs
	// Energy is the nominal beam energy in eV.
	Energy float64
	// Periodicity is the number of super-periods making up the full ring.
	Periodicity int
}

// NewRingParam creates a ring parameter element.
func NewRingParam(name string, energy float64) *RingParam {
	return &RingParam{
		Attrs:       Attrs{Name: name, PassMethod: IdentityPass},
		Energy:      energy,
		Periodicity: 1,
	}
}

func (r *RingParam) Copy() Element { c := *r; return &c }

// M66 applies an arbitrary linear map to the particle coordinates.
type M66 struct {
	Attrs
	// M is the 6x6 transfer matrix in row-major order.
	M []float64
}

// NewM66 creates a linear map element. A nil matrix defaults to identity.
func NewM66(name string, m []float64) *M66 {
	if m == nil {
		m = make([]float64, 36)
		for i := 0; i < 6; i++ {
			m[i*6+i] = 1
		}
	}
	return &M66{Attrs: Attrs{Name: name, PassMethod: Matrix66Pass}, M: m}
}

func (m *M66) Copy() Element { c := *m; return &c }

// Corrector is an orbit corrector magnet.
type Corrector struct {
	Attrs
	// KickAngle is the [horizontal vertical] kick in radians.
	KickAngle []float64
}

// NewCorrector creates a corrector with the given kick angles.
func NewCorrector(name string, length float64, kickAngle []float64) *Corrector {
	return &Corrector{
		Attrs:     Attrs{Name: name, Length: length, PassMethod: CorrectorPass},
		KickAngle: kickAngle,
	}
}

func (c *Corrector) Copy() Element { cc := *c; return &cc }
