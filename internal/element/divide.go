package element

// splitAttrs clears entrance attributes on every piece except the first and
// exit attributes on every piece except the last.
func splitAttrs(pieces []*Attrs) {
	for i, a := range pieces {
		if i != 0 {
			a.T1 = nil
			a.R1 = nil
		}
		if i != len(pieces)-1 {
			a.T2 = nil
			a.R2 = nil
		}
	}
}

// Divide splits the drift into len(frac) pieces whose lengths are
// frac[i]*Len(). The sum of frac may differ from 1. Entrance and exit
// misalignments are kept at the extremities only.
func (d *Drift) Divide(frac []float64) []*Drift {
	pieces := make([]*Drift, len(frac))
	attrs := make([]*Attrs, len(frac))
	for i, f := range frac {
		c := *d
		c.Length = f * d.Length
		pieces[i] = &c
		attrs[i] = &c.Attrs
	}
	splitAttrs(attrs)
	return pieces
}

// Divide splits the dipole into len(frac) pieces. The bending angle is
// distributed in proportion to the piece lengths; pole face angles and
// fringe fields apply at the extremities only.
func (d *Dipole) Divide(frac []float64) []*Dipole {
	var sum float64
	for _, f := range frac {
		sum += f
	}
	pieces := make([]*Dipole, len(frac))
	attrs := make([]*Attrs, len(frac))
	for i, f := range frac {
		c := *d
		c.Length = f * d.Length
		c.BendingAngle = f / sum * d.BendingAngle
		if i != 0 {
			c.EntranceAngle = 0
			c.FringeInt1 = 0
		}
		if i != len(frac)-1 {
			c.ExitAngle = 0
			c.FringeInt2 = 0
		}
		pieces[i] = &c
		attrs[i] = &c.Attrs
	}
	splitAttrs(attrs)
	return pieces
}

// Insertion places an element at a fractional position inside a drift. A nil
// Elem divides the drift without inserting anything.
type Insertion struct {
	Frac float64
	Elem Element
}

// Insert slices the drift around the inserted elements. Each insertion is
// centred at its fractional position; the surrounding drift pieces absorb
// the inserted lengths, so drifts with negative lengths may be generated.
// Entrance and exit misalignments stay on the outermost drift pieces only.
func (d *Drift) Insert(inserts []Insertion) []Element {
	n := len(inserts)
	bounds := make([]float64, n+1)
	end := 0.0
	for i, ins := range inserts {
		half := 0.0
		if ins.Elem != nil {
			half = 0.5 * ins.Elem.Len() / d.Length
		}
		bounds[i] = (ins.Frac - half) - end
		end = ins.Frac + half
	}
	bounds[n] = 1.0 - end

	var line []Element
	var attrs []*Attrs
	for i := 0; i <= n; i++ {
		if bounds[i] != 0.0 {
			c := *d
			c.Length = bounds[i] * d.Length
			line = append(line, &c)
			attrs = append(attrs, &c.Attrs)
		}
		if i < n && inserts[i].Elem != nil {
			line = append(line, inserts[i].Elem)
		}
	}
	splitAttrs(attrs)
	return line
}
