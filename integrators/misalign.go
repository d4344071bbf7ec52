package integrators

// alignment holds the optional misalignment snapshot of an element.
type alignment struct {
	t1, r1, r2, t2 []float64
}

type aligned interface {
	Alignment() (t1, r1, r2, t2 []float64)
}

// snapshotAlignment copies the element misalignment, if any, at compile time.
func snapshotAlignment(el any) alignment {
	a, ok := el.(aligned)
	if !ok {
		return alignment{}
	}
	t1, r1, r2, t2 := a.Alignment()
	return alignment{
		t1: cloneVec(t1),
		r1: cloneVec(r1),
		r2: cloneVec(r2),
		t2: cloneVec(t2),
	}
}

func (a *alignment) empty() bool {
	return a.t1 == nil && a.r1 == nil && a.r2 == nil && a.t2 == nil
}

// enter applies the entrance shift and rotation.
func (a *alignment) enter(r []float64) {
	if a.t1 != nil {
		addVec(r, a.t1)
	}
	if a.r1 != nil {
		mulMatVec(r, a.r1)
	}
}

// exit applies the exit rotation and shift.
func (a *alignment) exit(r []float64) {
	if a.r2 != nil {
		mulMatVec(r, a.r2)
	}
	if a.t2 != nil {
		addVec(r, a.t2)
	}
}

func cloneVec(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func addVec(r, t []float64) {
	for i := range r {
		r[i] += t[i]
	}
}

// mulMatVec replaces r with m*r, m being 6x6 in row-major order.
func mulMatVec(r, m []float64) {
	var out [6]float64
	for i := 0; i < 6; i++ {
		row := m[i*6 : i*6+6]
		for j := 0; j < 6; j++ {
			out[i] += row[j] * r[j]
		}
	}
	copy(r, out[:])
}
