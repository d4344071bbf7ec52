package track

// Result holds the coordinates recorded at the reference points, indexed by
// turn, reference point and particle.
type Result struct {
	// Turns is the number of turns tracked.
	Turns int
	// RefPts is the validated reference point selection.
	RefPts []int
	// Particles is the number of particles tracked.
	Particles int

	data []float64
}

func newResult(turns int, refs []int, particles int) *Result {
	return &Result{
		Turns:     turns,
		RefPts:    refs,
		Particles: particles,
		data:      make([]float64, turns*len(refs)*particles*6),
	}
}

// At returns the 6-vector recorded for a particle at a reference point on a
// turn. The returned slice aliases the result storage.
func (r *Result) At(turn, ref, particle int) []float64 {
	idx := ((turn*len(r.RefPts)+ref)*r.Particles + particle) * 6
	return r.data[idx : idx+6]
}
