package physics

import (
	"context"
	"math"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/lattice"
	"github.com/vk/latticego/internal/track"
)

// DefaultDDP is the momentum step used for the chromaticity and dispersion
// differences.
const DefaultDDP = 1e-8

// TwissRow holds the optics functions at one reference point.
type TwissRow struct {
	// Idx is the reference point index.
	Idx int
	// SPos is the s position of the reference point.
	SPos float64
	// ClosedOrbit is the transverse closed orbit (x, px, y, py).
	ClosedOrbit [4]float64
	// Dispersion is the derivative of the closed orbit with momentum.
	// It is NaN unless chromaticity was requested.
	Dispersion [4]float64
	// Alpha, Beta and Mu are the Twiss functions per plane.
	Alpha, Beta, Mu [2]float64
	// M44 is the cumulative transfer matrix from the start of the ring.
	M44 [4][4]float64
}

// GetTwiss determines the Twiss parameters at the requested reference
// points, the betatron tunes, and, when getChrom is set, the dispersion and
// chromaticity from a second pass at momentum dp+ddp.
func GetTwiss(ctx context.Context, eng *track.Engine, ring []element.Element, dp float64, refs []int, getChrom bool) ([]TwissRow, [2]float64, *[2]float64, error) {
	var tune [2]float64

	refs, err := lattice.URefPts(refs, len(ring))
	if err != nil {
		return nil, tune, nil, err
	}
	nrefs := len(refs)
	work := refs
	if work[len(work)-1] != len(ring) {
		work = append(append([]int(nil), work...), len(ring))
	}

	orbit4, orbit, err := FindOrbit4(ctx, eng, ring, dp, work)
	if err != nil {
		return nil, tune, nil, err
	}
	m44, mstack, err := FindM44(ctx, eng, ring, dp, work, orbit4)
	if err != nil {
		return nil, tune, nil, err
	}

	ax, bx, mx := twiss22(block2(m44, 0), blocks2(mstack, 0))
	ay, by, my := twiss22(block2(m44, 2), blocks2(mstack, 2))

	tune[0] = mx[len(mx)-1] / (2 * math.Pi)
	tune[1] = my[len(my)-1] / (2 * math.Pi)

	spos := lattice.SPos(ring, refs)
	rows := make([]TwissRow, nrefs)
	for i := range rows {
		rows[i] = TwissRow{
			Idx:   refs[i],
			SPos:  spos[i],
			Alpha: [2]float64{ax[i], ay[i]},
			Beta:  [2]float64{bx[i], by[i]},
			Mu:    [2]float64{mx[i], my[i]},
			M44:   mstack[i],
		}
		copy(rows[i].ClosedOrbit[:], orbit[i])
		nan := math.NaN()
		rows[i].Dispersion = [4]float64{nan, nan, nan, nan}
	}

	var chrom *[2]float64
	if getChrom {
		// Chromaticity from the tune difference at a slightly
		// different momentum.
		rowsB, tuneB, _, err := GetTwiss(ctx, eng, ring, dp+DefaultDDP, refs, false)
		if err != nil {
			return nil, tune, nil, err
		}
		chrom = &[2]float64{
			(tuneB[0] - tune[0]) / DefaultDDP,
			(tuneB[1] - tune[1]) / DefaultDDP,
		}
		for i := range rows {
			for j := 0; j < 4; j++ {
				rows[i].Dispersion[j] = (rowsB[i].ClosedOrbit[j] - rows[i].ClosedOrbit[j]) / DefaultDDP
			}
		}
	}
	return rows, tune, chrom, nil
}

// block2 extracts the 2x2 diagonal block of a 4x4 matrix starting at offset
// 0 (horizontal) or 2 (vertical).
func block2(m [4][4]float64, off int) [2][2]float64 {
	return [2][2]float64{
		{m[off][off], m[off][off+1]},
		{m[off+1][off], m[off+1][off+1]},
	}
}

func blocks2(ms [][4][4]float64, off int) [][2][2]float64 {
	out := make([][2][2]float64, len(ms))
	for i, m := range ms {
		out[i] = block2(m, off)
	}
	return out
}

// twiss22 calculates the Twiss parameters of one plane from the 2x2 one-turn
// matrix and the cumulative matrices at each reference point.
func twiss22(m [2][2]float64, ms [][2][2]float64) (alpha, beta, mu []float64) {
	sinMu := math.Sqrt(-m[0][1]*m[1][0] - (m[0][0]-m[1][1])*(m[0][0]-m[1][1])/4)
	if m[0][1] < 0 {
		sinMu = -sinMu
	}
	alpha0 := (m[0][0] - m[1][1]) / 2 / sinMu
	beta0 := m[0][1] / sinMu

	alpha = make([]float64, len(ms))
	beta = make([]float64, len(ms))
	mu = make([]float64, len(ms))
	for i, s := range ms {
		g := s[0][0]*beta0 - s[0][1]*alpha0
		beta[i] = (g*g + s[0][1]*s[0][1]) / beta0
		alpha[i] = -(g*(s[1][0]*beta0-s[1][1]*alpha0) + s[0][1]*s[1][1]) / beta0
		mu[i] = math.Atan(s[0][1] / g)
	}
	unwrapPhase(mu)
	return alpha, beta, mu
}

// unwrapPhase removes the negative jumps of the betatron phase, which is
// computed with atan and therefore wraps every half period.
func unwrapPhase(mu []float64) {
	jumps := 0
	prev := 0.0
	for i, raw := range mu {
		if i > 0 && raw < prev {
			jumps++
		}
		mu[i] = raw + float64(jumps)*math.Pi
		prev = raw
	}
}
