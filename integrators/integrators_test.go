package integrators_test

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/latticego/integrators"
	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/track"
)

func trackOne(t *testing.T, line []element.Element, r []float64) []float64 {
	t.Helper()
	eng := track.New(integrators.NewRegistry(), 1)
	rin := [][]float64{r}
	_, err := eng.Track(context.Background(), line, rin, 1, track.Options{})
	require.NoError(t, err)
	return rin[0]
}

func TestModuleRegistersAllPassMethods(t *testing.T) {
	names := integrators.NewRegistry().Names()
	for _, want := range []string{
		element.IdentityPass,
		element.AperturePass,
		element.DriftPass,
		element.ThinMPolePass,
		element.StrMPolePass,
		element.BndMPolePass,
		element.BendLinearPass,
		element.QuadLinearPass,
		element.CavityPass,
		element.CorrectorPass,
		element.Matrix66Pass,
	} {
		assert.Contains(t, names, want)
	}
}

func TestQuadLinear(t *testing.T) {
	q := element.NewQuadrupole("quad", 0.4, 1)
	r := trackOne(t, []element.Element{q}, []float64{1e-6, 0, 0, 0, 0, 0})

	// Values from the Matlab version of the tracking engine.
	assert.InEpsilon(t, 0.921060994002885e-6, r[0], 1e-12)
	assert.InEpsilon(t, -0.389418342308651e-6, r[1], 1e-12)
	assert.Zero(t, r[2])
	assert.Zero(t, r[3])
	assert.Zero(t, r[4])
	assert.InEpsilon(t, 1.0330489e-14, r[5], 1e-6)
}

func TestQuadSymplecticMatchesLinear(t *testing.T) {
	linear := element.NewQuadrupole("quad", 0.4, 1)
	sympl := element.NewQuadrupole("quad", 0.4, 1)
	sympl.SetMethod(element.StrMPolePass)

	rl := trackOne(t, []element.Element{linear}, []float64{1e-6, 0, 0, 0, 0, 0})
	rs := trackOne(t, []element.Element{sympl}, []float64{1e-6, 0, 0, 0, 0, 0})

	assert.InEpsilon(t, rl[0], rs[0], 1e-7)
	assert.InEpsilon(t, rl[1], rs[1], 1e-7)
}

func TestBendLinear(t *testing.T) {
	b := element.NewDipole("dipole", 1.0, 0.1, 0)
	b.EntranceAngle = 0.05
	b.ExitAngle = 0.05
	r := trackOne(t, []element.Element{b}, []float64{1e-6, 0, 0, 0, 0, 0})

	// A matched sector bend nearly restores the offset; the curved path
	// through the dipole lengthens the trajectory by about h*x*L.
	assert.InDelta(t, 1e-6, r[0], 1e-9)
	assert.InDelta(t, 0, r[1], 1e-9)
	assert.Zero(t, r[2])
	assert.Zero(t, r[3])
	assert.Zero(t, r[4])
	assert.InDelta(t, 1e-7, r[5], 2e-9)
}

func TestBendSymplecticMatchesLinear(t *testing.T) {
	linear := element.NewDipole("dipole", 1.0, 0.1, 0)
	sympl := element.NewDipole("dipole", 1.0, 0.1, 0)
	sympl.SetMethod(element.BndMPolePass)

	rl := trackOne(t, []element.Element{linear}, []float64{1e-6, 0, 0, 0, 0, 0})
	rs := trackOne(t, []element.Element{sympl}, []float64{1e-6, 0, 0, 0, 0, 0})

	assert.InDelta(t, rl[0], rs[0], 1e-10)
	assert.InDelta(t, rl[1], rs[1], 1e-10)
	assert.InDelta(t, rl[5], rs[5], 1e-10)
}

func TestThinMultipoleKick(t *testing.T) {
	m := element.NewThinMultipole("thin", nil, []float64{0, 0.5})
	r := trackOne(t, []element.Element{m}, []float64{1e-3, 0, 0, 0, 0, 0})

	assert.Equal(t, 1e-3, r[0])
	assert.Equal(t, -0.5*1e-3, r[1])
}

func TestCavity(t *testing.T) {
	t.Run("no kick on the reference phase", func(t *testing.T) {
		c := element.NewRFCavity("cav", 0, 2.5e6, 4.99654e8, 31, 3.5e9)
		r := trackOne(t, []element.Element{c}, []float64{0, 0, 0, 0, 0, 0})
		assert.Zero(t, r[4])
	})

	t.Run("kick is antisymmetric in ct", func(t *testing.T) {
		c := element.NewRFCavity("cav", 0, 2.5e6, 4.99654e8, 31, 3.5e9)
		ahead := trackOne(t, []element.Element{c.Copy()}, []float64{0, 0, 0, 0, 0, 1e-3})
		behind := trackOne(t, []element.Element{c.Copy()}, []float64{0, 0, 0, 0, 0, -1e-3})
		assert.NotZero(t, ahead[4])
		assert.InDelta(t, -ahead[4], behind[4], 1e-18)
	})

	t.Run("missing energy is an error", func(t *testing.T) {
		c := element.NewRFCavity("cav", 0, 2.5e6, 4.99654e8, 31, 0)
		eng := track.New(integrators.NewRegistry(), 1)
		_, err := eng.Track(context.Background(), []element.Element{c}, [][]float64{{0, 0, 0, 0, 0, 0}}, 1, track.Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no energy set")
	})
}

func TestCorrector(t *testing.T) {
	t.Run("thin", func(t *testing.T) {
		c := element.NewCorrector("cor", 0, []float64{1e-4, -2e-4})
		r := trackOne(t, []element.Element{c}, []float64{0, 0, 0, 0, 0, 0})
		assert.Equal(t, []float64{0, 1e-4, 0, -2e-4, 0, 0}, r)
	})

	t.Run("thick", func(t *testing.T) {
		c := element.NewCorrector("cor", 1.0, []float64{1e-4, -2e-4})
		r := trackOne(t, []element.Element{c}, []float64{0, 0, 0, 0, 0, 0})
		assert.InDelta(t, 0.5e-4, r[0], 1e-20)
		assert.Equal(t, 1e-4, r[1])
		assert.InDelta(t, -1e-4, r[2], 1e-20)
		assert.Equal(t, -2e-4, r[3])
		assert.InDelta(t, (1e-4*1e-4/3+2e-4*2e-4/3)/2, r[5], 1e-22)
	})
}

func TestMatrix66(t *testing.T) {
	m := make([]float64, 36)
	for i := 0; i < 6; i++ {
		m[i*6+i] = 1
	}
	m[0*6+1] = 2.0 // x += 2*px
	el := element.NewM66("map", m)

	r := trackOne(t, []element.Element{el}, []float64{1e-6, 1e-6, 0, 0, 0, 0})
	assert.Equal(t, 3e-6, r[0])
	assert.Equal(t, 1e-6, r[1])
}

func TestMisalignmentRoundTrip(t *testing.T) {
	shift := []float64{1e-4, 0, -2e-4, 0, 0, 0}
	back := []float64{-1e-4, 0, 2e-4, 0, 0, 0}

	d := element.NewDrift("d1", 0)
	d.T1 = shift
	d.T2 = back

	r := trackOne(t, []element.Element{d}, []float64{1e-6, 0, 0, 0, 0, 0})
	assert.InDelta(t, 1e-6, r[0], 1e-20)
	assert.InDelta(t, 0, r[2], 1e-20)
}

func TestMisalignmentSnapshot(t *testing.T) {
	// The kernel snapshots T1 at compile time, so later changes to the
	// element must not leak into a reused lattice.
	d := element.NewDrift("d1", 0)
	d.T1 = []float64{1e-4, 0, 0, 0, 0, 0}
	line := []element.Element{d}

	eng := track.New(integrators.NewRegistry(), 1)
	rin := [][]float64{{0, 0, 0, 0, 0, 0}}
	_, err := eng.Track(context.Background(), line, rin, 1, track.Options{})
	require.NoError(t, err)
	require.Equal(t, 1e-4, rin[0][0])

	d.T1[0] = 5e-4
	rin2 := [][]float64{{0, 0, 0, 0, 0, 0}}
	_, err = eng.Track(context.Background(), line, rin2, 1, track.Options{KeepLattice: true})
	require.NoError(t, err)
	assert.Equal(t, 1e-4, rin2[0][0])
}

func TestPhysicalApertures(t *testing.T) {
	t.Run("rectangular aperture on a drift", func(t *testing.T) {
		d := element.NewDrift("d1", 1)
		d.RApertures = []float64{-1e-3, 1e-3, -1e-3, 1e-3}

		r := trackOne(t, []element.Element{d}, []float64{2e-3, 0, 0, 0, 0, 0})
		assert.True(t, math.IsInf(r[0], 1))
		assert.Zero(t, r[2])
	})

	t.Run("elliptic aperture on a quadrupole", func(t *testing.T) {
		q := element.NewQuadrupole("q1", 0.4, 1)
		q.EApertures = []float64{1e-3, 2e-3}

		r := trackOne(t, []element.Element{q}, []float64{0, 0, 3e-3, 0, 0, 0})
		assert.True(t, math.IsInf(r[0], 1))
	})

	t.Run("particle inside passes untouched", func(t *testing.T) {
		plain := element.NewDrift("d1", 1)
		bounded := element.NewDrift("d1", 1)
		bounded.RApertures = []float64{-1e-3, 1e-3, -1e-3, 1e-3}
		bounded.EApertures = []float64{1e-3, 1e-3}

		start := []float64{1e-6, 1e-6, -2e-6, -2e-6, 0, 0}
		want := trackOne(t, []element.Element{plain}, append([]float64(nil), start...))
		got := trackOne(t, []element.Element{bounded}, append([]float64(nil), start...))
		assert.Equal(t, want, got)
	})

	t.Run("exit check sees the grown amplitude", func(t *testing.T) {
		// The particle enters inside the limits and drifts out of them.
		d := element.NewDrift("d1", 1)
		d.RApertures = []float64{-1e-3, 1e-3, -1e-3, 1e-3}

		r := trackOne(t, []element.Element{d}, []float64{0.9e-3, 2e-4, 0, 0, 0, 0})
		assert.True(t, math.IsInf(r[0], 1))
	})
}

func TestKickAngleFoldedIntoPolynoms(t *testing.T) {
	q := element.NewQuadrupole("q1", 0.5, 0)
	q.SetMethod(element.StrMPolePass)
	q.KickAngle = []float64{1e-4, 0}

	r := trackOne(t, []element.Element{q}, []float64{0, 0, 0, 0, 0, 0})
	assert.InDelta(t, math.Sin(1e-4), r[1], 1e-12)
	assert.Greater(t, r[0], 0.0)
}
