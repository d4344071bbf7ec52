package load

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/latticego/internal/element"
)

func TestStripTracyComments(t *testing.T) {
	assert.Equal(t, "ab", stripTracyComments("a{}b"))
	assert.Equal(t, "ab", stripTracyComments("a\n{a\nb}b"))
	assert.Equal(t, "ab", stripTracyComments("A B"))
}

func TestTracyElement(t *testing.T) {
	t.Run("drift", func(t *testing.T) {
		el, err := tracyElement("d1", "drift,l=0.0450000", nil)
		require.NoError(t, err)
		d, ok := el.(*element.Drift)
		require.True(t, ok)
		assert.Equal(t, "d1", d.FamName())
		assert.Equal(t, 0.045, d.Len())
	})

	t.Run("marker", func(t *testing.T) {
		el, err := tracyElement("m1", "marker", nil)
		require.NoError(t, err)
		assert.IsType(t, &element.Marker{}, el)
	})

	t.Run("quadrupole", func(t *testing.T) {
		variables := map[string]string{"nquad": "10"}
		el, err := tracyElement("q1", "quadrupole,l=0.15,k=10.24,n=nquad,method=4", variables)
		require.NoError(t, err)
		q, ok := el.(*element.Quadrupole)
		require.True(t, ok)
		assert.Equal(t, 0.15, q.Len())
		assert.Equal(t, 10.24, q.K())
		assert.Equal(t, 10, q.Steps())
		assert.Equal(t, element.StrMPolePass, q.Method())
	})

	t.Run("sextupole", func(t *testing.T) {
		variables := map[string]string{"nsext": "2"}
		el, err := tracyElement("s1", "sextupole,l=0.14,k=174.4,n=nsext,method=4", variables)
		require.NoError(t, err)
		s, ok := el.(*element.Sextupole)
		require.True(t, ok)
		assert.Equal(t, 174.4, s.PolynomB[2])
		assert.Equal(t, 2, s.Steps())
	})

	t.Run("cavity", func(t *testing.T) {
		el, err := tracyElement("c1", "cavity,l=0.0,frequency=499.654e6,voltage=2.2e6,phi=0.0", nil)
		require.NoError(t, err)
		c, ok := el.(*element.RFCavity)
		require.True(t, ok)
		assert.Equal(t, 2.2e6, c.Voltage)
		assert.Equal(t, 4.99654e8, c.Frequency)
		assert.Equal(t, tracyHarmNumber, c.HarmNumber)
	})

	t.Run("bending converts degrees to radians", func(t *testing.T) {
		variables := map[string]string{"nbend": "2"}
		el, err := tracyElement("b1", "bending,l=0.20000000,t=0.32969999,t1=0.00000000,t2=0.32969999,k=-0.12411107,n=nbend,method=4", variables)
		require.NoError(t, err)
		b, ok := el.(*element.Dipole)
		require.True(t, ok)
		assert.InDelta(t, 0.32969999*math.Pi/180, b.BendingAngle, 1e-15)
		assert.Zero(t, b.EntranceAngle)
		assert.InDelta(t, 0.32969999*math.Pi/180, b.ExitAngle, 1e-15)
		assert.Equal(t, -0.12411107, b.K())
		assert.Equal(t, 2, b.Steps())
		assert.Equal(t, element.BndMPolePass, b.Method())
	})

	t.Run("variable reference", func(t *testing.T) {
		el, err := tracyElement("d1", "drift,l=a", map[string]string{"a": "1"})
		require.NoError(t, err)
		assert.Equal(t, 1.0, el.Len())
	})
}

func TestExpandTracy(t *testing.T) {
	t.Run("minimal lattice", func(t *testing.T) {
		line, _, err := expandTracy("define lattice;dmult:drift,l=1;cell:dmult;end;")
		require.NoError(t, err)
		require.Len(t, line, 1)
		assert.Equal(t, 1.0, line[0].Len())
	})

	t.Run("repetition and inversion", func(t *testing.T) {
		contents := `define lattice;
		energy = 3.0;
		b1: bending, l=0.2, t=1.0, t1=0.0, t2=1.0;
		d1: drift, l=0.5;
		half: d1, b1;
		cell: 2*half, inv(half);
		end;`
		line, energy, err := expandTracy(contents)
		require.NoError(t, err)
		require.Len(t, line, 6)
		assert.Equal(t, 3.0e9, energy)

		// The inverted chunk comes out reversed and its bend swaps the
		// entrance and exit angles.
		_, ok := line[5].(*element.Drift)
		require.True(t, ok)
		b, ok := line[4].(*element.Dipole)
		require.True(t, ok)
		assert.InDelta(t, 1.0*math.Pi/180, b.EntranceAngle, 1e-15)
		assert.Zero(t, b.ExitAngle)
	})

	t.Run("missing header is rejected", func(t *testing.T) {
		_, _, err := expandTracy("dmult:drift,l=1;cell:dmult;end;")
		require.Error(t, err)
	})

	t.Run("missing cell is rejected", func(t *testing.T) {
		_, _, err := expandTracy("define lattice;dmult:drift,l=1;ring:dmult;end;")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cell")
	})
}
