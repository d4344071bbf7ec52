package lattice

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/latticego/internal/element"
)

func fodoLine() []element.Element {
	return []element.Element{
		element.NewQuadrupole("qf", 0.5, 1.2),
		element.NewDrift("d1", 1.0),
		element.NewQuadrupole("qd", 0.5, -1.2),
		element.NewDrift("d2", 1.0),
	}
}

func TestLength(t *testing.T) {
	line := fodoLine()
	assert.Equal(t, 3.0, Length(line))

	l := &Lattice{Name: "fodo", Energy: 3e9, Periodicity: 1, Elements: line}
	assert.Equal(t, 3.0, l.Length())
	assert.InDelta(t, 3.0/C0, l.RevolutionTime(), 1e-20)
}

func TestSPos(t *testing.T) {
	line := fodoLine()

	t.Run("all points", func(t *testing.T) {
		spos := SPos(line, nil)
		assert.Equal(t, []float64{0, 0.5, 1.5, 2.0, 3.0}, spos)
	})

	t.Run("selected points", func(t *testing.T) {
		spos := SPos(line, []int{0, 2, 4})
		assert.Equal(t, []float64{0, 1.5, 3.0}, spos)
	})
}

func TestURefPts(t *testing.T) {
	t.Run("nil defaults to end of ring", func(t *testing.T) {
		refs, err := URefPts(nil, 4)
		require.NoError(t, err)
		assert.Equal(t, []int{4}, refs)
	})

	t.Run("valid selection is copied", func(t *testing.T) {
		in := []int{0, 2, 4}
		refs, err := URefPts(in, 4)
		require.NoError(t, err)
		assert.Equal(t, in, refs)
		refs[0] = 99
		assert.Equal(t, 0, in[0])
	})

	t.Run("descending selection is rejected", func(t *testing.T) {
		_, err := URefPts([]int{2, 1}, 4)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "must be ascending")
	})

	t.Run("out of range selection is rejected", func(t *testing.T) {
		_, err := URefPts([]int{5}, 4)
		require.Error(t, err)

		_, err = URefPts([]int{-1}, 4)
		require.Error(t, err)
	})
}

func TestRefPtsConversions(t *testing.T) {
	refs := []int{0, 2, 4}
	mask := BoolRefPts(refs, 4)
	assert.Equal(t, []bool{true, false, true, false, true}, mask)
	assert.Equal(t, refs, MaskRefPts(mask))
}
