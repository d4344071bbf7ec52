package load

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/latticego/internal/element"
)

func writeLattice(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ring.hcl")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0600))
	return path
}

const fodoHCL = `
energy  = 3.0e9
lattice = "ring"

element "quadrupole" "qf" {
  length = 0.5
  k      = 1.2
}

element "quadrupole" "qd" {
  length = 0.5
  k      = -1.2
}

element "drift" "d1" {
  length = 1.0
}

element "dipole" "b1" {
  length         = 0.933
  angle          = 0.1308
  entrance_angle = 0.06544
  exit_angle     = 0.06544
}

element "rfcavity" "cav" {
  voltage         = 2.5e6
  frequency       = 4.99654e8
  harmonic_number = 31
}

sequence "cell" {
  line = ["qf", "d1", "qd", "d1", "b1"]
}

sequence "ring" {
  line = ["2*cell", "-cell", "cav"]
}
`

func TestLoadHCL(t *testing.T) {
	path := writeLattice(t, fodoHCL)
	lat, err := loadHCL(path, Options{})
	require.NoError(t, err)

	assert.Equal(t, "ring", lat.Name)
	assert.Equal(t, 3.0e9, lat.Energy)
	require.Len(t, lat.Elements, 16)

	t.Run("element attributes", func(t *testing.T) {
		qf, ok := lat.Elements[0].(*element.Quadrupole)
		require.True(t, ok)
		assert.Equal(t, "qf", qf.FamName())
		assert.Equal(t, 1.2, qf.K())
	})

	t.Run("reversed sequence swaps dipole faces", func(t *testing.T) {
		// The "-cell" entry starts with the reversed dipole.
		b, ok := lat.Elements[10].(*element.Dipole)
		require.True(t, ok)
		assert.Equal(t, 0.06544, b.EntranceAngle)
		assert.Equal(t, 0.06544, b.ExitAngle)
	})

	t.Run("cavity inherits the file energy", func(t *testing.T) {
		cav, ok := lat.Elements[15].(*element.RFCavity)
		require.True(t, ok)
		assert.Equal(t, 31, cav.HarmNumber)
		assert.Equal(t, 3.0e9, cav.Energy)
	})
}

func TestLoadHCLOverrides(t *testing.T) {
	contents := `
energy  = 3.0e9
lattice = "ring"

element "drift" "d1" {
  length = 1.0
}

element "drift" "d2" {
  length      = 1.0
  pass_method = "IdentityPass"
}

sequence "ring" {
  line = ["d1", "d2"]
}

sequence "half" {
  line = ["d1"]
}
`
	path := writeLattice(t, contents)

	t.Run("pass method attribute", func(t *testing.T) {
		lat, err := loadHCL(path, Options{})
		require.NoError(t, err)
		assert.Equal(t, element.DriftPass, lat.Elements[0].Method())
		assert.Equal(t, element.IdentityPass, lat.Elements[1].Method())
	})

	t.Run("options override energy and lattice key", func(t *testing.T) {
		lat, err := loadHCL(path, Options{Energy: 6.0e9, LatticeKey: "half"})
		require.NoError(t, err)
		assert.Equal(t, 6.0e9, lat.Energy)
		require.Len(t, lat.Elements, 1)
	})
}

func TestLoadHCLApertures(t *testing.T) {
	path := writeLattice(t, `
energy  = 3.0e9
lattice = "ring"

element "drift" "d1" {
  length      = 1.0
  r_apertures = [-1e-3, 1e-3, -2e-3, 2e-3]
}

element "quadrupole" "qf" {
  length      = 0.5
  k           = 1.2
  e_apertures = [1e-3, 2e-3]
}

sequence "ring" {
  line = ["d1", "qf"]
}
`)
	lat, err := loadHCL(path, Options{})
	require.NoError(t, err)
	require.Len(t, lat.Elements, 2)

	d := lat.Elements[0].(*element.Drift)
	assert.Equal(t, []float64{-1e-3, 1e-3, -2e-3, 2e-3}, d.RApertures)
	assert.Nil(t, d.EApertures)

	q := lat.Elements[1].(*element.Quadrupole)
	assert.Equal(t, []float64{1e-3, 2e-3}, q.EApertures)

	t.Run("wrong arity is rejected", func(t *testing.T) {
		bad := writeLattice(t, `
energy  = 3.0e9
lattice = "ring"
element "drift" "d1" {
  length      = 1.0
  r_apertures = [-1e-3, 1e-3]
}
sequence "ring" { line = ["d1"] }
`)
		_, err := loadHCL(bad, Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "r_apertures")
	})
}

func TestLoadHCLErrors(t *testing.T) {
	t.Run("syntax error", func(t *testing.T) {
		path := writeLattice(t, `energy = `)
		_, err := loadHCL(path, Options{})
		require.Error(t, err)
	})

	t.Run("unknown kind", func(t *testing.T) {
		path := writeLattice(t, `
energy  = 3.0e9
lattice = "ring"
element "wiggler" "w1" {}
sequence "ring" { line = [] }
`)
		_, err := loadHCL(path, Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `kind "wiggler" not understood`)
	})

	t.Run("undefined entry", func(t *testing.T) {
		path := writeLattice(t, `
energy  = 3.0e9
lattice = "ring"
sequence "ring" { line = ["nope"] }
`)
		_, err := loadHCL(path, Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `entry "nope" not defined`)
	})
}

func TestFileDispatch(t *testing.T) {
	t.Run("unknown extension", func(t *testing.T) {
		_, err := File("ring.xyz", Options{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), ".hcl")
		assert.Contains(t, err.Error(), ".lat")
		assert.Contains(t, err.Error(), ".lte")
	})

	t.Run("dispatches on extension", func(t *testing.T) {
		path := writeLattice(t, fodoHCL)
		lat, err := File(path, Options{})
		require.NoError(t, err)
		assert.Len(t, lat.Elements, 16)
	})
}

func TestRegisterDuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		Register(".hcl", Format{})
	})
}
