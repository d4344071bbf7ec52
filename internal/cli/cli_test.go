package cli

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vk/latticego/internal/app"
)

func TestParseHelp(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{"-h"}, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Usage:")
}

func TestParseNoArgsPrintsUsage(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse(nil, out)
	require.NoError(t, err)
	assert.True(t, shouldExit)
	assert.Nil(t, cfg)
	assert.Contains(t, out.String(), "Commands:")
	assert.Contains(t, out.String(), ".hcl")
}

func TestParseTrackCommand(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, shouldExit, err := Parse([]string{
		"-turns", "100",
		"-rin", "1e-6,0,0,0,0,0",
		"-rin", "0,1e-6,0,0,0,0",
		"-refpts", "0,2,4",
		"track", "ring.hcl",
	}, out)
	require.NoError(t, err)
	require.False(t, shouldExit)
	require.NotNil(t, cfg)

	assert.Equal(t, app.CmdTrack, cfg.Command)
	assert.Equal(t, "ring.hcl", cfg.LatticePath)
	assert.Equal(t, 100, cfg.Turns)
	assert.Equal(t, [][]float64{
		{1e-6, 0, 0, 0, 0, 0},
		{0, 1e-6, 0, 0, 0, 0},
	}, cfg.Rin)
	assert.Equal(t, []int{0, 2, 4}, cfg.RefPts)
}

func TestParseDefaults(t *testing.T) {
	out := &bytes.Buffer{}
	cfg, _, err := Parse([]string{"describe", "ring.hcl"}, out)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Turns)
	assert.Equal(t, 10, cfg.Workers)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Empty(t, cfg.Rin)
	assert.Nil(t, cfg.RefPts)
}

func TestParseLogLevels(t *testing.T) {
	cases := []struct {
		arg  string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"ERROR", slog.LevelError},
	}
	for _, c := range cases {
		t.Run(c.arg, func(t *testing.T) {
			out := &bytes.Buffer{}
			cfg, _, err := Parse([]string{"-log-level", c.arg, "describe", "ring.hcl"}, out)
			require.NoError(t, err)
			assert.Equal(t, c.want, cfg.LogLevel)
		})
	}
}

func TestParseEnvironmentOverridesDefaults(t *testing.T) {
	t.Setenv("LATTICEGO_WORKERS", "4")
	t.Setenv("LATTICEGO_LATTICE_KEY", "cell")

	out := &bytes.Buffer{}
	cfg, _, err := Parse([]string{"twiss", "ring.lte"}, out)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "cell", cfg.LatticeKey)
}

func TestParseFlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("LATTICEGO_WORKERS", "4")

	out := &bytes.Buffer{}
	cfg, _, err := Parse([]string{"-workers", "2", "orbit", "ring.lat"}, out)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		name string
		args []string
		want string
	}{
		{"unknown command", []string{"optimise", "ring.hcl"}, "unknown command"},
		{"missing lattice path", []string{"track"}, "expected COMMAND LATTICE_PATH"},
		{"too many arguments", []string{"track", "ring.hcl", "extra"}, "expected COMMAND LATTICE_PATH"},
		{"invalid log level", []string{"-log-level", "verbose", "track", "ring.hcl"}, "invalid log-level"},
		{"invalid log format", []string{"-log-format", "yaml", "track", "ring.hcl"}, "invalid log-format"},
		{"short launch vector", []string{"-rin", "1,2,3", "track", "ring.hcl"}, "expected 6 comma separated values"},
		{"zero turns", []string{"-turns", "0", "track", "ring.hcl"}, "turns must be at least 1"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			out := &bytes.Buffer{}
			_, _, err := Parse(c.args, out)
			require.Error(t, err)
			exitErr, ok := err.(*ExitError)
			require.True(t, ok)
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, c.want)
		})
	}
}
