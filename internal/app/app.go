package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/latticego/integrators"
	"github.com/vk/latticego/internal/ctxlog"
	"github.com/vk/latticego/internal/lattice"
	"github.com/vk/latticego/internal/load"
	"github.com/vk/latticego/internal/track"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW   io.Writer
	logger *slog.Logger
	lat    *lattice.Lattice
	engine *track.Engine
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and pass
// method registry.
func NewApp(outW io.Writer, cfg *Config, modules ...track.Module) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if len(modules) == 0 {
		modules = []track.Module{integrators.Module{}}
	}
	registry := track.NewRegistry(modules...)
	logger.Debug("All pass method modules registered.", "methods", len(registry.Names()))

	lat, err := load.File(cfg.LatticePath, load.Options{
		Energy:         cfg.Energy,
		HarmonicNumber: cfg.HarmonicNumber,
		LatticeKey:     cfg.LatticeKey,
	})
	if err != nil {
		// A failure to load the lattice is a fatal startup error.
		panic(fmt.Errorf("failed to load lattice: %w", err))
	}
	ctxlog.FromContext(ctx).Debug("Lattice loaded.",
		"path", cfg.LatticePath, "elements", len(lat.Elements), "length", lat.Length())

	return &App{
		outW:   outW,
		logger: logger,
		lat:    lat,
		engine: track.New(registry, cfg.Workers),
	}
}

// Lattice returns the loaded lattice. This is primarily for testing.
func (a *App) Lattice() *lattice.Lattice {
	return a.lat
}
