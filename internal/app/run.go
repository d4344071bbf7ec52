package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/vk/latticego/internal/ctxlog"
	"github.com/vk/latticego/internal/lattice"
	"github.com/vk/latticego/internal/physics"
	"github.com/vk/latticego/internal/track"
)

// Run executes the requested command against the loaded lattice.
func (a *App) Run(ctx context.Context, cfg *Config) error {
	ctx = ctxlog.WithLogger(ctx, a.logger)
	a.logger.Debug("App.Run method started.", "command", cfg.Command)

	var err error
	switch cfg.Command {
	case CmdDescribe:
		err = a.describe()
	case CmdTrack:
		err = a.track(ctx, cfg)
	case CmdOrbit:
		err = a.orbit(ctx, cfg)
	case CmdTwiss:
		err = a.twiss(ctx, cfg)
	default:
		err = fmt.Errorf("unknown command %q", cfg.Command)
	}
	if err != nil {
		return fmt.Errorf("%s failed: %w", cfg.Command, err)
	}

	a.logger.Debug("App.Run method finished.")
	return nil
}

// describe prints a per-element summary of the lattice.
func (a *App) describe() error {
	fmt.Fprintf(a.outW, "Lattice: %s\n", a.lat.Name)
	fmt.Fprintf(a.outW, "Energy: %g eV\n", a.lat.Energy)
	fmt.Fprintf(a.outW, "Periodicity: %d\n", a.lat.Periodicity)
	fmt.Fprintf(a.outW, "Length: %g m\n", a.lat.Length())
	fmt.Fprintf(a.outW, "Revolution time: %g s\n", a.lat.RevolutionTime())
	fmt.Fprintf(a.outW, "Elements: %d\n\n", len(a.lat.Elements))

	w := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "IDX\tNAME\tS\tLENGTH\tPASS METHOD")
	spos := lattice.SPos(a.lat.Elements, nil)
	for i, el := range a.lat.Elements {
		fmt.Fprintf(w, "%d\t%s\t%g\t%g\t%s\n", i, el.FamName(), spos[i], el.Len(), el.Method())
	}
	return w.Flush()
}

// track runs turn-by-turn tracking and prints the coordinates recorded at
// the reference points.
func (a *App) track(ctx context.Context, cfg *Config) error {
	rin := cfg.Rin
	if len(rin) == 0 {
		rin = [][]float64{{0, 0, 0, 0, cfg.DP, 0}}
	}
	result, err := a.engine.Track(ctx, a.lat.Elements, rin, cfg.Turns, track.Options{RefPts: cfg.RefPts})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TURN\tREF\tPARTICLE\tX\tPX\tY\tPY\tDP\tCT")
	for turn := 0; turn < result.Turns; turn++ {
		for ref, idx := range result.RefPts {
			for p := 0; p < result.Particles; p++ {
				r := result.At(turn, ref, p)
				fmt.Fprintf(w, "%d\t%d\t%d\t%g\t%g\t%g\t%g\t%g\t%g\n",
					turn, idx, p, r[0], r[1], r[2], r[3], r[4], r[5])
			}
		}
	}
	return w.Flush()
}

// orbit finds the transverse closed orbit and prints it at the reference
// points.
func (a *App) orbit(ctx context.Context, cfg *Config) error {
	orbit, at, err := physics.FindOrbit4(ctx, a.engine, a.lat.Elements, cfg.DP, cfg.RefPts)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "Closed orbit (dp=%g): x=%g px=%g y=%g py=%g\n\n",
		cfg.DP, orbit[0], orbit[1], orbit[2], orbit[3])

	refs, err := lattice.URefPts(cfg.RefPts, len(a.lat.Elements))
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "REF\tX\tPX\tY\tPY")
	for i, r := range at {
		fmt.Fprintf(w, "%d\t%g\t%g\t%g\t%g\n", refs[i], r[0], r[1], r[2], r[3])
	}
	return w.Flush()
}

// twiss computes the linear optics functions and prints them at the
// reference points, with the tunes and, if requested, the chromaticities.
func (a *App) twiss(ctx context.Context, cfg *Config) error {
	rows, tune, chrom, err := physics.GetTwiss(ctx, a.engine, a.lat.Elements, cfg.DP, cfg.RefPts, cfg.Chrom)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.outW, "Tune: qx=%g qy=%g\n", tune[0], tune[1])
	if chrom != nil {
		fmt.Fprintf(a.outW, "Chromaticity: qx'=%g qy'=%g\n", chrom[0], chrom[1])
	}
	fmt.Fprintln(a.outW)

	w := tabwriter.NewWriter(a.outW, 0, 0, 2, ' ', 0)
	if cfg.Chrom {
		fmt.Fprintln(w, "REF\tS\tALPHAX\tBETAX\tMUX\tALPHAY\tBETAY\tMUY\tETAX\tETAPX")
		for _, row := range rows {
			fmt.Fprintf(w, "%d\t%g\t%g\t%g\t%g\t%g\t%g\t%g\t%g\t%g\n",
				row.Idx, row.SPos,
				row.Alpha[0], row.Beta[0], row.Mu[0],
				row.Alpha[1], row.Beta[1], row.Mu[1],
				row.Dispersion[0], row.Dispersion[1])
		}
	} else {
		fmt.Fprintln(w, "REF\tS\tALPHAX\tBETAX\tMUX\tALPHAY\tBETAY\tMUY")
		for _, row := range rows {
			fmt.Fprintf(w, "%d\t%g\t%g\t%g\t%g\t%g\t%g\t%g\n",
				row.Idx, row.SPos,
				row.Alpha[0], row.Beta[0], row.Mu[0],
				row.Alpha[1], row.Beta[1], row.Mu[1])
		}
	}
	return w.Flush()
}
