package track

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/vk/latticego/internal/ctxlog"
	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/lattice"
)

// Options controls a single Track call.
type Options struct {
	// RefPts selects the observation points recorded every turn. Index i
	// is the entrance of element i; index len(line) is the end of the
	// ring. A nil selection records the end of the ring only.
	RefPts []int
	// KeepLattice reuses the lattice compiled by the previous Track call.
	// Element attribute changes made since then are not observed.
	KeepLattice bool
}

// Engine tracks particles through a compiled lattice.
type Engine struct {
	registry *Registry
	workers  int

	compiled   []compiledElement
	ringLength float64
}

type compiledElement struct {
	name   string
	kernel Kernel
}

// New creates an engine drawing pass methods from the given registry.
// workers bounds the number of particles tracked concurrently; values below
// one fall back to a single worker.
func New(registry *Registry, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{registry: registry, workers: workers}
}

// compile resolves the pass method of every element and snapshots the
// element attributes into kernels.
func (e *Engine) compile(line []element.Element) error {
	compiled := make([]compiledElement, len(line))
	length := 0.0
	for i, el := range line {
		builder, ok := e.registry.Lookup(el.Method())
		if !ok {
			return fmt.Errorf("tracking element %d (%s): unknown pass method %q", i, el.FamName(), el.Method())
		}
		kernel, err := builder(el)
		if err != nil {
			return fmt.Errorf("tracking element %d (%s): %w", i, el.FamName(), err)
		}
		compiled[i] = compiledElement{name: el.FamName(), kernel: kernel}
		length += el.Len()
	}
	e.compiled = compiled
	e.ringLength = length
	return nil
}

// Track advances the particles rin through the line for the requested number
// of turns, mutating rin in place, and returns the coordinates recorded at
// the reference points.
func (e *Engine) Track(ctx context.Context, line []element.Element, rin [][]float64, turns int, opts Options) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	for i, r := range rin {
		if len(r) != 6 {
			return nil, fmt.Errorf("particle %d: coordinates must be a 6-vector, got %d values", i, len(r))
		}
	}
	if turns < 0 {
		return nil, fmt.Errorf("turns must be non-negative, got %d", turns)
	}

	refs, err := lattice.URefPts(opts.RefPts, len(line))
	if err != nil {
		return nil, err
	}

	if !opts.KeepLattice || e.compiled == nil {
		if err := e.compile(line); err != nil {
			return nil, err
		}
		logger.Debug("Lattice compiled.", "elements", len(e.compiled), "length", e.ringLength)
	} else {
		logger.Debug("Reusing previously compiled lattice.", "elements", len(e.compiled))
	}
	if len(e.compiled) != len(line) {
		return nil, fmt.Errorf("compiled lattice has %d elements, line has %d", len(e.compiled), len(line))
	}

	result := newResult(turns, refs, len(rin))
	logger.Debug("Tracking started.", "particles", len(rin), "turns", turns, "refpts", len(refs), "workers", e.workers)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for p := range rin {
		p := p
		g.Go(func() error {
			return e.trackParticle(gctx, rin[p], p, turns, refs, result)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Debug("Tracking finished.")
	return result, nil
}

// trackParticle runs one particle through all turns, recording snapshots at
// the reference points. Particles are independent, so each worker writes to
// disjoint regions of the result.
func (e *Engine) trackParticle(ctx context.Context, r []float64, p, turns int, refs []int, result *Result) error {
	prm := Params{
		RingLength: e.ringLength,
		T0:         e.ringLength / lattice.C0,
	}
	for turn := 0; turn < turns; turn++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		prm.Turn = turn
		next := 0
		for i := range e.compiled {
			for next < len(refs) && refs[next] == i {
				copy(result.At(turn, next, p), r)
				next++
			}
			if lost(r) {
				continue
			}
			e.compiled[i].kernel(r, &prm)
		}
		for next < len(refs) && refs[next] == len(e.compiled) {
			copy(result.At(turn, next, p), r)
			next++
		}
	}
	return nil
}

// lost reports whether a particle has been marked as lost by an aperture.
func lost(r []float64) bool {
	return math.IsInf(r[0], 1)
}
