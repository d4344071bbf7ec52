package load

import (
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/lattice"
)

// tracyTypes is the set of element type names understood in Tracy files.
var tracyTypes = map[string]bool{
	"drift":               true,
	"bending":             true,
	"quadrupole":          true,
	"sextupole":           true,
	"multipole":           true,
	"corrector":           true,
	"marker":              true,
	"beampositionmonitor": true,
	"cavity":              true,
}

// The harmonic number is not recorded in Tracy lattices.
const tracyHarmNumber = 31

func loadTracy(path string, opts Options) (*lattice.Lattice, error) {
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading tracy lattice: %w", err)
	}
	line, energy, err := expandTracy(string(contents))
	if err != nil {
		return nil, fmt.Errorf("loading tracy lattice %s: %w", path, err)
	}
	if opts.Energy != 0 {
		energy = opts.Energy
	}
	return &lattice.Lattice{
		Name:        path,
		Energy:      energy,
		Periodicity: 1,
		Elements:    line,
	}, nil
}

// stripTracyComments removes brace comments and all whitespace, and converts
// to lowercase. Nested comments are not handled.
func stripTracyComments(contents string) string {
	var b strings.Builder
	inComment := false
	for _, ch := range strings.ToLower(contents) {
		switch {
		case ch == '{':
			inComment = true
		case ch == '}':
			inComment = false
		case !inComment && !isSpace(ch):
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func isSpace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// expandTracy parses the statements of a Tracy file and returns the expanded
// "cell" sequence together with the ring energy in eV.
func expandTracy(contents string) ([]element.Element, float64, error) {
	lines := strings.Split(stripTracyComments(contents), ";")
	if len(lines) < 3 || lines[0] != "definelattice" {
		return nil, 0, fmt.Errorf("tracy file must start with 'define lattice'")
	}
	if lines[len(lines)-2] != "end" || lines[len(lines)-1] != "" {
		return nil, 0, fmt.Errorf("tracy file must finish with 'end;'")
	}

	variables := map[string]string{}
	elements := map[string]element.Element{}
	chunks := map[string][]element.Element{}
	for _, line := range lines[1 : len(lines)-2] {
		key, value, isDef := strings.Cut(line, ":")
		if !isDef {
			name, val, ok := strings.Cut(line, "=")
			if !ok {
				return nil, 0, fmt.Errorf("statement %q not understood", line)
			}
			variables[name] = val
			continue
		}
		head, _, _ := strings.Cut(value, ",")
		if tracyTypes[head] {
			el, err := tracyElement(key, value, variables)
			if err != nil {
				return nil, 0, err
			}
			elements[key] = el
		} else {
			chunk, err := parseTracyChunk(value, elements, chunks)
			if err != nil {
				return nil, 0, err
			}
			chunks[key] = chunk
		}
	}

	cell, ok := chunks["cell"]
	if !ok {
		return nil, 0, fmt.Errorf("tracy file defines no 'cell' sequence")
	}
	energy, err := tracyFloat(variables, "energy", 0)
	if err != nil {
		return nil, 0, err
	}
	return cell, energy * 1e9, nil
}

// parseTracyChunk expands one sequence definition. Sequences may repeat
// other sequences (n*name) and reverse them (inv(name)).
func parseTracyChunk(value string, elements map[string]element.Element, chunks map[string][]element.Element) ([]element.Element, error) {
	var chunk []element.Element
	for _, part := range strings.Split(value, ",") {
		switch {
		case strings.Contains(part, "symmetry"):
			continue
		case strings.HasPrefix(part, "inv(") && strings.HasSuffix(part, ")"):
			name := part[len("inv(") : len(part)-1]
			inner, ok := chunks[name]
			if !ok {
				return nil, fmt.Errorf("inverted sequence %q not defined", name)
			}
			chunk = append(chunk, reversed(inner)...)
		case strings.Contains(part, "*"):
			count, name, _ := strings.Cut(part, "*")
			n, err := strconv.Atoi(count)
			if err != nil {
				return nil, fmt.Errorf("repetition %q not understood", part)
			}
			inner, ok := chunks[name]
			if !ok {
				return nil, fmt.Errorf("repeated sequence %q not defined", name)
			}
			for i := 0; i < n; i++ {
				chunk = append(chunk, inner...)
			}
		default:
			if el, ok := elements[part]; ok {
				chunk = append(chunk, el)
			} else if inner, ok := chunks[part]; ok {
				chunk = append(chunk, inner...)
			} else {
				return nil, fmt.Errorf("part %q not understood", part)
			}
		}
	}
	return chunk, nil
}

// tracyElement builds an element from one definition statement, resolving
// variable references in the parameter values.
func tracyElement(name, definition string, variables map[string]string) (element.Element, error) {
	parts := strings.Split(definition, ",")
	kind := parts[0]
	if kind == "corrector" {
		// Tracy correctors carry parameters the tracking does not use.
		parts = parts[:1]
	}
	params := map[string]string{}
	for _, part := range parts[1:] {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("element %s: parameter %q not understood", name, part)
		}
		if v, defined := variables[value]; defined {
			value = v
		}
		params[key] = value
	}
	return buildTracyElement(kind, name, params, variables)
}

func buildTracyElement(kind, name string, params map[string]string, variables map[string]string) (element.Element, error) {
	f := func(key string, def float64) (float64, error) { return tracyFloat(params, key, def) }
	steps := func(el interface{ SetSteps(int) }) error {
		n, err := f("n", float64(element.DefaultIntSteps))
		if err != nil {
			return err
		}
		el.SetSteps(int(n))
		return nil
	}

	switch kind {
	case "marker", "beampositionmonitor":
		return element.NewMarker(name), nil
	case "drift":
		l, err := f("l", 0)
		if err != nil {
			return nil, err
		}
		return element.NewDrift(name, l), nil
	case "bending":
		l, err := f("l", 0)
		if err != nil {
			return nil, err
		}
		t, err := f("t", 0)
		if err != nil {
			return nil, err
		}
		t1, err := f("t1", 0)
		if err != nil {
			return nil, err
		}
		t2, err := f("t2", 0)
		if err != nil {
			return nil, err
		}
		k, err := f("k", 0)
		if err != nil {
			return nil, err
		}
		d := element.NewDipole(name, l, t/180*math.Pi, k)
		d.EntranceAngle = t1 / 180 * math.Pi
		d.ExitAngle = t2 / 180 * math.Pi
		d.SetMethod(element.BndMPolePass)
		return d, steps(d)
	case "quadrupole":
		l, err := f("l", 0)
		if err != nil {
			return nil, err
		}
		k, err := f("k", 0)
		if err != nil {
			return nil, err
		}
		q := element.NewQuadrupole(name, l, k)
		q.SetMethod(element.StrMPolePass)
		return q, steps(q)
	case "sextupole":
		l, err := f("l", 0)
		if err != nil {
			return nil, err
		}
		k, err := f("k", 0)
		if err != nil {
			return nil, err
		}
		s := element.NewSextupole(name, l, k)
		return s, steps(s)
	case "multipole":
		l, err := f("l", 0)
		if err != nil {
			return nil, err
		}
		m := element.NewMultipole(name, l, make([]float64, 4), make([]float64, 4))
		return m, steps(m)
	case "corrector":
		return element.NewCorrector(name, 0, []float64{0, 0}), nil
	case "cavity":
		l, err := f("l", 0)
		if err != nil {
			return nil, err
		}
		voltage, err := f("voltage", 0)
		if err != nil {
			return nil, err
		}
		frequency, err := f("frequency", 0)
		if err != nil {
			return nil, err
		}
		energy, err := tracyFloat(variables, "energy", 0)
		if err != nil {
			return nil, err
		}
		return element.NewRFCavity(name, l, voltage, frequency, tracyHarmNumber, energy*1e9), nil
	}
	return nil, fmt.Errorf("element type %q not understood", kind)
}

func tracyFloat(params map[string]string, key string, def float64) (float64, error) {
	value, ok := params[key]
	if !ok {
		return def, nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("parameter %s: %w", key, err)
	}
	return v, nil
}
