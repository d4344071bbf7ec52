package load

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/lattice"
)

// elegantBuilder creates one element from its Elegant parameters. Note that
// Elegant scales magnet polynomials differently, so the coefficient of order
// n is divided by n!.
type elegantBuilder func(name string, params map[string]string, opts Options) (element.Element, error)

var elegantTypes = map[string]elegantBuilder{
	"drif":       elegantDrift,
	"drift":      elegantDrift,
	"edrift":     elegantDrift,
	"csbend":     elegantDipole,
	"sben":       elegantDipole,
	"sbend":      elegantDipole,
	"csrcsben":   elegantDipole,
	"quadrupole": elegantQuad,
	"kquad":      elegantQuad,
	"ksext":      elegantSext,
	"kicker":     elegantCorrector,
	"mark":       elegantMarker,
	"malign":     elegantMarker,
	"recirc":     elegantMarker,
	"sreffects":  elegantMarker,
	"rcol":       elegantMarker,
	"watch":      elegantMarker,
	"charge":     elegantMarker,
	"monitor":    elegantMarker,
	"rfca":       elegantCavity,
}

func loadElegant(path string, opts Options) (*lattice.Lattice, error) {
	switch {
	case opts.Energy <= 0:
		return nil, fmt.Errorf("loading elegant lattice %s: energy is required", path)
	case opts.HarmonicNumber <= 0:
		return nil, fmt.Errorf("loading elegant lattice %s: harmonic number is required", path)
	case opts.LatticeKey == "":
		return nil, fmt.Errorf("loading elegant lattice %s: lattice key is required", path)
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading elegant lattice: %w", err)
	}
	line, err := expandElegant(string(contents), opts)
	if err != nil {
		return nil, fmt.Errorf("loading elegant lattice %s: %w", path, err)
	}
	return &lattice.Lattice{
		Name:        path,
		Energy:      opts.Energy,
		Periodicity: 1,
		Elements:    line,
	}, nil
}

// parseElegantLines lowercases the file, removes '!' comments and joins '&'
// continuation lines.
func parseElegantLines(contents string) []string {
	var lines []string
	current := ""
	for _, l := range strings.Split(strings.ToLower(contents), "\n") {
		l = strings.TrimSpace(l)
		if l == "" || strings.HasPrefix(l, "!") {
			continue
		}
		if strings.HasSuffix(l, "&") {
			current += strings.TrimSuffix(l, "&")
			continue
		}
		lines = append(lines, current+l)
		current = ""
	}
	return lines
}

// splitOutsideParens splits on the delimiter, ignoring delimiters nested
// inside parentheses.
func splitOutsideParens(s, delim string) []string {
	var parts []string
	depth := 0
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '(':
			depth++
		case ')':
			depth--
		}
		if depth == 0 && strings.HasPrefix(s[i:], delim) {
			parts = append(parts, s[start:i])
			start = i + len(delim)
			i += len(delim) - 1
		}
	}
	return append(parts, s[start:])
}

// handleValue unquotes a parameter value and evaluates the basic reverse
// polish arithmetic Elegant allows inside quotes, e.g. "0.04 2 /" -> 0.02.
func handleValue(value string) (string, error) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, `"`) {
		return value, nil
	}
	if !strings.HasSuffix(value, `"`) {
		return "", fmt.Errorf("unterminated quoted value %s", value)
	}
	fields := strings.Fields(value[1 : len(value)-1])
	if len(fields) == 1 {
		return fields[0], nil
	}
	if len(fields) != 3 {
		return "", fmt.Errorf("quoted arithmetic %s not understood", value)
	}
	a, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return "", err
	}
	b, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		return "", err
	}
	var out float64
	switch fields[2] {
	case "/":
		out = a / b
	case "*":
		out = a * b
	case "-":
		out = a - b
	case "+":
		out = a + b
	default:
		return "", fmt.Errorf("operator %q not understood", fields[2])
	}
	return strconv.FormatFloat(out, 'g', -1, 64), nil
}

// expandElegant parses the statements of an Elegant file and returns the
// expanded sequence named by the lattice key.
func expandElegant(contents string, opts Options) ([]element.Element, error) {
	variables := map[string]string{}
	elements := map[string]element.Element{}
	chunks := map[string][]element.Element{}
	for _, line := range parseElegantLines(contents) {
		key, value, isDef := strings.Cut(line, ":")
		if !isDef {
			name, val, ok := strings.Cut(line, "=")
			if !ok {
				return nil, fmt.Errorf("statement %q not understood", line)
			}
			variables[strings.TrimSpace(name)] = strings.TrimSpace(val)
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		head, _, _ := strings.Cut(value, ",")
		if _, known := elegantTypes[head]; known {
			el, err := elegantElement(key, value, variables, opts)
			if err != nil {
				return nil, err
			}
			elements[key] = el
		} else {
			chunk, err := parseElegantChunk(value, elements, chunks)
			if err != nil {
				return nil, err
			}
			chunks[key] = chunk
		}
	}
	line, ok := chunks[opts.LatticeKey]
	if !ok {
		return nil, fmt.Errorf("lattice key %q not defined", opts.LatticeKey)
	}
	return line, nil
}

// parseElegantChunk expands one sequence definition. Inside line=(...) a
// -name entry reverses the element order only; inv(...) additionally swaps
// the dipole faces.
func parseElegantChunk(value string, elements map[string]element.Element, chunks map[string][]element.Element) ([]element.Element, error) {
	var chunk []element.Element
	for _, part := range splitOutsideParens(value, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.Contains(part, "symmetry"):
			continue
		case strings.HasPrefix(part, "line=(") && strings.HasSuffix(part, ")"):
			inner := part[len("line=(") : len(part)-1]
			for _, p := range strings.Split(inner, ",") {
				p = strings.TrimSpace(p)
				switch {
				case strings.HasPrefix(p, "-"):
					seq, ok := chunks[p[1:]]
					if !ok {
						return nil, fmt.Errorf("reversed sequence %q not defined", p[1:])
					}
					chunk = append(chunk, flipped(seq)...)
				default:
					if el, ok := elements[p]; ok {
						chunk = append(chunk, el)
					} else if seq, ok := chunks[p]; ok {
						chunk = append(chunk, seq...)
					} else {
						return nil, fmt.Errorf("lattice section %q not understood", p)
					}
				}
			}
		case strings.HasPrefix(part, "inv(") && strings.HasSuffix(part, ")"):
			name := part[len("inv(") : len(part)-1]
			seq, ok := chunks[name]
			if !ok {
				return nil, fmt.Errorf("inverted sequence %q not defined", name)
			}
			chunk = append(chunk, reversed(seq)...)
		case strings.Contains(part, "*"):
			count, name, _ := strings.Cut(part, "*")
			n, err := strconv.Atoi(count)
			if err != nil {
				return nil, fmt.Errorf("repetition %q not understood", part)
			}
			seq, ok := chunks[name]
			if !ok {
				return nil, fmt.Errorf("repeated sequence %q not defined", name)
			}
			for i := 0; i < n; i++ {
				chunk = append(chunk, seq...)
			}
		default:
			if el, ok := elements[part]; ok {
				chunk = append(chunk, el)
			} else if seq, ok := chunks[part]; ok {
				chunk = append(chunk, seq...)
			} else {
				return nil, fmt.Errorf("part %q not understood", part)
			}
		}
	}
	return chunk, nil
}

func elegantElement(name, definition string, variables map[string]string, opts Options) (element.Element, error) {
	parts := splitOutsideParens(definition, ",")
	kind := strings.TrimSpace(parts[0])
	params := map[string]string{}
	for _, part := range parts[1:] {
		kv := splitOutsideParens(part, "=")
		if len(kv) != 2 {
			return nil, fmt.Errorf("element %s: parameter %q not understood", name, part)
		}
		value, err := handleValue(kv[1])
		if err != nil {
			return nil, fmt.Errorf("element %s: %w", name, err)
		}
		if v, defined := variables[value]; defined {
			value = v
		}
		params[strings.TrimSpace(kv[0])] = value
	}
	return elegantTypes[kind](name, params, opts)
}

func elegantFloat(params map[string]string, key string, def float64) (float64, error) {
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

func elegantMarker(name string, params map[string]string, opts Options) (element.Element, error) {
	return element.NewMarker(name), nil
}

func elegantDrift(name string, params map[string]string, opts Options) (element.Element, error) {
	l, err := elegantFloat(params, "l", 0)
	if err != nil {
		return nil, err
	}
	return element.NewDrift(name, l), nil
}

func elegantQuad(name string, params map[string]string, opts Options) (element.Element, error) {
	l, err := elegantFloat(params, "l", 0)
	if err != nil {
		return nil, err
	}
	k1, err := elegantFloat(params, "k1", 0)
	if err != nil {
		return nil, err
	}
	steps, err := elegantFloat(params, "n_kicks", element.DefaultIntSteps)
	if err != nil {
		return nil, err
	}
	q := element.NewQuadrupole(name, l, k1)
	q.SetMethod(element.StrMPolePass)
	q.SetSteps(int(steps))
	return q, nil
}

func elegantSext(name string, params map[string]string, opts Options) (element.Element, error) {
	l, err := elegantFloat(params, "l", 0)
	if err != nil {
		return nil, err
	}
	k2, err := elegantFloat(params, "k2", 0)
	if err != nil {
		return nil, err
	}
	steps, err := elegantFloat(params, "n_kicks", element.DefaultIntSteps)
	if err != nil {
		return nil, err
	}
	s := element.NewSextupole(name, l, k2/2)
	s.SetSteps(int(steps))
	return s, nil
}

func elegantDipole(name string, params map[string]string, opts Options) (element.Element, error) {
	l, err := elegantFloat(params, "l", 0)
	if err != nil {
		return nil, err
	}
	angle, err := elegantFloat(params, "angle", 0)
	if err != nil {
		return nil, err
	}
	e1, err := elegantFloat(params, "e1", 0)
	if err != nil {
		return nil, err
	}
	e2, err := elegantFloat(params, "e2", 0)
	if err != nil {
		return nil, err
	}
	hgap, err := elegantFloat(params, "hgap", 0)
	if err != nil {
		return nil, err
	}
	fint, err := elegantFloat(params, "fint", 0)
	if err != nil {
		return nil, err
	}
	steps, err := elegantFloat(params, "n_kicks", element.DefaultIntSteps)
	if err != nil {
		return nil, err
	}
	k1, err := elegantFloat(params, "k1", 0)
	if err != nil {
		return nil, err
	}
	k2, err := elegantFloat(params, "k2", 0)
	if err != nil {
		return nil, err
	}
	k3, err := elegantFloat(params, "k3", 0)
	if err != nil {
		return nil, err
	}
	k4, err := elegantFloat(params, "k4", 0)
	if err != nil {
		return nil, err
	}
	d := element.NewDipole(name, l, angle, 0)
	d.SetPolynoms(nil, []float64{0, k1, k2 / 2, k3 / 6, k4 / 24})
	d.EntranceAngle = e1
	d.ExitAngle = e2
	d.FullGap = hgap * 2
	d.FringeInt1 = fint
	d.FringeInt2 = fint
	d.SetMethod(element.BndMPolePass)
	d.SetSteps(int(steps))
	return d, nil
}

func elegantCorrector(name string, params map[string]string, opts Options) (element.Element, error) {
	l, err := elegantFloat(params, "l", 0)
	if err != nil {
		return nil, err
	}
	hkick, err := elegantFloat(params, "hkick", 0)
	if err != nil {
		return nil, err
	}
	vkick, err := elegantFloat(params, "vkick", 0)
	if err != nil {
		return nil, err
	}
	return element.NewCorrector(name, l, []float64{hkick, vkick}), nil
}

func elegantCavity(name string, params map[string]string, opts Options) (element.Element, error) {
	l, err := elegantFloat(params, "l", 0)
	if err != nil {
		return nil, err
	}
	volt, err := elegantFloat(params, "volt", 0)
	if err != nil {
		return nil, err
	}
	freq, err := elegantFloat(params, "freq", 0)
	if err != nil {
		return nil, err
	}
	return element.NewRFCavity(name, l, volt, freq, opts.HarmonicNumber, opts.Energy), nil
}
