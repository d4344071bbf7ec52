package load

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/latticego/internal/element"
	"github.com/vk/latticego/internal/lattice"
)

// hclFile is the top level schema of a native lattice file.
type hclFile struct {
	Energy      float64       `hcl:"energy"`
	Lattice     string        `hcl:"lattice"`
	Periodicity *int          `hcl:"periodicity"`
	Elements    []hclElement  `hcl:"element,block"`
	Sequences   []hclSequence `hcl:"sequence,block"`
}

// hclElement is one element "kind" "name" { ... } block. The body is kept
// opaque because each kind accepts different attributes.
type hclElement struct {
	Kind string   `hcl:"kind,label"`
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

type hclSequence struct {
	Name string   `hcl:"name,label"`
	Line []string `hcl:"line"`
}

func loadHCL(path string, opts Options) (*lattice.Lattice, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("loading lattice: %w", diags)
	}
	return decodeHCL(file, path, opts)
}

func decodeHCL(file *hcl.File, path string, opts Options) (*lattice.Lattice, error) {
	var root hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, fmt.Errorf("loading lattice %s: %w", path, diags)
	}
	latticeKey := root.Lattice
	if opts.LatticeKey != "" {
		latticeKey = opts.LatticeKey
	}
	energy := root.Energy
	if opts.Energy > 0 {
		energy = opts.Energy
	}
	elements := map[string]element.Element{}
	for _, block := range root.Elements {
		if _, dup := elements[block.Name]; dup {
			return nil, fmt.Errorf("loading lattice %s: element %q defined twice", path, block.Name)
		}
		el, err := buildHCLElement(block, energy)
		if err != nil {
			return nil, fmt.Errorf("loading lattice %s: element %q: %w", path, block.Name, err)
		}
		elements[block.Name] = el
	}
	sequences := map[string][]element.Element{}
	for _, seq := range root.Sequences {
		if _, dup := sequences[seq.Name]; dup {
			return nil, fmt.Errorf("loading lattice %s: sequence %q defined twice", path, seq.Name)
		}
		line, err := expandHCLSequence(seq.Line, elements, sequences)
		if err != nil {
			return nil, fmt.Errorf("loading lattice %s: sequence %q: %w", path, seq.Name, err)
		}
		sequences[seq.Name] = line
	}
	line, ok := sequences[latticeKey]
	if !ok {
		return nil, fmt.Errorf("loading lattice %s: sequence %q not defined", path, latticeKey)
	}
	periodicity := 1
	if root.Periodicity != nil {
		periodicity = *root.Periodicity
	}
	return &lattice.Lattice{
		Name:        latticeKey,
		Energy:      energy,
		Periodicity: periodicity,
		Elements:    line,
	}, nil
}

// expandHCLSequence resolves a line into elements. Entries may name an
// element, another sequence, "N*name" for repetition or "-name" for a
// reversed sequence.
func expandHCLSequence(entries []string, elements map[string]element.Element, sequences map[string][]element.Element) ([]element.Element, error) {
	var line []element.Element
	for _, entry := range entries {
		count := 1
		if pre, name, ok := strings.Cut(entry, "*"); ok {
			n, err := strconv.Atoi(pre)
			if err != nil {
				return nil, fmt.Errorf("repetition %q not understood", entry)
			}
			count = n
			entry = name
		}
		reverse := strings.HasPrefix(entry, "-")
		entry = strings.TrimPrefix(entry, "-")
		var chunk []element.Element
		if el, ok := elements[entry]; ok {
			chunk = []element.Element{el}
		} else if seq, ok := sequences[entry]; ok {
			chunk = seq
		} else {
			return nil, fmt.Errorf("entry %q not defined", entry)
		}
		if reverse {
			chunk = reversed(chunk)
		}
		for i := 0; i < count; i++ {
			line = append(line, chunk...)
		}
	}
	return line, nil
}

// hclAttrs extracts the attributes of an element body as concrete values.
type hclAttrs map[string]cty.Value

func extractHCLAttrs(body hcl.Body) (hclAttrs, error) {
	raw, diags := body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	attrs := make(hclAttrs, len(raw))
	for name, attr := range raw {
		value, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, diags
		}
		attrs[name] = value
	}
	return attrs, nil
}

func (a hclAttrs) float(name string, def float64) (float64, error) {
	value, ok := a[name]
	if !ok {
		return def, nil
	}
	value, err := convert.Convert(value, cty.Number)
	if err != nil {
		return 0, fmt.Errorf("attribute %s: %w", name, err)
	}
	f, _ := value.AsBigFloat().Float64()
	return f, nil
}

func (a hclAttrs) floats(name string) ([]float64, error) {
	value, ok := a[name]
	if !ok {
		return nil, nil
	}
	value, err := convert.Convert(value, cty.List(cty.Number))
	if err != nil {
		return nil, fmt.Errorf("attribute %s: %w", name, err)
	}
	var out []float64
	for it := value.ElementIterator(); it.Next(); {
		_, v := it.Element()
		f, _ := v.AsBigFloat().Float64()
		out = append(out, f)
	}
	return out, nil
}

func (a hclAttrs) str(name string) (string, error) {
	value, ok := a[name]
	if !ok {
		return "", nil
	}
	value, err := convert.Convert(value, cty.String)
	if err != nil {
		return "", fmt.Errorf("attribute %s: %w", name, err)
	}
	return value.AsString(), nil
}

func buildHCLElement(block hclElement, energy float64) (element.Element, error) {
	attrs, err := extractHCLAttrs(block.Body)
	if err != nil {
		return nil, err
	}
	el, err := hclElementOfKind(block.Kind, block.Name, attrs, energy)
	if err != nil {
		return nil, err
	}
	method, err := attrs.str("pass_method")
	if err != nil {
		return nil, err
	}
	if method != "" {
		el.(interface{ SetMethod(string) }).SetMethod(method)
	}
	if steps, err := attrs.float("num_int_steps", 0); err != nil {
		return nil, err
	} else if steps > 0 {
		stepped, ok := el.(interface{ SetSteps(int) })
		if !ok {
			return nil, fmt.Errorf("kind %s does not take num_int_steps", block.Kind)
		}
		stepped.SetSteps(int(steps))
	}
	if err := setHCLApertures(el, attrs); err != nil {
		return nil, err
	}
	return el, nil
}

// setHCLApertures applies the optional physical aperture attributes every
// element kind accepts.
func setHCLApertures(el element.Element, attrs hclAttrs) error {
	rect, err := attrs.floats("r_apertures")
	if err != nil {
		return err
	}
	if rect != nil && len(rect) != 4 {
		return fmt.Errorf("r_apertures needs [xmin, xmax, ymin, ymax], got %d values", len(rect))
	}
	ell, err := attrs.floats("e_apertures")
	if err != nil {
		return err
	}
	if ell != nil && len(ell) != 2 {
		return fmt.Errorf("e_apertures needs [rx, ry], got %d values", len(ell))
	}
	if rect == nil && ell == nil {
		return nil
	}
	b, ok := el.(interface{ SetApertures(rect, ell []float64) })
	if !ok {
		return fmt.Errorf("element %s does not take apertures", el.FamName())
	}
	b.SetApertures(rect, ell)
	return nil
}

func hclElementOfKind(kind, name string, attrs hclAttrs, energy float64) (element.Element, error) {
	length, err := attrs.float("length", 0)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "marker":
		return element.NewMarker(name), nil
	case "monitor":
		return element.NewMonitor(name), nil
	case "aperture":
		limits, err := attrs.floats("limits")
		if err != nil {
			return nil, err
		}
		if len(limits) != 4 {
			return nil, fmt.Errorf("aperture needs 4 limits, got %d", len(limits))
		}
		return element.NewAperture(name, limits), nil
	case "drift":
		return element.NewDrift(name, length), nil
	case "quadrupole":
		k, err := attrs.float("k", 0)
		if err != nil {
			return nil, err
		}
		return element.NewQuadrupole(name, length, k), nil
	case "sextupole":
		h, err := attrs.float("h", 0)
		if err != nil {
			return nil, err
		}
		return element.NewSextupole(name, length, h), nil
	case "dipole", "bend":
		return hclDipole(name, length, attrs)
	case "multipole", "octupole":
		polyA, err := attrs.floats("polynom_a")
		if err != nil {
			return nil, err
		}
		polyB, err := attrs.floats("polynom_b")
		if err != nil {
			return nil, err
		}
		if kind == "octupole" {
			return element.NewOctupole(name, length, polyA, polyB), nil
		}
		return element.NewMultipole(name, length, polyA, polyB), nil
	case "thin_multipole":
		polyA, err := attrs.floats("polynom_a")
		if err != nil {
			return nil, err
		}
		polyB, err := attrs.floats("polynom_b")
		if err != nil {
			return nil, err
		}
		return element.NewThinMultipole(name, polyA, polyB), nil
	case "rfcavity":
		return hclCavity(name, length, attrs, energy)
	case "corrector":
		kicks, err := attrs.floats("kick_angle")
		if err != nil {
			return nil, err
		}
		if len(kicks) != 2 {
			return nil, fmt.Errorf("corrector needs 2 kick angles, got %d", len(kicks))
		}
		return element.NewCorrector(name, length, kicks), nil
	case "m66":
		m, err := attrs.floats("matrix")
		if err != nil {
			return nil, err
		}
		if len(m) != 36 {
			return nil, fmt.Errorf("m66 needs 36 matrix entries, got %d", len(m))
		}
		return element.NewM66(name, m), nil
	default:
		return nil, fmt.Errorf("kind %q not understood", kind)
	}
}

func hclDipole(name string, length float64, attrs hclAttrs) (element.Element, error) {
	angle, err := attrs.float("angle", 0)
	if err != nil {
		return nil, err
	}
	k, err := attrs.float("k", 0)
	if err != nil {
		return nil, err
	}
	d := element.NewDipole(name, length, angle, k)
	if d.EntranceAngle, err = attrs.float("entrance_angle", 0); err != nil {
		return nil, err
	}
	if d.ExitAngle, err = attrs.float("exit_angle", 0); err != nil {
		return nil, err
	}
	if d.FullGap, err = attrs.float("full_gap", 0); err != nil {
		return nil, err
	}
	if d.FringeInt1, err = attrs.float("fringe_int1", 0); err != nil {
		return nil, err
	}
	if d.FringeInt2, err = attrs.float("fringe_int2", 0); err != nil {
		return nil, err
	}
	if polyB, err := attrs.floats("polynom_b"); err != nil {
		return nil, err
	} else if polyB != nil {
		d.SetPolynoms(nil, polyB)
	}
	return d, nil
}

func hclCavity(name string, length float64, attrs hclAttrs, energy float64) (element.Element, error) {
	voltage, err := attrs.float("voltage", 0)
	if err != nil {
		return nil, err
	}
	frequency, err := attrs.float("frequency", 0)
	if err != nil {
		return nil, err
	}
	harm, err := attrs.float("harmonic_number", 0)
	if err != nil {
		return nil, err
	}
	cavityEnergy, err := attrs.float("energy", energy)
	if err != nil {
		return nil, err
	}
	cavity := element.NewRFCavity(name, length, voltage, frequency, int(harm), cavityEnergy)
	if cavity.TimeLag, err = attrs.float("time_lag", 0); err != nil {
		return nil, err
	}
	return cavity, nil
}
