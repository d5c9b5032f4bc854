package monty

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/mitchellh/mapstructure"
)

// Lattice is a periodic lattice given by its row vectors in angstrom.
type Lattice struct {
	Matrix [3][3]float64 `json:"matrix"`
	PBC    [3]bool       `json:"pbc"`
}

// Volume returns the cell volume in cubic angstrom.
func (l Lattice) Volume() float64 {
	m := l.Matrix
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	return math.Abs(det)
}

// Lengths returns a, b and c.
func (l Lattice) Lengths() [3]float64 {
	var out [3]float64
	for i, v := range l.Matrix {
		out[i] = math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	}
	return out
}

// Species is one occupant of a site.
type Species struct {
	Element        string   `json:"element"`
	Occu           float64  `json:"occu"`
	OxidationState *float64 `json:"oxidation_state,omitempty"`
}

// Site is a (possibly disordered) atomic position.
type Site struct {
	Species    []Species      `json:"species"`
	ABC        []float64      `json:"abc,omitempty"`
	XYZ        []float64      `json:"xyz"`
	Label      string         `json:"label,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Structure is a periodic crystal structure.
type Structure struct {
	Lattice Lattice `json:"lattice"`
	Sites   []Site  `json:"sites"`
	Charge  float64 `json:"charge"`
}

// NumSites returns the number of sites.
func (s *Structure) NumSites() int { return len(s.Sites) }

// Composition sums site occupancies per element.
func (s *Structure) Composition() map[string]float64 { return composition(s.Sites) }

// Formula renders the composition with elements in alphabetical order, e.g. "Fe4O6".
func (s *Structure) Formula() string { return formula(s.Sites) }

// NumberDensity returns sites per cubic angstrom.
func (s *Structure) NumberDensity() float64 {
	v := s.Lattice.Volume()
	if v == 0 {
		return 0
	}
	return float64(len(s.Sites)) / v
}

// Molecule is a non-periodic collection of sites.
type Molecule struct {
	Sites            []Site  `json:"sites"`
	Charge           float64 `json:"charge"`
	SpinMultiplicity int     `json:"spin_multiplicity"`
}

// NumSites returns the number of sites.
func (m *Molecule) NumSites() int { return len(m.Sites) }

// Composition sums site occupancies per element.
func (m *Molecule) Composition() map[string]float64 { return composition(m.Sites) }

// Formula renders the composition with elements in alphabetical order.
func (m *Molecule) Formula() string { return formula(m.Sites) }

func composition(sites []Site) map[string]float64 {
	out := make(map[string]float64)
	for _, site := range sites {
		for _, sp := range site.Species {
			out[sp.Element] += sp.Occu
		}
	}
	return out
}

func formula(sites []Site) string {
	comp := composition(sites)
	elems := make([]string, 0, len(comp))
	for e := range comp {
		elems = append(elems, e)
	}
	sort.Strings(elems)

	var b strings.Builder
	for _, e := range elems {
		b.WriteString(e)
		if n := comp[e]; n != 1 {
			b.WriteString(strconv.FormatFloat(n, 'g', -1, 64))
		}
	}
	return b.String()
}

func decodeInto(raw map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return nil
}

func decodeLattice(raw map[string]any) (any, error) {
	l := &Lattice{PBC: [3]bool{true, true, true}}
	if err := decodeInto(raw, l); err != nil {
		return nil, err
	}
	return l, nil
}

func decodeStructure(raw map[string]any) (any, error) {
	s := &Structure{Lattice: Lattice{PBC: [3]bool{true, true, true}}}
	if err := decodeInto(raw, s); err != nil {
		return nil, err
	}
	if len(s.Sites) == 0 {
		return nil, fmt.Errorf("structure has no sites")
	}
	return s, nil
}

func decodeMolecule(raw map[string]any) (any, error) {
	m := &Molecule{SpinMultiplicity: 1}
	if err := decodeInto(raw, m); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeDatetime(raw map[string]any) (any, error) {
	s, ok := raw["string"].(string)
	if !ok {
		return nil, fmt.Errorf("datetime without string field")
	}
	return ParseTime(s)
}

// ParseTime parses the API's timestamps, which are ISO-like and usually carry no zone. UTC is assumed.
func ParseTime(s string) (time.Time, error) {
	t, err := dateparse.ParseIn(strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse time %q: %w", s, err)
	}
	return t, nil
}
