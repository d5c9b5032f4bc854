package monty

import (
	"encoding/json"
	"math"
	"testing"
	"time"
)

const siliconJSON = `{
  "@module": "pymatgen.core.structure",
  "@class": "Structure",
  "charge": 0,
  "lattice": {
    "@module": "pymatgen.core.lattice",
    "@class": "Lattice",
    "matrix": [[3.867, 0, 0], [0, 3.867, 0], [0, 0, 3.867]],
    "pbc": [true, true, true]
  },
  "sites": [
    {"species": [{"element": "Si", "occu": 1}], "abc": [0, 0, 0], "xyz": [0, 0, 0], "label": "Si", "properties": {}},
    {"species": [{"element": "Si", "occu": 1}], "abc": [0.25, 0.25, 0.25], "xyz": [0.96, 0.96, 0.96], "label": "Si", "properties": {}}
  ]
}`

func mustJSON(t *testing.T, s string) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return m
}

func TestDecode_Structure(t *testing.T) {
	r := NewRegistry()
	obj, err := r.Decode(mustJSON(t, siliconJSON))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Class != "Structure" || obj.Module != "pymatgen.core.structure" {
		t.Errorf("tags = %s.%s", obj.Module, obj.Class)
	}
	s, ok := obj.Value.(*Structure)
	if !ok {
		t.Fatalf("Value = %T, want *Structure", obj.Value)
	}
	if s.NumSites() != 2 {
		t.Errorf("NumSites = %d, want 2", s.NumSites())
	}
	if got := s.Formula(); got != "Si2" {
		t.Errorf("Formula = %q, want Si2", got)
	}
	if v := s.Lattice.Volume(); math.Abs(v-57.826) > 0.01 {
		t.Errorf("Volume = %f", v)
	}
	if s.Lattice.Lengths()[0] != 3.867 {
		t.Errorf("a = %f", s.Lattice.Lengths()[0])
	}
}

func TestDecode_Molecule(t *testing.T) {
	r := NewRegistry()
	obj, err := r.Decode(mustJSON(t, `{
		"@module": "pymatgen.core.structure", "@class": "Molecule",
		"charge": -1, "spin_multiplicity": 2,
		"sites": [
			{"species": [{"element": "O", "occu": 1}], "xyz": [0, 0, 0]},
			{"species": [{"element": "H", "occu": 1}], "xyz": [0, 0, 0.97]}
		]
	}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, ok := obj.Value.(*Molecule)
	if !ok {
		t.Fatalf("Value = %T, want *Molecule", obj.Value)
	}
	if m.Charge != -1 || m.SpinMultiplicity != 2 {
		t.Errorf("charge/spin = %v/%d", m.Charge, m.SpinMultiplicity)
	}
	if got := m.Formula(); got != "HO" {
		t.Errorf("Formula = %q, want HO", got)
	}
}

func TestDecode_DatetimeAndEnum(t *testing.T) {
	r := NewRegistry()

	obj, err := r.Decode(map[string]any{
		"@module": "datetime", "@class": "datetime", "string": "2021-06-09 21:14:07.713000",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ts, ok := obj.Value.(time.Time)
	if !ok {
		t.Fatalf("Value = %T, want time.Time", obj.Value)
	}
	if ts.Year() != 2021 || ts.Location() != time.UTC {
		t.Errorf("time = %v", ts)
	}

	obj, err = r.Decode(map[string]any{
		"@module": "emmet.core.vasp.calc_types.enums", "@class": "TaskType", "value": "Structure Optimization",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Value != "Structure Optimization" {
		t.Errorf("enum value = %v", obj.Value)
	}
}

func TestDecode_UnknownClassKeepsRaw(t *testing.T) {
	r := NewRegistry()
	raw := map[string]any{"@module": "x.y", "@class": "Thing", "a": 1.0, "b": 2.0}
	obj, err := r.Decode(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Value != nil {
		t.Errorf("Value = %v, want nil", obj.Value)
	}
	if obj.Raw["a"] != 1.0 {
		t.Errorf("Raw lost data: %v", obj.Raw)
	}
}

func TestDecode_Untagged(t *testing.T) {
	r := NewRegistry()
	obj, err := r.Decode("plain")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Value != "plain" || obj.Class != "" {
		t.Errorf("obj = %+v", obj)
	}
}

func TestDecode_BrokenStructure(t *testing.T) {
	r := NewRegistry()
	obj, err := r.Decode(map[string]any{
		"@module": "pymatgen.core.structure", "@class": "Structure", "sites": []any{},
	})
	if err == nil {
		t.Fatal("expected error for structure without sites")
	}
	if obj.Value != nil || obj.Class != "Structure" || obj.Raw == nil {
		t.Errorf("obj = %+v, want raw data kept with nil Value", obj)
	}
}

func TestDecodeTree_KeepsBrokenValue(t *testing.T) {
	r := NewRegistry()
	broken := map[string]any{"@module": "pymatgen.core.structure", "@class": "Structure", "sites": []any{}}
	var failed []string
	out := r.DecodeTree(map[string]any{"structure": broken}, func(obj Object, _ error) {
		failed = append(failed, obj.Class)
	})
	m := out.(map[string]any)
	if s, ok := m["structure"].(map[string]any); !ok || s["@class"] != "Structure" {
		t.Errorf("structure = %v, want the raw map", m["structure"])
	}
	if len(failed) != 1 || failed[0] != "Structure" {
		t.Errorf("failures = %v, want [Structure]", failed)
	}
}

func TestRegister_Override(t *testing.T) {
	r := NewRegistry()
	r.Register("x.y", "Thing", func(raw map[string]any) (any, error) {
		return raw["a"], nil
	})
	obj, err := r.Decode(map[string]any{"@module": "x.y", "@class": "Thing", "a": "yes"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj.Value != "yes" {
		t.Errorf("Value = %v, want yes", obj.Value)
	}
}

func TestDecodeTree(t *testing.T) {
	r := NewRegistry()
	doc := map[string]any{
		"material_id": "mp-149",
		"structure":   mustJSON(t, siliconJSON),
		"calcs": []any{
			map[string]any{"@module": "a", "@class": "Enum", "value": "GGA"},
			map[string]any{"@module": "a", "@class": "Unknown", "x": 1.0},
		},
	}
	m := r.DecodeTree(doc, nil).(map[string]any)
	if _, ok := m["structure"].(*Structure); !ok {
		t.Errorf("structure = %T, want *Structure", m["structure"])
	}
	calcs := m["calcs"].([]any)
	if calcs[0] != "GGA" {
		t.Errorf("calcs[0] = %v, want GGA", calcs[0])
	}
	if _, ok := calcs[1].(map[string]any); !ok {
		t.Errorf("calcs[1] = %T, want map", calcs[1])
	}
	if m["material_id"] != "mp-149" {
		t.Errorf("material_id = %v", m["material_id"])
	}
}

func TestParseTime(t *testing.T) {
	for _, in := range []string{"2023-01-15T10:20:30", "2023-01-15 10:20:30.123456", "2023-01-15T10:20:30Z"} {
		ts, err := ParseTime(in)
		if err != nil {
			t.Errorf("ParseTime(%q): %v", in, err)
			continue
		}
		if ts.Year() != 2023 || ts.Month() != time.January || ts.Day() != 15 {
			t.Errorf("ParseTime(%q) = %v", in, ts)
		}
	}
	if _, err := ParseTime("not a date"); err == nil {
		t.Error("expected error")
	}
}
