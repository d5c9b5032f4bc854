package document

import (
	"bytes"
	"log/slog"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/kailas-cloud/matproj/internal/monty"
)

type testProjection struct {
	FieldsNotRequested []string `json:"fields_not_requested,omitempty"`
}

type testDoc struct {
	testProjection
	MaterialID  string            `json:"material_id"`
	BandGap     *float64          `json:"band_gap"`
	NSites      int               `json:"nsites"`
	Elements    []string          `json:"elements"`
	LastUpdated time.Time         `json:"last_updated"`
	Origin      *time.Time        `json:"origin,omitempty"`
	Structure   monty.Object      `json:"structure"`
	TaskType    string            `json:"task_type"`
	Extra       map[string]any    `json:"extra"`
	Hidden      string            `json:"-"`
	Labels      map[string]string `json:"labels"`
}

func structureRaw() map[string]any {
	return map[string]any{
		"@module": "pymatgen.core.structure",
		"@class":  "Structure",
		"lattice": map[string]any{
			"matrix": []any{[]any{2.0, 0.0, 0.0}, []any{0.0, 2.0, 0.0}, []any{0.0, 0.0, 2.0}},
		},
		"sites": []any{
			map[string]any{"species": []any{map[string]any{"element": "Fe", "occu": 1.0}}, "xyz": []any{0.0, 0.0, 0.0}},
		},
	}
}

func rawDoc() map[string]any {
	return map[string]any{
		"material_id":  "mp-13",
		"band_gap":     0.0,
		"nsites":       1.0,
		"elements":     []any{"Fe"},
		"last_updated": "2022-10-28 21:13:52.411000",
		"origin":       map[string]any{"@module": "datetime", "@class": "datetime", "string": "2020-05-01 00:00:00"},
		"structure":    structureRaw(),
		"task_type":    map[string]any{"@module": "emmet", "@class": "TaskType", "value": "Static"},
		"extra":        map[string]any{"s": structureRaw()},
	}
}

func TestDecode_MontyOn(t *testing.T) {
	d := NewDecoder(nil, nil)
	var doc testDoc
	if err := d.Decode(rawDoc(), &doc, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MaterialID != "mp-13" || doc.NSites != 1 {
		t.Errorf("doc = %+v", doc)
	}
	if doc.BandGap == nil || *doc.BandGap != 0 {
		t.Errorf("BandGap = %v", doc.BandGap)
	}
	if doc.LastUpdated.Year() != 2022 {
		t.Errorf("LastUpdated = %v", doc.LastUpdated)
	}
	if doc.Origin == nil || doc.Origin.Year() != 2020 {
		t.Errorf("Origin = %v", doc.Origin)
	}
	s, ok := doc.Structure.Value.(*monty.Structure)
	if !ok {
		t.Fatalf("Structure.Value = %T, want *monty.Structure", doc.Structure.Value)
	}
	if s.Formula() != "Fe" {
		t.Errorf("Formula = %q", s.Formula())
	}
	if doc.TaskType != "Static" {
		t.Errorf("TaskType = %q, want Static", doc.TaskType)
	}
	if _, ok := doc.Extra["s"].(*monty.Structure); !ok {
		t.Errorf("Extra[s] = %T, want *monty.Structure", doc.Extra["s"])
	}
}

func TestDecode_MontyOff(t *testing.T) {
	d := NewDecoder(nil, nil)
	var doc testDoc
	if err := d.Decode(rawDoc(), &doc, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Structure.Value != nil {
		t.Errorf("Structure.Value = %T, want nil", doc.Structure.Value)
	}
	if doc.Structure.Class != "Structure" || doc.Structure.Raw == nil {
		t.Errorf("Structure = %+v", doc.Structure)
	}
	if _, ok := doc.Extra["s"].(map[string]any); !ok {
		t.Errorf("Extra[s] = %T, want raw map", doc.Extra["s"])
	}
	// Timestamps are always parsed.
	if doc.LastUpdated.IsZero() {
		t.Error("LastUpdated not parsed")
	}
}

func TestDecodeRaw(t *testing.T) {
	d := NewDecoder(nil, nil)
	raw := rawDoc()

	same := d.DecodeRaw(raw, false)
	if _, ok := same["structure"].(map[string]any); !ok {
		t.Errorf("structure = %T, want map", same["structure"])
	}

	decoded := d.DecodeRaw(raw, true)
	if _, ok := decoded["structure"].(*monty.Structure); !ok {
		t.Errorf("structure = %T, want *monty.Structure", decoded["structure"])
	}
	if _, ok := decoded["origin"].(time.Time); !ok {
		t.Errorf("origin = %T, want time.Time", decoded["origin"])
	}
}

func TestDecode_BrokenValueKeptRaw(t *testing.T) {
	var logs bytes.Buffer
	d := NewDecoder(nil, slog.New(slog.NewTextHandler(&logs, nil)))
	raw := rawDoc()
	raw["structure"] = map[string]any{"@module": "pymatgen.core.structure", "@class": "Structure", "sites": []any{}}

	var doc testDoc
	if err := d.Decode(raw, &doc, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MaterialID != "mp-13" {
		t.Errorf("MaterialID = %q", doc.MaterialID)
	}
	if doc.Structure.Value != nil || doc.Structure.Class != "Structure" || doc.Structure.Raw == nil {
		t.Errorf("Structure = %+v, want raw data with nil Value", doc.Structure)
	}
	if !strings.Contains(logs.String(), "pymatgen.core.structure.Structure") {
		t.Errorf("logs = %q, want the undecoded class", logs.String())
	}

	m := d.DecodeRaw(raw, true)
	if _, ok := m["structure"].(map[string]any); !ok {
		t.Errorf("raw structure = %T, want map", m["structure"])
	}
}

func TestFields(t *testing.T) {
	got := Fields(reflect.TypeOf(&testDoc{}))
	want := []string{
		"band_gap", "elements", "extra", "labels", "last_updated", "material_id",
		"nsites", "origin", "structure", "task_type",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Fields = %v, want %v", got, want)
	}
	// Cached result is stable.
	if again := Fields(reflect.TypeOf(testDoc{})); !reflect.DeepEqual(again, want) {
		t.Errorf("cached Fields = %v", again)
	}
}

func TestNotRequested(t *testing.T) {
	available := []string{"a", "b", "c", "d"}
	if got := NotRequested(available, nil, map[string]any{"a": 1}); got != nil {
		t.Errorf("no projection: got %v, want nil", got)
	}
	got := NotRequested(available, []string{"a"}, map[string]any{"a": 1, "d": 2})
	if want := []string{"b", "c"}; !reflect.DeepEqual(got, want) {
		t.Errorf("NotRequested = %v, want %v", got, want)
	}
}

func TestUnknownFields(t *testing.T) {
	available := []string{"material_id", "structure"}
	got := UnknownFields(available, []string{"material_id", "structure.lattice", "bogus"})
	if want := []string{"bogus"}; !reflect.DeepEqual(got, want) {
		t.Errorf("UnknownFields = %v, want %v", got, want)
	}
}
