package matproj

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"testing"
)

func TestGetRaw_EveryCategory(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))

	ids := map[string]string{
		"materials":            "mp-149",
		"thermo":               "mp-149",
		"summary":              "mp-149",
		"electronic_structure": "mp-13",
		"tasks":                "mp-1791788",
		"electrodes":           "mp-19017_Li",
		"magnetism":            "mp-13",
		"dielectric":           "mp-149",
		"piezo":                "mp-2998",
		"elasticity":           "mp-13",
		"surface_properties":   "mp-149",
		"similarity":           "mp-149",
		"xas":                  "mp-13-XANES-Fe-K",
		"doi":                  "mp-149",
		"eos":                  "mp-149",
		"fermi":                "mp-1946237",
		"grain_boundaries":     "mp-13",
		"molecules":            "8d6ae1eb8ea0d7e0fe05bb2d9c1c7b7c-C1H4-0-1",
		"substrates":           "mp-149",
		"robocrys":             "mp-13",
		"oxidation_states":     "mp-19770",
	}
	for name, id := range ids {
		t.Run(name, func(t *testing.T) {
			r, err := c.Rester(name)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			raw, err := r.GetRaw(context.Background(), id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := raw[r.PrimaryKey()]; got != id {
				t.Errorf("%s = %v, want %s", r.PrimaryKey(), got, id)
			}
		})
	}
}

// typedGetter fetches a typed document and returns its primary key.
func typedGetter[T any](r *Rester[T], key func(T) string) func(context.Context, string) (string, error) {
	return func(ctx context.Context, id string) (string, error) {
		doc, err := r.GetDocumentByID(ctx, id)
		if err != nil {
			return "", err
		}
		return key(doc), nil
	}
}

func TestGetDocumentByID_EveryCategory(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))

	tests := []struct {
		name    string
		id      string
		unknown string
		get     func(context.Context, string) (string, error)
	}{
		{"materials", "mp-149", "mp-999999",
			typedGetter(c.Materials().Rester, func(d MaterialsDoc) string { return d.MaterialID })},
		{"thermo", "mp-149", "mp-999999",
			typedGetter(c.Thermo().Rester, func(d ThermoDoc) string { return d.MaterialID })},
		{"summary", "mp-149", "mp-999999",
			typedGetter(c.Summary().Rester, func(d SummaryDoc) string { return d.MaterialID })},
		{"electronic_structure", "mp-13", "mp-999999",
			typedGetter(c.ElectronicStructure().Rester, func(d ElectronicStructureDoc) string { return d.MaterialID })},
		{"tasks", "mp-1791788", "mp-999999",
			typedGetter(c.Tasks().Rester, func(d TaskDoc) string { return d.TaskID })},
		{"electrodes", "mp-19017_Li", "mp-999999_Li",
			typedGetter(c.Electrodes().Rester, func(d InsertionElectrodeDoc) string { return d.BatteryID })},
		{"magnetism", "mp-13", "mp-999999",
			typedGetter(c.Magnetism().Rester, func(d MagnetismDoc) string { return d.MaterialID })},
		{"dielectric", "mp-149", "mp-999999",
			typedGetter(c.Dielectric().Rester, func(d DielectricDoc) string { return d.MaterialID })},
		{"piezo", "mp-2998", "mp-999999",
			typedGetter(c.Piezo().Rester, func(d PiezoelectricDoc) string { return d.MaterialID })},
		{"elasticity", "mp-13", "mp-999999",
			typedGetter(c.Elasticity().Rester, func(d ElasticityDoc) string { return d.MaterialID })},
		{"surface_properties", "mp-149", "mp-999999",
			typedGetter(c.SurfaceProperties().Rester, func(d SurfacePropDoc) string { return d.MaterialID })},
		{"similarity", "mp-149", "mp-999999",
			typedGetter(c.Similarity().Rester, func(d SimilarityDoc) string { return d.MaterialID })},
		{"xas", "mp-13-XANES-Fe-K", "mp-999999-XANES-Fe-K",
			typedGetter(c.XAS().Rester, func(d XASDoc) string { return d.SpectrumID })},
		{"doi", "mp-149", "mp-999999",
			typedGetter(c.DOI().Rester, func(d DOIDoc) string { return d.MaterialID })},
		{"eos", "mp-149", "mp-999999",
			typedGetter(c.EOS().Rester, func(d EOSDoc) string { return d.MaterialID })},
		{"fermi", "mp-1946237", "mp-999999",
			typedGetter(c.Fermi().Rester, func(d FermiDoc) string { return d.TaskID })},
		{"grain_boundaries", "mp-13", "mp-999999",
			typedGetter(c.GrainBoundaries().Rester, func(d GrainBoundaryDoc) string { return d.MaterialID })},
		{"molecules", "8d6ae1eb8ea0d7e0fe05bb2d9c1c7b7c-C1H4-0-1", "ffffffffffffffffffffffffffffffff-C1H4-0-1",
			typedGetter(c.Molecules().Rester, func(d MoleculeDoc) string { return d.MoleculeID })},
		{"substrates", "mp-149", "mp-999999",
			typedGetter(c.Substrates().Rester, func(d SubstratesDoc) string { return d.FilmID })},
		{"robocrys", "mp-13", "mp-999999",
			typedGetter(c.Robocrys().Rester, func(d RobocrystallogapherDoc) string { return d.MaterialID })},
		{"oxidation_states", "mp-19770", "mp-999999",
			typedGetter(c.OxidationStates().Rester, func(d OxidationStateDoc) string { return d.MaterialID })},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.get(context.Background(), tt.id)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.id {
				t.Errorf("id = %q, want %q", got, tt.id)
			}

			if _, err := tt.get(context.Background(), tt.unknown); !errors.Is(err, ErrNotFound) {
				t.Errorf("unknown id: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestGetDocumentByID_UndecodableValueKeptRaw(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"material_id":"mp-149","formula_pretty":"Si",` +
			`"structure":{"@module":"pymatgen.core.structure","@class":"Structure","sites":[]}}],` +
			`"meta":{"total_doc":1}}`))
	}))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), WithEndpoint(srv.URL), WithAPIKey(testAPIKey), WithMaxRetries(0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(c.Close)

	doc, err := c.Materials().GetDocumentByID(context.Background(), "mp-149")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MaterialID != "mp-149" {
		t.Errorf("material id = %q", doc.MaterialID)
	}
	if doc.Structure.Value != nil || doc.Structure.Class != "Structure" || doc.Structure.Raw == nil {
		t.Errorf("structure = %+v, want raw data with nil Value", doc.Structure)
	}
}

func TestGetRaw_SynthesisHasNoIdentifier(t *testing.T) {
	api := newFixtureAPI(t)
	c := newTestClient(t, api)

	_, err := c.Synthesis().GetRaw(context.Background(), "10.1021/cm0496090")
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if api.hits.Load() != 0 {
		t.Errorf("requests = %d, want 0", api.hits.Load())
	}
}

func TestGetDocumentByID_Typed(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))

	doc, err := c.Materials().GetDocumentByID(context.Background(), "mp-149")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MaterialID != "mp-149" || doc.Formula != "Si" {
		t.Errorf("doc = %s %s", doc.MaterialID, doc.Formula)
	}
	if doc.Symmetry.Number != 227 || doc.Symmetry.CrystalSystem != "Cubic" {
		t.Errorf("symmetry = %+v", doc.Symmetry)
	}
	if doc.LastUpdated.IsZero() || doc.BuilderMeta.BuildDate.IsZero() {
		t.Error("timestamps not decoded")
	}
	s, ok := doc.Structure.Value.(*Structure)
	if !ok {
		t.Fatalf("structure value = %T, want *Structure", doc.Structure.Value)
	}
	if s.NumSites() != 2 {
		t.Errorf("sites = %d, want 2", s.NumSites())
	}
	if len(doc.FieldsNotRequested) != 0 {
		t.Errorf("fields not requested = %v, want none", doc.FieldsNotRequested)
	}
}

func TestGetDocumentByID_MontyDecodeOff(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))

	doc, err := c.Materials().GetDocumentByID(context.Background(), "mp-149", MontyDecode(false))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Structure.Value != nil {
		t.Errorf("structure value = %T, want nil", doc.Structure.Value)
	}
	if doc.Structure.Class != "Structure" || doc.Structure.Raw == nil {
		t.Errorf("structure = %s.%s raw=%v", doc.Structure.Module, doc.Structure.Class, doc.Structure.Raw != nil)
	}
}

func TestGetDocumentByID_NotFound(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))

	_, err := c.Summary().GetDocumentByID(context.Background(), "mp-999999")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %T, want *APIError in chain", err)
	}
}

func TestGetDocumentByID_FollowsTaskID(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))

	doc, err := c.Materials().GetDocumentByID(context.Background(), "mp-1791788", Fields("material_id"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MaterialID != "mp-149" {
		t.Errorf("material id = %q, want mp-149", doc.MaterialID)
	}
}

func TestGetDocumentByID_RejectedWithoutRequest(t *testing.T) {
	tests := []struct {
		name string
		id   string
		opts []QueryOption
	}{
		{"malformed id", "not an id", nil},
		{"empty id", "  ", nil},
		{"unknown field", "mp-149", []QueryOption{Fields("material_id", "colour")}},
		{"bad version", "mp-149", []QueryOption{Version("latest")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFixtureAPI(t)
			c := newTestClient(t, api)

			_, err := c.Materials().GetDocumentByID(context.Background(), tt.id, tt.opts...)
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("err = %v, want ErrValidation", err)
			}
			if api.hits.Load() != 0 {
				t.Errorf("requests = %d, want 0", api.hits.Load())
			}
		})
	}
}

func TestGetDocumentByID_Fields(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))

	doc, err := c.Materials().GetDocumentByID(context.Background(), "mp-149", Fields("material_id", "formula_pretty"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.Formula != "Si" {
		t.Errorf("formula = %q, want Si", doc.Formula)
	}
	if doc.Structure.Raw != nil {
		t.Error("structure returned without being requested")
	}
	for _, f := range []string{"structure", "task_ids", "symmetry"} {
		if !slices.Contains(doc.FieldsNotRequested, f) {
			t.Errorf("fields not requested %v lacks %s", doc.FieldsNotRequested, f)
		}
	}
	if slices.Contains(doc.FieldsNotRequested, "formula_pretty") {
		t.Error("formula_pretty reported as not requested")
	}
}

func TestGetDocumentByID_Version(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))

	if _, err := c.Thermo().GetDocumentByID(context.Background(), "mp-149", Version("2024.12.18")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := c.Thermo().GetDocumentByID(context.Background(), "mp-149", Version("1999.01.01"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown version: err = %v, want ErrNotFound", err)
	}
	_, err = c.Summary().GetDocumentByID(context.Background(), "mp-149", Version("2024.12.18"))
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unsupported route: err = %v, want ErrValidation", err)
	}
}

func TestVersions(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))

	v, err := c.Materials().Versions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(v) != 3 {
		t.Errorf("versions = %v", v)
	}
	if _, err := c.DOI().Versions(context.Background()); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestQueryByTaskID(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))

	doc, err := c.Materials().QueryByTaskID(context.Background(), "mp-2344812")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if doc.MaterialID != "mp-19770" {
		t.Errorf("material id = %q, want mp-19770", doc.MaterialID)
	}

	task, err := c.Tasks().QueryByTaskID(context.Background(), "mp-149")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if task.TaskID != "mp-149" {
		t.Errorf("task id = %q, want mp-149", task.TaskID)
	}
}

func TestSearchRaw_AndCount(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))
	crit := map[string]any{"elements": []string{"Fe"}, "nsites_min": 1, "nsites_max": 10}

	docs, err := c.Materials().SearchRaw(context.Background(), crit, Fields("material_id"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(docs) != 2 {
		t.Errorf("docs = %d, want 2", len(docs))
	}

	n, err := c.Materials().Count(context.Background(), crit)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 2 {
		t.Errorf("count = %d, want 2", n)
	}
}

func TestSearchCriteria_UnsupportedType(t *testing.T) {
	c := newTestClient(t, newFixtureAPI(t))

	_, err := c.Materials().SearchCriteria(context.Background(), map[string]any{"nsites": struct{}{}})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestSearch_Paging(t *testing.T) {
	api := newFixtureAPI(t)
	c := newTestClient(t, api)

	docs, err := c.Materials().Search(context.Background(), MaterialsSearch{},
		ChunkSize(1), Fields("material_id"), SortFields("material_id"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := make([]string, len(docs))
	for i, d := range docs {
		got[i] = d.MaterialID
	}
	if !slices.Equal(got, []string{"mp-13", "mp-149", "mp-19770"}) {
		t.Errorf("ids = %v", got)
	}
	if api.hits.Load() != 3 {
		t.Errorf("requests = %d, want 3 pages", api.hits.Load())
	}

	first, err := c.Materials().Search(context.Background(), MaterialsSearch{},
		ChunkSize(1), NumChunks(2), Fields("material_id"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first) != 2 {
		t.Errorf("docs = %d, want 2 with NumChunks(2)", len(first))
	}
}
