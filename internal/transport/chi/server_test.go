package chi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type testPage struct {
	Data []map[string]any `json:"data"`
	Meta struct {
		TotalDoc  int    `json:"total_doc"`
		MaxLimit  int    `json:"max_limit"`
		DBVersion string `json:"db_version"`
	} `json:"meta"`
}

func newTestRouter(t *testing.T, keys ...string) http.Handler {
	t.Helper()
	f, err := DefaultFixtures()
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	return NewRouter(NewServer(f, zap.NewNop(), WithGatherer(prometheus.NewRegistry())), keys)
}

func do(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodePage(t *testing.T, rr *httptest.ResponseRecorder) testPage {
	t.Helper()
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", rr.Code, rr.Body.String())
	}
	var p testPage
	if err := json.NewDecoder(rr.Body).Decode(&p); err != nil {
		t.Fatalf("decode page: %v", err)
	}
	return p
}

func ids(p testPage, key string) []string {
	out := make([]string, len(p.Data))
	for i, d := range p.Data {
		out[i], _ = d[key].(string)
	}
	return out
}

func TestDefaultFixtures_AllRoutes(t *testing.T) {
	f, err := DefaultFixtures()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := len(f.Suffixes()); n != 22 {
		t.Errorf("routes = %d, want 22", n)
	}
	if _, ok := f.Collection("/materials/core/"); !ok {
		t.Error("materials/core not found")
	}
}

func TestSearch_ElementsFilter(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/core/?elements=Fe&_all_fields=true"))

	if p.Meta.TotalDoc != 2 {
		t.Errorf("total_doc = %d, want 2", p.Meta.TotalDoc)
	}
	got := ids(p, "material_id")
	if len(got) != 2 || got[0] != "mp-13" || got[1] != "mp-19770" {
		t.Errorf("ids = %v, want [mp-13 mp-19770]", got)
	}
	if _, ok := p.Data[0]["structure"]; !ok {
		t.Error("_all_fields did not return structure")
	}
}

func TestSearch_ExcludeElements(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/core/?exclude_elements=O,Si&_fields=material_id"))

	if got := ids(p, "material_id"); len(got) != 1 || got[0] != "mp-13" {
		t.Errorf("ids = %v, want [mp-13]", got)
	}
}

func TestSearch_Range(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/summary/?band_gap_min=1&band_gap_max=3&_fields=material_id"))

	if got := ids(p, "material_id"); len(got) != 1 || got[0] != "mp-19770" {
		t.Errorf("ids = %v, want [mp-19770]", got)
	}
}

func TestSearch_RangeOutsideData_Empty(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/summary/?band_gap_min=100&band_gap_max=200"))

	if len(p.Data) != 0 || p.Meta.TotalDoc != 0 {
		t.Errorf("got %d docs, total %d, want none", len(p.Data), p.Meta.TotalDoc)
	}
}

func TestSearch_NestedAlias(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/elasticity/?k_vrh_min=100&_fields=material_id"))

	if got := ids(p, "material_id"); len(got) != 1 || got[0] != "mp-13" {
		t.Errorf("ids = %v, want [mp-13]", got)
	}
}

func TestSearch_Projection(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/core/?material_ids=mp-149&_fields=material_id,formula_pretty"))

	if len(p.Data) != 1 {
		t.Fatalf("got %d docs, want 1", len(p.Data))
	}
	if len(p.Data[0]) != 2 {
		t.Errorf("fields = %v, want material_id and formula_pretty only", p.Data[0])
	}
	if p.Data[0]["formula_pretty"] != "Si" {
		t.Errorf("formula_pretty = %v, want Si", p.Data[0]["formula_pretty"])
	}
}

func TestSearch_DefaultProjection(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/core/?material_ids=mp-149"))

	if len(p.Data) != 1 {
		t.Fatalf("got %d docs, want 1", len(p.Data))
	}
	if _, ok := p.Data[0]["structure"]; ok {
		t.Error("structure returned without being requested")
	}
	if p.Data[0]["material_id"] != "mp-149" {
		t.Errorf("material_id = %v", p.Data[0]["material_id"])
	}
}

func TestSearch_SortSkipLimit(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/core/?_sort_fields=-nsites&_skip=1&_limit=1&_fields=material_id"))

	if p.Meta.TotalDoc != 3 {
		t.Errorf("total_doc = %d, want 3", p.Meta.TotalDoc)
	}
	if got := ids(p, "material_id"); len(got) != 1 || got[0] != "mp-149" {
		t.Errorf("ids = %v, want [mp-149]", got)
	}
}

func TestSearch_BooleanFilter(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/summary/?is_stable=false&_fields=material_id"))

	if got := ids(p, "material_id"); len(got) != 1 || got[0] != "mp-19770" {
		t.Errorf("ids = %v, want [mp-19770]", got)
	}
}

func TestSearch_SynthesisOperations(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h,
		"/materials/synthesis/?operations=HeatingOperation&condition_heating_temperature_min=800&_all_fields=true"))

	if got := ids(p, "doi"); len(got) != 1 || got[0] != "10.1021/cm0496090" {
		t.Errorf("dois = %v, want [10.1021/cm0496090]", got)
	}
}

func TestSearch_SynthesisKeywords_NoMatch(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/synthesis/?keywords=unobtainium&_all_fields=true"))

	if len(p.Data) != 0 {
		t.Errorf("got %d recipes, want 0", len(p.Data))
	}
}

func TestSearch_LimitTooLarge_400(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, "/materials/core/?_limit=5000")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var body struct {
		Detail []struct {
			Loc []string `json:"loc"`
			Msg string   `json:"msg"`
		} `json:"detail"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Detail) != 1 || body.Detail[0].Loc[1] != "_limit" {
		t.Errorf("detail = %+v, want _limit error", body.Detail)
	}
}

func TestSearch_MalformedLimit_400(t *testing.T) {
	h := newTestRouter(t)
	if rr := do(t, h, "/materials/core/?_limit=many"); rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rr.Code)
	}
}

func TestGet_Found(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/xas/mp-13-XANES-Fe-K/?_all_fields=true"))

	if got := ids(p, "spectrum_id"); len(got) != 1 || got[0] != "mp-13-XANES-Fe-K" {
		t.Errorf("ids = %v", got)
	}
}

func TestGet_NotFound_404(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, "/materials/core/mp-0/")

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rr.Code)
	}
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Detail != "Item with material_id = mp-0 not found" {
		t.Errorf("detail = %q", body.Detail)
	}
}

func TestGet_NoIdentifierRoute_404(t *testing.T) {
	h := newTestRouter(t)
	if rr := do(t, h, "/materials/synthesis/abc/"); rr.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rr.Code)
	}
}

func TestVersion(t *testing.T) {
	h := newTestRouter(t)

	tests := []struct {
		name   string
		target string
		want   int
	}{
		{"known", "/materials/core/?version=2024.12.18", http.StatusOK},
		{"unknown", "/materials/core/?version=1999.01.01", http.StatusNotFound},
		{"unsupported route", "/materials/summary/?version=2024.12.18", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rr := do(t, h, tt.target); rr.Code != tt.want {
				t.Errorf("status = %d, want %d", rr.Code, tt.want)
			}
		})
	}
}

func TestVersions(t *testing.T) {
	h := newTestRouter(t)
	rr := do(t, h, "/materials/thermo/versions/")

	var body struct {
		Data []string `json:"data"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Data) != 3 || body.Data[0] != "2025.09.25" {
		t.Errorf("versions = %v", body.Data)
	}
}

func TestHeartbeat(t *testing.T) {
	f, err := DefaultFixtures()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := NewRouter(NewServer(f, zap.NewNop(), WithDBVersion("2024.01.01"), WithGatherer(prometheus.NewRegistry())), nil)
	rr := do(t, h, "/heartbeat")

	var hb struct {
		Status    string `json:"status"`
		DBVersion string `json:"db_version"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&hb); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hb.Status != "OK" || hb.DBVersion != "2024.01.01" {
		t.Errorf("heartbeat = %+v", hb)
	}
}

func TestTextSearch(t *testing.T) {
	h := newTestRouter(t)
	p := decodePage(t, do(t, h, "/materials/robocrys/text_search/?keywords=diamond&_all_fields=true"))

	if got := ids(p, "material_id"); len(got) != 1 || got[0] != "mp-149" {
		t.Errorf("ids = %v, want [mp-149]", got)
	}
	if rr := do(t, h, "/materials/robocrys/text_search/"); rr.Code != http.StatusBadRequest {
		t.Errorf("no keywords: status = %d, want 400", rr.Code)
	}
}

func TestSubResources(t *testing.T) {
	h := newTestRouter(t)

	pd := decodePage(t, do(t, h, "/materials/thermo/phase_diagram/Fe-O_GGA_GGA+U/?_fields=phase_diagram"))
	if len(pd.Data) != 1 || pd.Data[0]["phase_diagram"] == nil {
		t.Errorf("phase diagram = %v", pd.Data)
	}

	traj := decodePage(t, do(t, h, "/materials/tasks/trajectory/?task_ids=mp-149"))
	if len(traj.Data) != 1 || traj.Data[0]["coords"] == nil {
		t.Errorf("trajectory = %v", traj.Data)
	}
}

func TestNewRouter_Auth(t *testing.T) {
	h := newTestRouter(t, "secret")

	if rr := do(t, h, "/heartbeat"); rr.Code != http.StatusOK {
		t.Errorf("heartbeat: status = %d, want 200", rr.Code)
	}
	if rr := do(t, h, "/materials/core/"); rr.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d, want 401", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/materials/core/", http.NoBody)
	req.Header.Set(APIKeyHeader, "secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("with key: status = %d, want 200", rr.Code)
	}
}

func TestLoadFixtures_YAML(t *testing.T) {
	dir := t.TempDir()
	doc := `suffix: materials/custom
primary_key: material_id
data:
  - material_id: mp-1
    nsites: 4
    last_updated: 2024-01-01T00:00:00Z
  - material_id: mp-2
    nsites: 8
`
	if err := os.WriteFile(filepath.Join(dir, "custom.yaml"), []byte(doc), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "README.md"), []byte("ignored"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	f, err := LoadFixtures(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	h := NewRouter(NewServer(f, zap.NewNop(), WithGatherer(prometheus.NewRegistry())), nil)
	p := decodePage(t, do(t, h, "/materials/custom/?nsites_min=5&_all_fields=true"))

	if got := ids(p, "material_id"); len(got) != 1 || got[0] != "mp-2" {
		t.Errorf("ids = %v, want [mp-2]", got)
	}

	one := decodePage(t, do(t, h, "/materials/custom/mp-1/"))
	if one.Data[0]["last_updated"] != "2024-01-01T00:00:00Z" {
		t.Errorf("last_updated = %v", one.Data[0]["last_updated"])
	}
}

func TestLoadFixtures_MissingSuffix(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte(`{"data": []}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadFixtures(dir); err == nil {
		t.Error("expected error for fixture without suffix")
	}
}
