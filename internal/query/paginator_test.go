package query

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/kailas-cloud/matproj/internal/domain"
)

func TestFetch_AllPages(t *testing.T) {
	api := newFakeAPI(25)
	p := NewPaginator(api, Config{BaseURL: "https://api.test/"})

	res, err := p.Fetch(context.Background(), Request{
		Path: "materials/core/", Criteria: Criteria{}, ChunkSize: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.TotalDoc != 25 {
		t.Errorf("TotalDoc = %d, want 25", res.TotalDoc)
	}
	if got, want := ids(res.Data), mpIDs(0, 25); !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if n := api.callCount(); n != 3 {
		t.Errorf("calls = %d, want 3", n)
	}
}

func TestFetch_NumChunksCapsResults(t *testing.T) {
	tests := []struct {
		numChunks int
		want      int
		calls     int
	}{
		{1, 10, 1},
		{2, 20, 2},
		{5, 25, 3},
	}
	for _, tc := range tests {
		api := newFakeAPI(25)
		p := NewPaginator(api, Config{})
		res, err := p.Fetch(context.Background(), Request{
			Path: "materials/core/", Criteria: Criteria{}, ChunkSize: 10, NumChunks: tc.numChunks,
		})
		if err != nil {
			t.Fatalf("num_chunks=%d: unexpected error: %v", tc.numChunks, err)
		}
		if len(res.Data) != tc.want {
			t.Errorf("num_chunks=%d: len = %d, want %d", tc.numChunks, len(res.Data), tc.want)
		}
		if n := api.callCount(); n != tc.calls {
			t.Errorf("num_chunks=%d: calls = %d, want %d", tc.numChunks, n, tc.calls)
		}
	}
}

func TestFetch_InvalidChunking(t *testing.T) {
	p := NewPaginator(newFakeAPI(1), Config{})
	for _, req := range []Request{
		{Path: "x/", ChunkSize: 0},
		{Path: "x/", ChunkSize: -5},
		{Path: "x/", ChunkSize: 10, NumChunks: -1},
	} {
		if _, err := p.Fetch(context.Background(), req); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("request %+v: err = %v, want ErrValidation", req, err)
		}
	}
}

func TestFetch_EmptyResult(t *testing.T) {
	p := NewPaginator(newFakeAPI(0), Config{})
	res, err := p.Fetch(context.Background(), Request{Path: "x/", Criteria: Criteria{}, ChunkSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Data) != 0 {
		t.Errorf("len = %d, want 0", len(res.Data))
	}
}

func TestFetch_NoMeta(t *testing.T) {
	api := newFakeAPI(5)
	api.noMeta = true
	p := NewPaginator(api, Config{})
	res, err := p.Fetch(context.Background(), Request{Path: "x/", Criteria: Criteria{}, ChunkSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Data) != 5 || res.TotalDoc != 5 {
		t.Errorf("len = %d total = %d, want 5/5", len(res.Data), res.TotalDoc)
	}
}

func TestFetch_ParallelSplit(t *testing.T) {
	api := newFakeAPI(100)
	p := NewPaginator(api, Config{ParallelRequests: 4})

	want := mpIDs(0, 40)
	res, err := p.Fetch(context.Background(), Request{
		Path:      "materials/core/",
		Criteria:  Criteria{"material_ids": want},
		ChunkSize: 100,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res.Data); !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	if n := api.callCount(); n != 4 {
		t.Errorf("calls = %d, want 4 (one per slice)", n)
	}
	for _, c := range api.calls {
		if n := c.ListLen("material_ids"); n != 10 {
			t.Errorf("slice size = %d, want 10", n)
		}
	}
}

func TestFetch_ParallelRespectsURLLength(t *testing.T) {
	api := newFakeAPI(1000)
	const maxLen = 200
	base := "https://api.test/"
	p := NewPaginator(api, Config{BaseURL: base, ParallelRequests: 2, MaxURLLength: maxLen})

	want := mpIDs(100, 160)
	res, err := p.Fetch(context.Background(), Request{
		Path: "materials/core/", Criteria: Criteria{"material_ids": want}, ChunkSize: 1000,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := ids(res.Data); !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
	for _, c := range api.calls {
		enc, err := c.Encode()
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		if l := len(base) + len("materials/core/") + 1 + len(enc); l > maxLen {
			t.Errorf("request URL length %d exceeds %d", l, maxLen)
		}
	}
}

func TestFetch_NoParallelParamNotSplit(t *testing.T) {
	api := newFakeAPI(3)
	p := NewPaginator(api, Config{ParallelRequests: 4})
	_, err := p.Fetch(context.Background(), Request{
		Path:      "materials/core/",
		Criteria:  Criteria{"elements": []string{"Fe", "O", "Si", "Li", "Na", "K", "Mg", "Ca"}},
		ChunkSize: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := api.callCount(); n != 1 {
		t.Errorf("calls = %d, want 1", n)
	}
}

func TestFetch_RebalanceFillsFirstChunk(t *testing.T) {
	// Only mp-0..mp-9 exist, so the second half of the id list matches nothing.
	api := newFakeAPI(10)
	p := NewPaginator(api, Config{ParallelRequests: 2})

	req := append(mpIDs(0, 10), mpIDs(500, 510)...)
	res, err := p.Fetch(context.Background(), Request{
		Path: "materials/core/", Criteria: Criteria{"material_ids": req}, ChunkSize: 10, NumChunks: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got, want := ids(res.Data), mpIDs(0, 10); !reflect.DeepEqual(got, want) {
		t.Errorf("ids = %v, want %v", got, want)
	}
}

func TestFetch_ErrorPropagates(t *testing.T) {
	api := newFakeAPI(30)
	api.failOn = 2
	p := NewPaginator(api, Config{ParallelRequests: 1})
	_, err := p.Fetch(context.Background(), Request{Path: "x/", Criteria: Criteria{}, ChunkSize: 10})
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestSpreadLimit(t *testing.T) {
	tests := []struct {
		chunk, k int
		want     []int
	}{
		{10, 1, []int{10}},
		{10, 3, []int{4, 3, 3}},
		{10, 5, []int{2, 2, 2, 2, 2}},
		{2, 4, []int{1, 1, 1, 1}},
	}
	for _, tc := range tests {
		if got := spreadLimit(tc.chunk, tc.k); !reflect.DeepEqual(got, tc.want) {
			t.Errorf("spreadLimit(%d, %d) = %v, want %v", tc.chunk, tc.k, got, tc.want)
		}
	}
}

func TestParallelParam_PicksLongest(t *testing.T) {
	p := NewPaginator(nil, Config{})
	c := Criteria{
		"material_ids": []string{"mp-1", "mp-2"},
		"task_ids":     []string{"mp-3", "mp-4", "mp-5"},
		"elements":     []string{"Fe", "O", "Si", "Li"},
		"formula":      "Fe2O3",
	}
	if got := p.parallelParam(c); got != "task_ids" {
		t.Errorf("parallelParam = %q, want task_ids", got)
	}
}
