package query

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// fakeAPI serves material documents mp-0..mp-(n-1), honouring material_ids, _skip and _limit.
type fakeAPI struct {
	mu     sync.Mutex
	n      int
	calls  []Criteria
	failOn int // 1-based call number that fails, 0 = never
	noMeta bool
}

func newFakeAPI(n int) *fakeAPI { return &fakeAPI{n: n} }

func (f *fakeAPI) Fetch(_ context.Context, _ string, c Criteria) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, c.Clone())
	call := len(f.calls)
	f.mu.Unlock()

	if f.failOn > 0 && call == f.failOn {
		return nil, fmt.Errorf("boom on call %d", call)
	}

	var matched []map[string]any
	ids := c.List("material_ids")
	if len(ids) > 0 {
		for _, id := range ids {
			var i int
			if _, err := fmt.Sscanf(id, "mp-%d", &i); err == nil && i < f.n {
				matched = append(matched, map[string]any{"material_id": id})
			}
		}
	} else {
		for i := 0; i < f.n; i++ {
			matched = append(matched, map[string]any{"material_id": fmt.Sprintf("mp-%d", i)})
		}
	}

	skip, _ := c[ParamSkip].(int)
	limit, ok := c[ParamLimit].(int)
	if !ok {
		limit = len(matched)
	}
	lo := min(skip, len(matched))
	hi := min(lo+limit, len(matched))

	body := map[string]any{"data": matched[lo:hi]}
	if !f.noMeta {
		body["meta"] = map[string]any{"total_doc": len(matched)}
	}
	return json.Marshal(body)
}

func (f *fakeAPI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func ids(docs []map[string]any) []string {
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i], _ = d["material_id"].(string)
	}
	return out
}

func mpIDs(from, to int) []string {
	out := make([]string, 0, to-from)
	for i := from; i < to; i++ {
		out = append(out, fmt.Sprintf("mp-%d", i))
	}
	return out
}
