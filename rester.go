package matproj

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"slices"
	"strings"

	"github.com/kailas-cloud/matproj/internal/document"
	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

// core is the state shared by every Rester of a Client.
type core struct {
	fetcher     query.Fetcher
	paginator   *query.Paginator
	decoder     *document.Decoder
	obs         *observer
	montyDecode bool
	chunkSize   int
}

func (c *core) queryConfig(opts []QueryOption) queryConfig {
	q := queryConfig{
		allFields:   true,
		montyDecode: c.montyDecode,
		chunkSize:   c.chunkSize,
	}
	for _, o := range opts {
		o.applyQuery(&q)
	}
	return q
}

// materialIDFromTaskID resolves the material a task belongs to.
func (c *core) materialIDFromTaskID(ctx context.Context, taskID string) (string, error) {
	ctx = query.ContextWithRoute(ctx, materialsRoute.Suffix)
	page, err := c.paginator.Page(ctx, materialsRoute.Suffix+"/", query.Criteria{
		"task_ids":        []string{taskID},
		query.ParamFields: []string{domain.KeyMaterialID},
		query.ParamLimit:  1,
	})
	if err != nil {
		return "", err //nolint:wrapcheck // callers add the operation
	}
	if len(page.Data) == 0 {
		return "", fmt.Errorf("%w: no material for task %s", domain.ErrNotFound, taskID)
	}
	id, _ := page.Data[0][domain.KeyMaterialID].(string)
	if id == "" {
		return "", fmt.Errorf("%w: no material for task %s", domain.ErrNotFound, taskID)
	}
	return id, nil
}

// GenericRester is the untyped view of a Rester, used where the category is chosen at runtime.
type GenericRester interface {
	Suffix() string
	PrimaryKey() string
	SupportsVersions() bool
	AvailableFields() []string
	GetRaw(ctx context.Context, id string, opts ...QueryOption) (map[string]any, error)
	SearchRaw(ctx context.Context, criteria map[string]any, opts ...QueryOption) ([]map[string]any, error)
	Count(ctx context.Context, criteria map[string]any) (int, error)
	Versions(ctx context.Context) ([]string, error)
}

// Rester fetches documents of type T from one API route.
// It is safe for concurrent use.
type Rester[T any] struct {
	core   *core
	route  domain.Route
	fields []string
}

func newRester[T any](c *core, route domain.Route) *Rester[T] {
	return &Rester[T]{
		core:   c,
		route:  route,
		fields: document.Fields(reflect.TypeFor[T]()),
	}
}

// Suffix returns the route path below the endpoint.
func (r *Rester[T]) Suffix() string { return r.route.Suffix }

// PrimaryKey returns the document field that identifies documents on this route.
func (r *Rester[T]) PrimaryKey() string { return r.route.PrimaryKey }

// SupportsVersions reports whether the route accepts Version.
func (r *Rester[T]) SupportsVersions() bool { return r.route.SupportsVersions }

// AvailableFields lists the field names of T.
func (r *Rester[T]) AvailableFields() []string { return slices.Clone(r.fields) }

// GetDocumentByID fetches the single document whose primary key is id.
// A material id that now belongs to another material is followed once, with a warning logged.
func (r *Rester[T]) GetDocumentByID(ctx context.Context, id string, opts ...QueryOption) (doc T, err error) {
	ctx, sp := r.core.obs.begin(ctx, "get_document", r.route.Suffix)
	defer func() { r.core.obs.end(sp, err) }()

	q := r.core.queryConfig(opts)
	raw, err := r.getRaw(ctx, id, q)
	if err != nil {
		return doc, fmt.Errorf("get document: %w", err)
	}
	doc, err = r.decode(raw, q)
	if err != nil {
		return doc, fmt.Errorf("get document %s: %w", id, err)
	}
	return doc, nil
}

// GetRaw is GetDocumentByID without the document model.
func (r *Rester[T]) GetRaw(ctx context.Context, id string, opts ...QueryOption) (raw map[string]any, err error) {
	ctx, sp := r.core.obs.begin(ctx, "get_raw", r.route.Suffix)
	defer func() { r.core.obs.end(sp, err) }()

	q := r.core.queryConfig(opts)
	raw, err = r.getRaw(ctx, id, q)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return r.core.decoder.DecodeRaw(raw, q.montyDecode), nil
}

// QueryByTaskID returns the document derived from the given calculation task.
func (r *Rester[T]) QueryByTaskID(ctx context.Context, taskID string, opts ...QueryOption) (doc T, err error) {
	if r.route.PrimaryKey == domain.KeyTaskID {
		return r.GetDocumentByID(ctx, taskID, opts...)
	}

	ctx, sp := r.core.obs.begin(ctx, "query_by_task_id", r.route.Suffix)
	defer func() { r.core.obs.end(sp, err) }()

	id, err := domain.ValidateIdentifier(taskID)
	if err != nil {
		return doc, fmt.Errorf("query by task id: %w", err)
	}
	q := r.core.queryConfig(opts)
	q.chunkSize, q.numChunks = 1, 1
	raws, err := r.fetch(ctx, r.route.Suffix+"/", query.Criteria{"task_ids": []string{id}}, q)
	if err != nil {
		return doc, fmt.Errorf("query by task id: %w", err)
	}
	if len(raws) == 0 {
		return doc, fmt.Errorf("query by task id: %w: no result for task %s", domain.ErrNotFound, id)
	}
	doc, err = r.decode(raws[0], q)
	if err != nil {
		return doc, fmt.Errorf("query by task id %s: %w", id, err)
	}
	return doc, nil
}

// SearchCriteria runs a search with raw query parameters, e.g. {"formula": "Fe2O3", "band_gap_min": 1.0}.
func (r *Rester[T]) SearchCriteria(ctx context.Context, criteria map[string]any, opts ...QueryOption) ([]T, error) {
	c, err := toCriteria(criteria)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}

// SearchRaw is SearchCriteria without the document model.
func (r *Rester[T]) SearchRaw(
	ctx context.Context, criteria map[string]any, opts ...QueryOption,
) (out []map[string]any, err error) {
	ctx, sp := r.core.obs.begin(ctx, "search_raw", r.route.Suffix)
	defer func() { r.core.obs.end(sp, err) }()

	c, err := toCriteria(criteria)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	q := r.core.queryConfig(opts)
	raws, err := r.fetch(ctx, r.route.Suffix+"/", c, q)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	out = make([]map[string]any, len(raws))
	for i, raw := range raws {
		out[i] = r.core.decoder.DecodeRaw(raw, q.montyDecode)
	}
	return out, nil
}

// Count returns the number of documents matching criteria without downloading them.
func (r *Rester[T]) Count(ctx context.Context, criteria map[string]any) (n int, err error) {
	ctx, sp := r.core.obs.begin(ctx, "count", r.route.Suffix)
	defer func() { r.core.obs.end(sp, err) }()

	c, err := toCriteria(criteria)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	c[query.ParamLimit] = 1
	if r.route.PrimaryKey != "" {
		c[query.ParamFields] = []string{r.route.PrimaryKey}
	}
	page, err := r.core.paginator.Page(query.ContextWithRoute(ctx, r.route.Suffix), r.route.Suffix+"/", c)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return page.Meta.TotalDoc, nil
}

// Versions lists the database versions the route can serve.
func (r *Rester[T]) Versions(ctx context.Context) (versions []string, err error) {
	ctx, sp := r.core.obs.begin(ctx, "versions", r.route.Suffix)
	defer func() { r.core.obs.end(sp, err) }()

	if !r.route.SupportsVersions {
		return nil, fmt.Errorf("versions: %w",
			domain.Invalid("version", "route %s does not support database versions", r.route.Suffix))
	}
	body, err := r.core.fetcher.Fetch(query.ContextWithRoute(ctx, r.route.Suffix), r.route.Suffix+"/versions/", nil)
	if err != nil {
		return nil, fmt.Errorf("versions: %w", err)
	}
	var env struct {
		Data []string `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("versions: decode response: %w", err)
	}
	return env.Data, nil
}

// search fetches and decodes every document at path matching c.
func (r *Rester[T]) search(
	ctx context.Context, op, path string, c query.Criteria, opts []QueryOption,
) (docs []T, err error) {
	ctx, sp := r.core.obs.begin(ctx, op, r.route.Suffix)
	defer func() { r.core.obs.end(sp, err) }()

	q := r.core.queryConfig(opts)
	raws, err := r.fetch(ctx, path, c, q)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	docs = make([]T, 0, len(raws))
	for i, raw := range raws {
		doc, err := r.decode(raw, q)
		if err != nil {
			return nil, fmt.Errorf("%s: document %d: %w", op, i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func (r *Rester[T]) fetch(ctx context.Context, path string, c query.Criteria, q queryConfig) ([]map[string]any, error) {
	if err := r.checkQuery(q); err != nil {
		return nil, err
	}
	crit := c.Clone()
	r.project(crit, q)
	res, err := r.core.paginator.Fetch(query.ContextWithRoute(ctx, r.route.Suffix), query.Request{
		Path:      path,
		Criteria:  crit,
		ChunkSize: q.chunkSize,
		NumChunks: q.numChunks,
	})
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add the operation
	}
	return res.Data, nil
}

func (r *Rester[T]) getRaw(ctx context.Context, id string, q queryConfig) (map[string]any, error) {
	if r.route.PrimaryKey == "" {
		return nil, domain.Invalid("id", "route %s has no identifier lookup, use a search", r.route.Suffix)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.Invalid("id", "identifier is empty")
	}
	if domain.HasIdentifierFormat(r.route.PrimaryKey) {
		var err error
		if id, err = domain.ValidateIdentifier(id); err != nil {
			return nil, err
		}
	}
	if err := r.checkQuery(q); err != nil {
		return nil, err
	}

	c := query.Criteria{query.ParamLimit: 1}
	r.project(c, q)
	ctx = query.ContextWithRoute(ctx, r.route.Suffix)

	page, err := r.core.paginator.Page(ctx, r.idPath(id), c)
	if errors.Is(err, domain.ErrNotFound) && r.route.PrimaryKey == domain.KeyMaterialID {
		// The id may be a task id, or a material id that was merged into another one.
		if newID, rerr := r.core.materialIDFromTaskID(ctx, id); rerr == nil && newID != id {
			r.core.obs.warn("document primary key has changed",
				"from", id, "to", newID, "route", r.route.Suffix)
			id = newID
			page, err = r.core.paginator.Page(ctx, r.idPath(id), c)
		}
	}
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add the operation
	}
	if len(page.Data) == 0 {
		return nil, fmt.Errorf("%w: no result for record %s", domain.ErrNotFound, id)
	}
	return page.Data[0], nil
}

func (r *Rester[T]) idPath(id string) string {
	return r.route.Suffix + "/" + url.PathEscape(id) + "/"
}

func (r *Rester[T]) checkQuery(q queryConfig) error {
	if unknown := document.UnknownFields(r.fields, q.fields); len(unknown) > 0 {
		return domain.Invalid("fields", "unknown fields %s for %s, choose from: %s",
			strings.Join(unknown, ", "), r.route.Suffix, strings.Join(r.fields, ", "))
	}
	return q.validateVersion(r.route)
}

// project sets the projection, sort and version parameters.
func (r *Rester[T]) project(c query.Criteria, q queryConfig) {
	switch {
	case len(q.fields) > 0:
		c.SetList(query.ParamFields, q.fields)
	case q.allFields:
		c[query.ParamAllFields] = true
	}
	c.SetList(query.ParamSortFields, q.sortFields)
	c.SetString(query.ParamVersion, q.version)
}

func (r *Rester[T]) decode(raw map[string]any, q queryConfig) (T, error) {
	var doc T
	if err := r.core.decoder.Decode(raw, &doc, q.montyDecode); err != nil {
		return doc, err //nolint:wrapcheck // callers add the operation
	}
	if p, ok := any(&doc).(projected); ok {
		p.setFieldsNotRequested(document.NotRequested(r.fields, q.fields, raw))
	}
	return doc, nil
}

// toCriteria converts user supplied parameters. Nil values are dropped.
func toCriteria(m map[string]any) (query.Criteria, error) {
	c := make(query.Criteria, len(m))
	for k, v := range m {
		switch t := v.(type) {
		case nil:
		case string, bool, int, int64, float64:
			c[k] = t
		case int32:
			c[k] = int(t)
		case float32:
			c[k] = float64(t)
		case []string:
			c.SetList(k, t)
		case []any:
			list := make([]string, len(t))
			for i, e := range t {
				list[i] = fmt.Sprint(e)
			}
			c.SetList(k, list)
		default:
			return nil, domain.Invalid(k, "unsupported parameter type %T", v)
		}
	}
	return c, nil
}

// first fetches the first document at path, a sub-resource of the route.
func (r *Rester[T]) first(ctx context.Context, path string, c query.Criteria) (map[string]any, error) {
	page, err := r.core.paginator.Page(query.ContextWithRoute(ctx, r.route.Suffix), path, c)
	if err != nil {
		return nil, err //nolint:wrapcheck // callers add the operation
	}
	if len(page.Data) == 0 {
		return nil, fmt.Errorf("%w: nothing at %s", domain.ErrNotFound, path)
	}
	return page.Data[0], nil
}
