package query

import (
	"context"
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/matproj/internal/domain"
)

// Default settings, overridable per client.
const (
	DefaultParallelRequests = 8
	DefaultMaxURLLength     = 2000
	DefaultChunkSize        = 1000
)

// DefaultNoParallel lists parameters that must never be split across parallel requests.
var DefaultNoParallel = []string{
	"elements",
	"exclude_elements",
	"possible_species",
	"coordination_envs",
	"coordination_envs_anonymous",
	"has_props",
	"gb_plane",
	"rotation_axis",
	"keywords",
	"substrate_orientation",
	"film_orientation",
	"synthesis_type",
	"operations",
	"condition_mixing_device",
	"condition_mixing_media",
	"condition_heating_atmosphere",
	ParamSortFields,
	ParamFields,
}

// Config holds paginator settings.
type Config struct {
	// BaseURL is the endpoint prefix used to estimate request URL lengths.
	BaseURL          string
	ParallelRequests int
	MaxURLLength     int
	NoParallel       []string
}

// Request is one logical query, possibly fanned out into many HTTP requests.
type Request struct {
	Path     string
	Criteria Criteria
	// ChunkSize is the page size. Must be positive.
	ChunkSize int
	// NumChunks caps the number of pages; 0 fetches everything.
	NumChunks int
}

// Result is the merged outcome of a Request.
type Result struct {
	Data     []map[string]any
	TotalDoc int
}

// Paginator splits long list parameters across parallel requests and pages through results.
type Paginator struct {
	fetcher    Fetcher
	baseURL    string
	parallel   int
	maxURLLen  int
	noParallel map[string]struct{}
}

// NewPaginator creates a Paginator over f.
func NewPaginator(f Fetcher, cfg Config) *Paginator {
	if cfg.ParallelRequests <= 0 {
		cfg.ParallelRequests = DefaultParallelRequests
	}
	if cfg.MaxURLLength <= 0 {
		cfg.MaxURLLength = DefaultMaxURLLength
	}
	if cfg.NoParallel == nil {
		cfg.NoParallel = DefaultNoParallel
	}
	np := make(map[string]struct{}, len(cfg.NoParallel))
	for _, p := range cfg.NoParallel {
		np[p] = struct{}{}
	}
	return &Paginator{
		fetcher:    f,
		baseURL:    cfg.BaseURL,
		parallel:   cfg.ParallelRequests,
		maxURLLen:  cfg.MaxURLLength,
		noParallel: np,
	}
}

// Page fetches and decodes exactly one page.
func (p *Paginator) Page(ctx context.Context, path string, c Criteria) (*Page, error) {
	body, err := p.fetcher.Fetch(ctx, path, c)
	if err != nil {
		return nil, err
	}
	return ParsePage(body)
}

// subQuery is one slice of the parallel parameter with its own paging state.
type subQuery struct {
	criteria Criteria
	limit    int
	docs     []map[string]any
	total    int
}

func (s *subQuery) remaining() int {
	return s.total - len(s.docs)
}

// Fetch runs the request and returns at most NumChunks*ChunkSize documents in a stable order.
func (p *Paginator) Fetch(ctx context.Context, req Request) (*Result, error) {
	if req.ChunkSize <= 0 {
		return nil, domain.Invalid("chunk_size", "must be greater than zero, got %d", req.ChunkSize)
	}
	if req.NumChunks < 0 {
		return nil, domain.Invalid("num_chunks", "must be zero or greater, got %d", req.NumChunks)
	}

	subs, err := p.split(req)
	if err != nil {
		return nil, err
	}

	// First page of every sub-query.
	if err := p.runPages(ctx, req.Path, firstPages(subs)); err != nil {
		return nil, err
	}

	if len(subs) > 1 {
		if err := p.rebalance(ctx, req.Path, subs, req.ChunkSize); err != nil {
			return nil, err
		}
	}

	total := 0
	fetched := 0
	for _, s := range subs {
		total += s.total
		fetched += len(s.docs)
	}

	maxPages := req.NumChunks
	if maxPages == 0 {
		maxPages = int(math.Ceil(float64(total) / float64(req.ChunkSize)))
	}
	needed := min(maxPages*req.ChunkSize, total)

	if fetched < needed && req.NumChunks != 1 {
		pages := planPages(subs, req.ChunkSize, needed-fetched)
		if err := p.runPages(ctx, req.Path, pages); err != nil {
			return nil, err
		}
		// Pages are planned in sub-query and skip order, so appending keeps results stable.
		for _, pg := range pages {
			pg.sub.docs = append(pg.sub.docs, *pg.dst...)
		}
	}

	return &Result{Data: merge(subs, needed), TotalDoc: total}, nil
}

// split divides the parallel parameter into URL-length bounded slices and spreads the chunk size.
func (p *Paginator) split(req Request) ([]*subQuery, error) {
	param := p.parallelParam(req.Criteria)
	if param == "" {
		return []*subQuery{{criteria: req.Criteria.Clone(), limit: req.ChunkSize}}, nil
	}

	values := req.Criteria.List(param)
	sliceSize := max(len(values)/p.parallel, 1)

	for {
		chunks := chunkStrings(values, sliceSize)
		fits, err := p.chunksFit(req, param, chunks)
		if err != nil {
			return nil, err
		}
		if fits || sliceSize == 1 {
			return p.subQueries(req, param, chunks), nil
		}
		sliceSize--
	}
}

func (p *Paginator) chunksFit(req Request, param string, chunks [][]string) (bool, error) {
	for _, chunk := range chunks {
		c := req.Criteria.Clone()
		c[param] = chunk
		c[ParamSkip] = 0
		c[ParamLimit] = req.ChunkSize
		enc, err := c.Encode()
		if err != nil {
			return false, err
		}
		if len(p.baseURL)+len(req.Path)+1+len(enc) > p.maxURLLen {
			return false, nil
		}
	}
	return true, nil
}

func (p *Paginator) subQueries(req Request, param string, chunks [][]string) []*subQuery {
	limits := spreadLimit(req.ChunkSize, len(chunks))
	subs := make([]*subQuery, len(chunks))
	for i, chunk := range chunks {
		c := req.Criteria.Clone()
		c[param] = chunk
		subs[i] = &subQuery{criteria: c, limit: limits[i]}
	}
	return subs
}

// parallelParam picks the splittable list parameter with the most entries.
func (p *Paginator) parallelParam(c Criteria) string {
	best, bestLen := "", 1
	for name := range c {
		if _, skip := p.noParallel[name]; skip {
			continue
		}
		n := c.ListLen(name)
		if n > bestLen || (n == bestLen && n > 1 && name < best) {
			best, bestLen = name, n
		}
	}
	return best
}

// spreadLimit divides chunk across k sub-queries as evenly as possible, never below 1.
func spreadLimit(chunk, k int) []int {
	q, r := chunk/k, chunk%k
	out := make([]int, k)
	for i := range out {
		switch {
		case r > 0:
			out[i] = q + 1
			r--
		case q > 0:
			out[i] = q
		default:
			out[i] = 1
		}
	}
	return out
}

func chunkStrings(values []string, size int) [][]string {
	var out [][]string
	for i := 0; i < len(values); i += size {
		out = append(out, values[i:min(i+size, len(values))])
	}
	return out
}

// pageReq is a single HTTP request; results land in dst.
type pageReq struct {
	sub   *subQuery
	skip  int
	limit int
	dst   *[]map[string]any
	first bool
}

func firstPages(subs []*subQuery) []pageReq {
	out := make([]pageReq, len(subs))
	for i, s := range subs {
		out[i] = pageReq{sub: s, skip: 0, limit: s.limit, dst: &s.docs, first: true}
	}
	return out
}

// rebalance tops up the first page from sub-queries that still have documents.
func (p *Paginator) rebalance(ctx context.Context, path string, subs []*subQuery, chunk int) error {
	fetched := 0
	for _, s := range subs {
		fetched += len(s.docs)
	}
	deficit := chunk - fetched
	if deficit <= 0 {
		return nil
	}

	var pages []pageReq
	extras := make([][]map[string]any, len(subs))
	for i, s := range subs {
		if deficit == 0 {
			break
		}
		n := min(s.remaining(), deficit)
		if n <= 0 {
			continue
		}
		pages = append(pages, pageReq{sub: s, skip: len(s.docs), limit: n, dst: &extras[i]})
		deficit -= n
	}
	if err := p.runPages(ctx, path, pages); err != nil {
		return err
	}
	for i, s := range subs {
		s.docs = append(s.docs, extras[i]...)
	}
	return nil
}

// planPages lays out the remaining pages in sub-query order until budget documents are covered.
func planPages(subs []*subQuery, chunk, budget int) []pageReq {
	var pages []pageReq
	for _, s := range subs {
		skip := len(s.docs)
		for skip < s.total && budget > 0 {
			limit := min(chunk, s.total-skip, budget)
			dst := new([]map[string]any)
			pages = append(pages, pageReq{sub: s, skip: skip, limit: limit, dst: dst})
			skip += limit
			budget -= limit
		}
	}
	return pages
}

// runPages executes pages concurrently, bounded by the parallel setting.
func (p *Paginator) runPages(ctx context.Context, path string, pages []pageReq) error {
	if len(pages) == 0 {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.parallel)

	for _, pg := range pages {
		g.Go(func() error {
			c := pg.sub.criteria.Clone()
			c[ParamSkip] = pg.skip
			c[ParamLimit] = pg.limit
			page, err := p.Page(gctx, path, c)
			if err != nil {
				return fmt.Errorf("fetch %s (skip %d, limit %d): %w", path, pg.skip, pg.limit, err)
			}
			*pg.dst = page.Data
			if pg.first {
				pg.sub.total = page.Meta.TotalDoc
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err //nolint:wrapcheck // pages already wrap with context
	}
	return nil
}

func merge(subs []*subQuery, needed int) []map[string]any {
	out := make([]map[string]any, 0, needed)
	for _, s := range subs {
		out = append(out, s.docs...)
	}
	if len(out) > needed {
		out = out[:needed]
	}
	return out
}
