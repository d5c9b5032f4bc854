package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"time"

	gochi "github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/matproj/internal/metrics"
	"github.com/kailas-cloud/matproj/internal/version"
)

// Paging limits of list routes.
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)

// DefaultDBVersion is reported by the heartbeat unless WithDBVersion overrides it.
const DefaultDBVersion = "2025.09.25"

// Server serves fixture documents with the query semantics of the Materials Project API:
// list filters, _min/_max ranges, projection, sorting and skip/limit paging.
type Server struct {
	fixtures  *Fixtures
	logger    *zap.Logger
	gatherer  prometheus.Gatherer
	dbVersion string
	now       func() time.Time
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithGatherer sets the registry exposed on /metrics. Defaults to the global registry.
func WithGatherer(g prometheus.Gatherer) ServerOption {
	return func(s *Server) { s.gatherer = g }
}

// WithDBVersion sets the database version reported by the heartbeat and page metadata.
func WithDBVersion(v string) ServerOption {
	return func(s *Server) { s.dbVersion = v }
}

// NewServer creates a fixture server.
func NewServer(f *Fixtures, logger *zap.Logger, opts ...ServerOption) *Server {
	s := &Server{
		fixtures:  f,
		logger:    logger,
		gatherer:  prometheus.DefaultGatherer,
		dbVersion: DefaultDBVersion,
		now:       time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewRouter wires request ids, the given middlewares, API key auth and metrics in front of the routes.
func NewRouter(s *Server, apiKeys []string, middlewares ...func(http.Handler) http.Handler) http.Handler {
	r := gochi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middlewares...)
	r.Use(APIKeyMiddleware(apiKeys))
	r.Use(metrics.Middleware())
	s.Routes(r)
	return r
}

// Routes registers the heartbeat, metrics and every fixture route on r.
func (s *Server) Routes(r gochi.Router) {
	r.Get("/heartbeat", s.Heartbeat)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})

	for _, suffix := range s.fixtures.Suffixes() {
		c, _ := s.fixtures.Collection(suffix)
		r.Route("/"+suffix, func(r gochi.Router) {
			r.Get("/", s.search(c, c.Data, c.defaultFields()))
			if len(c.Versions) > 0 {
				r.Get("/versions/", s.versions(c))
			}
			if c.TextSearch {
				r.Get("/text_search/", s.textSearch(c))
			}
			for name, sub := range c.Sub {
				if sub.Key != "" {
					r.Get("/"+name+"/{id}/", s.get(c, sub.Key, sub.Data, nil))
				} else {
					r.Get("/"+name+"/", s.search(c, sub.Data, nil))
				}
			}
			if c.PrimaryKey != "" {
				r.Get("/{id}/", s.get(c, c.PrimaryKey, c.Data, c.defaultFields()))
			}
		})
	}
	s.logger.Info("fixture routes registered", zap.Int("routes", len(s.fixtures.Suffixes())))
}

// Heartbeat handles GET /heartbeat.
func (s *Server) Heartbeat(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":     "OK",
		"version":    version.Version,
		"db_version": s.dbVersion,
	})
}

// listParams are the control parameters of a list route.
type listParams struct {
	fields    []string
	allFields bool
	limit     int
	skip      int
	sort      []string
}

func bindListParams(q url.Values) (listParams, error) {
	p := listParams{limit: DefaultLimit}
	for _, b := range []struct {
		name string
		dest any
	}{
		{"_fields", &p.fields},
		{"_all_fields", &p.allFields},
		{"_limit", &p.limit},
		{"_skip", &p.skip},
		{"_sort_fields", &p.sort},
	} {
		if err := runtime.BindQueryParameter("form", false, false, b.name, q, b.dest); err != nil {
			return p, queryError(b.name, err.Error())
		}
	}
	switch {
	case p.limit < 1:
		return p, queryError("_limit", "ensure this value is greater than 0")
	case p.limit > MaxLimit:
		return p, queryError("_limit", fmt.Sprintf("ensure this value is less than or equal to %d", MaxLimit))
	case p.skip < 0:
		return p, queryError("_skip", "ensure this value is greater than or equal to 0")
	}
	return p, nil
}

func (s *Server) search(c *Collection, docs []map[string]any, defaults []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		p, err := bindListParams(q)
		if err != nil {
			s.badQuery(w, c, err)
			return
		}
		if !s.checkVersion(w, c, q) {
			return
		}
		s.writePage(w, filter(docs, q, c.Aliases), p, defaults)
	}
}

func (s *Server) textSearch(c *Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("keywords") == "" {
			s.badQuery(w, c, queryError("keywords", "field required"))
			return
		}
		p, err := bindListParams(q)
		if err != nil {
			s.badQuery(w, c, err)
			return
		}
		s.writePage(w, filter(c.Data, q, c.Aliases), p, c.defaultFields())
	}
}

func (s *Server) get(c *Collection, key string, docs []map[string]any, defaults []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := url.PathUnescape(gochi.URLParam(r, "id"))
		if err != nil {
			writeDetail(w, http.StatusBadRequest, "malformed identifier")
			return
		}
		q := r.URL.Query()
		p, err := bindListParams(q)
		if err != nil {
			s.badQuery(w, c, err)
			return
		}
		if !s.checkVersion(w, c, q) {
			return
		}
		for _, d := range docs {
			if v, _ := d[key].(string); v == id {
				s.writePage(w, []map[string]any{d}, p, defaults)
				return
			}
		}
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("Item with %s = %s not found", key, id))
	}
}

func (s *Server) versions(c *Collection) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"data": c.Versions})
	}
}

// checkVersion rejects a version parameter the collection cannot serve.
func (s *Server) checkVersion(w http.ResponseWriter, c *Collection, q url.Values) bool {
	v := q.Get("version")
	switch {
	case v == "":
		return true
	case len(c.Versions) == 0:
		writeDetail(w, http.StatusBadRequest, fmt.Sprintf("route %s does not accept a database version", c.Suffix))
		return false
	case !slices.Contains(c.Versions, v):
		writeDetail(w, http.StatusNotFound, fmt.Sprintf("database version %s not found", v))
		return false
	}
	return true
}

// writePage sorts, pages and projects docs. Without _fields or _all_fields the defaults are
// returned, or whole documents when defaults is nil.
func (s *Server) writePage(w http.ResponseWriter, docs []map[string]any, p listParams, defaults []string) {
	sortDocs(docs, p.sort)
	total := len(docs)
	lo := min(p.skip, total)
	hi := min(lo+p.limit, total)

	data := make([]map[string]any, 0, hi-lo)
	for _, d := range docs[lo:hi] {
		switch {
		case p.allFields || (len(p.fields) == 0 && defaults == nil):
			data = append(data, d)
		case len(p.fields) > 0:
			data = append(data, project(d, p.fields))
		default:
			data = append(data, project(d, defaults))
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"data": data,
		"meta": map[string]any{
			"api_version": version.Version,
			"db_version":  s.dbVersion,
			"time_stamp":  s.now().UTC().Format(time.RFC3339),
			"total_doc":   total,
			"max_limit":   MaxLimit,
		},
	})
}

func (s *Server) badQuery(w http.ResponseWriter, c *Collection, err error) {
	s.logger.Debug("rejected query", zap.String("route", c.Suffix), zap.Error(err))
	var pe *paramError
	if !errors.As(err, &pe) {
		writeDetail(w, http.StatusBadRequest, err.Error())
		return
	}
	writeDetail(w, http.StatusBadRequest, []map[string]any{{
		"loc": []string{"query", pe.name},
		"msg": pe.msg,
	}})
}

// paramError is a rejected query parameter, rendered like a FastAPI validation error.
type paramError struct {
	name string
	msg  string
}

func (e *paramError) Error() string { return e.name + ": " + e.msg }

func queryError(name, msg string) error {
	return &paramError{name: name, msg: msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeDetail writes an error body of the form {"detail": ...}.
func writeDetail(w http.ResponseWriter, status int, detail any) {
	writeJSON(w, status, map[string]any{"detail": detail})
}
