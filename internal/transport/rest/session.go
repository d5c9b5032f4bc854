package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/rehttp"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/metrics"
	"github.com/kailas-cloud/matproj/internal/query"
)

// Defaults for the shared session.
const (
	DefaultEndpoint   = "https://api.materialsproject.org/"
	DefaultTimeout    = 20 * time.Second
	DefaultMaxRetries = 3
	defaultBaseDelay  = 500 * time.Millisecond
	defaultMaxDelay   = 30 * time.Second
)

// Config holds session settings.
type Config struct {
	Endpoint  string
	APIKey    string
	UserAgent string // empty disables the header
	// Timeout applies to each attempt, not to the whole retry sequence.
	Timeout    time.Duration
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	// HTTPClient supplies the base transport; its Timeout is ignored.
	HTTPClient     *http.Client
	TracerProvider trace.TracerProvider
	Metrics        *metrics.HTTPClient
	Logger         *slog.Logger
}

// Session is the shared HTTP session. It is safe for concurrent use.
type Session struct {
	client   *http.Client
	endpoint string
	metrics  *metrics.HTTPClient
	logger   *slog.Logger
}

var _ query.Fetcher = (*Session)(nil)

// NewSession builds the transport chain: otelhttp -> rehttp retries -> headers and per-attempt timeout.
func NewSession(cfg Config) (*Session, error) {
	endpoint, err := normalizeEndpoint(cfg.Endpoint)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = defaultBaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = defaultMaxDelay
	}
	tp := cfg.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	var base http.RoundTripper = http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}

	s := &Session{endpoint: endpoint, metrics: cfg.Metrics, logger: cfg.Logger}

	var rt http.RoundTripper = &attemptTransport{
		next:      base,
		apiKey:    cfg.APIKey,
		userAgent: cfg.UserAgent,
		timeout:   cfg.Timeout,
	}
	rt = rehttp.NewTransport(rt, s.shouldRetry(cfg.MaxRetries), retryDelay(cfg.BaseDelay, cfg.MaxDelay))
	rt = otelhttp.NewTransport(rt,
		otelhttp.WithTracerProvider(tp),
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return "GET " + query.RouteFromContext(r.Context())
		}),
	)

	s.client = &http.Client{Transport: rt}
	return s, nil
}

func normalizeEndpoint(raw string) (string, error) {
	if raw == "" {
		raw = DefaultEndpoint
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: endpoint %q: %w", domain.ErrConfig, raw, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: endpoint %q must be an absolute http(s) URL", domain.ErrConfig, raw)
	}
	if !strings.HasSuffix(raw, "/") {
		raw += "/"
	}
	return raw, nil
}

// Endpoint returns the base URL with a trailing slash.
func (s *Session) Endpoint() string {
	return s.endpoint
}

// URL joins the endpoint, path and encoded criteria.
func (s *Session) URL(path string, c query.Criteria) (string, error) {
	u := s.endpoint + strings.TrimPrefix(path, "/")
	if len(c) == 0 {
		return u, nil
	}
	enc, err := c.Encode()
	if err != nil {
		return "", err
	}
	return u + "?" + enc, nil
}

// Fetch performs GET path?criteria and returns the body of a 2xx answer.
func (s *Session) Fetch(ctx context.Context, path string, c query.Criteria) ([]byte, error) {
	u, err := s.URL(path, c)
	if err != nil {
		return nil, domain.WrapValidation(err)
	}
	return s.get(ctx, u)
}

// Heartbeat is the answer of the heartbeat route.
type Heartbeat struct {
	Status     string `json:"status"`
	Version    string `json:"version"`
	DBVersion  string `json:"db_version"`
	APIVersion string `json:"api_version,omitempty"`
}

// Heartbeat queries the API status and current database version.
func (s *Session) Heartbeat(ctx context.Context) (Heartbeat, error) {
	body, err := s.get(query.ContextWithRoute(ctx, "heartbeat"), s.endpoint+"heartbeat")
	if err != nil {
		return Heartbeat{}, err
	}
	var hb Heartbeat
	if err := json.Unmarshal(body, &hb); err != nil {
		return Heartbeat{}, fmt.Errorf("decode heartbeat: %w", err)
	}
	return hb, nil
}

func (s *Session) get(ctx context.Context, u string) ([]byte, error) {
	route := query.RouteFromContext(ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", domain.ErrTransport, err)
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		s.metrics.ObserveRequest(route, 0, time.Since(start))
		return nil, fmt.Errorf("%w: GET %s: %w", domain.ErrTransport, req.URL.Redacted(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.metrics.ObserveRequest(route, resp.StatusCode, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("%w: read body of %s: %w", domain.ErrTransport, req.URL.Redacted(), err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, domain.NewAPIError(resp.StatusCode, u, extractDetail(body))
	}
	return body, nil
}

// attemptTransport sets headers and bounds every single attempt by timeout.
type attemptTransport struct {
	next      http.RoundTripper
	apiKey    string
	userAgent string
	timeout   time.Duration
}

func (t *attemptTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(req.Context(), t.timeout)

	r := req.Clone(ctx)
	if t.apiKey != "" {
		r.Header.Set("X-API-KEY", t.apiKey)
	}
	if t.userAgent != "" {
		r.Header.Set("User-Agent", t.userAgent)
	}
	r.Header.Set("X-Request-Id", uuid.NewString())
	r.Header.Set("Accept", "application/json")

	resp, err := t.next.RoundTrip(r)
	if err != nil {
		cancel()
		return nil, err //nolint:wrapcheck // surfaced by http.Client
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err //nolint:wrapcheck // plain delegation
}
