package matproj

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"

	"github.com/kailas-cloud/matproj/internal/monty"
	"github.com/kailas-cloud/matproj/internal/query"
	"github.com/kailas-cloud/matproj/internal/transport/rest"
)

// Environment variables read by New when the matching option is absent.
const (
	EnvAPIKey   = "MP_API_KEY"
	EnvEndpoint = "MP_API_ENDPOINT"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

// CacheStore is a key-value store for raw response pages.
// Get must return an error matching ErrCacheMiss for an absent key.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type clientConfig struct {
	apiKey   string
	endpoint string

	httpClient       *http.Client
	timeout          time.Duration
	includeUserAgent bool
	maxRetries       int

	montyDecode      bool
	parallelRequests int
	maxURLLength     int
	chunkSize        int
	registry         *monty.Registry

	redisAddr     string
	redisPassword string
	cacheStore    CacheStore
	cacheTTL      time.Duration

	logger         *slog.Logger
	metricsReg     prometheus.Registerer
	tracerProvider trace.TracerProvider
}

func defaultConfig() *clientConfig {
	return &clientConfig{
		apiKey:           os.Getenv(EnvAPIKey),
		endpoint:         os.Getenv(EnvEndpoint),
		timeout:          rest.DefaultTimeout,
		includeUserAgent: true,
		maxRetries:       rest.DefaultMaxRetries,
		montyDecode:      true,
		parallelRequests: query.DefaultParallelRequests,
		maxURLLength:     query.DefaultMaxURLLength,
		chunkSize:        query.DefaultChunkSize,
	}
}

// WithAPIKey sets the API key sent in the X-API-KEY header.
// Defaults to $MP_API_KEY.
func WithAPIKey(key string) Option {
	return optionFunc(func(c *clientConfig) {
		c.apiKey = key
	})
}

// WithEndpoint sets the API base URL.
// Defaults to $MP_API_ENDPOINT, then https://api.materialsproject.org/.
func WithEndpoint(url string) Option {
	return optionFunc(func(c *clientConfig) {
		c.endpoint = url
	})
}

// WithHTTPClient supplies the base transport. Retries, headers and tracing are layered on top.
func WithHTTPClient(hc *http.Client) Option {
	return optionFunc(func(c *clientConfig) {
		c.httpClient = hc
	})
}

// WithTimeout bounds each HTTP attempt. Defaults to 20s.
func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.timeout = d
	})
}

// WithUserAgent toggles the User-Agent header with client, Go and platform versions.
func WithUserAgent(include bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.includeUserAgent = include
	})
}

// WithMaxRetries sets how many times a 429 answer or a temporary network error is retried.
func WithMaxRetries(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxRetries = n
	})
}

// WithMontyDecode sets the default for reconstructing tagged values. Defaults to true.
func WithMontyDecode(on bool) Option {
	return optionFunc(func(c *clientConfig) {
		c.montyDecode = on
	})
}

// WithMontyRegistry replaces the registry of known tagged classes.
func WithMontyRegistry(r *monty.Registry) Option {
	return optionFunc(func(c *clientConfig) {
		c.registry = r
	})
}

// WithParallelRequests bounds concurrent page requests per call. Defaults to 8.
func WithParallelRequests(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.parallelRequests = n
	})
}

// WithMaxURLLength bounds the length of request URLs when splitting list filters. Defaults to 2000.
func WithMaxURLLength(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.maxURLLength = n
	})
}

// WithChunkSize sets the default page size for searches. Defaults to 1000.
func WithChunkSize(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.chunkSize = n
	})
}

// WithRedisCache caches raw response pages in Redis for ttl.
func WithRedisCache(addr, password string, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.redisAddr = addr
		c.redisPassword = password
		c.cacheTTL = ttl
	})
}

// WithCacheStore caches raw response pages in s for ttl.
func WithCacheStore(s CacheStore, ttl time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheStore = s
		c.cacheTTL = ttl
	})
}

// WithLogger sets a structured logger for SDK operations.
// If not set, no logging is performed.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK and HTTP metrics with the given registerer.
// If not set, no metrics are collected.
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}

// WithTracerProvider sets the OpenTelemetry tracer provider.
// Defaults to the global provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return optionFunc(func(c *clientConfig) {
		c.tracerProvider = tp
	})
}
