package respcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/matproj/internal/db"
	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

// DefaultTTL is used when no TTL is configured.
const DefaultTTL = time.Hour

var cacheKeyPrefix = domain.KeyPrefix + "resp:"

// store is the consumer interface for the response cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// Fetcher caches raw response pages of an inner fetcher in a key-value store.
type Fetcher struct {
	inner      query.Fetcher
	endpoint   string
	store      store
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *slog.Logger
}

var _ query.Fetcher = (*Fetcher)(nil)

// New creates a caching decorator for pages of the API at endpoint.
// cacheTotal is a counter vec with label "result" ("hit"/"miss") and may be nil.
func New(
	inner query.Fetcher,
	endpoint string,
	s store,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *slog.Logger,
) *Fetcher {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Fetcher{
		inner:      inner,
		endpoint:   endpoint,
		store:      s,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Fetch returns a cached page or calls the inner fetcher and stores its answer.
// Store failures are logged and never returned.
func (f *Fetcher) Fetch(ctx context.Context, path string, c query.Criteria) ([]byte, error) {
	key, err := f.cacheKey(path, c)
	if err != nil {
		return f.inner.Fetch(ctx, path, c) //nolint:wrapcheck // transparent decorator
	}

	if body, ok := f.getFromCache(ctx, key); ok {
		f.incCache("hit")
		return body, nil
	}

	f.incCache("miss")

	body, err := f.inner.Fetch(ctx, path, c)
	if err != nil {
		return nil, err //nolint:wrapcheck // transparent decorator
	}

	f.putToCache(ctx, key, body)
	return body, nil
}

func (f *Fetcher) incCache(result string) {
	if f.cacheTotal != nil {
		f.cacheTotal.WithLabelValues(result).Inc()
	}
}

// cacheKey hashes the endpoint and path with the sorted, encoded criteria.
// Clients of different endpoints sharing one store never see each other's pages.
func (f *Fetcher) cacheKey(path string, c query.Criteria) (string, error) {
	enc, err := c.Encode()
	if err != nil {
		return "", err //nolint:wrapcheck // caller falls back to the inner fetcher
	}
	h := sha256.Sum256([]byte(f.endpoint + path + "?" + enc))
	return cacheKeyPrefix + hex.EncodeToString(h[:]), nil
}

func (f *Fetcher) getFromCache(ctx context.Context, key string) ([]byte, bool) {
	data, err := f.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			f.logger.Warn("failed to get cached response", "key", key, "error", err)
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}
	return data, true
}

func (f *Fetcher) putToCache(ctx context.Context, key string, body []byte) {
	if !json.Valid(body) {
		return
	}
	if err := f.store.SetWithTTL(ctx, key, body, f.ttl); err != nil {
		f.logger.Warn("failed to cache response", "key", key, "error", err)
	}
}
