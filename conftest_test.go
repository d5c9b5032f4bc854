package matproj

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/matproj/internal/transport/chi"
)

const testAPIKey = "test-key"

// fixtureAPI is an httptest server over the built-in fixtures that counts requests.
type fixtureAPI struct {
	*httptest.Server
	hits atomic.Int64
}

func newFixtureAPI(t *testing.T) *fixtureAPI {
	t.Helper()
	f, err := chiTransport.DefaultFixtures()
	if err != nil {
		t.Fatalf("load fixtures: %v", err)
	}
	srv := chiTransport.NewServer(f, zap.NewNop(), chiTransport.WithGatherer(prometheus.NewRegistry()))
	api := &fixtureAPI{}
	counting := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			api.hits.Add(1)
			next.ServeHTTP(w, r)
		})
	}
	api.Server = httptest.NewServer(chiTransport.NewRouter(srv, []string{testAPIKey}, counting))
	t.Cleanup(api.Close)
	return api
}

func newTestClient(t *testing.T, api *fixtureAPI, opts ...Option) *Client {
	t.Helper()
	base := []Option{
		WithEndpoint(api.URL),
		WithAPIKey(testAPIKey),
		WithMaxRetries(0),
		WithTimeout(5 * time.Second),
	}
	c, err := New(context.Background(), append(base, opts...)...)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	t.Cleanup(c.Close)
	return c
}

// memCache is an in-memory CacheStore.
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (m *memCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, ErrCacheMiss
	}
	return v, nil
}

func (m *memCache) SetWithTTL(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.sets++
	return nil
}
