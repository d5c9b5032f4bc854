package metrics

import "github.com/prometheus/client_golang/prometheus"

// NewCacheTotal creates the response cache hit/miss counter and registers it on reg.
func NewCacheTotal(reg prometheus.Registerer) (*prometheus.CounterVec, error) {
	c := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "matproj",
		Name:      "cache_total",
		Help:      "Response cache hits and misses",
	}, []string{"result"}) // "hit" / "miss"
	if err := RegisterOrReuse(reg, &c); err != nil {
		return nil, err
	}
	return c, nil
}
