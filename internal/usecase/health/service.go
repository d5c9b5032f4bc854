package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the API answers but an optional component fails.
	Degraded Status = "degraded"
	// Unhealthy indicates the API does not answer.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used in Report.Checks.
const (
	ComponentAPI   = "api"
	ComponentCache = "cache"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
	Errors map[string]string
}

// Service coordinates health checks.
type Service struct {
	api   Checker
	cache Checker
}

// New creates a Service. cache can be nil.
func New(api, cache Checker) *Service {
	return &Service{api: api, cache: cache}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{
		Status: Healthy,
		Checks: make(map[string]CheckResult),
		Errors: make(map[string]string),
	}

	if !r.run(ctx, ComponentAPI, s.api) {
		r.Status = Unhealthy
	}
	// The cache is bypassed on failure, so it only degrades.
	if s.cache != nil && !r.run(ctx, ComponentCache, s.cache) && r.Status == Healthy {
		r.Status = Degraded
	}
	return r
}

func (r *Report) run(ctx context.Context, name string, c Checker) bool {
	if err := c.Check(ctx); err != nil {
		r.Checks[name] = CheckError
		r.Errors[name] = err.Error()
		return false
	}
	r.Checks[name] = CheckOK
	return true
}
