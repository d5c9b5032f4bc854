package rest

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/rehttp"

	"github.com/kailas-cloud/matproj/internal/query"
)

// shouldRetry retries 429 answers and temporary network errors up to maxRetries times.
func (s *Session) shouldRetry(maxRetries int) rehttp.RetryFn {
	retry := rehttp.RetryAll(
		rehttp.RetryMaxRetries(maxRetries),
		rehttp.RetryAny(
			rehttp.RetryStatuses(http.StatusTooManyRequests),
			rehttp.RetryTemporaryErr(),
		),
	)
	return func(a rehttp.Attempt) bool {
		if !retry(a) || a.Request.Context().Err() != nil {
			return false
		}
		reason := "temporary_error"
		if a.Response != nil {
			reason = strconv.Itoa(a.Response.StatusCode)
		}
		s.metrics.IncRetry(query.RouteFromContext(a.Request.Context()), reason)
		if s.logger != nil {
			s.logger.Debug("retrying request",
				"url", a.Request.URL.Redacted(),
				"attempt", a.Index+1,
				"reason", reason,
			)
		}
		return true
	}
}

// retryDelay honours Retry-After and falls back to exponential jitter.
func retryDelay(base, maxDelay time.Duration) rehttp.DelayFn {
	jitter := rehttp.ExpJitterDelay(base, maxDelay)
	return func(a rehttp.Attempt) time.Duration {
		if a.Response != nil {
			if d, ok := parseRetryAfter(a.Response.Header.Get("Retry-After"), time.Now()); ok {
				return min(d, maxDelay)
			}
		}
		return jitter(a)
	}
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0, false
	}
	return max(t.Sub(now), 0), true
}
