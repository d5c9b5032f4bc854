package matproj

import (
	"github.com/kailas-cloud/matproj/internal/db"
	"github.com/kailas-cloud/matproj/internal/domain"
)

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound     = domain.ErrNotFound
	ErrValidation   = domain.ErrValidation
	ErrUnauthorized = domain.ErrUnauthorized
	ErrRateLimited  = domain.ErrRateLimited
	ErrServer       = domain.ErrServer
	ErrTransport    = domain.ErrTransport
	ErrConfig       = domain.ErrConfig
)

// APIError is a non-2xx answer from the REST API. It unwraps to the matching sentinel.
type APIError = domain.APIError

// ValidationError describes rejected input.
type ValidationError = domain.ValidationError

// ErrCacheMiss is returned by a CacheStore for an absent key.
var ErrCacheMiss = db.ErrKeyNotFound
