package chi

import (
	"net/http"
)

// APIKeyHeader carries the API key on every request.
const APIKeyHeader = "X-API-KEY"

// exemptPaths are routes that bypass authentication (heartbeat, metrics).
var exemptPaths = map[string]struct{}{
	"/heartbeat": {},
	"/metrics":   {},
}

// APIKeyMiddleware returns a middleware that validates the X-API-KEY header.
// If apiKeys is empty, authentication is disabled (pass-through).
func APIKeyMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			key := r.Header.Get(APIKeyHeader)
			if key == "" {
				writeDetail(w, http.StatusUnauthorized, "No API key found in request")
				return
			}
			if _, ok := validKeys[key]; !ok {
				writeDetail(w, http.StatusUnauthorized, "Invalid API key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
