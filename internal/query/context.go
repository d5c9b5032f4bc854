package query

import "context"

type routeKey struct{}

// ContextWithRoute tags ctx with the route suffix a request belongs to, for metrics and spans.
func ContextWithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

// RouteFromContext returns the route set by ContextWithRoute, or "unknown".
func RouteFromContext(ctx context.Context) string {
	if r, ok := ctx.Value(routeKey{}).(string); ok && r != "" {
		return r
	}
	return "unknown"
}
