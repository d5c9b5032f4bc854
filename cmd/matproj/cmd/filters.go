package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/matproj"
)

// parseFilters turns key=value flags into search criteria.
// "a,b" becomes a list, "true"/"false" a bool and numbers a float64.
func parseFilters(pairs []string) (map[string]any, error) {
	crit := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("filter %q: want key=value", p)
		}
		crit[key] = filterValue(strings.TrimSpace(raw))
	}
	return crit, nil
}

func filterValue(raw string) any {
	if strings.Contains(raw, ",") {
		var out []string
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	}
	if b, err := strconv.ParseBool(raw); err == nil && (raw == "true" || raw == "false") {
		return b
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

// queryOptions builds the shared projection and version options.
func queryOptions(fields []string, ver string, sortFields []string, limit int) []matproj.QueryOption {
	var opts []matproj.QueryOption
	if len(fields) > 0 {
		opts = append(opts, matproj.Fields(fields...))
	}
	if ver != "" {
		opts = append(opts, matproj.Version(ver))
	}
	if len(sortFields) > 0 {
		opts = append(opts, matproj.SortFields(sortFields...))
	}
	if limit > 0 {
		opts = append(opts, matproj.ChunkSize(limit), matproj.NumChunks(1))
	}
	return opts
}
