package rest

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractDetail renders the "detail" field of an error body.
// The API returns either a plain string or a list of {loc, msg} validation items.
func extractDetail(body []byte) string {
	var parsed struct {
		Detail json.RawMessage `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) != nil || len(parsed.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if json.Unmarshal(parsed.Detail, &s) == nil {
		return s
	}

	var items []struct {
		Loc []any  `json:"loc"`
		Msg string `json:"msg"`
	}
	if json.Unmarshal(parsed.Detail, &items) == nil && len(items) > 0 {
		parts := make([]string, len(items))
		for i, it := range items {
			if len(it.Loc) > 1 {
				parts[i] = fmt.Sprintf("%v - %s", it.Loc[1], it.Msg)
			} else {
				parts[i] = it.Msg
			}
		}
		return strings.Join(parts, ", ")
	}

	return string(parsed.Detail)
}
