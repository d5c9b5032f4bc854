package query

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oapi-codegen/runtime"
)

// Control parameters understood by every route.
const (
	ParamFields     = "_fields"
	ParamAllFields  = "_all_fields"
	ParamLimit      = "_limit"
	ParamSkip       = "_skip"
	ParamSortFields = "_sort_fields"
	ParamVersion    = "version"
)

// Criteria holds query parameters. Values are string, int, float64, bool or []string.
type Criteria map[string]any

// Clone returns a shallow copy; list values are copied too.
func (c Criteria) Clone() Criteria {
	out := make(Criteria, len(c))
	for k, v := range c {
		if l, ok := v.([]string); ok {
			v = append([]string(nil), l...)
		}
		out[k] = v
	}
	return out
}

// SetString sets name when v is non-empty.
func (c Criteria) SetString(name, v string) {
	if v != "" {
		c[name] = v
	}
}

// SetList sets name to a comma-joined list when v is non-empty.
func (c Criteria) SetList(name string, v []string) {
	if len(v) > 0 {
		c[name] = append([]string(nil), v...)
	}
}

// SetBool sets name when v is non-nil.
func (c Criteria) SetBool(name string, v *bool) {
	if v != nil {
		c[name] = *v
	}
}

// SetInt sets name when v is non-nil.
func (c Criteria) SetInt(name string, v *int) {
	if v != nil {
		c[name] = *v
	}
}

// SetFloat sets name when v is non-nil.
func (c Criteria) SetFloat(name string, v *float64) {
	if v != nil {
		c[name] = *v
	}
}

// SetFloatRange sets name_min and name_max.
func (c Criteria) SetFloatRange(name string, lo, hi float64) {
	c[name+"_min"] = lo
	c[name+"_max"] = hi
}

// SetIntRange sets name_min and name_max.
func (c Criteria) SetIntRange(name string, lo, hi int) {
	c[name+"_min"] = lo
	c[name+"_max"] = hi
}

// ListLen returns the number of entries of a list parameter, 0 for anything else.
func (c Criteria) ListLen(name string) int {
	switch v := c[name].(type) {
	case []string:
		return len(v)
	case string:
		if v == "" {
			return 0
		}
		return len(strings.Split(v, ","))
	default:
		return 0
	}
}

// List returns a list parameter, splitting comma-joined strings.
func (c Criteria) List(name string) []string {
	switch v := c[name].(type) {
	case []string:
		return v
	case string:
		if v == "" {
			return nil
		}
		return strings.Split(v, ",")
	default:
		return nil
	}
}

// Encode renders the criteria as a form-style query string with keys in sorted order.
func (c Criteria) Encode() (string, error) {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := c[k]
		if l, ok := v.([]string); ok && len(l) == 0 {
			continue
		}
		p, err := runtime.StyleParamWithLocation("form", false, k, runtime.ParamLocationQuery, v)
		if err != nil {
			return "", fmt.Errorf("encode parameter %s: %w", k, err)
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "&"), nil
}
