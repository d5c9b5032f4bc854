package chi

import (
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

// defaultAliases apply to every collection, falling back to the parameter name itself.
var defaultAliases = map[string]string{
	"formula":                       "formula_pretty",
	"crystal_system":                "symmetry.crystal_system",
	"spacegroup_number":             "symmetry.number",
	"spacegroup_symbol":             "symmetry.symbol",
	"target_formula":                "target.material_formula",
	"precursor_formula":             "precursors_formula",
	"operations":                    "operations.type",
	"condition_heating_temperature": "operations.conditions.heating_temperature.values",
	"condition_heating_time":        "operations.conditions.heating_time.values",
	"condition_heating_atmosphere":  "operations.conditions.heating_atmosphere",
	"condition_mixing_device":       "operations.conditions.mixing_device",
	"condition_mixing_media":        "operations.conditions.mixing_media",
}

// isControl reports whether a query parameter steers paging or projection rather than filtering.
func isControl(name string) bool {
	return strings.HasPrefix(name, "_") || name == "version"
}

// filter returns the docs matching every filter parameter in q.
func filter(docs []map[string]any, q url.Values, aliases map[string]string) []map[string]any {
	out := make([]map[string]any, 0, len(docs))
	for _, d := range docs {
		if matches(d, q, aliases) {
			out = append(out, d)
		}
	}
	return out
}

func matches(doc map[string]any, q url.Values, aliases map[string]string) bool {
	for name, vals := range q {
		if isControl(name) || len(vals) == 0 {
			continue
		}
		if !matchParam(doc, name, strings.Join(vals, ","), aliases) {
			return false
		}
	}
	return true
}

func matchParam(doc map[string]any, name, raw string, aliases map[string]string) bool {
	values := splitList(raw)
	switch name {
	case "keywords":
		return matchText(doc, values)
	case "elements":
		have := stringSet(lookup(doc, "elements", aliases))
		for _, v := range values {
			if !have[v] {
				return false
			}
		}
		return true
	case "exclude_elements":
		have := stringSet(lookup(doc, "elements", aliases))
		for _, v := range values {
			if have[v] {
				return false
			}
		}
		return true
	}

	if field, ok := strings.CutSuffix(name, "_min"); ok {
		return inRange(lookup(doc, field, aliases), raw, func(c int) bool { return c >= 0 })
	}
	if field, ok := strings.CutSuffix(name, "_max"); ok {
		return inRange(lookup(doc, field, aliases), raw, func(c int) bool { return c <= 0 })
	}

	v := lookup(doc, name, aliases)
	if v == nil {
		return false
	}
	for _, want := range values {
		if equalAny(v, want) {
			return true
		}
	}
	return false
}

// lookup resolves a parameter name to a document value: alias, exact field, then singular field.
// Dotted names walk nested objects.
func lookup(doc map[string]any, name string, aliases map[string]string) any {
	if a, ok := aliases[name]; ok {
		name = a
	} else if a, ok := defaultAliases[name]; ok {
		if v := path(doc, a); v != nil {
			return v
		}
	}
	if v := path(doc, name); v != nil {
		return v
	}
	if s, ok := strings.CutSuffix(name, "s"); ok {
		return path(doc, s)
	}
	return nil
}

// path walks dotted names through objects; lists are walked element-wise and flattened.
func path(v any, name string) any {
	head, rest, more := strings.Cut(name, ".")
	switch t := v.(type) {
	case map[string]any:
		e, ok := t[head]
		if !ok || !more {
			return e
		}
		return path(e, rest)
	case []any:
		var out []any
		for _, e := range t {
			switch r := path(e, name).(type) {
			case nil:
			case []any:
				out = append(out, r...)
			default:
				out = append(out, r)
			}
		}
		if len(out) == 0 {
			return nil
		}
		return out
	}
	return nil
}

func equalAny(v any, want string) bool {
	switch t := v.(type) {
	case string:
		return t == want
	case bool:
		b, err := strconv.ParseBool(want)
		return err == nil && b == t
	case float64:
		f, err := strconv.ParseFloat(want, 64)
		return err == nil && f == t
	case []any:
		for _, e := range t {
			if equalAny(e, want) {
				return true
			}
		}
	case map[string]any:
		b, _ := t[want].(bool)
		return b
	}
	return false
}

// inRange compares v against the bound; ok decides on the sign of compare(v, bound).
func inRange(v any, bound string, ok func(int) bool) bool {
	switch t := v.(type) {
	case float64:
		b, err := strconv.ParseFloat(bound, 64)
		if err != nil {
			return false
		}
		return ok(compareFloat(t, b))
	case string:
		// RFC 3339 timestamps order lexically.
		return ok(strings.Compare(t, bound))
	case []any:
		for _, e := range t {
			if inRange(e, bound, ok) {
				return true
			}
		}
	}
	return false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// matchText reports whether any keyword occurs in any string of doc, ignoring case.
func matchText(doc map[string]any, keywords []string) bool {
	var texts []string
	collectStrings(doc, &texts)
	for _, k := range keywords {
		k = strings.ToLower(k)
		for _, s := range texts {
			if strings.Contains(strings.ToLower(s), k) {
				return true
			}
		}
	}
	return false
}

func collectStrings(v any, out *[]string) {
	switch t := v.(type) {
	case string:
		*out = append(*out, t)
	case map[string]any:
		for _, e := range t {
			collectStrings(e, out)
		}
	case []any:
		for _, e := range t {
			collectStrings(e, out)
		}
	}
}

func stringSet(v any) map[string]bool {
	set := make(map[string]bool)
	switch t := v.(type) {
	case string:
		set[t] = true
	case []any:
		for _, e := range t {
			set[fmt.Sprint(e)] = true
		}
	}
	return set
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// sortDocs orders docs by fields; a leading "-" sorts descending.
func sortDocs(docs []map[string]any, fields []string) {
	if len(fields) == 0 {
		return
	}
	sort.SliceStable(docs, func(i, j int) bool {
		for _, f := range fields {
			desc := strings.HasPrefix(f, "-")
			f = strings.TrimPrefix(f, "-")
			a, b := path(docs[i], f), path(docs[j], f)
			switch {
			case a == nil && b == nil:
				continue
			case a == nil || b == nil:
				// Missing values sort last either way.
				return b == nil
			}
			c := compareValues(a, b)
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
}

// compareValues orders numbers numerically and anything else by its string form.
func compareValues(a, b any) int {
	af, aok := a.(float64)
	bf, bok := b.(float64)
	if aok && bok {
		return compareFloat(af, bf)
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

// project keeps the requested top level fields of doc.
func project(doc map[string]any, fields []string) map[string]any {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		if v, ok := doc[f]; ok {
			out[f] = v
		}
	}
	return out
}
