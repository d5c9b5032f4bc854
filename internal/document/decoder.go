// Package document turns API response maps into typed documents.
package document

import (
	"fmt"
	"log/slog"
	"reflect"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mitchellh/mapstructure"

	"github.com/kailas-cloud/matproj/internal/monty"
)

// FieldsNotRequestedKey is the synthetic field listing projected-out fields.
const FieldsNotRequestedKey = "fields_not_requested"

var (
	timeType   = reflect.TypeOf(time.Time{})
	objectType = reflect.TypeOf(monty.Object{})
)

// Decoder converts raw documents using a monty registry.
// A tagged value that fails to reconstruct is kept raw and logged, never failing the document.
type Decoder struct {
	registry *monty.Registry
	logger   *slog.Logger
}

// NewDecoder creates a decoder. A nil registry gets the defaults.
func NewDecoder(r *monty.Registry, logger *slog.Logger) *Decoder {
	if r == nil {
		r = monty.NewRegistry()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Decoder{registry: r, logger: logger}
}

// Registry exposes the registry for custom class registration.
func (d *Decoder) Registry() *monty.Registry {
	return d.registry
}

// Decode fills out (a pointer to a struct) from raw.
// With montyDecode off, encoded fields keep their raw maps and Object.Value stays nil.
func (d *Decoder) Decode(raw map[string]any, out any, montyDecode bool) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Squash:           true,
		WeaklyTypedInput: true,
		DecodeHook:       d.hook(montyDecode),
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("decode document: %w", err)
	}
	return nil
}

// DecodeRaw returns raw unchanged, or with every known tagged value reconstructed.
func (d *Decoder) DecodeRaw(raw map[string]any, montyDecode bool) map[string]any {
	if !montyDecode {
		return raw
	}
	out := d.registry.DecodeTree(raw, d.keptRaw)
	m, ok := out.(map[string]any)
	if !ok {
		// A whole document that is itself a known class.
		return map[string]any{"value": out}
	}
	return m
}

func (d *Decoder) keptRaw(obj monty.Object, err error) {
	d.logger.Warn("kept encoded value undecoded",
		"class", obj.Module+"."+obj.Class,
		"error", err,
	)
}

func (d *Decoder) hook(montyDecode bool) mapstructure.DecodeHookFuncType {
	return func(from, to reflect.Type, data any) (any, error) {
		switch {
		case to == timeType:
			return decodeTime(data)
		case to == objectType:
			if !montyDecode {
				return monty.Wrap(data), nil
			}
			obj, err := d.registry.Decode(data)
			if err != nil {
				d.keptRaw(obj, err)
			}
			return obj, nil
		case to.Kind() == reflect.Interface && montyDecode:
			return d.registry.DecodeTree(data, d.keptRaw), nil
		case to.Kind() == reflect.String && from.Kind() == reflect.Map:
			// Enums sometimes arrive as {"@class": ..., "value": "..."}.
			if m, ok := monty.Tagged(data); ok {
				if v, ok := m["value"].(string); ok {
					return v, nil
				}
			}
		}
		return data, nil
	}
}

func decodeTime(data any) (any, error) {
	switch v := data.(type) {
	case string:
		if v == "" {
			return time.Time{}, nil
		}
		return monty.ParseTime(v) //nolint:wrapcheck // already carries the input
	case map[string]any:
		if s, ok := v["string"].(string); ok {
			return monty.ParseTime(s) //nolint:wrapcheck // already carries the input
		}
		if s, ok := v["$date"].(string); ok {
			return monty.ParseTime(s) //nolint:wrapcheck // already carries the input
		}
	}
	return data, nil
}

var fieldCache sync.Map // reflect.Type -> []string

// Fields lists the json field names of a document struct, embedded structs flattened.
// The synthetic fields_not_requested field is excluded.
func Fields(t reflect.Type) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if cached, ok := fieldCache.Load(t); ok {
		return cached.([]string)
	}
	seen := make(map[string]struct{})
	collectFields(t, seen)
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	fieldCache.Store(t, out)
	return out
}

func collectFields(t reflect.Type, seen map[string]struct{}) {
	if t.Kind() != reflect.Struct {
		return
	}
	for i := range t.NumField() {
		f := t.Field(i)
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if f.Anonymous && name == "" {
			ft := f.Type
			if ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			collectFields(ft, seen)
			continue
		}
		if !f.IsExported() || name == "-" {
			continue
		}
		if name == "" {
			name = f.Name
		}
		if name == FieldsNotRequestedKey {
			continue
		}
		seen[name] = struct{}{}
	}
}

// NotRequested returns available fields that were neither requested nor returned.
// It returns nil when no projection was requested.
func NotRequested(available, requested []string, raw map[string]any) []string {
	if len(requested) == 0 {
		return nil
	}
	keep := make(map[string]struct{}, len(requested)+len(raw))
	for _, f := range requested {
		keep[f] = struct{}{}
	}
	for k := range raw {
		keep[k] = struct{}{}
	}
	out := make([]string, 0, len(available))
	for _, f := range available {
		if _, ok := keep[f]; !ok {
			out = append(out, f)
		}
	}
	return out
}

// UnknownFields returns requested names that are not in available.
func UnknownFields(available, requested []string) []string {
	known := make(map[string]struct{}, len(available))
	for _, f := range available {
		known[f] = struct{}{}
	}
	var out []string
	for _, f := range requested {
		// Dotted paths project sub-documents; only the top-level name must exist.
		top, _, _ := strings.Cut(f, ".")
		if _, ok := known[top]; !ok {
			out = append(out, f)
		}
	}
	return out
}
