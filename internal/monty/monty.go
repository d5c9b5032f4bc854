// Package monty reconstructs objects serialized with "@module"/"@class" tags.
package monty

import (
	"fmt"
	"sync"
)

// Tag keys present on every encoded dict.
const (
	KeyModule  = "@module"
	KeyClass   = "@class"
	KeyVersion = "@version"
)

// Object is a tagged value as received from the API.
// Value holds the reconstructed object, or nil when decoding was off or the class is unknown.
type Object struct {
	Module string
	Class  string
	Raw    map[string]any
	Value  any
}

// IsZero reports whether the object carries nothing.
func (o Object) IsZero() bool {
	return o.Raw == nil && o.Value == nil
}

// DecodeFunc turns a tagged dict into a Go value.
type DecodeFunc func(raw map[string]any) (any, error)

type classKey struct{ module, class string }

// Registry maps (module, class) pairs to decoders. Safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	funcs map[classKey]DecodeFunc
}

// NewRegistry returns a registry preloaded with the pymatgen and datetime decoders.
func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[classKey]DecodeFunc)}
	r.Register("pymatgen.core.structure", "Structure", decodeStructure)
	r.Register("pymatgen.core.structure", "Molecule", decodeMolecule)
	r.Register("pymatgen.core.lattice", "Lattice", decodeLattice)
	r.Register("datetime", "datetime", decodeDatetime)
	return r
}

// Register installs fn for module/class, replacing any previous decoder.
func (r *Registry) Register(module, class string, fn DecodeFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[classKey{module, class}] = fn
}

func (r *Registry) lookup(module, class string) (DecodeFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[classKey{module, class}]
	return fn, ok
}

// Tagged reports whether v is a dict carrying both tag keys.
func Tagged(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	_, hasModule := m[KeyModule].(string)
	_, hasClass := m[KeyClass].(string)
	return m, hasModule && hasClass
}

// Wrap builds an Object from raw data without reconstructing it.
func Wrap(v any) Object {
	m, ok := Tagged(v)
	if !ok {
		if mm, isMap := v.(map[string]any); isMap {
			return Object{Raw: mm}
		}
		return Object{Value: v}
	}
	return Object{Module: m[KeyModule].(string), Class: m[KeyClass].(string), Raw: m}
}

// Decode builds an Object from v and reconstructs its Value when a decoder matches.
// Enum-shaped dicts (only a "value" key besides the tags) decode to that value.
// When the decoder fails, the Object is still returned with its Raw data and a nil Value.
func (r *Registry) Decode(v any) (Object, error) {
	obj := Wrap(v)
	if obj.Raw == nil || obj.Class == "" {
		return obj, nil
	}
	if fn, ok := r.lookup(obj.Module, obj.Class); ok {
		val, err := fn(obj.Raw)
		if err != nil {
			return obj, fmt.Errorf("decode %s.%s: %w", obj.Module, obj.Class, err)
		}
		obj.Value = val
		return obj, nil
	}
	if val, ok := enumValue(obj.Raw); ok {
		obj.Value = val
	}
	return obj, nil
}

// DecodeTree walks v and replaces every tagged dict that has a decoder with its value.
// Unknown tagged dicts are kept as maps, and so are dicts whose decoder fails;
// each failure is passed to onFail when it is non-nil.
func (r *Registry) DecodeTree(v any, onFail func(Object, error)) any {
	switch t := v.(type) {
	case map[string]any:
		if _, ok := Tagged(t); ok {
			obj, err := r.Decode(t)
			if err != nil && onFail != nil {
				onFail(obj, err)
			}
			if obj.Value != nil {
				return obj.Value
			}
		}
		out := make(map[string]any, len(t))
		for k, child := range t {
			out[k] = r.DecodeTree(child, onFail)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = r.DecodeTree(child, onFail)
		}
		return out
	default:
		return v
	}
}

func enumValue(m map[string]any) (any, bool) {
	val, ok := m["value"]
	if !ok {
		return nil, false
	}
	for k := range m {
		switch k {
		case "value", KeyModule, KeyClass, KeyVersion:
		default:
			return nil, false
		}
	}
	return val, true
}
