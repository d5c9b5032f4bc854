package chi

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed fixtures/*.json
var embedded embed.FS

// Collection is the fixture data served under one route.
type Collection struct {
	Suffix     string `json:"suffix" yaml:"suffix"`
	PrimaryKey string `json:"primary_key,omitempty" yaml:"primary_key"`
	// Versions are the database versions accepted by the version parameter.
	// An empty list means the route rejects the parameter.
	Versions []string `json:"versions,omitempty" yaml:"versions"`
	// Aliases map query parameter names to document fields, e.g. "k_vrh" to "bulk_modulus.vrh".
	Aliases map[string]string `json:"aliases,omitempty" yaml:"aliases"`
	// TextSearch enables the text_search sub-route.
	TextSearch bool             `json:"text_search,omitempty" yaml:"text_search"`
	Sub        map[string]Sub   `json:"sub,omitempty" yaml:"sub"`
	Data       []map[string]any `json:"data" yaml:"data"`
}

// Sub is a sub-resource of a route, e.g. materials/thermo/phase_diagram.
// With a Key it is addressed by id, otherwise it is filtered like the route itself.
type Sub struct {
	Key  string           `json:"key,omitempty" yaml:"key"`
	Data []map[string]any `json:"data" yaml:"data"`
}

// Fixtures holds every collection by suffix.
type Fixtures struct {
	collections map[string]*Collection
}

// DefaultFixtures returns the fixtures compiled into the binary.
func DefaultFixtures() (*Fixtures, error) {
	return load(embedded, "fixtures")
}

// LoadFixtures reads *.json, *.yaml and *.yml files from dir.
func LoadFixtures(dir string) (*Fixtures, error) {
	return load(os.DirFS(dir), ".")
}

func load(fsys fs.FS, dir string) (*Fixtures, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	f := &Fixtures{collections: make(map[string]*Collection)}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			continue
		}
		raw, err := fs.ReadFile(fsys, filepath.ToSlash(filepath.Join(dir, name)))
		if err != nil {
			return nil, fmt.Errorf("read fixture %s: %w", name, err)
		}
		var c Collection
		if ext == ".json" {
			err = json.Unmarshal(raw, &c)
		} else {
			err = yaml.Unmarshal(raw, &c)
		}
		if err != nil {
			return nil, fmt.Errorf("parse fixture %s: %w", name, err)
		}
		if err := f.Add(&c); err != nil {
			return nil, fmt.Errorf("fixture %s: %w", name, err)
		}
	}
	return f, nil
}

// Add registers c, replacing a collection with the same suffix.
func (f *Fixtures) Add(c *Collection) error {
	c.Suffix = strings.Trim(c.Suffix, "/")
	if c.Suffix == "" {
		return errors.New("collection has no suffix")
	}
	if f.collections == nil {
		f.collections = make(map[string]*Collection)
	}
	c.Data = normalizeDocs(c.Data)
	for name, s := range c.Sub {
		s.Data = normalizeDocs(s.Data)
		c.Sub[name] = s
	}
	f.collections[c.Suffix] = c
	return nil
}

// defaultFields are returned when a request names no fields.
func (c *Collection) defaultFields() []string {
	if c.PrimaryKey == "" {
		return nil
	}
	return []string{c.PrimaryKey, "last_updated"}
}

// Collection returns the collection served under suffix.
func (f *Fixtures) Collection(suffix string) (*Collection, bool) {
	c, ok := f.collections[strings.Trim(suffix, "/")]
	return c, ok
}

// Suffixes lists the served routes, sorted.
func (f *Fixtures) Suffixes() []string {
	out := make([]string, 0, len(f.collections))
	for s := range f.collections {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// normalizeDocs converts YAML mappings and integers into their JSON decoded forms.
func normalizeDocs(docs []map[string]any) []map[string]any {
	for i, d := range docs {
		docs[i], _ = normalize(d).(map[string]any)
	}
	return docs
}

func normalize(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, e := range t {
			t[k] = normalize(e)
		}
		return t
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[fmt.Sprint(k)] = normalize(e)
		}
		return out
	case []any:
		for i, e := range t {
			t[i] = normalize(e)
		}
		return t
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case time.Time:
		return t.UTC().Format(time.RFC3339)
	default:
		return v
	}
}
