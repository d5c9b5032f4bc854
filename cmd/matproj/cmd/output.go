package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cheynewallace/tabby"
	"gopkg.in/yaml.v3"
)

const (
	formatTable = "table"
	formatJSON  = "json"
	formatYAML  = "yaml"
)

// preferredColumns are shown, when present, after the primary key in table output.
var preferredColumns = []string{
	"formula_pretty", "chemsys", "band_gap", "energy_above_hull", "is_stable",
	"doi", "synthesis_type", "reaction_string", "working_ion", "average_voltage",
}

const maxDefaultColumns = 5

func newTable(w io.Writer) *tabby.Tabby {
	return tabby.NewCustom(tabwriter.NewWriter(w, 0, 0, 2, ' ', 0))
}

// printValue writes v as JSON or YAML.
func printValue(w io.Writer, format string, v any) error {
	switch format {
	case formatYAML:
		generic, err := toGeneric(v)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

// toGeneric round-trips v through JSON so YAML output uses the JSON field names.
func toGeneric(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	return out, nil
}

// printDoc writes one document; tables list one field per line.
func printDoc(w io.Writer, format string, doc map[string]any) error {
	if format != formatTable {
		return printValue(w, format, doc)
	}
	keys := make([]string, 0, len(doc))
	for k := range doc {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	t := newTable(w)
	t.AddHeader("FIELD", "VALUE")
	for _, k := range keys {
		t.AddLine(k, cell(doc[k]))
	}
	t.Print()
	return nil
}

// printDocs writes a list of documents; tables show columns.
func printDocs(w io.Writer, format string, docs []map[string]any, columns []string) error {
	if format != formatTable {
		return printValue(w, format, docs)
	}
	if len(columns) == 0 {
		columns = tableColumns(docs, "")
	}

	header := make([]any, len(columns))
	for i, c := range columns {
		header[i] = strings.ToUpper(c)
	}
	t := newTable(w)
	t.AddHeader(header...)
	for _, d := range docs {
		line := make([]any, len(columns))
		for i, c := range columns {
			line[i] = cell(d[c])
		}
		t.AddLine(line...)
	}
	t.Print()
	_, err := fmt.Fprintf(w, "%d documents\n", len(docs))
	return err
}

// tableColumns picks the primary key and a few well-known fields present in docs.
func tableColumns(docs []map[string]any, pk string) []string {
	var cols []string
	if pk != "" {
		cols = append(cols, pk)
	}
	if len(docs) == 0 {
		return cols
	}
	for _, c := range preferredColumns {
		if len(cols) >= maxDefaultColumns {
			break
		}
		if _, ok := docs[0][c]; ok && !slices.Contains(cols, c) {
			cols = append(cols, c)
		}
	}
	if len(cols) == 0 {
		for k := range docs[0] {
			cols = append(cols, k)
		}
		sort.Strings(cols)
		if len(cols) > maxDefaultColumns {
			cols = cols[:maxDefaultColumns]
		}
	}
	return cols
}

// cell renders a value for a table cell.
func cell(v any) string {
	switch t := v.(type) {
	case nil:
		return "-"
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'g', 6, 64)
	case bool:
		return strconv.FormatBool(t)
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = cell(e)
		}
		return strings.Join(parts, ",")
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		s := string(b)
		if len(s) > 60 {
			s = s[:57] + "..."
		}
		return s
	}
}
