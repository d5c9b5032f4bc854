package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"
)

// Tool names exposed to the model.
const (
	ToolGetDocument     = "get_document"
	ToolSearchMaterials = "search_materials"
	ToolSearchSynthesis = "search_synthesis"
	ToolGetStructure    = "get_structure"
)

// MaterialFilter narrows a materials search. Zero values are unset.
type MaterialFilter struct {
	Formula    []string `json:"formula,omitempty"`
	Chemsys    []string `json:"chemsys,omitempty"`
	Elements   []string `json:"elements,omitempty"`
	BandGapMin *float64 `json:"band_gap_min,omitempty"`
	BandGapMax *float64 `json:"band_gap_max,omitempty"`
	IsStable   *bool    `json:"is_stable,omitempty"`
}

// StructureSummary is the compact view of a crystal structure returned to the model.
type StructureSummary struct {
	MaterialID string       `json:"material_id"`
	Formula    string       `json:"formula"`
	NumSites   int          `json:"nsites"`
	Volume     float64      `json:"volume"`
	Lattice    [3]float64   `json:"lattice_abc"`
	Sites      []SiteSketch `json:"sites"`
}

// SiteSketch is one site of a StructureSummary.
type SiteSketch struct {
	Element string    `json:"element"`
	ABC     []float64 `json:"abc"`
}

// Materials is the data source behind the tools.
type Materials interface {
	GetDocument(ctx context.Context, category, id string, fields []string) (map[string]any, error)
	SearchMaterials(ctx context.Context, f MaterialFilter) ([]map[string]any, error)
	SearchSynthesis(ctx context.Context, keywords []string, targetFormula string) ([]map[string]any, error)
	GetStructure(ctx context.Context, materialID string) (StructureSummary, error)
}

func toolDefinitions() []openai.Tool {
	strList := jsonschema.Definition{Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}}
	defs := []openai.FunctionDefinition{
		{
			Name:        ToolGetDocument,
			Description: "Fetch one document of a data category (materials, summary, thermo, elasticity, ...) by identifier.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"category": {Type: jsonschema.String, Description: "Category name, e.g. summary or thermo."},
					"id":       {Type: jsonschema.String, Description: "Document identifier, e.g. mp-149."},
					"fields":   {Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}, Description: "Fields to return; empty returns all."},
				},
				Required: []string{"category", "id"},
			},
		},
		{
			Name:        ToolSearchMaterials,
			Description: "Search material summaries by formula, chemical system, elements, band gap and stability.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"formula":      strList,
					"chemsys":      strList,
					"elements":     strList,
					"band_gap_min": {Type: jsonschema.Number},
					"band_gap_max": {Type: jsonschema.Number},
					"is_stable":    {Type: jsonschema.Boolean},
				},
			},
		},
		{
			Name:        ToolSearchSynthesis,
			Description: "Search text-mined synthesis recipes by keywords and target formula.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"keywords":       strList,
					"target_formula": {Type: jsonschema.String},
				},
			},
		},
		{
			Name:        ToolGetStructure,
			Description: "Return the relaxed crystal structure of a material.",
			Parameters: jsonschema.Definition{
				Type: jsonschema.Object,
				Properties: map[string]jsonschema.Definition{
					"material_id": {Type: jsonschema.String},
				},
				Required: []string{"material_id"},
			},
		},
	}

	tools := make([]openai.Tool, len(defs))
	for i := range defs {
		tools[i] = openai.Tool{Type: openai.ToolTypeFunction, Function: &defs[i]}
	}
	return tools
}

// runTool executes one tool call and returns its JSON result.
func runTool(ctx context.Context, m Materials, name, arguments string) (string, error) {
	var (
		result any
		err    error
	)
	switch name {
	case ToolGetDocument:
		var args struct {
			Category string   `json:"category"`
			ID       string   `json:"id"`
			Fields   []string `json:"fields"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("%s arguments: %w", name, err)
		}
		result, err = m.GetDocument(ctx, args.Category, args.ID, args.Fields)
	case ToolSearchMaterials:
		var f MaterialFilter
		if err := json.Unmarshal([]byte(arguments), &f); err != nil {
			return "", fmt.Errorf("%s arguments: %w", name, err)
		}
		result, err = m.SearchMaterials(ctx, f)
	case ToolSearchSynthesis:
		var args struct {
			Keywords      []string `json:"keywords"`
			TargetFormula string   `json:"target_formula"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("%s arguments: %w", name, err)
		}
		result, err = m.SearchSynthesis(ctx, args.Keywords, args.TargetFormula)
	case ToolGetStructure:
		var args struct {
			MaterialID string `json:"material_id"`
		}
		if err := json.Unmarshal([]byte(arguments), &args); err != nil {
			return "", fmt.Errorf("%s arguments: %w", name, err)
		}
		result, err = m.GetStructure(ctx, args.MaterialID)
	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}

	out, err := json.Marshal(result)
	if err != nil {
		return "", fmt.Errorf("%s: encode result: %w", name, err)
	}
	return string(out), nil
}
