package matproj

import (
	"context"
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

// Synthesis records have no identifier route, only a search.
var synthesisRoute = domain.Route{Suffix: "materials/synthesis"}

const synthesisChunkSize = 10

var (
	synthesisTypes = []any{"solid-state", "sol-gel", "hydrothermal", "precipitation"}
	operationTypes = []any{
		"StartingSynthesis", "MixingOperation", "ShapingOperation",
		"DryingOperation", "HeatingOperation", "QuenchingOperation",
	}
)

// SynthesisComponent is one element-resolved part of an extracted material.
type SynthesisComponent struct {
	Formula  string            `json:"formula"`
	Amount   string            `json:"amount"`
	Elements map[string]string `json:"elements,omitempty"`
}

// ExtractedMaterial is a target or precursor mentioned in a paper.
type ExtractedMaterial struct {
	MaterialString   string               `json:"material_string"`
	MaterialFormula  string               `json:"material_formula"`
	MaterialName     string               `json:"material_name,omitempty"`
	Phase            string               `json:"phase,omitempty"`
	IsAcronym        bool                 `json:"is_acronym"`
	Composition      []SynthesisComponent `json:"composition,omitempty"`
	AmountsVars      map[string]any       `json:"amounts_vars,omitempty"`
	ElementsVars     map[string][]string  `json:"elements_vars,omitempty"`
	Additives        []string             `json:"additives,omitempty"`
	OxygenDeficiency string               `json:"oxygen_deficiency,omitempty"`
}

// SynthesisValue is a measured condition: a list of values, a range, or both.
type SynthesisValue struct {
	Values   []float64 `json:"values,omitempty"`
	MinValue *float64  `json:"min_value,omitempty"`
	MaxValue *float64  `json:"max_value,omitempty"`
	Units    string    `json:"units,omitempty"`
}

// SynthesisConditions are the parameters of one operation.
type SynthesisConditions struct {
	HeatingTemperature []SynthesisValue `json:"heating_temperature,omitempty"`
	HeatingTime        []SynthesisValue `json:"heating_time,omitempty"`
	HeatingAtmosphere  []string         `json:"heating_atmosphere,omitempty"`
	MixingDevice       string           `json:"mixing_device,omitempty"`
	MixingMedia        string           `json:"mixing_media,omitempty"`
}

// SynthesisOperation is one step of a recipe.
type SynthesisOperation struct {
	Type       string              `json:"type"`
	Token      string              `json:"token"`
	Conditions SynthesisConditions `json:"conditions"`
}

// SynthesisRecipe is a synthesis procedure text-mined from the literature.
type SynthesisRecipe struct {
	Projection

	DOI               string               `json:"doi"`
	ParagraphString   string               `json:"paragraph_string,omitempty"`
	SynthesisType     string               `json:"synthesis_type,omitempty"`
	ReactionString    string               `json:"reaction_string,omitempty"`
	Reaction          map[string]any       `json:"reaction,omitempty"`
	Target            ExtractedMaterial    `json:"target"`
	TargetsFormula    []string             `json:"targets_formula,omitempty"`
	PrecursorsFormula []string             `json:"precursors_formula,omitempty"`
	Precursors        []ExtractedMaterial  `json:"precursors,omitempty"`
	Operations        []SynthesisOperation `json:"operations,omitempty"`
	SearchScore       *float64             `json:"search_score,omitempty"`
	HighlightsText    []string             `json:"highlights,omitempty"`
}

// SynthesisSearch filters text-mined synthesis recipes.
type SynthesisSearch struct {
	Keywords         []string `json:"keywords"`
	SynthesisTypes   []string `json:"synthesis_type"`
	TargetFormula    string   `json:"target_formula"`
	PrecursorFormula string   `json:"precursor_formula"`
	Operations       []string `json:"operations"`
	// Heating bounds are independent, an unset bound leaves that side open.
	MinHeatingTemperature *float64 `json:"condition_heating_temperature_min"`
	MaxHeatingTemperature *float64 `json:"condition_heating_temperature_max"`
	MinHeatingTime        *float64 `json:"condition_heating_time_min"`
	MaxHeatingTime        *float64 `json:"condition_heating_time_max"`
	HeatingAtmosphere     []string `json:"condition_heating_atmosphere"`
	MixingDevice          []string `json:"condition_mixing_device"`
	MixingMedia           []string `json:"condition_mixing_media"`
}

func (s SynthesisSearch) criteria() (query.Criteria, error) {
	if err := validateSearch(&s,
		validation.Field(&s.SynthesisTypes, validation.Each(validation.In(synthesisTypes...))),
		validation.Field(&s.Operations, validation.Each(validation.In(operationTypes...))),
	); err != nil {
		return nil, err
	}
	c := query.Criteria{}
	c.SetList("keywords", s.Keywords)
	c.SetList("synthesis_type", s.SynthesisTypes)
	c.SetString("target_formula", s.TargetFormula)
	c.SetString("precursor_formula", s.PrecursorFormula)
	c.SetList("operations", s.Operations)
	c.SetFloat("condition_heating_temperature_min", s.MinHeatingTemperature)
	c.SetFloat("condition_heating_temperature_max", s.MaxHeatingTemperature)
	c.SetFloat("condition_heating_time_min", s.MinHeatingTime)
	c.SetFloat("condition_heating_time_max", s.MaxHeatingTime)
	c.SetList("condition_heating_atmosphere", s.HeatingAtmosphere)
	c.SetList("condition_mixing_device", s.MixingDevice)
	c.SetList("condition_mixing_media", s.MixingMedia)
	return c, nil
}

// SynthesisRester searches text-mined synthesis recipes.
type SynthesisRester struct {
	*Rester[SynthesisRecipe]
}

// Search returns the recipes matching s; no match is an empty slice.
// Results are ranked by the server, pages default to 10 recipes.
func (r *SynthesisRester) Search(ctx context.Context, s SynthesisSearch, opts ...QueryOption) ([]SynthesisRecipe, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	opts = append([]QueryOption{ChunkSize(synthesisChunkSize)}, opts...)
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
