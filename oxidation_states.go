package matproj

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var oxidationStatesRoute = domain.Route{Suffix: "materials/oxidation_states", PrimaryKey: domain.KeyMaterialID}

// OxidationStateDoc holds the assigned oxidation states of a material.
type OxidationStateDoc struct {
	Projection

	MaterialID             string             `json:"material_id"`
	Formula                string             `json:"formula_pretty,omitempty"`
	Chemsys                string             `json:"chemsys,omitempty"`
	Structure              Encoded            `json:"structure,omitempty"`
	PossibleSpecies        []string           `json:"possible_species,omitempty"`
	PossibleValences       []float64          `json:"possible_valences,omitempty"`
	AverageOxidationStates map[string]float64 `json:"average_oxidation_states,omitempty"`
	Method                 string             `json:"method,omitempty"`
	State                  string             `json:"state,omitempty"`
	LastUpdated            time.Time          `json:"last_updated,omitempty"`
}

// OxidationStatesSearch filters materials/oxidation_states.
type OxidationStatesSearch struct {
	MaterialIDs     []string `json:"material_ids"`
	Chemsys         []string `json:"chemsys"`
	Formula         []string `json:"formula"`
	PossibleSpecies []string `json:"possible_species"`
}

func (s OxidationStatesSearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	c.SetList("chemsys", s.Chemsys)
	c.SetList("formula", s.Formula)
	c.SetList("possible_species", s.PossibleSpecies)
	return c, nil
}

// OxidationStatesRester queries materials/oxidation_states.
type OxidationStatesRester struct {
	*Rester[OxidationStateDoc]
}

// Search returns the oxidation state documents matching s.
func (r *OxidationStatesRester) Search(
	ctx context.Context, s OxidationStatesSearch, opts ...QueryOption,
) ([]OxidationStateDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
