package matproj

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var grainBoundariesRoute = domain.Route{Suffix: "materials/grain_boundaries", PrimaryKey: domain.KeyMaterialID}

var gbTypes = []any{"tilt", "twist"}

// GrainBoundaryDoc describes one computed grain boundary.
type GrainBoundaryDoc struct {
	Projection

	MaterialID       string    `json:"material_id"`
	Sigma            int       `json:"sigma"`
	Type             string    `json:"type"`
	RotationAxis     []int     `json:"rotation_axis,omitempty"`
	GBPlane          []int     `json:"gb_plane,omitempty"`
	RotationAngle    float64   `json:"rotation_angle"`
	GBEnergy         float64   `json:"gb_energy"`
	InitialStructure Encoded   `json:"initial_structure,omitempty"`
	FinalStructure   Encoded   `json:"final_structure,omitempty"`
	PrettyFormula    string    `json:"pretty_formula,omitempty"`
	WSep             float64   `json:"w_sep"`
	CIF              string    `json:"cif,omitempty"`
	Chemsys          string    `json:"chemsys,omitempty"`
	LastUpdated      time.Time `json:"last_updated,omitempty"`
}

// GrainBoundariesSearch filters materials/grain_boundaries.
type GrainBoundariesSearch struct {
	MaterialIDs      []string    `json:"material_ids"`
	Chemsys          string      `json:"chemsys"`
	PrettyFormula    string      `json:"pretty_formula"`
	GBPlane          []int       `json:"gb_plane"`
	RotationAxis     []int       `json:"rotation_axis"`
	GBEnergy         *FloatRange `json:"gb_energy"`
	SeparationEnergy *FloatRange `json:"w_sep"`
	RotationAngle    *FloatRange `json:"rotation_angle"`
	Sigma            *int        `json:"sigma"`
	Type             string      `json:"type"`
}

func (s GrainBoundariesSearch) criteria() (query.Criteria, error) {
	if err := validateSearch(&s,
		validation.Field(&s.Type, validation.In(gbTypes...)),
		validation.Field(&s.RotationAxis, validation.Length(3, 4)),
		validation.Field(&s.Sigma, validation.Min(1)),
	); err != nil {
		return nil, err
	}
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	c.SetString("chemsys", s.Chemsys)
	c.SetString("pretty_formula", s.PrettyFormula)
	c.SetList("gb_plane", intList(s.GBPlane))
	c.SetList("rotation_axis", intList(s.RotationAxis))
	setFloatRange(c, "gb_energy", s.GBEnergy)
	setFloatRange(c, "w_sep", s.SeparationEnergy)
	setFloatRange(c, "rotation_angle", s.RotationAngle)
	c.SetInt("sigma", s.Sigma)
	c.SetString("type", s.Type)
	return c, nil
}

// GrainBoundariesRester queries materials/grain_boundaries.
type GrainBoundariesRester struct {
	*Rester[GrainBoundaryDoc]
}

// Search returns the grain boundaries matching s.
func (r *GrainBoundariesRester) Search(
	ctx context.Context, s GrainBoundariesSearch, opts ...QueryOption,
) ([]GrainBoundaryDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
