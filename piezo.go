package matproj

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var piezoRoute = domain.Route{Suffix: "materials/piezoelectric", PrimaryKey: domain.KeyMaterialID}

// PiezoelectricDoc holds the piezoelectric tensor of a material.
type PiezoelectricDoc struct {
	Projection

	MaterialID   string      `json:"material_id"`
	Formula      string      `json:"formula_pretty,omitempty"`
	Total        [][]float64 `json:"total,omitempty"`
	Ionic        [][]float64 `json:"ionic,omitempty"`
	Electronic   [][]float64 `json:"electronic,omitempty"`
	EIJMax       float64     `json:"e_ij_max"`
	MaxDirection []int       `json:"max_direction,omitempty"`
	StrainForMax []float64   `json:"strain_for_max,omitempty"`
	LastUpdated  time.Time   `json:"last_updated,omitempty"`
}

// PiezoSearch filters materials/piezoelectric.
type PiezoSearch struct {
	MaterialIDs []string `json:"material_ids"`
	// PiezoelectricModulus bounds the maximum piezoelectric modulus in C/m².
	PiezoelectricModulus *FloatRange `json:"piezo_modulus"`
}

func (s PiezoSearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	setFloatRange(c, "piezo_modulus", s.PiezoelectricModulus)
	return c, nil
}

// PiezoRester queries materials/piezoelectric.
type PiezoRester struct {
	*Rester[PiezoelectricDoc]
}

// Search returns the piezoelectric documents matching s.
func (r *PiezoRester) Search(ctx context.Context, s PiezoSearch, opts ...QueryOption) ([]PiezoelectricDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
