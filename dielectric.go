package matproj

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var dielectricRoute = domain.Route{Suffix: "materials/dielectric", PrimaryKey: domain.KeyMaterialID}

// DielectricDoc holds the dielectric tensors of a material.
type DielectricDoc struct {
	Projection

	MaterialID  string      `json:"material_id"`
	Formula     string      `json:"formula_pretty,omitempty"`
	Total       [][]float64 `json:"total,omitempty"`
	Ionic       [][]float64 `json:"ionic,omitempty"`
	Electronic  [][]float64 `json:"electronic,omitempty"`
	ETotal      float64     `json:"e_total"`
	EIonic      float64     `json:"e_ionic"`
	EElectronic float64     `json:"e_electronic"`
	N           float64     `json:"n"`
	LastUpdated time.Time   `json:"last_updated,omitempty"`
}

// DielectricSearch filters materials/dielectric.
type DielectricSearch struct {
	MaterialIDs []string    `json:"material_ids"`
	ETotal      *FloatRange `json:"e_total"`
	EIonic      *FloatRange `json:"e_ionic"`
	EElectronic *FloatRange `json:"e_electronic"`
	N           *FloatRange `json:"n"`
}

func (s DielectricSearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	setFloatRange(c, "e_total", s.ETotal)
	setFloatRange(c, "e_ionic", s.EIonic)
	setFloatRange(c, "e_electronic", s.EElectronic)
	setFloatRange(c, "n", s.N)
	return c, nil
}

// DielectricRester queries materials/dielectric.
type DielectricRester struct {
	*Rester[DielectricDoc]
}

// Search returns the dielectric documents matching s.
func (r *DielectricRester) Search(ctx context.Context, s DielectricSearch, opts ...QueryOption) ([]DielectricDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
