package matproj

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var magnetismRoute = domain.Route{Suffix: "materials/magnetism", PrimaryKey: domain.KeyMaterialID}

// MagnetismDoc holds the magnetic ordering and moments of a material.
type MagnetismDoc struct {
	Projection

	MaterialID                               string    `json:"material_id"`
	Formula                                  string    `json:"formula_pretty,omitempty"`
	Ordering                                 string    `json:"ordering,omitempty"`
	IsMagnetic                               bool      `json:"is_magnetic"`
	ExchangeSymmetry                         int       `json:"exchange_symmetry,omitempty"`
	NumMagneticSites                         int       `json:"num_magnetic_sites"`
	NumUniqueMagneticSites                   int       `json:"num_unique_magnetic_sites"`
	TypesOfMagneticSpecies                   []string  `json:"types_of_magnetic_species,omitempty"`
	MagneticMoments                          []float64 `json:"magmoms,omitempty"`
	TotalMagnetization                       float64   `json:"total_magnetization"`
	TotalMagnetizationNormalizedVol          float64   `json:"total_magnetization_normalized_vol"`
	TotalMagnetizationNormalizedFormulaUnits float64   `json:"total_magnetization_normalized_formula_units"`
	LastUpdated                              time.Time `json:"last_updated,omitempty"`
}

// MagnetismSearch filters materials/magnetism.
type MagnetismSearch struct {
	MaterialIDs                              []string    `json:"material_ids"`
	Ordering                                 string      `json:"ordering"`
	NumMagneticSites                         *IntRange   `json:"num_magnetic_sites"`
	NumUniqueMagneticSites                   *IntRange   `json:"num_unique_magnetic_sites"`
	TotalMagnetization                       *FloatRange `json:"total_magnetization"`
	TotalMagnetizationNormalizedVol          *FloatRange `json:"total_magnetization_normalized_vol"`
	TotalMagnetizationNormalizedFormulaUnits *FloatRange `json:"total_magnetization_normalized_formula_units"`
}

func (s MagnetismSearch) criteria() (query.Criteria, error) {
	if err := validateSearch(&s,
		validation.Field(&s.Ordering, validation.In(magneticOrderings...)),
	); err != nil {
		return nil, err
	}
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	c.SetString("ordering", s.Ordering)
	setIntRange(c, "num_magnetic_sites", s.NumMagneticSites)
	setIntRange(c, "num_unique_magnetic_sites", s.NumUniqueMagneticSites)
	setFloatRange(c, "total_magnetization", s.TotalMagnetization)
	setFloatRange(c, "total_magnetization_normalized_vol", s.TotalMagnetizationNormalizedVol)
	setFloatRange(c, "total_magnetization_normalized_formula_units", s.TotalMagnetizationNormalizedFormulaUnits)
	return c, nil
}

// MagnetismRester queries materials/magnetism.
type MagnetismRester struct {
	*Rester[MagnetismDoc]
}

// Search returns the magnetism documents matching s.
func (r *MagnetismRester) Search(ctx context.Context, s MagnetismSearch, opts ...QueryOption) ([]MagnetismDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
