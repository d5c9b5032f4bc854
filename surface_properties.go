package matproj

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var surfacePropertiesRoute = domain.Route{Suffix: "materials/surface_properties", PrimaryKey: domain.KeyMaterialID}

// Surface is one computed facet.
type Surface struct {
	MillerIndex     []int    `json:"miller_index"`
	SurfaceEnergy   float64  `json:"surface_energy"`
	SurfaceEnergyEV float64  `json:"surface_energy_EV_PER_ANG2"`
	IsReconstructed bool     `json:"is_reconstructed"`
	AreaFraction    float64  `json:"area_fraction"`
	WorkFunction    *float64 `json:"work_function,omitempty"`
	Structure       string   `json:"structure,omitempty"`
}

// SurfacePropDoc holds the surface energies and Wulff shape of a material.
type SurfacePropDoc struct {
	Projection

	MaterialID              string    `json:"material_id"`
	Formula                 string    `json:"pretty_formula,omitempty"`
	Surfaces                []Surface `json:"surfaces,omitempty"`
	WeightedSurfaceEnergy   float64   `json:"weighted_surface_energy"`
	WeightedSurfaceEnergyEV float64   `json:"weighted_surface_energy_EV_PER_ANG2"`
	SurfaceAnisotropy       float64   `json:"surface_anisotropy"`
	ShapeFactor             float64   `json:"shape_factor"`
	WeightedWorkFunction    *float64  `json:"weighted_work_function,omitempty"`
	HasReconstructed        bool      `json:"has_reconstructed"`
}

// SurfacePropertiesSearch filters materials/surface_properties.
type SurfacePropertiesSearch struct {
	MaterialIDs             []string    `json:"material_ids"`
	WeightedSurfaceEnergy   *FloatRange `json:"weighted_surface_energy"`
	WeightedWorkFunction    *FloatRange `json:"weighted_work_function"`
	SurfaceEnergyAnisotropy *FloatRange `json:"surface_anisotropy"`
	ShapeFactor             *FloatRange `json:"shape_factor"`
	HasReconstructed        *bool       `json:"has_reconstructed"`
}

func (s SurfacePropertiesSearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	setFloatRange(c, "weighted_surface_energy", s.WeightedSurfaceEnergy)
	setFloatRange(c, "weighted_work_function", s.WeightedWorkFunction)
	setFloatRange(c, "surface_anisotropy", s.SurfaceEnergyAnisotropy)
	setFloatRange(c, "shape_factor", s.ShapeFactor)
	c.SetBool("has_reconstructed", s.HasReconstructed)
	return c, nil
}

// SurfacePropertiesRester queries materials/surface_properties.
type SurfacePropertiesRester struct {
	*Rester[SurfacePropDoc]
}

// Search returns the surface property documents matching s.
func (r *SurfacePropertiesRester) Search(
	ctx context.Context, s SurfacePropertiesSearch, opts ...QueryOption,
) ([]SurfacePropDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
