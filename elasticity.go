package matproj

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var elasticityRoute = domain.Route{Suffix: "materials/elasticity", PrimaryKey: domain.KeyMaterialID}

// Moduli is a Voigt/Reuss/Hill triple in GPa.
type Moduli struct {
	Voigt float64 `json:"voigt"`
	Reuss float64 `json:"reuss"`
	VRH   float64 `json:"vrh"`
}

// ElasticityDoc holds the elastic tensor and derived moduli of a material.
type ElasticityDoc struct {
	Projection

	MaterialID          string         `json:"material_id"`
	Formula             string         `json:"formula_pretty,omitempty"`
	Structure           Encoded        `json:"structure,omitempty"`
	ElasticTensor       map[string]any `json:"elastic_tensor,omitempty"`
	BulkModulus         Moduli         `json:"bulk_modulus"`
	ShearModulus        Moduli         `json:"shear_modulus"`
	YoungModulus        *float64       `json:"young_modulus,omitempty"`
	UniversalAnisotropy float64        `json:"universal_anisotropy"`
	HomogeneousPoisson  float64        `json:"homogeneous_poisson"`
	DebyeTemperature    *float64       `json:"debye_temperature,omitempty"`
	State               string         `json:"state,omitempty"`
	LastUpdated         time.Time      `json:"last_updated,omitempty"`
}

// ElasticitySearch filters materials/elasticity. Moduli are in GPa.
type ElasticitySearch struct {
	MaterialIDs       []string    `json:"material_ids"`
	KVoigt            *FloatRange `json:"k_voigt"`
	KReuss            *FloatRange `json:"k_reuss"`
	KVRH              *FloatRange `json:"k_vrh"`
	GVoigt            *FloatRange `json:"g_voigt"`
	GReuss            *FloatRange `json:"g_reuss"`
	GVRH              *FloatRange `json:"g_vrh"`
	ElasticAnisotropy *FloatRange `json:"elastic_anisotropy"`
	PoissonRatio      *FloatRange `json:"poisson"`
}

func (s ElasticitySearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	setFloatRange(c, "k_voigt", s.KVoigt)
	setFloatRange(c, "k_reuss", s.KReuss)
	setFloatRange(c, "k_vrh", s.KVRH)
	setFloatRange(c, "g_voigt", s.GVoigt)
	setFloatRange(c, "g_reuss", s.GReuss)
	setFloatRange(c, "g_vrh", s.GVRH)
	setFloatRange(c, "elastic_anisotropy", s.ElasticAnisotropy)
	setFloatRange(c, "poisson", s.PoissonRatio)
	return c, nil
}

// ElasticityRester queries materials/elasticity.
type ElasticityRester struct {
	*Rester[ElasticityDoc]
}

// Search returns the elasticity documents matching s.
func (r *ElasticityRester) Search(ctx context.Context, s ElasticitySearch, opts ...QueryOption) ([]ElasticityDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
