package matproj

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var summaryRoute = domain.Route{Suffix: "materials/summary", PrimaryKey: domain.KeyMaterialID}

// Property groups accepted by SummarySearch.HasProps.
var summaryProps = []any{
	"absorption", "bandstructure", "charge_density", "chemenv", "dielectric", "dos",
	"elasticity", "electronic_structure", "eos", "grain_boundaries", "insertion_electrodes",
	"magnetism", "materials", "oxi_states", "phonon", "piezoelectric", "provenance",
	"substrates", "surface_properties", "thermo", "xas",
}

// SummaryDoc aggregates the most used properties of a material.
type SummaryDoc struct {
	Projection

	MaterialID             string              `json:"material_id"`
	Formula                string              `json:"formula_pretty,omitempty"`
	Chemsys                string              `json:"chemsys,omitempty"`
	Elements               []string            `json:"elements,omitempty"`
	NElements              int                 `json:"nelements,omitempty"`
	NSites                 int                 `json:"nsites,omitempty"`
	Volume                 float64             `json:"volume,omitempty"`
	Density                float64             `json:"density,omitempty"`
	Symmetry               Symmetry            `json:"symmetry,omitempty"`
	Structure              Encoded             `json:"structure,omitempty"`
	EnergyPerAtom          float64             `json:"energy_per_atom"`
	FormationEnergyPerAtom float64             `json:"formation_energy_per_atom"`
	EnergyAboveHull        float64             `json:"energy_above_hull"`
	IsStable               bool                `json:"is_stable"`
	BandGap                *float64            `json:"band_gap,omitempty"`
	EFermi                 *float64            `json:"efermi,omitempty"`
	IsGapDirect            bool                `json:"is_gap_direct"`
	IsMetal                bool                `json:"is_metal"`
	Ordering               string              `json:"ordering,omitempty"`
	TotalMagnetization     *float64            `json:"total_magnetization,omitempty"`
	KVRH                   *float64            `json:"k_vrh,omitempty"`
	GVRH                   *float64            `json:"g_vrh,omitempty"`
	ETotal                 *float64            `json:"e_total,omitempty"`
	N                      *float64            `json:"n,omitempty"`
	HasProps               map[string]bool     `json:"has_props,omitempty"`
	Theoretical            bool                `json:"theoretical"`
	Deprecated             bool                `json:"deprecated"`
	DatabaseIDs            map[string][]string `json:"database_IDs,omitempty"`
	BuilderMeta            BuilderMeta         `json:"builder_meta,omitempty"`
	LastUpdated            time.Time           `json:"last_updated,omitempty"`
}

// SummarySearch filters materials/summary.
type SummarySearch struct {
	MaterialIDs        []string    `json:"material_ids"`
	Chemsys            []string    `json:"chemsys"`
	Formula            []string    `json:"formula"`
	Elements           []string    `json:"elements"`
	ExcludeElements    []string    `json:"exclude_elements"`
	PossibleSpecies    []string    `json:"possible_species"`
	HasProps           []string    `json:"has_props"`
	BandGap            *FloatRange `json:"band_gap"`
	EnergyAboveHull    *FloatRange `json:"energy_above_hull"`
	FormationEnergy    *FloatRange `json:"formation_energy_per_atom"`
	TotalMagnetization *FloatRange `json:"total_magnetization"`
	Density            *FloatRange `json:"density"`
	NumSites           *IntRange   `json:"nsites"`
	NumElements        *IntRange   `json:"nelements"`
	IsStable           *bool       `json:"is_stable"`
	IsMetal            *bool       `json:"is_metal"`
	IsGapDirect        *bool       `json:"is_gap_direct"`
	Theoretical        *bool       `json:"theoretical"`
	MagneticOrdering   string      `json:"ordering"`
	CrystalSystem      string      `json:"crystal_system"`
	Deprecated         *bool       `json:"deprecated"`
}

func (s SummarySearch) criteria() (query.Criteria, error) {
	if err := validateSearch(&s,
		validation.Field(&s.HasProps, validation.Each(validation.In(summaryProps...))),
		validation.Field(&s.MagneticOrdering, validation.In(magneticOrderings...)),
		validation.Field(&s.CrystalSystem, validation.In(crystalSystems...)),
	); err != nil {
		return nil, err
	}
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	c.SetList("chemsys", s.Chemsys)
	c.SetList("formula", s.Formula)
	c.SetList("elements", s.Elements)
	c.SetList("exclude_elements", s.ExcludeElements)
	c.SetList("possible_species", s.PossibleSpecies)
	c.SetList("has_props", s.HasProps)
	setFloatRange(c, "band_gap", s.BandGap)
	setFloatRange(c, "energy_above_hull", s.EnergyAboveHull)
	setFloatRange(c, "formation_energy_per_atom", s.FormationEnergy)
	setFloatRange(c, "total_magnetization", s.TotalMagnetization)
	setFloatRange(c, "density", s.Density)
	setIntRange(c, "nsites", s.NumSites)
	setIntRange(c, "nelements", s.NumElements)
	c.SetBool("is_stable", s.IsStable)
	c.SetBool("is_metal", s.IsMetal)
	c.SetBool("is_gap_direct", s.IsGapDirect)
	c.SetBool("theoretical", s.Theoretical)
	c.SetString("ordering", s.MagneticOrdering)
	c.SetString("crystal_system", s.CrystalSystem)
	c.SetBool("deprecated", s.Deprecated)
	return c, nil
}

// SummaryRester queries materials/summary.
type SummaryRester struct {
	*Rester[SummaryDoc]
}

// Search returns the summaries matching s.
func (r *SummaryRester) Search(ctx context.Context, s SummarySearch, opts ...QueryOption) ([]SummaryDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
