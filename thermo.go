package matproj

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var thermoRoute = domain.Route{Suffix: "materials/thermo", PrimaryKey: domain.KeyMaterialID, SupportsVersions: true}

// Functional mixing schemes of thermodynamic data.
const (
	ThermoTypeGGAGGAU       = "GGA_GGA+U"
	ThermoTypeGGAGGAUR2SCAN = "GGA_GGA+U_R2SCAN"
	ThermoTypeR2SCAN        = "R2SCAN"
)

var thermoTypes = []any{ThermoTypeGGAGGAU, ThermoTypeGGAGGAUR2SCAN, ThermoTypeR2SCAN}

// ThermoDoc holds the thermodynamic stability of a material for one thermo type.
type ThermoDoc struct {
	Projection

	MaterialID                       string             `json:"material_id"`
	ThermoID                         string             `json:"thermo_id,omitempty"`
	ThermoType                       string             `json:"thermo_type,omitempty"`
	Formula                          string             `json:"formula_pretty,omitempty"`
	Chemsys                          string             `json:"chemsys,omitempty"`
	Elements                         []string           `json:"elements,omitempty"`
	NElements                        int                `json:"nelements,omitempty"`
	EnergyPerAtom                    float64            `json:"energy_per_atom"`
	UncorrectedEnergyPerAtom         float64            `json:"uncorrected_energy_per_atom"`
	FormationEnergyPerAtom           float64            `json:"formation_energy_per_atom"`
	EnergyAboveHull                  float64            `json:"energy_above_hull"`
	IsStable                         bool               `json:"is_stable"`
	EquilibriumReactionEnergyPerAtom *float64           `json:"equilibrium_reaction_energy_per_atom,omitempty"`
	DecomposesTo                     []any              `json:"decomposes_to,omitempty"`
	DecompositionEnthalpy            *float64           `json:"decomposition_enthalpy,omitempty"`
	Entries                          map[string]Encoded `json:"entries,omitempty"`
	EntryTypes                       []string           `json:"entry_types,omitempty"`
	BuilderMeta                      BuilderMeta        `json:"builder_meta,omitempty"`
	LastUpdated                      time.Time          `json:"last_updated,omitempty"`
}

// ThermoSearch filters materials/thermo.
type ThermoSearch struct {
	MaterialIDs               []string    `json:"material_ids"`
	ThermoIDs                 []string    `json:"thermo_ids"`
	ThermoTypes               []string    `json:"thermo_types"`
	Chemsys                   []string    `json:"chemsys"`
	Formula                   []string    `json:"formula"`
	IsStable                  *bool       `json:"is_stable"`
	NumElements               *IntRange   `json:"nelements"`
	TotalEnergy               *FloatRange `json:"energy_per_atom"`
	FormationEnergy           *FloatRange `json:"formation_energy_per_atom"`
	EnergyAboveHull           *FloatRange `json:"energy_above_hull"`
	EquilibriumReactionEnergy *FloatRange `json:"equilibrium_reaction_energy_per_atom"`
	UncorrectedEnergy         *FloatRange `json:"uncorrected_energy_per_atom"`
}

func (s ThermoSearch) criteria() (query.Criteria, error) {
	if err := validateSearch(&s,
		validation.Field(&s.ThermoTypes, validation.Each(validation.In(thermoTypes...))),
	); err != nil {
		return nil, err
	}
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	if err := setIDs(c, "thermo_ids", s.ThermoIDs); err != nil {
		return nil, err
	}
	c.SetList("thermo_types", s.ThermoTypes)
	c.SetList("chemsys", s.Chemsys)
	c.SetList("formula", s.Formula)
	c.SetBool("is_stable", s.IsStable)
	setIntRange(c, "nelements", s.NumElements)
	setFloatRange(c, "energy_per_atom", s.TotalEnergy)
	setFloatRange(c, "formation_energy_per_atom", s.FormationEnergy)
	setFloatRange(c, "energy_above_hull", s.EnergyAboveHull)
	setFloatRange(c, "equilibrium_reaction_energy_per_atom", s.EquilibriumReactionEnergy)
	setFloatRange(c, "uncorrected_energy_per_atom", s.UncorrectedEnergy)
	return c, nil
}

// ThermoRester queries materials/thermo.
type ThermoRester struct {
	*Rester[ThermoDoc]
}

// Search returns the thermo documents matching s.
func (r *ThermoRester) Search(ctx context.Context, s ThermoSearch, opts ...QueryOption) ([]ThermoDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}

// GetPhaseDiagram returns the pre-computed phase diagram of a chemical system, e.g. "Li-Fe-O".
// An empty thermoType means GGA_GGA+U.
func (r *ThermoRester) GetPhaseDiagram(ctx context.Context, chemsys, thermoType string) (pd Encoded, err error) {
	ctx, sp := r.core.obs.begin(ctx, "get_phase_diagram", r.route.Suffix)
	defer func() { r.core.obs.end(sp, err) }()

	if thermoType == "" {
		thermoType = ThermoTypeGGAGGAU
	}
	if err := validation.Validate(thermoType, validation.In(thermoTypes...)); err != nil {
		return pd, fmt.Errorf("get phase diagram: %w", domain.Invalid("thermo_type", "%v", err))
	}
	sys := normalizeChemsys(chemsys)
	if sys == "" {
		return pd, fmt.Errorf("get phase diagram: %w", domain.Invalid("chemsys", "chemical system is empty"))
	}

	path := r.route.Suffix + "/phase_diagram/" + url.PathEscape(sys+"_"+thermoType) + "/"
	raw, err := r.first(ctx, path, query.Criteria{
		query.ParamFields: []string{"phase_diagram"},
		query.ParamLimit:  1,
	})
	if err != nil {
		return pd, fmt.Errorf("get phase diagram %s: %w", sys, err)
	}
	pd, err = r.core.decoder.Registry().Decode(raw["phase_diagram"])
	if err != nil {
		return pd, fmt.Errorf("get phase diagram %s: %w", sys, err)
	}
	return pd, nil
}

// normalizeChemsys sorts the elements of "O-Fe-Li" into "Fe-Li-O".
func normalizeChemsys(chemsys string) string {
	var els []string
	for _, e := range strings.Split(chemsys, "-") {
		if e = strings.TrimSpace(e); e != "" {
			els = append(els, e)
		}
	}
	sort.Strings(els)
	return strings.Join(els, "-")
}
