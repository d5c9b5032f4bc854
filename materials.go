package matproj

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var materialsRoute = domain.Route{Suffix: "materials/core", PrimaryKey: domain.KeyMaterialID, SupportsVersions: true}

// Symmetry is the space group information of a structure.
type Symmetry struct {
	CrystalSystem string  `json:"crystal_system,omitempty"`
	Symbol        string  `json:"symbol,omitempty"`
	Number        int     `json:"number,omitempty"`
	PointGroup    string  `json:"point_group,omitempty"`
	SymPrec       float64 `json:"symprec,omitempty"`
	Version       string  `json:"version,omitempty"`
}

// MaterialsDoc is the core record of a material.
type MaterialsDoc struct {
	Projection

	MaterialID        string         `json:"material_id"`
	Formula           string         `json:"formula_pretty,omitempty"`
	FormulaAnonymous  string         `json:"formula_anonymous,omitempty"`
	Chemsys           string         `json:"chemsys,omitempty"`
	Elements          []string       `json:"elements,omitempty"`
	NElements         int            `json:"nelements,omitempty"`
	NSites            int            `json:"nsites,omitempty"`
	Volume            float64        `json:"volume,omitempty"`
	Density           float64        `json:"density,omitempty"`
	DensityAtomic     float64        `json:"density_atomic,omitempty"`
	Symmetry          Symmetry       `json:"symmetry,omitempty"`
	Structure         Encoded        `json:"structure,omitempty"`
	InitialStructures []Encoded      `json:"initial_structures,omitempty"`
	TaskIDs           []string       `json:"task_ids,omitempty"`
	CalcTypes         map[string]any `json:"calc_types,omitempty"`
	Deprecated        bool           `json:"deprecated"`
	DeprecationReason []string       `json:"deprecation_reasons,omitempty"`
	Origins           []any          `json:"origins,omitempty"`
	Warnings          []string       `json:"warnings,omitempty"`
	BuilderMeta       BuilderMeta    `json:"builder_meta,omitempty"`
	LastUpdated       time.Time      `json:"last_updated,omitempty"`
	CreatedAt         time.Time      `json:"created_at,omitempty"`
}

// MaterialsSearch filters materials/core. Zero values are not sent.
type MaterialsSearch struct {
	MaterialIDs     []string    `json:"material_ids"`
	Chemsys         []string    `json:"chemsys"`
	Formula         []string    `json:"formula"`
	Elements        []string    `json:"elements"`
	ExcludeElements []string    `json:"exclude_elements"`
	TaskIDs         []string    `json:"task_ids"`
	NumElements     *IntRange   `json:"nelements"`
	NumSites        *IntRange   `json:"nsites"`
	Volume          *FloatRange `json:"volume"`
	Density         *FloatRange `json:"density"`
	CrystalSystem   string      `json:"crystal_system"`
	SpacegroupNum   *int        `json:"spacegroup_number"`
	SpacegroupSym   string      `json:"spacegroup_symbol"`
	// Deprecated selects deprecated materials. The API default is false.
	Deprecated *bool `json:"deprecated"`
}

func (s MaterialsSearch) criteria() (query.Criteria, error) {
	if err := validateSearch(&s,
		validation.Field(&s.CrystalSystem, validation.In(crystalSystems...)),
		validation.Field(&s.SpacegroupNum, validation.Min(1), validation.Max(230)),
	); err != nil {
		return nil, err
	}
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	if err := setIDs(c, "task_ids", s.TaskIDs); err != nil {
		return nil, err
	}
	c.SetList("chemsys", s.Chemsys)
	c.SetList("formula", s.Formula)
	c.SetList("elements", s.Elements)
	c.SetList("exclude_elements", s.ExcludeElements)
	setIntRange(c, "nelements", s.NumElements)
	setIntRange(c, "nsites", s.NumSites)
	setFloatRange(c, "volume", s.Volume)
	setFloatRange(c, "density", s.Density)
	c.SetString("crystal_system", s.CrystalSystem)
	c.SetInt("spacegroup_number", s.SpacegroupNum)
	c.SetString("spacegroup_symbol", s.SpacegroupSym)
	c.SetBool("deprecated", s.Deprecated)
	return c, nil
}

// MaterialsRester queries materials/core.
type MaterialsRester struct {
	*Rester[MaterialsDoc]
}

// Search returns the materials matching s.
func (r *MaterialsRester) Search(ctx context.Context, s MaterialsSearch, opts ...QueryOption) ([]MaterialsDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}

// StructureByMaterialID returns the final structure of a material (one element),
// or its initial structures when final is false.
func (r *MaterialsRester) StructureByMaterialID(
	ctx context.Context, materialID string, final bool, opts ...QueryOption,
) ([]*Structure, error) {
	field := "structure"
	if !final {
		field = "initial_structures"
	}
	opts = append(opts, Fields(field), MontyDecode(true))
	doc, err := r.GetDocumentByID(ctx, materialID, opts...)
	if err != nil {
		return nil, fmt.Errorf("structure by material id: %w", err)
	}

	encoded := doc.InitialStructures
	if final {
		encoded = []Encoded{doc.Structure}
	}
	out := make([]*Structure, 0, len(encoded))
	for _, e := range encoded {
		s, ok := e.Value.(*Structure)
		if !ok {
			return nil, fmt.Errorf("structure by material id %s: %s is not a structure", materialID, field)
		}
		out = append(out, s)
	}
	return out, nil
}
