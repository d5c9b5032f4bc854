package matproj

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var electronicStructureRoute = domain.Route{Suffix: "materials/electronic_structure", PrimaryKey: domain.KeyMaterialID}

// ElectronicStructureDoc summarizes band structures and densities of states.
type ElectronicStructureDoc struct {
	Projection

	MaterialID    string         `json:"material_id"`
	TaskID        string         `json:"task_id,omitempty"`
	Formula       string         `json:"formula_pretty,omitempty"`
	Chemsys       string         `json:"chemsys,omitempty"`
	Elements      []string       `json:"elements,omitempty"`
	NElements     int            `json:"nelements,omitempty"`
	BandGap       float64        `json:"band_gap"`
	CBM           *float64       `json:"cbm,omitempty"`
	VBM           *float64       `json:"vbm,omitempty"`
	EFermi        *float64       `json:"efermi,omitempty"`
	IsGapDirect   bool           `json:"is_gap_direct"`
	IsMetal       bool           `json:"is_metal"`
	Magnetic      string         `json:"magnetic_ordering,omitempty"`
	Bandstructure map[string]any `json:"bandstructure,omitempty"`
	DOS           map[string]any `json:"dos,omitempty"`
	DOSEnergyUp   []float64      `json:"dos_energy_up,omitempty"`
	LastUpdated   time.Time      `json:"last_updated,omitempty"`
}

// ElectronicStructureSearch filters materials/electronic_structure.
type ElectronicStructureSearch struct {
	MaterialIDs      []string    `json:"material_ids"`
	Chemsys          []string    `json:"chemsys"`
	Formula          []string    `json:"formula"`
	Elements         []string    `json:"elements"`
	ExcludeElements  []string    `json:"exclude_elements"`
	BandGap          *FloatRange `json:"band_gap"`
	EFermi           *FloatRange `json:"efermi"`
	NumElements      *IntRange   `json:"nelements"`
	IsGapDirect      *bool       `json:"is_gap_direct"`
	IsMetal          *bool       `json:"is_metal"`
	MagneticOrdering string      `json:"magnetic_ordering"`
}

func (s ElectronicStructureSearch) criteria() (query.Criteria, error) {
	if err := validateSearch(&s,
		validation.Field(&s.MagneticOrdering, validation.In(magneticOrderings...)),
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
	setFloatRange(c, "band_gap", s.BandGap)
	setFloatRange(c, "efermi", s.EFermi)
	setIntRange(c, "nelements", s.NumElements)
	c.SetBool("is_gap_direct", s.IsGapDirect)
	c.SetBool("is_metal", s.IsMetal)
	c.SetString("magnetic_ordering", s.MagneticOrdering)
	return c, nil
}

// ElectronicStructureRester queries materials/electronic_structure.
type ElectronicStructureRester struct {
	*Rester[ElectronicStructureDoc]
}

// Search returns the electronic structure summaries matching s.
func (r *ElectronicStructureRester) Search(
	ctx context.Context, s ElectronicStructureSearch, opts ...QueryOption,
) ([]ElectronicStructureDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
