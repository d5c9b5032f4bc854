package matproj

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var xasRoute = domain.Route{Suffix: "materials/xas", PrimaryKey: "spectrum_id"}

var (
	xasEdges = []any{"K", "L2", "L3", "L2,3"}
	xasTypes = []any{"XANES", "EXAFS", "XAFS"}
)

// XASDoc is one X-ray absorption spectrum.
type XASDoc struct {
	Projection

	SpectrumID       string    `json:"spectrum_id"`
	MaterialID       string    `json:"material_id,omitempty"`
	TaskID           string    `json:"task_id,omitempty"`
	Formula          string    `json:"formula_pretty,omitempty"`
	Chemsys          string    `json:"chemsys,omitempty"`
	Elements         []string  `json:"elements,omitempty"`
	AbsorbingElement string    `json:"absorbing_element"`
	Edge             string    `json:"edge"`
	SpectrumType     string    `json:"spectrum_type"`
	Spectrum         Encoded   `json:"spectrum,omitempty"`
	LastUpdated      time.Time `json:"last_updated,omitempty"`
}

// XASSearch filters materials/xas.
type XASSearch struct {
	SpectrumIDs      []string `json:"spectrum_ids"`
	MaterialIDs      []string `json:"material_ids"`
	AbsorbingElement string   `json:"absorbing_element"`
	Edge             string   `json:"edge"`
	SpectrumType     string   `json:"spectrum_type"`
	Formula          string   `json:"formula"`
	Chemsys          []string `json:"chemsys"`
	Elements         []string `json:"elements"`
}

func (s XASSearch) criteria() (query.Criteria, error) {
	if err := validateSearch(&s,
		validation.Field(&s.Edge, validation.In(xasEdges...)),
		validation.Field(&s.SpectrumType, validation.In(xasTypes...)),
	); err != nil {
		return nil, err
	}
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	c.SetList("spectrum_ids", s.SpectrumIDs)
	c.SetString("absorbing_element", s.AbsorbingElement)
	c.SetString("edge", s.Edge)
	c.SetString("spectrum_type", s.SpectrumType)
	c.SetString("formula", s.Formula)
	c.SetList("chemsys", s.Chemsys)
	c.SetList("elements", s.Elements)
	return c, nil
}

// XASRester queries materials/xas.
type XASRester struct {
	*Rester[XASDoc]
}

// Search returns the spectra matching s.
func (r *XASRester) Search(ctx context.Context, s XASSearch, opts ...QueryOption) ([]XASDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
