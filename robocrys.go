package matproj

import (
	"context"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var robocrysRoute = domain.Route{Suffix: "materials/robocrys", PrimaryKey: domain.KeyMaterialID}

const robocrysChunkSize = 100

// RobocrysCondensed is the machine-readable part of a description.
type RobocrysCondensed struct {
	Formula        string         `json:"formula,omitempty"`
	Spacegroup     string         `json:"spg_symbol,omitempty"`
	CrystalSystem  string         `json:"crystal_system,omitempty"`
	Dimensionality int            `json:"dimensionality"`
	Mineral        map[string]any `json:"mineral,omitempty"`
}

// RobocrystallogapherDoc is a generated text description of a structure.
type RobocrystallogapherDoc struct {
	Projection

	MaterialID         string            `json:"material_id"`
	Description        string            `json:"description"`
	CondensedStructure RobocrysCondensed `json:"condensed_structure"`
	RobocrysVersion    string            `json:"robocrys_version,omitempty"`
	SearchScore        *float64          `json:"search_score,omitempty"`
	LastUpdated        time.Time         `json:"last_updated,omitempty"`
}

// RobocrysSearch filters materials/robocrys.
type RobocrysSearch struct {
	MaterialIDs []string `json:"material_ids"`
}

func (s RobocrysSearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	return c, nil
}

// RobocrysRester queries materials/robocrys.
type RobocrysRester struct {
	*Rester[RobocrystallogapherDoc]
}

// Search returns the descriptions matching s.
func (r *RobocrysRester) Search(
	ctx context.Context, s RobocrysSearch, opts ...QueryOption,
) ([]RobocrystallogapherDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}

// SearchText runs a full-text search over the descriptions, best matches first.
// Pages default to 100 documents.
func (r *RobocrysRester) SearchText(
	ctx context.Context, keywords []string, opts ...QueryOption,
) ([]RobocrystallogapherDoc, error) {
	if err := validation.Validate(keywords, validation.Required); err != nil {
		return nil, fmt.Errorf("search text: %w", domain.Invalid("keywords", "%v", err))
	}
	c := query.Criteria{}
	c.SetList("keywords", keywords)
	opts = append([]QueryOption{ChunkSize(robocrysChunkSize)}, opts...)

	docs, err := r.search(ctx, "search_text", r.route.Suffix+"/text_search/", c, opts)
	if query.IsMissingData(err) {
		return nil, fmt.Errorf("search text: %w: cannot find any matches", domain.ErrNotFound)
	}
	return docs, err
}
