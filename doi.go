package matproj

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var doiRoute = domain.Route{Suffix: "doi", PrimaryKey: domain.KeyMaterialID}

// DOIDoc links a material to its DOI and BibTeX citation.
type DOIDoc struct {
	Projection

	MaterialID string `json:"material_id"`
	DOI        string `json:"doi,omitempty"`
	Bibtex     string `json:"bibtex,omitempty"`
}

// DOISearch filters the doi route.
type DOISearch struct {
	MaterialIDs []string `json:"material_ids"`
}

func (s DOISearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	return c, nil
}

// DOIRester queries material DOIs.
type DOIRester struct {
	*Rester[DOIDoc]
}

// Search returns the DOI documents matching s.
func (r *DOIRester) Search(ctx context.Context, s DOISearch, opts ...QueryOption) ([]DOIDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
