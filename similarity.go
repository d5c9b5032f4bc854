package matproj

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var similarityRoute = domain.Route{Suffix: "materials/similarity", PrimaryKey: domain.KeyMaterialID}

// SimilarMaterial is one neighbour in fingerprint space.
type SimilarMaterial struct {
	MaterialID    string  `json:"task_id"`
	Formula       string  `json:"formula,omitempty"`
	Dissimilarity float64 `json:"dissimilarity"`
}

// SimilarityDoc lists the materials with the most similar site fingerprints.
type SimilarityDoc struct {
	Projection

	MaterialID string            `json:"material_id"`
	Sim        []SimilarMaterial `json:"sim,omitempty"`
}

// SimilaritySearch filters materials/similarity.
type SimilaritySearch struct {
	MaterialIDs []string `json:"material_ids"`
}

func (s SimilaritySearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	return c, nil
}

// SimilarityRester queries materials/similarity.
type SimilarityRester struct {
	*Rester[SimilarityDoc]
}

// Search returns the similarity documents matching s.
func (r *SimilarityRester) Search(ctx context.Context, s SimilaritySearch, opts ...QueryOption) ([]SimilarityDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
