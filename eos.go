package matproj

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var eosRoute = domain.Route{Suffix: "materials/eos", PrimaryKey: domain.KeyMaterialID}

// EOSDoc holds energy-volume data and fitted equations of state.
type EOSDoc struct {
	Projection

	MaterialID  string                    `json:"material_id"`
	TaskID      string                    `json:"task_id,omitempty"`
	Energies    []float64                 `json:"energies,omitempty"`
	Volumes     []float64                 `json:"volumes,omitempty"`
	EOS         map[string]map[string]any `json:"eos,omitempty"`
	LastUpdated time.Time                 `json:"last_updated,omitempty"`
}

// EOSSearch filters materials/eos.
type EOSSearch struct {
	MaterialIDs []string    `json:"material_ids"`
	Energies    *FloatRange `json:"energies"`
	Volumes     *FloatRange `json:"volumes"`
}

func (s EOSSearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "material_ids", s.MaterialIDs); err != nil {
		return nil, err
	}
	setFloatRange(c, "energies", s.Energies)
	setFloatRange(c, "volumes", s.Volumes)
	return c, nil
}

// EOSRester queries materials/eos.
type EOSRester struct {
	*Rester[EOSDoc]
}

// Search returns the equation of state documents matching s.
func (r *EOSRester) Search(ctx context.Context, s EOSSearch, opts ...QueryOption) ([]EOSDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
