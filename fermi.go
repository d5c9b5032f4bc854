package matproj

import (
	"context"
	"time"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var fermiRoute = domain.Route{Suffix: "fermi", PrimaryKey: domain.KeyTaskID}

// FermiDoc holds the Fermi surfaces of a calculation.
type FermiDoc struct {
	Projection

	TaskID        string    `json:"task_id"`
	MaterialID    string    `json:"material_id,omitempty"`
	FermiSurfaces []Encoded `json:"fermi_surfaces,omitempty"`
	LastUpdated   time.Time `json:"last_updated,omitempty"`
}

// FermiRester queries Fermi surfaces. The route takes no filters beyond paging.
type FermiRester struct {
	*Rester[FermiDoc]
}

// Search pages through all Fermi surface documents.
func (r *FermiRester) Search(ctx context.Context, opts ...QueryOption) ([]FermiDoc, error) {
	return r.search(ctx, "search", r.route.Suffix+"/", query.Criteria{}, opts)
}
