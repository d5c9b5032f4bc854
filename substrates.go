package matproj

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var substratesRoute = domain.Route{Suffix: "materials/substrates", PrimaryKey: "film_id"}

// SubstratesDoc is one film/substrate match.
type SubstratesDoc struct {
	Projection

	FilmID     string  `json:"film_id"`
	FilmOrient string  `json:"film_orient,omitempty"`
	SubID      string  `json:"sub_id"`
	SubForm    string  `json:"sub_form,omitempty"`
	SubOrient  string  `json:"sub_orient,omitempty"`
	Area       float64 `json:"area"`
	Energy     float64 `json:"energy"`
	Tensor     string  `json:"tensor,omitempty"`
	Orient     string  `json:"orient,omitempty"`
}

// SubstratesSearch filters materials/substrates.
type SubstratesSearch struct {
	FilmID               string `json:"film_id"`
	SubstrateID          string `json:"sub_id"`
	SubstrateFormula     string `json:"sub_form"`
	FilmOrientation      []int  `json:"film_orientation"`
	SubstrateOrientation []int  `json:"substrate_orientation"`
	// Area bounds the minimum coincident interface area in Å².
	Area *FloatRange `json:"area"`
	// Energy bounds the elastic energy in meV.
	Energy *FloatRange `json:"energy"`
}

func (s SubstratesSearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	c.SetString("film_id", s.FilmID)
	c.SetString("sub_id", s.SubstrateID)
	c.SetString("sub_form", s.SubstrateFormula)
	c.SetList("film_orientation", intList(s.FilmOrientation))
	c.SetList("substrate_orientation", intList(s.SubstrateOrientation))
	setFloatRange(c, "area", s.Area)
	setFloatRange(c, "energy", s.Energy)
	return c, nil
}

// SubstratesRester queries materials/substrates.
type SubstratesRester struct {
	*Rester[SubstratesDoc]
}

// Search returns the substrate matches for s.
func (r *SubstratesRester) Search(ctx context.Context, s SubstratesSearch, opts ...QueryOption) ([]SubstratesDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
