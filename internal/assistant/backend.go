package assistant

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/matproj"
)

const (
	searchLimit    = 10
	synthesisLimit = 5
)

var summaryFields = []string{
	"material_id", "formula_pretty", "chemsys", "band_gap",
	"energy_above_hull", "formation_energy_per_atom", "is_stable", "symmetry",
}

// ClientBackend serves the tools from a matproj client.
type ClientBackend struct {
	client *matproj.Client
}

// NewClientBackend wraps c.
func NewClientBackend(c *matproj.Client) *ClientBackend {
	return &ClientBackend{client: c}
}

// GetDocument fetches one document of any category.
func (b *ClientBackend) GetDocument(
	ctx context.Context, category, id string, fields []string,
) (map[string]any, error) {
	r, err := b.client.Rester(category)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	var opts []matproj.QueryOption
	if len(fields) > 0 {
		opts = append(opts, matproj.Fields(fields...))
	}
	doc, err := r.GetRaw(ctx, id, opts...)
	if err != nil {
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// SearchMaterials returns the first matching material summaries.
func (b *ClientBackend) SearchMaterials(ctx context.Context, f MaterialFilter) ([]map[string]any, error) {
	crit := map[string]any{}
	if len(f.Formula) > 0 {
		crit["formula"] = f.Formula
	}
	if len(f.Chemsys) > 0 {
		crit["chemsys"] = f.Chemsys
	}
	if len(f.Elements) > 0 {
		crit["elements"] = f.Elements
	}
	if f.BandGapMin != nil {
		crit["band_gap_min"] = *f.BandGapMin
	}
	if f.BandGapMax != nil {
		crit["band_gap_max"] = *f.BandGapMax
	}
	if f.IsStable != nil {
		crit["is_stable"] = *f.IsStable
	}

	docs, err := b.client.Summary().SearchRaw(ctx, crit,
		matproj.Fields(summaryFields...),
		matproj.ChunkSize(searchLimit),
		matproj.NumChunks(1),
	)
	if err != nil {
		return nil, fmt.Errorf("search materials: %w", err)
	}
	return docs, nil
}

// SearchSynthesis returns a short view of the first matching recipes.
func (b *ClientBackend) SearchSynthesis(
	ctx context.Context, keywords []string, targetFormula string,
) ([]map[string]any, error) {
	recipes, err := b.client.Synthesis().Search(ctx, matproj.SynthesisSearch{
		Keywords:      keywords,
		TargetFormula: targetFormula,
	}, matproj.ChunkSize(synthesisLimit), matproj.NumChunks(1))
	if err != nil {
		return nil, fmt.Errorf("search synthesis: %w", err)
	}

	out := make([]map[string]any, 0, len(recipes))
	for _, r := range recipes {
		ops := make([]string, len(r.Operations))
		for i, op := range r.Operations {
			ops[i] = op.Type
		}
		out = append(out, map[string]any{
			"doi":            r.DOI,
			"target":         r.Target.MaterialFormula,
			"synthesis_type": r.SynthesisType,
			"reaction":       r.ReactionString,
			"precursors":     r.PrecursorsFormula,
			"operations":     ops,
		})
	}
	return out, nil
}

// GetStructure returns the relaxed structure of a material.
func (b *ClientBackend) GetStructure(ctx context.Context, materialID string) (StructureSummary, error) {
	structs, err := b.client.StructureByMaterialID(ctx, materialID, true)
	if err != nil {
		return StructureSummary{}, fmt.Errorf("get structure: %w", err)
	}
	if len(structs) == 0 || structs[0] == nil {
		return StructureSummary{}, fmt.Errorf("get structure: %w: %s has no structure", matproj.ErrNotFound, materialID)
	}

	s := structs[0]
	sum := StructureSummary{
		MaterialID: materialID,
		Formula:    s.Formula(),
		NumSites:   s.NumSites(),
		Volume:     s.Lattice.Volume(),
		Lattice:    s.Lattice.Lengths(),
		Sites:      make([]SiteSketch, 0, len(s.Sites)),
	}
	for _, site := range s.Sites {
		el := ""
		if len(site.Species) > 0 {
			el = site.Species[0].Element
		}
		sum.Sites = append(sum.Sites, SiteSketch{Element: el, ABC: site.ABC})
	}
	return sum, nil
}
