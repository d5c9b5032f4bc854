package matproj

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

var moleculesRoute = domain.Route{Suffix: "molecules/core", PrimaryKey: "molecule_id"}

// MoleculeDoc is the core record of a molecule.
type MoleculeDoc struct {
	Projection

	MoleculeID       string    `json:"molecule_id"`
	Formula          string    `json:"formula_alphabetical,omitempty"`
	FormulaPretty    string    `json:"formula_pretty,omitempty"`
	Chemsys          string    `json:"chemsys,omitempty"`
	Elements         []string  `json:"elements,omitempty"`
	NElements        int       `json:"nelements,omitempty"`
	NAtoms           int       `json:"natoms,omitempty"`
	Charge           int       `json:"charge"`
	SpinMultiplicity int       `json:"spin_multiplicity"`
	Molecule         Encoded   `json:"molecule,omitempty"`
	InChI            string    `json:"inchi,omitempty"`
	InChIKey         string    `json:"inchi_key,omitempty"`
	TaskIDs          []string  `json:"task_ids,omitempty"`
	Deprecated       bool      `json:"deprecated"`
	LastUpdated      time.Time `json:"last_updated,omitempty"`
}

// MoleculesSearch filters molecules/core.
type MoleculesSearch struct {
	MoleculeIDs      []string  `json:"molecule_ids"`
	TaskIDs          []string  `json:"task_ids"`
	Formula          []string  `json:"formula"`
	Chemsys          []string  `json:"chemsys"`
	Elements         []string  `json:"elements"`
	ExcludeElements  []string  `json:"exclude_elements"`
	Charge           *IntRange `json:"charge"`
	SpinMultiplicity *IntRange `json:"spin_multiplicity"`
	NumElements      *IntRange `json:"nelements"`
	Deprecated       *bool     `json:"deprecated"`
}

func (s MoleculesSearch) criteria() (query.Criteria, error) {
	c := query.Criteria{}
	if err := setIDs(c, "task_ids", s.TaskIDs); err != nil {
		return nil, err
	}
	c.SetList("molecule_ids", s.MoleculeIDs)
	c.SetList("formula", s.Formula)
	c.SetList("chemsys", s.Chemsys)
	c.SetList("elements", s.Elements)
	c.SetList("exclude_elements", s.ExcludeElements)
	setIntRange(c, "charge", s.Charge)
	setIntRange(c, "spin_multiplicity", s.SpinMultiplicity)
	setIntRange(c, "nelements", s.NumElements)
	c.SetBool("deprecated", s.Deprecated)
	return c, nil
}

// MoleculesRester queries molecules/core.
type MoleculesRester struct {
	*Rester[MoleculeDoc]
}

// Search returns the molecules matching s.
func (r *MoleculesRester) Search(ctx context.Context, s MoleculesSearch, opts ...QueryOption) ([]MoleculeDoc, error) {
	c, err := s.criteria()
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	return r.search(ctx, "search", r.route.Suffix+"/", c, opts)
}
