package matproj

import (
	"time"

	"github.com/kailas-cloud/matproj/internal/monty"
)

// Projection is embedded in every document.
type Projection struct {
	// FieldsNotRequested lists document fields left out by a Fields projection.
	// It is empty when all fields were requested.
	FieldsNotRequested []string `json:"fields_not_requested,omitempty"`
}

func (p *Projection) setFieldsNotRequested(f []string) { p.FieldsNotRequested = f }

type projected interface {
	setFieldsNotRequested(f []string)
}

// Encoded is a value serialized with "@module"/"@class" tags.
// Value holds the reconstructed object when monty decoding is on and the class is known.
type Encoded = monty.Object

// Reconstructed scientific objects.
type (
	Structure = monty.Structure
	Lattice   = monty.Lattice
	Molecule  = monty.Molecule
	Site      = monty.Site
	Species   = monty.Species
)

// FloatRange is an inclusive [Min, Max] filter, sent as <name>_min and <name>_max.
type FloatRange struct {
	Min float64
	Max float64
}

// IntRange is an inclusive [Min, Max] filter, sent as <name>_min and <name>_max.
type IntRange struct {
	Min int
	Max int
}

// Range builds a FloatRange.
func Range(lo, hi float64) *FloatRange { return &FloatRange{Min: lo, Max: hi} }

// Between builds an IntRange.
func Between(lo, hi int) *IntRange { return &IntRange{Min: lo, Max: hi} }

// Exactly builds an IntRange matching one value.
func Exactly(n int) *IntRange { return &IntRange{Min: n, Max: n} }

// Bool returns a pointer to b, for optional boolean filters.
func Bool(b bool) *bool { return &b }

// Int returns a pointer to n, for optional integer filters.
func Int(n int) *int { return &n }

// Float returns a pointer to f, for optional bounds.
func Float(f float64) *float64 { return &f }

// BuilderMeta describes the pipeline run that built a document.
type BuilderMeta struct {
	EmmetVersion    string    `json:"emmet_version,omitempty"`
	PymatgenVersion string    `json:"pymatgen_version,omitempty"`
	PullRequest     *int      `json:"pull_request,omitempty"`
	DatabaseVersion string    `json:"database_version,omitempty"`
	BuildDate       time.Time `json:"build_date,omitempty"`
	License         string    `json:"license,omitempty"`
}
