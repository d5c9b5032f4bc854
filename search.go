package matproj

import (
	"strconv"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/kailas-cloud/matproj/internal/domain"
	"github.com/kailas-cloud/matproj/internal/query"
)

// Enumerations accepted by search filters.
var (
	crystalSystems = []any{
		"Triclinic", "Monoclinic", "Orthorhombic", "Tetragonal", "Trigonal", "Hexagonal", "Cubic",
	}
	magneticOrderings = []any{"FM", "AFM", "FiM", "NM", "Unknown"}
)

// TimeRange is an inclusive [From, To] filter on a timestamp field.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// validateSearch runs ozzo rules over a search struct and marks failures as ErrValidation.
func validateSearch(s any, fields ...*validation.FieldRules) error {
	return domain.WrapValidation(validation.ValidateStruct(s, fields...))
}

// setIDs validates and sets a list of material or task identifiers.
func setIDs(c query.Criteria, name string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	v, err := domain.ValidateIdentifiers(ids)
	if err != nil {
		return err //nolint:wrapcheck // already a ValidationError
	}
	c[name] = v
	return nil
}

// setFloatRange sets <name>_min and <name>_max. Inverted bounds are sent as given.
func setFloatRange(c query.Criteria, name string, r *FloatRange) {
	if r != nil {
		c.SetFloatRange(name, r.Min, r.Max)
	}
}

func setIntRange(c query.Criteria, name string, r *IntRange) {
	if r != nil {
		c.SetIntRange(name, r.Min, r.Max)
	}
}

func setTimeRange(c query.Criteria, name string, r *TimeRange) {
	if r == nil {
		return
	}
	if !r.From.IsZero() {
		c[name+"_min"] = r.From.UTC().Format(time.RFC3339)
	}
	if !r.To.IsZero() {
		c[name+"_max"] = r.To.UTC().Format(time.RFC3339)
	}
}

// intList renders a Miller index or axis as a list parameter.
func intList(v []int) []string {
	out := make([]string, len(v))
	for i, n := range v {
		out[i] = strconv.Itoa(n)
	}
	return out
}
