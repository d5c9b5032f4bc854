package domain

import (
	"regexp"
	"strings"
)

// MaxListLength caps the number of identifiers accepted in a single filter.
const MaxListLength = 10000

// Primary keys with a well-known identifier format.
const (
	KeyMaterialID = "material_id"
	KeyTaskID     = "task_id"
)

// mp-149, mvc-12, mp-149-GGA, mp-149_GGA+U, and the alphabetic form mp-abcd.
var identifierRe = regexp.MustCompile(`^[a-zA-Z]+-([0-9]+|[a-z]+)([-_][A-Za-z0-9+]+)*$`)

// ValidateIdentifier checks a material or task identifier and returns it normalised.
func ValidateIdentifier(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", Invalid("id", "identifier is empty")
	}
	if !identifierRe.MatchString(id) {
		return "", Invalid("id", "%q is not a valid material or task identifier", id)
	}
	prefix, rest, _ := strings.Cut(id, "-")
	return strings.ToLower(prefix) + "-" + rest, nil
}

// ValidateIdentifiers checks a list of identifiers.
func ValidateIdentifiers(ids []string) ([]string, error) {
	if len(ids) > MaxListLength {
		return nil, Invalid("ids",
			"list of %d identifiers is too long, remove the identifier filter and filter locally", len(ids))
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		v, err := ValidateIdentifier(id)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// HasIdentifierFormat reports whether documents keyed by pk use material/task identifiers.
func HasIdentifierFormat(pk string) bool {
	return pk == KeyMaterialID || pk == KeyTaskID
}
