package matproj

import (
	"regexp"

	"github.com/kailas-cloud/matproj/internal/domain"
)

// QueryOption configures a single lookup or search.
type QueryOption interface {
	applyQuery(*queryConfig)
}

// queryOptionFunc adapts a function to the QueryOption interface.
type queryOptionFunc func(*queryConfig)

func (f queryOptionFunc) applyQuery(q *queryConfig) { f(q) }

type queryConfig struct {
	fields      []string
	allFields   bool
	montyDecode bool
	version     string
	chunkSize   int
	numChunks   int
	sortFields  []string
}

// Fields restricts the returned document attributes.
func Fields(names ...string) QueryOption {
	return queryOptionFunc(func(q *queryConfig) {
		q.fields = append(q.fields, names...)
	})
}

// AllFields requests every field when no projection is given. On by default;
// turning it off returns only the fields the server projects by default.
func AllFields(on bool) QueryOption {
	return queryOptionFunc(func(q *queryConfig) {
		q.allFields = on
	})
}

// MontyDecode overrides the client default for reconstructing tagged values.
func MontyDecode(on bool) QueryOption {
	return queryOptionFunc(func(q *queryConfig) {
		q.montyDecode = on
	})
}

// Version selects a historical database snapshot, formatted YYYY.MM.DD.
// Only routes that support versions accept it.
func Version(v string) QueryOption {
	return queryOptionFunc(func(q *queryConfig) {
		q.version = v
	})
}

// ChunkSize sets the page size of a search.
func ChunkSize(n int) QueryOption {
	return queryOptionFunc(func(q *queryConfig) {
		q.chunkSize = n
	})
}

// NumChunks caps the number of pages a search fetches; 0 fetches all.
func NumChunks(n int) QueryOption {
	return queryOptionFunc(func(q *queryConfig) {
		q.numChunks = n
	})
}

// SortFields orders results server-side; prefix a field with "-" for descending order.
func SortFields(names ...string) QueryOption {
	return queryOptionFunc(func(q *queryConfig) {
		q.sortFields = append(q.sortFields, names...)
	})
}

var versionRe = regexp.MustCompile(`^\d{4}\.\d{2}\.\d{2}$`)

func (q *queryConfig) validateVersion(route domain.Route) error {
	if q.version == "" {
		return nil
	}
	if !route.SupportsVersions {
		return domain.Invalid("version", "route %s does not support database versions", route.Suffix)
	}
	if !versionRe.MatchString(q.version) {
		return domain.Invalid("version", "%q is not formatted as YYYY.MM.DD", q.version)
	}
	return nil
}
