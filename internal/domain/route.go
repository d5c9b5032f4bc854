package domain

// KeyPrefix namespaces every key the client writes to a shared store.
const KeyPrefix = "matproj:"

// Route describes one REST resource of the API.
type Route struct {
	// Suffix is the path below the endpoint, e.g. "materials/thermo".
	Suffix string
	// PrimaryKey is the document field that identifies a document on this route.
	PrimaryKey string
	// SupportsVersions is true when the route accepts a database version selector.
	SupportsVersions bool
}
