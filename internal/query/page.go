package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Fetcher performs a single GET against path with the given criteria and returns the raw body.
type Fetcher interface {
	Fetch(ctx context.Context, path string, c Criteria) ([]byte, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, path string, c Criteria) ([]byte, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, path string, c Criteria) ([]byte, error) {
	return f(ctx, path, c)
}

// Meta is the response metadata block.
type Meta struct {
	TotalDoc   int    `json:"total_doc"`
	MaxLimit   int    `json:"max_limit,omitempty"`
	APIVersion string `json:"api_version,omitempty"`
	DBVersion  string `json:"db_version,omitempty"`
	TimeStamp  string `json:"time_stamp,omitempty"`
}

// Page is one decoded response.
type Page struct {
	Data []map[string]any
	Meta Meta
}

var errMissingData = errors.New("response has no data field")

// ParsePage decodes a {"data": [...], "meta": {...}} envelope.
// A null data field is an empty page; a missing meta block yields TotalDoc = len(data).
func ParsePage(body []byte) (*Page, error) {
	var env struct {
		Data json.RawMessage `json:"data"`
		Meta *Meta           `json:"meta"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		return nil, errMissingData
	}
	p := &Page{}
	if err := json.Unmarshal(env.Data, &p.Data); err != nil {
		return nil, fmt.Errorf("decode data: %w", err)
	}
	if p.Data == nil {
		p.Data = []map[string]any{}
	}
	if env.Meta != nil {
		p.Meta = *env.Meta
	} else {
		p.Meta.TotalDoc = len(p.Data)
	}
	return p, nil
}

// IsMissingData reports whether err came from a response without a data field.
func IsMissingData(err error) bool {
	return errors.Is(err, errMissingData)
}
