// internal/store/store.go
package store

import (
	"context"
	"errors"
)

// Operator is a filter comparison operator. The set matches what the reminder
// pipeline needs from the document store: equality plus a half-open range.
type Operator string

const (
	OpEqual          Operator = "=="
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
)

// Filter is one field comparison applied to a query.
type Filter struct {
	Field string
	Op    Operator
	Value interface{}
}

// Record is a raw document as returned by the store.
type Record map[string]interface{}

// ErrNotFound is returned by Get when no record exists under the id.
var ErrNotFound = errors.New("record not found")

// DocumentStore is the boundary to the hosted document database. All filters
// are ANDed; orderBy names a field to sort ascending on, or is empty.
type DocumentStore interface {
	Query(ctx context.Context, collection string, filters []Filter, orderBy string) ([]Record, error)
	Get(ctx context.Context, collection, id string) (Record, error)
}
