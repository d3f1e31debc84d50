package docstore

import (
	"context"
	"errors"
)

// Sentinel errors for document store operations.
var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

// Document is a schemaless record. Values must be JSON-compatible.
type Document map[string]any

// Snapshot pairs a document with its id.
type Snapshot struct {
	ID   string
	Data Document
}

// Filter is an equality condition on a top-level field.
type Filter struct {
	Field string
	Value any
}

// Where builds an equality filter.
func Where(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

type setOptions struct {
	merge bool
}

// SetOption tunes Set.
type SetOption func(*setOptions)

// Merge makes Set merge top-level fields into an existing document instead of replacing it.
func Merge() SetOption {
	return func(o *setOptions) { o.merge = true }
}

func applySetOptions(opts []SetOption) setOptions {
	var o setOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Store is the document database the application persists profiles and departments in.
type Store interface {
	// Get returns ErrNotFound when the document is absent.
	Get(ctx context.Context, collection, id string) (Document, error)
	Set(ctx context.Context, collection, id string, doc Document, opts ...SetOption) error
	// Add stores doc under a generated id and returns it.
	Add(ctx context.Context, collection string, doc Document) (string, error)
	// Update merges partial into an existing document. Returns ErrNotFound when absent.
	Update(ctx context.Context, collection, id string, partial Document) error
	// Delete is idempotent.
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filter Filter) ([]Snapshot, error)
	ListAll(ctx context.Context, collection string) ([]Snapshot, error)
}
