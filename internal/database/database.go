package database

import (
	"context"
	"errors"
)

// ErrNotFound is returned when an operation targets a record that does not
// exist.
var ErrNotFound = errors.New("record not found")

// Column describes one persisted field of a model, as reported by schema
// introspection. Descriptors are rebuilt on every introspection call and are
// read-only to callers.
type Column struct {
	Name       string
	Type       string
	Nullable   bool
	PrimaryKey bool
	Default    any
}

// Record is a single row materialized as a column name to value mapping.
// Every data-access call produces a fresh Record, nothing is shared between
// requests.
type Record = map[string]any

// Relationship describes an association between two models.
type Relationship struct {
	Name         string
	Kind         string
	RelatedTable string
	ForeignKeys  []string
}

// Query narrows List and Count calls. SearchColumns limits Search matching
// to the named columns; an empty Search or empty SearchColumns disables it.
type Query struct {
	ColumnFilters map[string]any
	Search        string
	SearchColumns []string
	Offset        int
	Limit         int
}

// Session is a scoped unit of work. Callers must finish every session with
// exactly one Commit or Rollback on every exit path.
type Session interface {
	Commit() error
	Rollback() error
}

// Provider is the data-access capability consumed by admin views. All record
// operations run inside the given Session; introspection calls do not touch
// the database.
type Provider interface {
	Session(ctx context.Context) (Session, error)

	List(s Session, model any, q Query) ([]Record, error)
	GetByKey(s Session, model any, key map[string]any) (Record, error)
	Create(s Session, model any, fields map[string]any) (Record, error)
	Update(s Session, model any, key map[string]any, fields map[string]any) (Record, error)
	Delete(s Session, model any, key map[string]any) (bool, error)
	Count(s Session, model any, q Query) (int64, error)

	Columns(model any) ([]Column, error)
	PrimaryKeys(model any) ([]string, error)
	Relationships(model any) (map[string]Relationship, error)
}
