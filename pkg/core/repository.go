package core

import "context"

// Repository is the record store contract. Every method runs as one
// critical section over the backing document: lock, read, optionally
// mutate and write, unlock.
//
// Absence is never an error. Lookups report it with a false flag, and
// UpdateRecord/DeleteRecord report "nothing happened" the same way, leaving
// the document untouched.
type Repository interface {
	// ReadCollection returns the collection's records, or an empty slice
	// for a collection that does not exist.
	ReadCollection(ctx context.Context, name string) ([]Record, error)

	// ReplaceCollection overwrites the collection wholesale.
	ReplaceCollection(ctx context.Context, name string, items []Record) ([]Record, error)

	FindByID(ctx context.Context, name string, id ID) (Record, bool, error)
	FindOne(ctx context.Context, name string, pred Predicate) (Record, bool, error)

	// FindMany returns every match, or the whole collection when pred is nil.
	FindMany(ctx context.Context, name string, pred Predicate) ([]Record, error)

	// CreateRecord assigns id = max(existing)+1 and stamps createdAt.
	// Any caller-supplied id is discarded.
	CreateRecord(ctx context.Context, name string, fields Record) (Record, error)

	// CreateIfAbsent creates the record only when no existing record matches
	// pred, checking and writing under the same lock. When a match exists
	// it is returned with created=false.
	CreateIfAbsent(ctx context.Context, name string, pred Predicate, fields Record) (rec Record, created bool, err error)

	// UpdateRecord merges patch over the record, preserving id and createdAt
	// and stamping updatedAt.
	UpdateRecord(ctx context.Context, name string, id ID, patch Record) (Record, bool, error)

	DeleteRecord(ctx context.Context, name string, id ID) (bool, error)

	// Initialize creates the backing document with the default collections
	// if it does not exist yet. Existing data is never touched.
	Initialize(ctx context.Context) error
}

// Watchable is implemented by repositories that can stream changes.
type Watchable interface {
	// Watch emits an event per changed record in collections matching the
	// glob pattern. The channel closes when ctx is done.
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}
