// Package core holds the storage contract shared by every adapter and
// consumer: records, the store document, ids, events and sentinel errors.
package core

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Store-managed record fields.
const (
	FieldID        = "id"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Well-known collections created by initialization.
const (
	CollectionServices = "services"
	CollectionUsers    = "users"
	CollectionBookings = "bookings"
)

// TimestampLayout is the ISO-8601 form used for createdAt/updatedAt
// (millisecond precision, always UTC).
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// DefaultCollections returns the collections every fresh document starts with.
func DefaultCollections() []string {
	return []string{CollectionServices, CollectionUsers, CollectionBookings}
}

// ID identifies a record within its collection. Valid ids are positive.
type ID int64

// ParseID converts an external representation (path segment, CLI argument)
// into an ID. It is meant to be called once at the edge.
func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return ID(n), nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// Record is one entry of a collection: a free-form field map plus the
// store-managed id, createdAt and updatedAt fields.
type Record map[string]any

// ID returns the record's id and whether it holds a usable one.
func (r Record) ID() (ID, bool) {
	return toID(r[FieldID])
}

// CreatedAt parses the createdAt stamp.
func (r Record) CreatedAt() (time.Time, bool) {
	return r.timestamp(FieldCreatedAt)
}

// UpdatedAt parses the updatedAt stamp. It is absent until the first update.
func (r Record) UpdatedAt() (time.Time, bool) {
	return r.timestamp(FieldUpdatedAt)
}

func (r Record) timestamp(field string) (time.Time, bool) {
	s, ok := r[field].(string)
	if !ok {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// String returns a string field, or "" when absent or not a string.
func (r Record) String(field string) string {
	s, _ := r[field].(string)
	return s
}

// Clone returns a deep copy so callers never alias the store's state.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Predicate selects records during a linear scan.
type Predicate func(Record) bool

// Where matches records whose field equals value. Integral values are
// compared numerically so 3, int64(3) and 3.0 are the same key.
func Where(field string, value any) Predicate {
	if want, ok := toID(value); ok {
		return func(r Record) bool {
			got, ok := toID(r[field])
			return ok && got == want
		}
	}
	return func(r Record) bool {
		return r[field] == value
	}
}

// And matches records accepted by every predicate.
func And(preds ...Predicate) Predicate {
	return func(r Record) bool {
		for _, p := range preds {
			if !p(r) {
				return false
			}
		}
		return true
	}
}

// Document is the whole persisted structure: collection name to records.
type Document map[string][]Record

// NewDocument returns a document holding the default empty collections.
func NewDocument() Document {
	doc := make(Document, 3)
	for _, name := range DefaultCollections() {
		doc[name] = []Record{}
	}
	return doc
}

// CloneRecords deep-copies a record sequence. A nil input yields an empty,
// non-nil slice so callers can always range and encode it as [].
func CloneRecords(items []Record) []Record {
	out := make([]Record, 0, len(items))
	for _, item := range items {
		out = append(out, item.Clone())
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		m := make(map[string]any, len(t))
		for k, inner := range t {
			m[k] = cloneValue(inner)
		}
		return m
	case Record:
		return t.Clone()
	case []any:
		s := make([]any, len(t))
		for i, inner := range t {
			s[i] = cloneValue(inner)
		}
		return s
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}

func toID(v any) (ID, bool) {
	switch n := v.(type) {
	case ID:
		return n, true
	case int:
		return ID(n), true
	case int32:
		return ID(n), true
	case int64:
		return ID(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return ID(n), true
	case float64:
		if n != math.Trunc(n) || n < math.MinInt64 || n >= math.MaxInt64 {
			return 0, false
		}
		return ID(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return ID(i), true
	}
	return 0, false
}
