// Package typed maps store records onto Go structs. Conversion goes through
// encoding/json, so struct tags decide field names.
package typed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/aretw0/slotbook/pkg/core"
)

// Repository is a type-safe view of one collection.
type Repository[T any] struct {
	repo       core.Repository
	collection string
}

// NewRepository creates a typed wrapper for collection.
func NewRepository[T any](repo core.Repository, collection string) *Repository[T] {
	return &Repository[T]{repo: repo, collection: collection}
}

func (r *Repository[T]) List(ctx context.Context) ([]T, error) {
	records, err := r.repo.ReadCollection(ctx, r.collection)
	if err != nil {
		return nil, err
	}
	return fromRecords[T](records)
}

func (r *Repository[T]) Get(ctx context.Context, id core.ID) (T, bool, error) {
	rec, found, err := r.repo.FindByID(ctx, r.collection, id)
	return fromLookup[T](rec, found, err)
}

func (r *Repository[T]) FindOne(ctx context.Context, pred core.Predicate) (T, bool, error) {
	rec, found, err := r.repo.FindOne(ctx, r.collection, pred)
	return fromLookup[T](rec, found, err)
}

func (r *Repository[T]) FindMany(ctx context.Context, pred core.Predicate) ([]T, error) {
	records, err := r.repo.FindMany(ctx, r.collection, pred)
	if err != nil {
		return nil, err
	}
	return fromRecords[T](records)
}

// Create stores v as a new record and returns it with id and createdAt set.
func (r *Repository[T]) Create(ctx context.Context, v T) (T, error) {
	var zero T
	fields, err := ToRecord(v)
	if err != nil {
		return zero, err
	}
	rec, err := r.repo.CreateRecord(ctx, r.collection, fields)
	if err != nil {
		return zero, err
	}
	return FromRecord[T](rec)
}

// CreateIfAbsent stores v unless a record matches pred. The existing match
// is returned with created=false.
func (r *Repository[T]) CreateIfAbsent(ctx context.Context, pred core.Predicate, v T) (T, bool, error) {
	var zero T
	fields, err := ToRecord(v)
	if err != nil {
		return zero, false, err
	}
	rec, created, err := r.repo.CreateIfAbsent(ctx, r.collection, pred, fields)
	if err != nil {
		return zero, false, err
	}
	out, err := FromRecord[T](rec)
	return out, created, err
}

// Update merges patch into the record. Only the fields present in patch
// change.
func (r *Repository[T]) Update(ctx context.Context, id core.ID, patch core.Record) (T, bool, error) {
	rec, found, err := r.repo.UpdateRecord(ctx, r.collection, id, patch)
	return fromLookup[T](rec, found, err)
}

func (r *Repository[T]) Delete(ctx context.Context, id core.ID) (bool, error) {
	return r.repo.DeleteRecord(ctx, r.collection, id)
}

// ToRecord converts a struct into a record.
func ToRecord(v any) (core.Record, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal typed data: %w", err)
	}

	var rec core.Record
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	if err := decoder.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to convert typed data to record: %w", err)
	}
	if rec == nil {
		return nil, fmt.Errorf("typed data must encode as an object, got %s", data)
	}
	for k, val := range rec {
		rec[k] = normalizeNumbers(val)
	}
	return rec, nil
}

// FromRecord converts a record into T.
func FromRecord[T any](rec core.Record) (T, error) {
	var out T
	data, err := json.Marshal(rec)
	if err != nil {
		return out, fmt.Errorf("record marshal failed: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("unmarshal to target type failed: %w", err)
	}
	return out, nil
}

func fromLookup[T any](rec core.Record, found bool, err error) (T, bool, error) {
	var zero T
	if err != nil || !found {
		return zero, false, err
	}
	out, err := FromRecord[T](rec)
	if err != nil {
		return zero, false, err
	}
	return out, true, nil
}

func fromRecords[T any](records []core.Record) ([]T, error) {
	out := make([]T, 0, len(records))
	for _, rec := range records {
		v, err := FromRecord[T](rec)
		if err != nil {
			id, _ := rec.ID()
			return nil, fmt.Errorf("failed to process record %d: %w", id, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func normalizeNumbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case map[string]any:
		for k, inner := range t {
			t[k] = normalizeNumbers(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = normalizeNumbers(inner)
		}
		return t
	}
	return v
}
