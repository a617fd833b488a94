package slotbook

import (
	"github.com/aretw0/slotbook/pkg/core"
	"github.com/aretw0/slotbook/pkg/typed"
)

// TypedRepository maps one collection onto a struct type.
type TypedRepository[T any] = typed.Repository[T]

// NewTyped binds T to the named collection of repo.
func NewTyped[T any](repo core.Repository, collection string) *TypedRepository[T] {
	return typed.NewRepository[T](repo, collection)
}
