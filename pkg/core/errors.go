package core

import "errors"

// Store errors.
//
// ErrLockTimeout is transient: the caller may retry the whole higher-level
// operation. ErrStoreUnreadable and ErrStoreUnwritable are fatal for the
// operation that produced them.
var (
	ErrLockTimeout     = errors.New("timed out acquiring store lock")
	ErrStoreUnreadable = errors.New("store document cannot be read")
	ErrStoreUnwritable = errors.New("store document cannot be written")
	ErrInvalidID       = errors.New("invalid record id")
	ErrEmptyCollection = errors.New("collection name cannot be empty")
)
