package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aretw0/slotbook/pkg/core"
)

const (
	DefaultPollInterval = 50 * time.Millisecond
	DefaultLockTimeout  = 5 * time.Second
)

// Config holds the configuration for the file-backed store.
type Config struct {
	Path         string // the store document, e.g. data/db.json
	LockMode     LockMode
	PollInterval time.Duration
	LockTimeout  time.Duration
	Logger       *slog.Logger
	// ErrorHandler receives errors from background watchers.
	ErrorHandler func(error)
}

// Store implements core.Repository over a single JSON (or YAML) document.
// Every operation is one critical section: lock, read the whole file,
// optionally mutate and rewrite it, unlock.
type Store struct {
	Path       string
	config     Config
	lock       *Locker
	serializer Serializer
	clock      func() time.Time

	ops    atomic.Uint64
	writes atomic.Uint64

	mu        sync.RWMutex
	lastWrite *time.Time
	watchers  int
}

var (
	_ core.Repository = (*Store)(nil)
	_ core.Watchable  = (*Store)(nil)
)

// NewStore creates a store. Nothing touches the disk until the first
// operation.
func NewStore(config Config) *Store {
	if config.PollInterval <= 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.LockTimeout <= 0 {
		config.LockTimeout = DefaultLockTimeout
	}
	if config.LockMode == "" {
		config.LockMode = LockModeMarker
	}
	return &Store{
		Path:       config.Path,
		config:     config,
		lock:       NewLocker(config.Path+".lock", config.LockMode, config.PollInterval, config.LockTimeout),
		serializer: SerializerFor(config.Path),
		clock:      time.Now,
	}
}

func (s *Store) logger() *slog.Logger {
	if s.config.Logger != nil {
		return s.config.Logger
	}
	return slog.Default()
}

// withLock runs fn as one critical section. The lock is released on every
// path out of fn.
func (s *Store) withLock(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.ops.Add(1)

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return fmt.Errorf("%w: %v", core.ErrStoreUnwritable, err)
	}

	unlock, err := s.lock.Acquire(ctx)
	if err != nil {
		s.logger().Warn("store lock not acquired", "path", s.Path, "error", err)
		return err
	}
	defer unlock()
	return fn()
}

// Initialize creates the document with the default collections when it does
// not exist. An existing file is left untouched, even if it is malformed.
func (s *Store) Initialize(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		if _, err := os.Stat(s.Path); err == nil {
			return nil
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("%w: %s: %v", core.ErrStoreUnreadable, s.Path, err)
		}
		if err := s.writeDocument(core.NewDocument()); err != nil {
			return err
		}
		s.logger().Info("initialized store", "path", s.Path)
		return nil
	})
}

// Reset overwrites the document with the default empty collections.
func (s *Store) Reset(ctx context.Context) error {
	return s.withLock(ctx, func() error {
		return s.writeDocument(core.NewDocument())
	})
}

// Collections lists the collection names present in the document, sorted.
func (s *Store) Collections(ctx context.Context) ([]string, error) {
	var names []string
	err := s.withLock(ctx, func() error {
		doc, err := s.readDocument()
		if err != nil {
			return err
		}
		names = make([]string, 0, len(doc))
		for name := range doc {
			names = append(names, name)
		}
		sort.Strings(names)
		return nil
	})
	return names, err
}

func (s *Store) ReadCollection(ctx context.Context, name string) ([]core.Record, error) {
	if name == "" {
		return nil, core.ErrEmptyCollection
	}
	var out []core.Record
	err := s.withLock(ctx, func() error {
		doc, err := s.readDocument()
		if err != nil {
			return err
		}
		out = core.CloneRecords(doc[name])
		return nil
	})
	return out, err
}

func (s *Store) ReplaceCollection(ctx context.Context, name string, items []core.Record) ([]core.Record, error) {
	if name == "" {
		return nil, core.ErrEmptyCollection
	}
	stored := core.CloneRecords(items)
	err := s.withLock(ctx, func() error {
		doc, err := s.readDocument()
		if err != nil {
			return err
		}
		doc[name] = stored
		return s.writeDocument(doc)
	})
	if err != nil {
		return nil, err
	}
	return core.CloneRecords(stored), nil
}

func (s *Store) FindByID(ctx context.Context, name string, id core.ID) (core.Record, bool, error) {
	return s.FindOne(ctx, name, func(r core.Record) bool {
		got, ok := r.ID()
		return ok && got == id
	})
}

func (s *Store) FindOne(ctx context.Context, name string, pred core.Predicate) (core.Record, bool, error) {
	if name == "" {
		return nil, false, core.ErrEmptyCollection
	}
	var (
		out   core.Record
		found bool
	)
	err := s.withLock(ctx, func() error {
		doc, err := s.readDocument()
		if err != nil {
			return err
		}
		if i := indexOf(doc[name], pred); i >= 0 {
			out, found = doc[name][i].Clone(), true
		}
		return nil
	})
	return out, found, err
}

func (s *Store) FindMany(ctx context.Context, name string, pred core.Predicate) ([]core.Record, error) {
	if name == "" {
		return nil, core.ErrEmptyCollection
	}
	var out []core.Record
	err := s.withLock(ctx, func() error {
		doc, err := s.readDocument()
		if err != nil {
			return err
		}
		out = make([]core.Record, 0)
		for _, item := range doc[name] {
			if pred == nil || pred(item) {
				out = append(out, item.Clone())
			}
		}
		return nil
	})
	return out, err
}

func (s *Store) CreateRecord(ctx context.Context, name string, fields core.Record) (core.Record, error) {
	if name == "" {
		return nil, core.ErrEmptyCollection
	}
	var out core.Record
	err := s.withLock(ctx, func() error {
		doc, err := s.readDocument()
		if err != nil {
			return err
		}
		out, err = s.create(doc, name, fields)
		return err
	})
	return out, err
}

func (s *Store) CreateIfAbsent(ctx context.Context, name string, pred core.Predicate, fields core.Record) (core.Record, bool, error) {
	if name == "" {
		return nil, false, core.ErrEmptyCollection
	}
	var (
		out     core.Record
		created bool
	)
	err := s.withLock(ctx, func() error {
		doc, err := s.readDocument()
		if err != nil {
			return err
		}
		if i := indexOf(doc[name], pred); i >= 0 {
			out = doc[name][i].Clone()
			return nil
		}
		out, err = s.create(doc, name, fields)
		created = err == nil
		return err
	})
	return out, created, err
}

// create appends a record to doc and persists it. Callers hold the lock.
func (s *Store) create(doc core.Document, name string, fields core.Record) (core.Record, error) {
	rec := fields.Clone()
	if rec == nil {
		rec = core.Record{}
	}
	delete(rec, core.FieldUpdatedAt)
	rec[core.FieldID] = int64(nextID(doc[name]))
	rec[core.FieldCreatedAt] = s.stampAfter(time.Time{})

	doc[name] = append(doc[name], rec)
	if err := s.writeDocument(doc); err != nil {
		return nil, err
	}
	s.logger().Debug("record created", "collection", name, "id", rec[core.FieldID])
	return rec.Clone(), nil
}

func (s *Store) UpdateRecord(ctx context.Context, name string, id core.ID, patch core.Record) (core.Record, bool, error) {
	if name == "" {
		return nil, false, core.ErrEmptyCollection
	}
	var (
		out   core.Record
		found bool
	)
	err := s.withLock(ctx, func() error {
		doc, err := s.readDocument()
		if err != nil {
			return err
		}
		items := doc[name]
		i := indexOfID(items, id)
		if i < 0 {
			return nil
		}
		found = true

		existing := items[i]
		merged := existing.Clone()
		for k, v := range patch.Clone() {
			merged[k] = v
		}
		merged[core.FieldID] = existing[core.FieldID]
		if created, ok := existing[core.FieldCreatedAt]; ok {
			merged[core.FieldCreatedAt] = created
		} else {
			delete(merged, core.FieldCreatedAt)
		}
		merged[core.FieldUpdatedAt] = s.stampAfter(lastStamp(existing))

		items[i] = merged
		if err := s.writeDocument(doc); err != nil {
			return err
		}
		out = merged.Clone()
		s.logger().Debug("record updated", "collection", name, "id", id)
		return nil
	})
	return out, found, err
}

func (s *Store) DeleteRecord(ctx context.Context, name string, id core.ID) (bool, error) {
	if name == "" {
		return false, core.ErrEmptyCollection
	}
	var found bool
	err := s.withLock(ctx, func() error {
		doc, err := s.readDocument()
		if err != nil {
			return err
		}
		items := doc[name]
		i := indexOfID(items, id)
		if i < 0 {
			return nil
		}
		found = true
		doc[name] = append(items[:i:i], items[i+1:]...)
		if err := s.writeDocument(doc); err != nil {
			return err
		}
		s.logger().Debug("record deleted", "collection", name, "id", id)
		return nil
	})
	return found, err
}

// stampAfter returns the current time in TimestampLayout, nudged forward so
// it is strictly later than prev.
func (s *Store) stampAfter(prev time.Time) string {
	now := s.clock().UTC().Truncate(time.Millisecond)
	if !prev.IsZero() && !now.After(prev) {
		now = prev.UTC().Truncate(time.Millisecond).Add(time.Millisecond)
	}
	return now.Format(core.TimestampLayout)
}

func lastStamp(r core.Record) time.Time {
	created, _ := r.CreatedAt()
	if updated, ok := r.UpdatedAt(); ok && updated.After(created) {
		return updated
	}
	return created
}

// nextID is one more than the largest id present, or 1 for an empty
// collection. Records without a numeric id are ignored.
func nextID(items []core.Record) core.ID {
	var highest core.ID
	for _, item := range items {
		if id, ok := item.ID(); ok && id > highest {
			highest = id
		}
	}
	return highest + 1
}

func indexOf(items []core.Record, pred core.Predicate) int {
	if pred == nil {
		return -1
	}
	for i, item := range items {
		if pred(item) {
			return i
		}
	}
	return -1
}

func indexOfID(items []core.Record, id core.ID) int {
	for i, item := range items {
		if got, ok := item.ID(); ok && got == id {
			return i
		}
	}
	return -1
}
