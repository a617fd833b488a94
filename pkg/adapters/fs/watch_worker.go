package fs

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"runtime/debug"
	"sort"
	"time"

	"github.com/aretw0/lifecycle"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/aretw0/slotbook/pkg/core"
)

const watchDebounce = 50 * time.Millisecond

// Watch streams record-level changes for collections whose name matches the
// glob pattern ("*" or "" for all). Changes made by other processes are seen
// too, since the watcher diffs successive snapshots of the file.
func (s *Store) Watch(ctx context.Context, pattern string) (<-chan core.Event, error) {
	if pattern == "" {
		pattern = "*"
	}
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid watch pattern %q", pattern)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	// The file is replaced by rename on every write, so watch its directory.
	if err := watcher.Add(filepath.Dir(s.Path)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(s.Path), err)
	}

	initial, err := s.snapshot()
	if err != nil {
		_ = watcher.Close()
		return nil, err
	}

	events := make(chan core.Event, 64)
	w := &watchWorker{
		store:    s,
		pattern:  pattern,
		watcher:  watcher,
		events:   events,
		previous: initial,
	}
	s.setWatcherActive(true)

	lifecycle.Go(ctx, w.run, lifecycle.WithErrorHandler(func(err error) {
		s.reportError(fmt.Errorf("watcher: %w", err))
	}))
	return events, nil
}

type watchWorker struct {
	store    *Store
	pattern  string
	watcher  *fsnotify.Watcher
	events   chan core.Event
	previous core.Document
}

func (w *watchWorker) run(ctx context.Context) (err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = fmt.Errorf("watcher panic: %v", recovered)
			// Stack only when debugging; it is noise in production logs.
			if w.store.logger().Enabled(ctx, slog.LevelDebug) {
				w.store.logger().Error("watcher panic", "error", err, "stack", string(debug.Stack()))
			} else {
				w.store.logger().Error("watcher panic", "error", err)
			}
		}
	}()
	defer close(w.events)
	defer w.store.setWatcherActive(false)
	defer w.watcher.Close()

	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	defer debounce.Stop()

	target := filepath.Clean(w.store.Path)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher events channel closed")
			}
			// Temp files and the lock marker share the directory.
			if isTempFile(event.Name) || filepath.Clean(event.Name) != target {
				continue
			}
			w.store.logger().Debug("store file event", "op", event.Op.String())
			debounce.Reset(watchDebounce)

		case <-debounce.C:
			w.flush(ctx)

		case werr, ok := <-w.watcher.Errors:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("watcher errors channel closed")
			}
			w.store.reportError(werr)
		}
	}
}

// flush diffs the file against the last snapshot and emits the changes.
func (w *watchWorker) flush(ctx context.Context) {
	current, err := w.store.snapshot()
	if err != nil {
		// Keep the old snapshot; the next write will be diffed against it.
		w.store.reportError(err)
		return
	}

	changes, err := diffDocuments(w.previous, current, w.pattern, time.Now())
	if err != nil {
		w.store.reportError(err)
		return
	}
	w.previous = current

	for _, e := range changes {
		select {
		case w.events <- e:
		case <-ctx.Done():
			return
		}
	}
}

// snapshot decodes the file without taking the lock. Writes land by rename,
// so a read always sees a whole document. A missing file reads as empty.
func (s *Store) snapshot() (core.Document, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		return core.Document{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrStoreUnreadable, s.Path, err)
	}
	doc, err := s.serializer.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrStoreUnreadable, s.Path, err)
	}
	return doc, nil
}

func (s *Store) reportError(err error) {
	if s.config.ErrorHandler != nil {
		s.config.ErrorHandler(err)
		return
	}
	s.logger().Error("watcher error", "error", err)
}

// diffDocuments compares two snapshots record by record, keyed by id.
// Events come out ordered by collection, then id.
func diffDocuments(before, after core.Document, pattern string, at time.Time) ([]core.Event, error) {
	names := make(map[string]struct{}, len(before)+len(after))
	for name := range before {
		names[name] = struct{}{}
	}
	for name := range after {
		names[name] = struct{}{}
	}

	sorted := make([]string, 0, len(names))
	for name := range names {
		ok, err := doublestar.Match(pattern, name)
		if err != nil {
			return nil, err
		}
		if ok {
			sorted = append(sorted, name)
		}
	}
	sort.Strings(sorted)

	var out []core.Event
	for _, name := range sorted {
		old, cur := byID(before[name]), byID(after[name])

		ids := make([]core.ID, 0, len(old)+len(cur))
		for id := range old {
			ids = append(ids, id)
		}
		for id := range cur {
			if _, seen := old[id]; !seen {
				ids = append(ids, id)
			}
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		for _, id := range ids {
			o, hadOld := old[id]
			c, hasCur := cur[id]
			var typ core.EventType
			switch {
			case !hadOld:
				typ = core.EventCreate
			case !hasCur:
				typ = core.EventDelete
			case !reflect.DeepEqual(o, c):
				typ = core.EventModify
			default:
				continue
			}
			out = append(out, core.Event{
				Type:       typ,
				Collection: name,
				ID:         id,
				Timestamp:  at.Unix(),
			})
		}
	}
	return out, nil
}

func byID(items []core.Record) map[core.ID]core.Record {
	m := make(map[core.ID]core.Record, len(items))
	for _, item := range items {
		if id, ok := item.ID(); ok {
			m[id] = item
		}
	}
	return m
}
