package fs

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/slotbook/pkg/core"
)

// LockMode selects how the store file is guarded on disk.
type LockMode string

const (
	// LockModeMarker creates the marker exclusively and removes it on
	// release. Portable, but a crashed holder leaves the marker behind and
	// every later contender times out until someone removes it.
	LockModeMarker LockMode = "marker"

	// LockModeNative holds an OS advisory lock (flock) on the marker file.
	// The kernel drops it when the holder dies. The marker file itself is
	// left in place, so processes sharing a store must agree on the mode.
	LockModeNative LockMode = "native"
)

// ParseLockMode validates a lock mode name. Empty means marker.
func ParseLockMode(s string) (LockMode, error) {
	switch LockMode(s) {
	case "", LockModeMarker:
		return LockModeMarker, nil
	case LockModeNative:
		return LockModeNative, nil
	}
	return "", fmt.Errorf("unknown lock mode %q (want %q or %q)", s, LockModeMarker, LockModeNative)
}

// Locker serializes access to the store file. Goroutines of one process
// queue on an in-memory semaphore first, then the holder takes the file
// lock, so the same timeout budget covers both waits.
type Locker struct {
	path     string
	mode     LockMode
	interval time.Duration
	timeout  time.Duration

	sem chan struct{}

	mu       sync.Mutex
	held     bool
	timeouts uint64
}

// NewLocker creates a locker for the marker at path.
func NewLocker(path string, mode LockMode, interval, timeout time.Duration) *Locker {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultLockTimeout
	}
	if mode == "" {
		mode = LockModeMarker
	}
	return &Locker{
		path:     path,
		mode:     mode,
		interval: interval,
		timeout:  timeout,
		sem:      make(chan struct{}, 1),
	}
}

// Path returns the marker path.
func (l *Locker) Path() string {
	return l.path
}

// Acquire blocks until the lock is held, the timeout elapses
// (core.ErrLockTimeout) or ctx is done. The returned unlock func is safe to
// call more than once.
func (l *Locker) Acquire(ctx context.Context) (func(), error) {
	deadline := time.Now().Add(l.timeout)
	timer := time.NewTimer(l.timeout)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
	case <-timer.C:
		return nil, l.timedOut()
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	for {
		release, ok, err := l.try()
		if err != nil {
			<-l.sem
			return nil, fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
		}
		if ok {
			l.setHeld(true)
			var once sync.Once
			return func() {
				once.Do(func() {
					release()
					l.setHeld(false)
					<-l.sem
				})
			}, nil
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			<-l.sem
			return nil, l.timedOut()
		}

		wait := l.interval
		if remaining < wait {
			wait = remaining
		}
		select {
		case <-time.After(wait):
		case <-ctx.Done():
			<-l.sem
			return nil, ctx.Err()
		}
	}
}

func (l *Locker) try() (release func(), ok bool, err error) {
	if l.mode == LockModeNative {
		return tryNative(l.path)
	}
	return tryMarker(l.path)
}

func (l *Locker) timedOut() error {
	l.mu.Lock()
	l.timeouts++
	l.mu.Unlock()
	return fmt.Errorf("%w: %s still held after %s", core.ErrLockTimeout, l.path, l.timeout)
}

func (l *Locker) setHeld(held bool) {
	l.mu.Lock()
	l.held = held
	l.mu.Unlock()
}

// Held reports whether this process currently holds the lock.
func (l *Locker) Held() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held
}

// Timeouts returns how many acquisitions have timed out.
func (l *Locker) Timeouts() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.timeouts
}

// tryMarker creates the marker exclusively. An existing marker means
// somebody else holds the lock.
func tryMarker(path string) (func(), bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		if os.IsExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	// Advisory content only; never read back.
	_, _ = f.WriteString(strconv.FormatInt(time.Now().UnixMilli(), 10))
	f.Close()

	// A marker removed by someone else is fine; any other failure surfaces
	// as a timeout for the next contender.
	return func() { _ = os.Remove(path) }, true, nil
}
