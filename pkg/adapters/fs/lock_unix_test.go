//go:build unix

package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/slotbook/pkg/core"
)

func TestLocker_Native(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "db.json.lock")
	holder := NewLocker(marker, LockModeNative, 10*time.Millisecond, time.Second)
	contender := NewLocker(marker, LockModeNative, 10*time.Millisecond, 100*time.Millisecond)

	unlock, err := holder.Acquire(context.Background())
	require.NoError(t, err)

	_, err = contender.Acquire(context.Background())
	assert.True(t, errors.Is(err, core.ErrLockTimeout), "got %v", err)

	unlock()
	// The marker stays; only the flock on it matters.
	assert.FileExists(t, marker)

	unlock, err = contender.Acquire(context.Background())
	require.NoError(t, err)
	unlock()
}

func TestLocker_NativeIgnoresLeftoverMarker(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "db.json.lock")
	// A marker left by a dead process does not block native mode.
	require.NoError(t, os.WriteFile(marker, []byte("1700000000000"), 0644))

	l := NewLocker(marker, LockModeNative, 10*time.Millisecond, 100*time.Millisecond)
	unlock, err := l.Acquire(context.Background())
	require.NoError(t, err)
	unlock()
}
