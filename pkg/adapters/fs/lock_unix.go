//go:build unix

package fs

import (
	"errors"
	"os"
	"strconv"
	"time"

	"golang.org/x/sys/unix"
)

// tryNative takes a non-blocking flock on the marker. The file is kept on
// release: unlinking it would let a waiter lock the orphaned inode while a
// newcomer locks a fresh one.
func tryNative(path string) (func(), bool, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, false, err
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, false, nil
		}
		return nil, false, err
	}

	_ = f.Truncate(0)
	_, _ = f.WriteAt([]byte(strconv.FormatInt(time.Now().UnixMilli(), 10)), 0)

	return func() {
		_ = unix.Flock(int(f.Fd()), unix.LOCK_UN)
		f.Close()
	}, true, nil
}
