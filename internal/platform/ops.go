package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/slotbook/pkg/adapters/fs"
)

// Open builds the file store for path and makes sure the document exists.
// Under "go run"/"go test" the path is sandboxed unless dev safety is off.
func Open(ctx context.Context, path string, opts ...Option) (*fs.Store, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	logger := o.log()

	dev := IsDevRun()
	useTemp := o.forceTemp || (dev && o.devSafety)
	resolved := ResolveDataPath(path, useTemp)

	switch {
	case useTemp:
		logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
	case dev:
		logger.Warn("running in UNSAFE mode (dev sandbox disabled)", "path", resolved)
	}

	mode, err := fs.ParseLockMode(string(o.lockMode))
	if err != nil {
		return nil, err
	}

	store := fs.NewStore(fs.Config{
		Path:         resolved,
		LockMode:     mode,
		PollInterval: o.pollInterval,
		LockTimeout:  o.lockTimeout,
		Logger:       logger,
		ErrorHandler: o.errorHandler,
	})
	if err := store.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initialize %s: %w", resolved, err)
	}
	return store, nil
}
