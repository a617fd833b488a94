package slotbook

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/slotbook/internal/platform"
	"github.com/aretw0/slotbook/pkg/adapters/fs"
	"github.com/aretw0/slotbook/pkg/booking"
)

// --- Configuration ---

// Config is the resolved runtime configuration.
type Config = platform.Config

// App bundles the store with the catalog, user and booking services.
type App = platform.App

// Option defines a functional option for Open and New.
type Option = platform.Option

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return platform.Defaults()
}

// LoadConfig layers a YAML file (or a slotbook.yaml found upwards from the
// working directory when file is empty) and SLOTBOOK_* variables over the
// defaults.
func LoadConfig(file string) (Config, error) {
	return platform.Load(file)
}

func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithLockMode selects "marker" (default) or "native" locking.
func WithLockMode(mode fs.LockMode) Option {
	return platform.WithLockMode(mode)
}

func WithLockTimeout(d time.Duration) Option {
	return platform.WithLockTimeout(d)
}

func WithPollInterval(d time.Duration) Option {
	return platform.WithPollInterval(d)
}

// WithForceTemp forces the data file into a temporary sandbox.
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithDevSafety toggles the sandbox used under "go run" and "go test".
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

func WithBookingOptions(opts ...booking.Option) Option {
	return platform.WithBookingOptions(opts...)
}

// --- Factories ---

// Open returns the record store at path, creating the document if needed.
func Open(ctx context.Context, path string, opts ...Option) (*fs.Store, error) {
	return platform.Open(ctx, path, opts...)
}

// New wires a full application from cfg.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	return platform.New(ctx, cfg, opts...)
}

// IsDevRun reports whether the process runs under "go run" or "go test".
func IsDevRun() bool {
	return platform.IsDevRun()
}
