package platform

import (
	"log/slog"
	"time"

	"github.com/aretw0/slotbook/pkg/adapters/fs"
	"github.com/aretw0/slotbook/pkg/booking"
)

// options holds the wiring knobs that are not part of Config.
type options struct {
	logger       *slog.Logger
	lockMode     fs.LockMode
	lockTimeout  time.Duration
	pollInterval time.Duration
	forceTemp    bool
	devSafety    bool
	errorHandler func(error)
	booking      []booking.Option
}

// Option configures Open and New.
type Option func(*options)

func defaultOptions() *options {
	return &options{devSafety: true}
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithLockMode picks marker files (portable) or flock (unix only).
func WithLockMode(mode fs.LockMode) Option {
	return func(o *options) {
		o.lockMode = mode
	}
}

func WithLockTimeout(d time.Duration) Option {
	return func(o *options) {
		o.lockTimeout = d
	}
}

func WithPollInterval(d time.Duration) Option {
	return func(o *options) {
		o.pollInterval = d
	}
}

// WithForceTemp re-roots the data file into the dev sandbox regardless of
// how the binary was started.
func WithForceTemp(force bool) Option {
	return func(o *options) {
		o.forceTemp = force
	}
}

// WithDevSafety controls the sandbox applied under "go run" and "go test".
// It is on by default; turn it off only to work on real data from a dev build.
func WithDevSafety(enabled bool) Option {
	return func(o *options) {
		o.devSafety = enabled
	}
}

// WithWatcherErrorHandler receives failures from background watchers.
func WithWatcherErrorHandler(fn func(error)) Option {
	return func(o *options) {
		o.errorHandler = fn
	}
}

// WithBookingOptions forwards options to the domain services.
func WithBookingOptions(opts ...booking.Option) Option {
	return func(o *options) {
		o.booking = append(o.booking, opts...)
	}
}

func (o *options) log() *slog.Logger {
	if o.logger != nil {
		return o.logger
	}
	return slog.Default()
}
