package booking

import (
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// DefaultSessionTTL is how long a login stays valid.
const DefaultSessionTTL = 24 * time.Hour

type options struct {
	logger     *slog.Logger
	sessionTTL time.Duration
	bcryptCost int
	clock      func() time.Time
}

// Option configures the domain services.
type Option func(*options)

func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSessionTTL sets the lifetime of login sessions.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.sessionTTL = ttl
	}
}

// WithBcryptCost overrides the password hashing cost. Tests use
// bcrypt.MinCost to stay fast.
func WithBcryptCost(cost int) Option {
	return func(o *options) {
		o.bcryptCost = cost
	}
}

// WithClock replaces time.Now for session expiry.
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

func buildOptions(opts []Option) options {
	o := options{
		sessionTTL: DefaultSessionTTL,
		bcryptCost: bcrypt.DefaultCost,
		clock:      time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.sessionTTL <= 0 {
		o.sessionTTL = DefaultSessionTTL
	}
	return o
}
