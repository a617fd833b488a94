package platform

import (
	"context"
	"fmt"

	"github.com/aretw0/slotbook/pkg/adapters/fs"
	"github.com/aretw0/slotbook/pkg/adapters/httpapi"
	"github.com/aretw0/slotbook/pkg/booking"
)

// App is the wired application: one store and the services over it.
type App struct {
	Config   Config
	Store    *fs.Store
	Catalog  *booking.Catalog
	Users    *booking.Users
	Bookings *booking.Bookings

	opts *options
}

// New opens the store described by cfg and wires the domain services.
// Options given here win over the matching Config fields.
func New(ctx context.Context, cfg Config, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	base := []Option{
		WithLockMode(fs.LockMode(cfg.LockMode)),
		WithPollInterval(cfg.LockPoll),
		WithLockTimeout(cfg.LockTimeout),
	}
	opts = append(base, opts...)

	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}

	store, err := Open(ctx, cfg.DataPath, opts...)
	if err != nil {
		return nil, err
	}

	bopts := append([]booking.Option{
		booking.WithLogger(o.log()),
		booking.WithSessionTTL(cfg.SessionTTL),
	}, o.booking...)

	return &App{
		Config:   cfg,
		Store:    store,
		Catalog:  booking.NewCatalog(store, bopts...),
		Users:    booking.NewUsers(store, bopts...),
		Bookings: booking.NewBookings(store, bopts...),
		opts:     o,
	}, nil
}

// SeedAdmin creates the configured administrator if it does not exist yet.
// It is a no-op without AdminEmail.
func (a *App) SeedAdmin(ctx context.Context) error {
	if a.Config.AdminEmail == "" {
		return nil
	}
	user, created, err := a.Users.EnsureAdmin(ctx, booking.RegisterInput{
		Email:     a.Config.AdminEmail,
		Password:  a.Config.AdminPassword,
		FirstName: "Admin",
		LastName:  "Slotbook",
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if created {
		a.opts.log().Info("administrator created", "email", user.Email, "id", user.ID)
	}
	return nil
}

// Server builds the HTTP server over the app's services.
func (a *App) Server(version string) *httpapi.Server {
	return httpapi.New(httpapi.Config{
		Addr:           a.Config.Addr,
		MetricsEnabled: a.Config.Metrics,
		Version:        version,
		Logger:         a.opts.log(),
	}, httpapi.Deps{
		Catalog:  a.Catalog,
		Users:    a.Users,
		Bookings: a.Bookings,
		Events:   a.Store,
		Store:    a.Store,
	})
}
