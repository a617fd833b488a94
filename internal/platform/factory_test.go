package platform_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aretw0/slotbook/internal/platform"
	"github.com/aretw0/slotbook/pkg/adapters/fs"
	"github.com/aretw0/slotbook/pkg/booking"
	"github.com/aretw0/slotbook/pkg/core"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpen_InitializesDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "db.json")

	store, err := platform.Open(context.Background(), path,
		platform.WithLogger(quietLogger()),
		platform.WithPollInterval(5*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Equal(t, path, store.Path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"bookings": []`)
	assert.Contains(t, string(raw), `"services": []`)
	assert.Contains(t, string(raw), `"users": []`)
}

func TestOpen_RejectsUnknownLockMode(t *testing.T) {
	_, err := platform.Open(context.Background(), filepath.Join(t.TempDir(), "db.json"),
		platform.WithLockMode(fs.LockMode("mutex")))
	assert.Error(t, err)
}

func TestNew_WiresServices(t *testing.T) {
	cfg := platform.Defaults()
	cfg.DataPath = filepath.Join(t.TempDir(), "db.json")
	cfg.LockPoll = 5 * time.Millisecond
	cfg.AdminEmail = "root@example.com"
	cfg.AdminPassword = "changeme"

	ctx := context.Background()
	app, err := platform.New(ctx, cfg,
		platform.WithLogger(quietLogger()),
		platform.WithBookingOptions(booking.WithBcryptCost(bcrypt.MinCost)),
	)
	require.NoError(t, err)

	require.NoError(t, app.SeedAdmin(ctx))
	require.NoError(t, app.SeedAdmin(ctx), "seeding twice is harmless")
	users, err := app.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsAdmin())

	svc, err := app.Catalog.Create(ctx, booking.ServiceInput{Name: "Room", Type: booking.ServiceRoom})
	require.NoError(t, err)
	assert.Equal(t, core.ID(1), svc.ID)

	srv := app.Server("test")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/services", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Room"`)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := platform.Defaults()
	cfg.DataPath = ""
	_, err := platform.New(context.Background(), cfg)
	assert.Error(t, err)
}
