package httpapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/aretw0/slotbook/pkg/adapters/fs"
	"github.com/aretw0/slotbook/pkg/adapters/httpapi"
	"github.com/aretw0/slotbook/pkg/booking"
	"github.com/aretw0/slotbook/pkg/core"
)

type harness struct {
	t      *testing.T
	store  *fs.Store
	users  *booking.Users
	server *httpapi.Server
	ts     *httptest.Server
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store := fs.NewStore(fs.Config{
		Path:         filepath.Join(t.TempDir(), "db.json"),
		PollInterval: 5 * time.Millisecond,
	})
	require.NoError(t, store.Initialize(context.Background()))

	opt := booking.WithBcryptCost(bcrypt.MinCost)
	users := booking.NewUsers(store, opt)
	srv := httpapi.New(httpapi.Config{MetricsEnabled: true, Version: "test"}, httpapi.Deps{
		Catalog:  booking.NewCatalog(store, opt),
		Users:    users,
		Bookings: booking.NewBookings(store, opt),
		Events:   store,
		Store:    store,
	})
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
		ts.Close()
	})
	return &harness{t: t, store: store, users: users, server: srv, ts: ts}
}

// do sends a JSON request and decodes the response into out when given.
func (h *harness) do(method, path, token string, body any, out any) int {
	h.t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(h.t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, h.ts.URL+path, reader)
	require.NoError(h.t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(h.t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(h.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (h *harness) signup(email string) string {
	h.t.Helper()
	code := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": email, "password": "secret1", "firstName": "Ada", "lastName": "Lovelace",
	}, nil)
	require.Equal(h.t, http.StatusCreated, code)
	return h.login(email, "secret1")
}

func (h *harness) login(email, password string) string {
	h.t.Helper()
	var out struct {
		Token string `json:"token"`
	}
	code := h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": email, "password": password}, &out)
	require.Equal(h.t, http.StatusOK, code)
	return out.Token
}

func (h *harness) adminToken() string {
	h.t.Helper()
	_, _, err := h.users.EnsureAdmin(context.Background(), booking.RegisterInput{
		Email: "root@example.com", Password: "changeme", FirstName: "Root", LastName: "Admin",
	})
	require.NoError(h.t, err)
	return h.login("root@example.com", "changeme")
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	var out map[string]any
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/health", "", nil, &out))
	assert.Equal(t, "OK", out["status"])
	assert.NotEmpty(t, out["timestamp"])
}

func TestRequestIDAndCORS(t *testing.T) {
	h := newHarness(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	assert.NotEmpty(t, rec.Header().Get(httpapi.RequestIDHeader))
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(httpapi.RequestIDHeader, "fixed-id")
	rec = httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, "fixed-id", rec.Header().Get(httpapi.RequestIDHeader))

	req = httptest.NewRequest(http.MethodOptions, "/api/services", nil)
	rec = httptest.NewRecorder()
	h.server.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	h := newHarness(t)

	var created struct {
		Message string       `json:"message"`
		User    booking.User `json:"user"`
	}
	code := h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ada@example.com", "password": "secret1", "firstName": "Ada", "lastName": "Lovelace",
	}, &created)
	require.Equal(t, http.StatusCreated, code)
	assert.Equal(t, booking.RoleUser, created.User.Role)

	var msg map[string]any
	code = h.do(http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "ada@example.com", "password": "secret1", "firstName": "Ada", "lastName": "Lovelace",
	}, &msg)
	assert.Equal(t, http.StatusConflict, code)
	assert.NotEmpty(t, msg["message"])

	code = h.do(http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ada@example.com", "password": "nope"}, nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	token := h.login("ada@example.com", "secret1")
	var profile booking.User
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/auth/profile", token, nil, &profile))
	assert.Equal(t, "ada@example.com", profile.Email)

	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/auth/profile", "", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/auth/profile", "bogus", nil, nil))

	assert.Equal(t, http.StatusOK, h.do(http.MethodPost, "/api/auth/logout", token, nil, nil))
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodGet, "/api/auth/profile", token, nil, nil))
}

func TestMalformedBody(t *testing.T) {
	h := newHarness(t)

	req, err := http.NewRequest(http.MethodPost, h.ts.URL+"/api/auth/login", strings.NewReader("{not json"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestServicesAdminOnly(t *testing.T) {
	h := newHarness(t)
	user := h.signup("ada@example.com")
	admin := h.adminToken()

	input := map[string]any{
		"name": "Room A", "type": "room", "description": "second floor",
		"slots": []string{"2025-06-01 10:00", "2025-06-01 09:00"},
	}
	assert.Equal(t, http.StatusUnauthorized, h.do(http.MethodPost, "/api/services", "", input, nil))
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPost, "/api/services", user, input, nil))

	var created struct {
		Service booking.Service `json:"service"`
	}
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/services", admin, input, &created))
	svc := created.Service
	assert.Equal(t, core.ID(1), svc.ID)
	assert.Equal(t, []string{"2025-06-01 09:00", "2025-06-01 10:00"}, svc.Slots)

	var list []booking.Service
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/services", "", nil, &list))
	assert.Len(t, list, 1)

	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/services/99", "", nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/services/abc", "", nil, nil))

	var updated struct {
		Service booking.Service `json:"service"`
	}
	require.Equal(t, http.StatusOK, h.do(http.MethodPatch, "/api/services/1", admin, map[string]string{"name": "Room B"}, &updated))
	assert.Equal(t, "Room B", updated.Service.Name)
	assert.NotEmpty(t, updated.Service.UpdatedAt)

	var slotted struct {
		Service booking.Service `json:"service"`
	}
	path := "/api/services/1/slots"
	require.Equal(t, http.StatusOK, h.do(http.MethodPost, path, admin, map[string]string{"slot": "2025-06-01 11:00"}, &slotted))
	assert.Len(t, slotted.Service.Slots, 3)
	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, path, admin, map[string]string{"slot": "2025-06-01 11:00"}, nil))
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, path, admin, map[string]string{"slot": "tomorrow"}, nil))
	require.Equal(t, http.StatusOK, h.do(http.MethodDelete, path, admin, map[string]string{"slot": "2025-06-01 11:00"}, &slotted))
	assert.Len(t, slotted.Service.Slots, 2)

	require.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/services/1", admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/services/1", "", nil, nil))
}

func TestBookingLifecycle(t *testing.T) {
	h := newHarness(t)
	admin := h.adminToken()
	ada := h.signup("ada@example.com")
	bob := h.signup("bob@example.com")

	input := map[string]any{"name": "Projector", "type": "equipment", "slots": []string{"2025-06-01 09:00", "2025-06-01 10:00"}}
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/services", admin, input, nil))

	var created struct {
		Booking booking.Booking `json:"booking"`
	}
	req := map[string]any{"serviceId": 1, "slot": "2025-06-01 09:00"}
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/bookings", ada, req, &created))
	assert.Equal(t, booking.StatusConfirmed, created.Booking.Status)

	assert.Equal(t, http.StatusConflict, h.do(http.MethodPost, "/api/bookings", bob, req, nil))
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPost, "/api/bookings", bob,
		map[string]any{"serviceId": 1, "slot": "2025-06-02 09:00"}, nil))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodPost, "/api/bookings", bob,
		map[string]any{"serviceId": 7, "slot": "2025-06-01 09:00"}, nil))

	var slots []string
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/services/1/slots/available", "", nil, &slots))
	assert.Equal(t, []string{"2025-06-01 10:00"}, slots)

	var mine []booking.Booking
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/bookings/my-bookings", ada, nil, &mine))
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Service)
	assert.Equal(t, "Projector", mine[0].Service.Name)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/bookings/1", ada, nil, nil))
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/bookings/1", bob, nil, nil))
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/bookings/1", admin, nil, nil))

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/bookings", bob, nil, nil))
	var byService []booking.Booking
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/bookings?serviceId=1", bob, nil, &byService))
	assert.Len(t, byService, 1)
	var all []booking.Booking
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/bookings", admin, nil, &all))
	require.Len(t, all, 1)
	require.NotNil(t, all[0].User)
	assert.Equal(t, "ada@example.com", all[0].User.Email)

	// Services with bookings cannot be deleted.
	assert.Equal(t, http.StatusConflict, h.do(http.MethodDelete, "/api/services/1", admin, nil, nil))

	var status struct {
		Booking booking.Booking `json:"booking"`
	}
	assert.Equal(t, http.StatusForbidden, h.do(http.MethodPatch, "/api/bookings/1/status", ada, map[string]string{"status": "completed"}, nil))
	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPatch, "/api/bookings/1/status", admin, map[string]string{"status": "lost"}, nil))
	require.Equal(t, http.StatusOK, h.do(http.MethodPatch, "/api/bookings/1/status", admin, map[string]string{"status": "completed"}, &status))
	assert.Equal(t, booking.StatusCompleted, status.Booking.Status)

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodDelete, "/api/bookings/1", bob, nil, nil))
	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/bookings/1", ada, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodDelete, "/api/bookings/1", ada, nil, nil))
}

func TestConcurrentBookingOverHTTP(t *testing.T) {
	h := newHarness(t)
	admin := h.adminToken()
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/services", admin,
		map[string]any{"name": "Room", "type": "room", "slots": []string{"2025-06-01 09:00"}}, nil))

	tokens := make([]string, 4)
	for i := range tokens {
		tokens[i] = h.signup(string(rune('a'+i)) + "@example.com")
	}

	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		codes = map[int]int{}
	)
	for _, token := range tokens {
		wg.Add(1)
		go func() {
			defer wg.Done()
			code := h.do(http.MethodPost, "/api/bookings", token, map[string]any{"serviceId": 1, "slot": "2025-06-01 09:00"}, nil)
			mu.Lock()
			codes[code]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, codes[http.StatusCreated])
	assert.Equal(t, len(tokens)-1, codes[http.StatusConflict])
}

func TestUsersAdmin(t *testing.T) {
	h := newHarness(t)
	admin := h.adminToken()
	user := h.signup("ada@example.com")

	assert.Equal(t, http.StatusForbidden, h.do(http.MethodGet, "/api/users", user, nil, nil))

	var list []map[string]any
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/users", admin, nil, &list))
	require.Len(t, list, 2)
	for _, u := range list {
		assert.NotContains(t, u, "password")
	}

	var promoted struct {
		User booking.User `json:"user"`
	}
	require.Equal(t, http.StatusOK, h.do(http.MethodPatch, "/api/users/2/role", admin, map[string]string{"role": "admin"}, &promoted))
	assert.Equal(t, booking.RoleAdmin, promoted.User.Role)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/users", user, nil, nil))

	assert.Equal(t, http.StatusBadRequest, h.do(http.MethodPatch, "/api/users/2/role", admin, map[string]string{"role": "root"}, nil))
	assert.Equal(t, http.StatusOK, h.do(http.MethodDelete, "/api/users/2", admin, nil, nil))
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/users/2", admin, nil, nil))
}

func TestLockTimeoutMapsToServiceUnavailable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "db.json")
	store := fs.NewStore(fs.Config{Path: path, PollInterval: 5 * time.Millisecond, LockTimeout: 50 * time.Millisecond})
	require.NoError(t, store.Initialize(context.Background()))

	srv := httpapi.New(httpapi.Config{}, httpapi.Deps{
		Catalog:  booking.NewCatalog(store),
		Users:    booking.NewUsers(store),
		Bookings: booking.NewBookings(store),
	})

	// A stale marker left by a crashed process blocks every operation.
	locker := fs.NewLocker(path+".lock", fs.LockModeMarker, 5*time.Millisecond, time.Second)
	release, err := locker.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/services", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
}

func TestMetricsEndpoint(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, http.StatusOK, h.do(http.MethodGet, "/api/services", "", nil, nil))

	resp, err := http.Get(h.ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), `slotbook_http_requests_total{method="GET",path="/api/services",status="200"} 1`)
	assert.Contains(t, string(body), "slotbook_store_operations_total")
	assert.Contains(t, string(body), "slotbook_store_lock_held 0")
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	var out map[string]string
	assert.Equal(t, http.StatusNotFound, h.do(http.MethodGet, "/api/nowhere", "", nil, &out))
	assert.Equal(t, "route not found", out["message"])
}

func TestEventStream(t *testing.T) {
	h := newHarness(t)
	admin := h.adminToken()
	user := h.signup("ada@example.com")

	wsURL := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/api/events?collections=services&token="

	_, resp, err := websocket.DefaultDialer.Dial(wsURL+user, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL+admin, nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)

	// Let the watcher settle before writing.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, http.StatusCreated, h.do(http.MethodPost, "/api/services", admin,
		map[string]any{"name": "Room", "type": "room"}, nil))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var evt core.Event
	require.NoError(t, conn.ReadJSON(&evt))
	assert.Equal(t, core.EventCreate, evt.Type)
	assert.Equal(t, core.CollectionServices, evt.Collection)
	assert.Equal(t, core.ID(1), evt.ID)
}
