// Package httpapi exposes the booking services over HTTP with gorilla/mux.
package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/slotbook/pkg/booking"
	"github.com/aretw0/slotbook/pkg/core"
)

// Config controls the listener and optional surfaces.
type Config struct {
	Addr           string
	MetricsEnabled bool
	Version        string
	Logger         *slog.Logger
}

// Deps are the services the handlers call into. Events and Store are
// optional; without them /api/events and the store metrics are skipped.
type Deps struct {
	Catalog  *booking.Catalog
	Users    *booking.Users
	Bookings *booking.Bookings
	Events   core.Watchable
	Store    StoreStats
}

type Server struct {
	catalog  *booking.Catalog
	users    *booking.Users
	bookings *booking.Bookings
	events   *eventStream

	router     *mux.Router
	handler    http.Handler
	httpServer *http.Server
	logger     *slog.Logger
	version    string
	addr       string
}

func New(cfg Config, deps Deps) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		catalog:  deps.Catalog,
		users:    deps.Users,
		bookings: deps.Bookings,
		router:   mux.NewRouter(),
		logger:   logger,
		version:  cfg.Version,
		addr:     cfg.Addr,
	}
	if deps.Events != nil {
		s.events = newEventStream(deps.Events, logger)
	}

	if cfg.MetricsEnabled {
		reg := prometheus.NewRegistry()
		m := newMetrics(reg, deps.Store)
		// Route-level so the matched template is available for labels.
		s.router.Use(m.middleware)
		s.router.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})).
			Methods(http.MethodGet)
	}
	s.routes()

	// Outermost first: recovery sees panics from everything below it.
	var h http.Handler = s.router
	h = logging(logger)(h)
	h = cors(h)
	h = withRequestID(h)
	h = recovery(logger)(h)
	s.handler = h

	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", s.health).Methods(http.MethodGet)

	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register", s.register).Methods(http.MethodPost)
	auth.HandleFunc("/login", s.login).Methods(http.MethodPost)
	auth.HandleFunc("/profile", s.authed(s.profile)).Methods(http.MethodGet)
	auth.HandleFunc("/logout", s.authed(s.logout)).Methods(http.MethodPost)

	services := api.PathPrefix("/services").Subrouter()
	services.HandleFunc("", s.listServices).Methods(http.MethodGet)
	services.HandleFunc("", s.admin(s.createService)).Methods(http.MethodPost)
	services.HandleFunc("/{id:[0-9]+}", s.getService).Methods(http.MethodGet)
	services.HandleFunc("/{id:[0-9]+}", s.admin(s.updateService)).Methods(http.MethodPatch)
	services.HandleFunc("/{id:[0-9]+}", s.admin(s.deleteService)).Methods(http.MethodDelete)
	services.HandleFunc("/{id:[0-9]+}/slots/available", s.availableSlots).Methods(http.MethodGet)
	services.HandleFunc("/{id:[0-9]+}/slots", s.admin(s.editSlot(true))).Methods(http.MethodPost)
	services.HandleFunc("/{id:[0-9]+}/slots", s.admin(s.editSlot(false))).Methods(http.MethodDelete)

	bookings := api.PathPrefix("/bookings").Subrouter()
	bookings.HandleFunc("/my-bookings", s.authed(s.myBookings)).Methods(http.MethodGet)
	bookings.HandleFunc("", s.authed(s.listBookings)).Methods(http.MethodGet)
	bookings.HandleFunc("", s.authed(s.createBooking)).Methods(http.MethodPost)
	bookings.HandleFunc("/{id:[0-9]+}", s.authed(s.getBooking)).Methods(http.MethodGet)
	bookings.HandleFunc("/{id:[0-9]+}", s.authed(s.cancelBooking)).Methods(http.MethodDelete)
	bookings.HandleFunc("/{id:[0-9]+}/status", s.admin(s.updateBookingStatus)).Methods(http.MethodPatch)

	users := api.PathPrefix("/users").Subrouter()
	users.HandleFunc("", s.admin(s.listUsers)).Methods(http.MethodGet)
	users.HandleFunc("/{id:[0-9]+}", s.admin(s.getUser)).Methods(http.MethodGet)
	users.HandleFunc("/{id:[0-9]+}/role", s.admin(s.updateUserRole)).Methods(http.MethodPatch)
	users.HandleFunc("/{id:[0-9]+}", s.admin(s.deleteUser)).Methods(http.MethodDelete)

	if s.events != nil {
		api.HandleFunc("/events", s.admin(s.events.serve)).Methods(http.MethodGet)
	}

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(s.logger, w, http.StatusNotFound, "route not found")
	})
	s.router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeMessage(s.logger, w, http.StatusMethodNotAllowed, "method not allowed")
	})
}

// Handler returns the fully wrapped handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ListenAndServe blocks until the server stops. A clean Shutdown returns nil.
func (s *Server) ListenAndServe() error {
	s.logger.Info("starting server", "addr", s.addr, "version", s.version)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

// Shutdown closes event streams first, then drains HTTP requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")
	if s.events != nil {
		s.events.closeAll()
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	return nil
}
