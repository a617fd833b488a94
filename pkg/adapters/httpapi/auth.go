package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/aretw0/slotbook/pkg/booking"
)

var errAdminOnly = &booking.Error{Kind: booking.KindForbidden, Message: "administrator rights required"}

// bearerToken reads "Authorization: Bearer <token>". Browsers cannot set
// headers on websocket handshakes, so a token query parameter is accepted
// as well.
func bearerToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

// authed resolves the session and stores the user in the request context.
func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeMessage(s.logger, w, http.StatusUnauthorized, "missing or malformed token")
			return
		}
		user, err := s.users.Authenticate(r.Context(), token)
		if err != nil {
			writeError(s.logger, w, r, err)
			return
		}
		ctx := context.WithValue(r.Context(), userKey, user)
		next(w, r.WithContext(ctx))
	}
}

// admin is authed plus a role check.
func (s *Server) admin(next http.HandlerFunc) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request) {
		if !currentUser(r).IsAdmin() {
			writeError(s.logger, w, r, errAdminOnly)
			return
		}
		next(w, r)
	})
}

func currentUser(r *http.Request) booking.User {
	u, _ := r.Context().Value(userKey).(booking.User)
	return u
}
