package httpapi

import (
	"net/http"
	"time"

	"github.com/aretw0/slotbook/pkg/booking"
)

type userResponse struct {
	Message string       `json:"message"`
	User    booking.User `json:"user"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Message   string       `json:"message"`
	Token     string       `json:"token"`
	User      booking.User `json:"user"`
	ExpiresAt time.Time    `json:"expiresAt"`
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var in booking.RegisterInput
	if err := decodeBody(r, &in); err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	user, err := s.users.Register(r.Context(), in)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusCreated, userResponse{Message: "user created", User: user})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in loginRequest
	if err := decodeBody(r, &in); err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	sess, err := s.users.Login(r.Context(), in.Email, in.Password)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, loginResponse{
		Message:   "logged in",
		Token:     sess.Token,
		User:      sess.User,
		ExpiresAt: sess.ExpiresAt,
	})
}

func (s *Server) profile(w http.ResponseWriter, r *http.Request) {
	user, err := s.users.Get(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, user)
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	if err := s.users.Logout(r.Context(), bearerToken(r)); err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeMessage(s.logger, w, http.StatusOK, "logged out")
}

type healthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(s.logger, w, http.StatusOK, healthResponse{
		Status:    "OK",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   s.version,
	})
}
