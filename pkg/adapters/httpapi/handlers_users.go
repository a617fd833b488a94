package httpapi

import (
	"net/http"

	"github.com/aretw0/slotbook/pkg/booking"
)

type roleRequest struct {
	Role booking.Role `json:"role"`
}

func (s *Server) listUsers(w http.ResponseWriter, r *http.Request) {
	list, err := s.users.List(r.Context())
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, list)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	user, err := s.users.Get(r.Context(), id)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, user)
}

func (s *Server) updateUserRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	var in roleRequest
	if err := decodeBody(r, &in); err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	user, err := s.users.UpdateRole(r.Context(), id, in.Role)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, userResponse{Message: "role updated", User: user})
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	if err := s.users.Delete(r.Context(), id); err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeMessage(s.logger, w, http.StatusOK, "user deleted")
}
