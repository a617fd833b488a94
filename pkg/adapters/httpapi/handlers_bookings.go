package httpapi

import (
	"net/http"

	"github.com/aretw0/slotbook/pkg/booking"
	"github.com/aretw0/slotbook/pkg/core"
)

type bookingRequest struct {
	ServiceID core.ID `json:"serviceId"`
	Slot      string  `json:"slot"`
}

type statusRequest struct {
	Status booking.Status `json:"status"`
}

type bookingResponse struct {
	Message string          `json:"message"`
	Booking booking.Booking `json:"booking"`
}

func (s *Server) myBookings(w http.ResponseWriter, r *http.Request) {
	list, err := s.bookings.ForUser(r.Context(), currentUser(r).ID)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, list)
}

// listBookings filters by ?serviceId= for any signed-in user; the full
// listing is admin only.
func (s *Server) listBookings(w http.ResponseWriter, r *http.Request) {
	var (
		list []booking.Booking
		err  error
	)
	if raw := r.URL.Query().Get("serviceId"); raw != "" {
		id, perr := core.ParseID(raw)
		if perr != nil {
			writeError(s.logger, w, r, perr)
			return
		}
		list, err = s.bookings.ForService(r.Context(), id)
	} else if currentUser(r).IsAdmin() {
		list, err = s.bookings.All(r.Context())
	} else {
		err = errAdminOnly
	}
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, list)
}

func (s *Server) getBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	bk, err := s.bookings.Get(r.Context(), id)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	if user := currentUser(r); bk.UserID != user.ID && !user.IsAdmin() {
		writeError(s.logger, w, r, booking.ErrForbidden)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, bk)
}

func (s *Server) createBooking(w http.ResponseWriter, r *http.Request) {
	var in bookingRequest
	if err := decodeBody(r, &in); err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	bk, err := s.bookings.Create(r.Context(), currentUser(r).ID, in.ServiceID, in.Slot)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusCreated, bookingResponse{Message: "booking created", Booking: bk})
}

func (s *Server) cancelBooking(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	user := currentUser(r)
	if err := s.bookings.Cancel(r.Context(), id, user.ID, user.IsAdmin()); err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeMessage(s.logger, w, http.StatusOK, "booking cancelled")
}

func (s *Server) updateBookingStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	var in statusRequest
	if err := decodeBody(r, &in); err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	bk, err := s.bookings.UpdateStatus(r.Context(), id, in.Status)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, bookingResponse{Message: "status updated", Booking: bk})
}
