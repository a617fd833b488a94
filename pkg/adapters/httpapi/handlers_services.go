package httpapi

import (
	"net/http"

	"github.com/aretw0/slotbook/pkg/booking"
)

type serviceResponse struct {
	Message string          `json:"message"`
	Service booking.Service `json:"service"`
}

type slotRequest struct {
	Slot string `json:"slot"`
}

func (s *Server) listServices(w http.ResponseWriter, r *http.Request) {
	list, err := s.catalog.List(r.Context())
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, list)
}

func (s *Server) getService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	svc, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, svc)
}

func (s *Server) availableSlots(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	slots, err := s.catalog.AvailableSlots(r.Context(), id)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, slots)
}

func (s *Server) createService(w http.ResponseWriter, r *http.Request) {
	var in booking.ServiceInput
	if err := decodeBody(r, &in); err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	svc, err := s.catalog.Create(r.Context(), in)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusCreated, serviceResponse{Message: "service created", Service: svc})
}

func (s *Server) updateService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	var patch booking.ServicePatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	svc, err := s.catalog.Update(r.Context(), id, patch)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeJSON(s.logger, w, http.StatusOK, serviceResponse{Message: "service updated", Service: svc})
}

func (s *Server) deleteService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	if err := s.catalog.Delete(r.Context(), id); err != nil {
		writeError(s.logger, w, r, err)
		return
	}
	writeMessage(s.logger, w, http.StatusOK, "service deleted")
}

// editSlot handles both POST and DELETE on /services/{id}/slots.
func (s *Server) editSlot(add bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(s.logger, w, r, err)
			return
		}
		var in slotRequest
		if err := decodeBody(r, &in); err != nil {
			writeError(s.logger, w, r, err)
			return
		}

		var svc booking.Service
		msg := "slot added"
		if add {
			svc, err = s.catalog.AddSlot(r.Context(), id, in.Slot)
		} else {
			msg = "slot removed"
			svc, err = s.catalog.RemoveSlot(r.Context(), id, in.Slot)
		}
		if err != nil {
			writeError(s.logger, w, r, err)
			return
		}
		writeJSON(s.logger, w, http.StatusOK, serviceResponse{Message: msg, Service: svc})
	}
}
