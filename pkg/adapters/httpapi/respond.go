package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/aretw0/slotbook/pkg/booking"
	"github.com/aretw0/slotbook/pkg/core"
)

const maxBodyBytes = 1 << 20

// messageResponse is the envelope for acknowledgements and errors.
type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(logger *slog.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func writeMessage(logger *slog.Logger, w http.ResponseWriter, status int, message string) {
	writeJSON(logger, w, status, messageResponse{Message: message})
}

// writeError maps domain and store failures onto status codes. Unexpected
// errors are logged and hidden behind a generic message.
func writeError(logger *slog.Logger, w http.ResponseWriter, r *http.Request, err error) {
	var domain *booking.Error
	switch {
	case errors.As(err, &domain):
		writeMessage(logger, w, statusForKind(domain.Kind), domain.Message)
	case errors.Is(err, core.ErrInvalidID):
		writeMessage(logger, w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, core.ErrLockTimeout):
		logger.Warn("store busy", "path", r.URL.Path, "error", err, "request_id", requestID(r))
		w.Header().Set("Retry-After", "1")
		writeMessage(logger, w, http.StatusServiceUnavailable, "store is busy, try again")
	case errors.Is(err, context.Canceled):
		// client went away; nobody is reading
		logger.Debug("request cancelled", "path", r.URL.Path)
	default:
		logger.Error("request failed", "path", r.URL.Path, "error", err, "request_id", requestID(r))
		writeMessage(logger, w, http.StatusInternalServerError, "internal server error")
	}
}

func statusForKind(k booking.Kind) int {
	switch k {
	case booking.KindInvalid:
		return http.StatusBadRequest
	case booking.KindNotFound:
		return http.StatusNotFound
	case booking.KindConflict:
		return http.StatusConflict
	case booking.KindForbidden:
		return http.StatusForbidden
	case booking.KindUnauthorized:
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// decodeBody reads a JSON body into v. An empty body leaves v untouched.
func decodeBody(r *http.Request, v any) error {
	err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}
	return &booking.Error{Kind: booking.KindInvalid, Message: "invalid request body"}
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (core.ID, error) {
	return core.ParseID(mux.Vars(r)["id"])
}
