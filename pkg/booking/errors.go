package booking

import (
	"errors"
	"fmt"
)

// Kind classifies domain failures so transports can map them to their own
// status codes.
type Kind int

const (
	KindInvalid Kind = iota + 1
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	}
	return "unknown"
}

// Error is a domain failure with a user-facing message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

var (
	ErrServiceNotFound = &Error{KindNotFound, "service not found"}
	ErrBookingNotFound = &Error{KindNotFound, "booking not found"}
	ErrUserNotFound    = &Error{KindNotFound, "user not found"}

	ErrSlotExists         = &Error{KindConflict, "slot already exists"}
	ErrSlotBooked         = &Error{KindConflict, "slot is already booked"}
	ErrUserSlotConflict   = &Error{KindConflict, "you already have a booking in this slot"}
	ErrServiceHasBookings = &Error{KindConflict, "cannot delete a service with active bookings"}
	ErrEmailTaken         = &Error{KindConflict, "a user with this email already exists"}

	ErrSlotUnknown = &Error{KindInvalid, "slot does not exist for this service"}

	ErrInvalidCredentials = &Error{KindUnauthorized, "invalid email or password"}
	ErrSessionNotFound    = &Error{KindUnauthorized, "invalid session"}
	ErrSessionExpired     = &Error{KindUnauthorized, "session expired"}

	ErrForbidden = &Error{KindForbidden, "not allowed to modify this booking"}
)

func invalidf(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the Kind of a domain error, or 0 for anything else.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
