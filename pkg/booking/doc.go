// Package booking implements the reservation domain on top of a
// core.Repository: the service catalog with its slots, user accounts with
// login sessions, and bookings.
//
// Failures the caller can act on are *Error values carrying a Kind.
// Anything else (lock timeouts, unreadable store) comes from the store
// unchanged and should be matched with errors.Is against the core sentinels.
package booking
