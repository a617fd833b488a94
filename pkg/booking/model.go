package booking

import (
	"time"

	"github.com/aretw0/slotbook/pkg/core"
)

// sessions live in an ad-hoc collection next to the default three.
const collectionSessions = "sessions"

type ServiceType string

const (
	ServiceRoom      ServiceType = "room"
	ServiceEquipment ServiceType = "equipment"
	ServiceOther     ServiceType = "other"
)

func (t ServiceType) Valid() bool {
	switch t {
	case ServiceRoom, ServiceEquipment, ServiceOther:
		return true
	}
	return false
}

// Service is a bookable resource with its offered slots, kept sorted.
type Service struct {
	ID          core.ID     `json:"id,omitempty"`
	Name        string      `json:"name"`
	Type        ServiceType `json:"type"`
	Description string      `json:"description"`
	Slots       []string    `json:"slots"`
	CreatedAt   string      `json:"createdAt,omitempty"`
	UpdatedAt   string      `json:"updatedAt,omitempty"`
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the public view of an account. It never carries the password.
type User struct {
	ID        core.ID `json:"id,omitempty"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Role      Role    `json:"role"`
	CreatedAt string  `json:"createdAt,omitempty"`
	UpdatedAt string  `json:"updatedAt,omitempty"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// userRecord is the stored form, holding the bcrypt hash.
type userRecord struct {
	User
	Password string `json:"password"`
}

type Status string

const (
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

func (s Status) Valid() bool {
	switch s {
	case StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Booking reserves one slot of one service for one user. Service and User
// are filled in on listings and never stored.
type Booking struct {
	ID        core.ID         `json:"id,omitempty"`
	UserID    core.ID         `json:"userId"`
	ServiceID core.ID         `json:"serviceId"`
	Slot      string          `json:"slot"`
	Status    Status          `json:"status"`
	CreatedAt string          `json:"createdAt,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
	Service   *ServiceSummary `json:"service,omitempty"`
	User      *UserSummary    `json:"user,omitempty"`
}

type ServiceSummary struct {
	ID   core.ID     `json:"id"`
	Name string      `json:"name"`
	Type ServiceType `json:"type"`
}

type UserSummary struct {
	ID        core.ID `json:"id"`
	Email     string  `json:"email"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
}

// Session is what a successful login hands back.
type Session struct {
	Token     string    `json:"token"`
	User      User      `json:"user"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type sessionRecord struct {
	ID        core.ID `json:"id,omitempty"`
	Token     string  `json:"token"`
	UserID    core.ID `json:"userId"`
	ExpiresAt string  `json:"expiresAt"`
	CreatedAt string  `json:"createdAt,omitempty"`
}
