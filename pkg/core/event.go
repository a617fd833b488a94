package core

import "fmt"

// EventType represents the kind of change observed in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to one record.
type Event struct {
	Type       EventType `json:"type"`
	Collection string    `json:"collection"`
	ID         ID        `json:"id"`
	Timestamp  int64     `json:"timestamp"` // Unix timestamp
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s/%d", e.Type, e.Collection, e.ID)
}
