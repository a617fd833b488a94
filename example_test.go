package slotbook_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aretw0/slotbook"
	"github.com/aretw0/slotbook/pkg/booking"
	"github.com/aretw0/slotbook/pkg/core"
)

// Example_store shows the record store on its own: ids are assigned in
// order and updates keep them.
func Example_store() {
	tmpDir, err := os.MkdirTemp("", "slotbook-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	store, err := slotbook.Open(ctx, filepath.Join(tmpDir, "db.json"))
	if err != nil {
		log.Fatal(err)
	}

	first, err := store.CreateRecord(ctx, "notes", core.Record{"title": "first"})
	if err != nil {
		log.Fatal(err)
	}
	second, err := store.CreateRecord(ctx, "notes", core.Record{"title": "second", "id": 42})
	if err != nil {
		log.Fatal(err)
	}
	updated, found, err := store.UpdateRecord(ctx, "notes", 1, core.Record{"title": "renamed"})
	if err != nil || !found {
		log.Fatal(err)
	}

	fmt.Println(first["id"], second["id"])
	fmt.Println(updated["id"], updated["title"])
	// Output:
	// 1 2
	// 1 renamed
}

type Note struct {
	ID    core.ID `json:"id,omitempty"`
	Title string  `json:"title"`
}

// ExampleNewTyped maps a collection onto a struct.
func ExampleNewTyped() {
	tmpDir, err := os.MkdirTemp("", "slotbook-typed-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	store, err := slotbook.Open(ctx, filepath.Join(tmpDir, "db.json"))
	if err != nil {
		log.Fatal(err)
	}

	notes := slotbook.NewTyped[Note](store, "notes")
	created, err := notes.Create(ctx, Note{Title: "typed"})
	if err != nil {
		log.Fatal(err)
	}
	got, found, err := notes.Get(ctx, created.ID)
	if err != nil || !found {
		log.Fatal(err)
	}

	fmt.Printf("%d %s\n", got.ID, got.Title)
	// Output:
	// 1 typed
}

// Example_booking wires the full application and books a slot.
func Example_booking() {
	tmpDir, err := os.MkdirTemp("", "slotbook-app-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	ctx := context.Background()
	cfg := slotbook.DefaultConfig()
	cfg.DataPath = filepath.Join(tmpDir, "db.json")

	app, err := slotbook.New(ctx, cfg)
	if err != nil {
		log.Fatal(err)
	}

	room, err := app.Catalog.Create(ctx, booking.ServiceInput{
		Name:  "Room A",
		Type:  booking.ServiceRoom,
		Slots: []string{"2025-06-01 10:00", "2025-06-01 09:00"},
	})
	if err != nil {
		log.Fatal(err)
	}
	ada, err := app.Users.Register(ctx, booking.RegisterInput{
		Email: "ada@example.com", Password: "secret1", FirstName: "Ada", LastName: "Lovelace",
	})
	if err != nil {
		log.Fatal(err)
	}

	bk, err := app.Bookings.Create(ctx, ada.ID, room.ID, "2025-06-01 09:00")
	if err != nil {
		log.Fatal(err)
	}
	_, err = app.Bookings.Create(ctx, ada.ID, room.ID, "2025-06-01 09:00")
	free, _ := app.Catalog.AvailableSlots(ctx, room.ID)

	fmt.Println(bk.Slot, bk.Status)
	fmt.Println(err)
	fmt.Println(free)
	// Output:
	// 2025-06-01 09:00 confirmed
	// slot is already booked
	// [2025-06-01 10:00]
}
