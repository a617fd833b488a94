// Package slotbook is the composition root for the slotbook booking platform.
//
// At its core sits an embedded record store: one JSON (or YAML) document on
// disk holding named collections of records, guarded by a cooperative lock
// file so several goroutines or processes can share it. Every operation
// locks, reads the whole document, optionally rewrites it atomically and
// unlocks. Records get auto-increment ids and createdAt/updatedAt stamps.
//
// On top of the store the booking package models services with bookable
// time slots, users with sessions and roles, and the bookings themselves.
// The httpapi adapter serves it all over HTTP.
//
// Usage:
//
//	cfg, err := slotbook.LoadConfig("")
//	app, err := slotbook.New(ctx, cfg, slotbook.WithLogger(logger))
//
//	svc, err := app.Catalog.Create(ctx, booking.ServiceInput{
//		Name:  "Room A",
//		Type:  booking.ServiceRoom,
//		Slots: []string{"2025-06-01 09:00"},
//	})
//
//	err = app.Server(slotbook.Version).ListenAndServe()
//
// The store can also be used alone:
//
//	store, err := slotbook.Open(ctx, "data/db.json")
//	rec, err := store.CreateRecord(ctx, "notes", core.Record{"title": "hi"})
package slotbook
