package fs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/slotbook/pkg/core"
)

func nextEvent(t *testing.T, events <-chan core.Event) core.Event {
	t.Helper()
	select {
	case e, ok := <-events:
		require.True(t, ok, "event channel closed")
		return e
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
	}
	return core.Event{}
}

func TestStore_Watch(t *testing.T) {
	s := newTestStore(t, "db.json")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, s.Initialize(ctx))
	events, err := s.Watch(ctx, "services")
	require.NoError(t, err)
	assert.True(t, s.Snapshot().WatcherActive)

	// Writes outside the pattern produce nothing.
	_, err = s.CreateRecord(ctx, core.CollectionUsers, core.Record{"name": "ada"})
	require.NoError(t, err)

	_, err = s.CreateRecord(ctx, core.CollectionServices, core.Record{"name": "Room A"})
	require.NoError(t, err)
	e := nextEvent(t, events)
	assert.Equal(t, core.EventCreate, e.Type)
	assert.Equal(t, "services", e.Collection)
	assert.Equal(t, core.ID(1), e.ID)

	_, _, err = s.UpdateRecord(ctx, core.CollectionServices, 1, core.Record{"name": "Room B"})
	require.NoError(t, err)
	e = nextEvent(t, events)
	assert.Equal(t, core.EventModify, e.Type)

	// A second process writing the same file is observed too.
	other := NewStore(Config{Path: s.Path, Logger: s.config.Logger})
	_, err = other.DeleteRecord(ctx, core.CollectionServices, 1)
	require.NoError(t, err)
	e = nextEvent(t, events)
	assert.Equal(t, core.EventDelete, e.Type)
	assert.Equal(t, core.ID(1), e.ID)

	cancel()
	for range events {
	}
	assert.Eventually(t, func() bool { return !s.Snapshot().WatcherActive }, time.Second, 10*time.Millisecond)
}

func TestStore_WatchInvalidPattern(t *testing.T) {
	s := newTestStore(t, "db.json")
	_, err := s.Watch(context.Background(), "[")
	assert.Error(t, err)
}

func TestDiffDocuments(t *testing.T) {
	before := core.Document{
		"services": {{"id": int64(1), "name": "a"}, {"id": int64(2), "name": "b"}},
		"users":    {{"id": int64(1)}},
	}
	after := core.Document{
		"services": {{"id": int64(2), "name": "changed"}, {"id": int64(3), "name": "c"}},
		"users":    {{"id": int64(1)}},
		"reviews":  {{"id": int64(1)}},
	}
	at := time.Unix(1700000000, 0)

	got, err := diffDocuments(before, after, "*", at)
	require.NoError(t, err)
	assert.Equal(t, []core.Event{
		{Type: core.EventCreate, Collection: "reviews", ID: 1, Timestamp: at.Unix()},
		{Type: core.EventDelete, Collection: "services", ID: 1, Timestamp: at.Unix()},
		{Type: core.EventModify, Collection: "services", ID: 2, Timestamp: at.Unix()},
		{Type: core.EventCreate, Collection: "services", ID: 3, Timestamp: at.Unix()},
	}, got)

	got, err = diffDocuments(before, after, "user*", at)
	require.NoError(t, err)
	assert.Empty(t, got)
}
