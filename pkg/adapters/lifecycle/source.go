// Package lifecycle exposes store change events as a lifecycle.Source.
package lifecycle

import (
	"context"
	"fmt"

	"github.com/aretw0/lifecycle"

	"github.com/aretw0/slotbook/pkg/core"
)

type storeSource struct {
	store   core.Watchable
	pattern string
	out     chan lifecycle.Event
}

// NewSource returns a Source that watches collections matching pattern
// once started. core.Event satisfies lifecycle.Event through String.
func NewSource(store core.Watchable, pattern string) lifecycle.Source {
	return &storeSource{
		store:   store,
		pattern: pattern,
		out:     make(chan lifecycle.Event),
	}
}

func (s *storeSource) Events() <-chan lifecycle.Event {
	return s.out
}

// Start subscribes to the store and forwards events until ctx is done or
// the store closes the stream. Events closes afterwards.
func (s *storeSource) Start(ctx context.Context) error {
	events, err := s.store.Watch(ctx, s.pattern)
	if err != nil {
		close(s.out)
		return fmt.Errorf("watch %q: %w", s.pattern, err)
	}

	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-events:
				if !ok {
					return nil
				}
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
