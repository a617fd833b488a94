package fs

import (
	"fmt"
	"os"
	"time"

	"github.com/aretw0/slotbook/pkg/core"
)

// readDocument loads the store file. A missing file is initialized with the
// default collections and persisted before returning. Callers must hold the
// lock.
func (s *Store) readDocument() (core.Document, error) {
	data, err := os.ReadFile(s.Path)
	if os.IsNotExist(err) {
		doc := core.NewDocument()
		if err := s.writeDocument(doc); err != nil {
			return nil, err
		}
		s.logger().Info("initialized store", "path", s.Path)
		return doc, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrStoreUnreadable, s.Path, err)
	}

	doc, err := s.serializer.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrStoreUnreadable, s.Path, err)
	}
	return doc, nil
}

// writeDocument persists the whole document atomically. Callers must hold
// the lock.
func (s *Store) writeDocument(doc core.Document) error {
	data, err := s.serializer.Encode(doc)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrStoreUnwritable, s.Path, err)
	}
	if err := writeFileAtomic(s.Path, data, 0644); err != nil {
		return fmt.Errorf("%w: %s: %v", core.ErrStoreUnwritable, s.Path, err)
	}

	s.writes.Add(1)
	s.mu.Lock()
	now := time.Now()
	s.lastWrite = &now
	s.mu.Unlock()
	return nil
}
