// Package memstore provides an in-memory catalog.Store. Records keep their
// insertion order, which makes search results stable. Faults can be
// injected per operation for exercising failure paths.
package memstore

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"pricecatalog/catalog"
)

// ErrNotFound is returned for unknown ids.
var ErrNotFound = errors.New("memstore: record not found")

// Store is an in-memory catalog.Store. The zero value is not usable; call New.
type Store struct {
	mu      sync.Mutex
	records []catalog.PriceRecord
	byKey   map[string]string
	now     func() time.Time

	searchErr   error
	createErr   error
	deleteErrs  map[string]error
	deleteDelay time.Duration
	calls       map[string]int
}

// New returns a store holding a copy of records. Records without an id get
// one assigned.
func New(records ...catalog.PriceRecord) *Store {
	s := &Store{
		byKey:      make(map[string]string),
		deleteErrs: make(map[string]error),
		calls:      make(map[string]int),
		now:        time.Now,
	}
	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = newID()
		}
		s.records = append(s.records, rec)
	}
	return s
}

// FailSearch makes every Search return err until called again with nil.
func (s *Store) FailSearch(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchErr = err
}

// FailCreate makes every Create return err until called again with nil.
func (s *Store) FailCreate(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createErr = err
}

// FailDelete makes deletes of id return err.
func (s *Store) FailDelete(id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteErrs[id] = err
}

// DelayDeletes makes each Delete wait d before acting, honouring the
// context deadline.
func (s *Store) DelayDeletes(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteDelay = d
}

// Calls returns how many times op ("search", "create", "update", "delete")
// was invoked.
func (s *Store) Calls(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// Records returns a copy of everything stored.
func (s *Store) Records() []catalog.PriceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]catalog.PriceRecord(nil), s.records...)
}

func (s *Store) Search(ctx context.Context, f catalog.Filter) ([]catalog.PriceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["search"]++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return catalog.Select(s.records, f), nil
}

func (s *Store) Create(ctx context.Context, rec catalog.PriceRecord, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["create"]++

	if err := ctx.Err(); err != nil {
		return err
	}
	if s.createErr != nil {
		return s.createErr
	}
	if err := catalog.ValidateRecord(rec); err != nil {
		return err
	}
	if idempotencyKey != "" {
		if _, ok := s.byKey[idempotencyKey]; ok {
			return nil
		}
	}

	rec.ID = newID()
	rec.CreatedAt = s.now().UTC().Format(time.RFC3339)
	rec.IRCReference = catalog.NormalizeReferences(rec.IRCReference)
	s.records = append(s.records, rec)
	if idempotencyKey != "" {
		s.byKey[idempotencyKey] = rec.ID
	}
	return nil
}

func (s *Store) Update(ctx context.Context, patches []catalog.Patch) ([]catalog.UpdateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls["update"]++

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	results := make([]catalog.UpdateResult, 0, len(patches))
	for _, p := range patches {
		i := s.indexOf(p.ID)
		switch {
		case i < 0:
			results = append(results, catalog.UpdateResult{ID: p.ID, Error: ErrNotFound.Error()})
		case p.Validate() != nil:
			results = append(results, catalog.UpdateResult{ID: p.ID, Error: p.Validate().Error()})
		default:
			s.records[i] = p.Apply(s.records[i])
			results = append(results, catalog.UpdateResult{ID: p.ID, OK: true})
		}
	}
	return results, nil
}

func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delay := s.deleteDelay
	s.calls["delete"]++
	s.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	if err, ok := s.deleteErrs[id]; ok {
		return err
	}
	i := s.indexOf(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return nil
}

func (s *Store) indexOf(id string) int {
	for i, rec := range s.records {
		if rec.ID == id {
			return i
		}
	}
	return -1
}

func newID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
