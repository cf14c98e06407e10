// Package store holds decoded packets in arrival order.
package store

import (
	"fmt"
	"iter"

	"firestige.xyz/zerg/internal/core"
	"firestige.xyz/zerg/internal/zerg"
)

// DefaultCapacity is the number of slots a new store starts with.
const DefaultCapacity = 5

// Store is an append-only, insertion-ordered packet collection. Capacity
// doubles when full, so N appends cost O(log N) reallocations.
//
// Store is not safe for concurrent use.
type Store struct {
	records []zerg.Packet
	limit   int
	grows   int
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity sets the initial capacity.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.records = make([]zerg.Packet, 0, n)
		}
	}
}

// WithLimit caps the number of records; Append fails with core.ErrStoreFull
// once it is reached. Zero means unlimited.
func WithLimit(n int) Option {
	return func(s *Store) {
		s.limit = n
	}
}

// New returns an empty store.
func New(opts ...Option) *Store {
	s := &Store{records: make([]zerg.Packet, 0, DefaultCapacity)}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append adds p after every record already stored.
func (s *Store) Append(p zerg.Packet) error {
	if s.limit > 0 && len(s.records) >= s.limit {
		return fmt.Errorf("limit %d: %w", s.limit, core.ErrStoreFull)
	}
	if len(s.records) == cap(s.records) {
		s.grow()
	}
	s.records = append(s.records, p)
	return nil
}

func (s *Store) grow() {
	n := cap(s.records) * 2
	if n == 0 {
		n = DefaultCapacity
	}
	if s.limit > 0 && n > s.limit {
		n = s.limit
	}
	records := make([]zerg.Packet, len(s.records), n)
	copy(records, s.records)
	s.records = records
	s.grows++
}

// Len returns the number of stored records.
func (s *Store) Len() int { return len(s.records) }

// Cap returns the current capacity.
func (s *Store) Cap() int { return cap(s.records) }

// Grows returns how many times the backing array was reallocated.
func (s *Store) Grows() int { return s.grows }

// At returns the i-th record.
func (s *Store) At(i int) zerg.Packet { return s.records[i] }

// All yields the records in insertion order.
func (s *Store) All() iter.Seq2[int, zerg.Packet] {
	return func(yield func(int, zerg.Packet) bool) {
		for i, p := range s.records {
			if !yield(i, p) {
				return
			}
		}
	}
}

// Release drops every record together with the payload it owns. The store
// can be reused afterwards.
func (s *Store) Release() {
	clear(s.records)
	s.records = make([]zerg.Packet, 0, DefaultCapacity)
	s.grows = 0
}
