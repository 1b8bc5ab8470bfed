// Package idgen provides the record id strategies: a monotonic integer
// sequence, UUID v7, and ULID. All produce ids that sort in creation order
// under types.CompareIDs.
package idgen

import (
	"crypto/rand"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"github.com/mesh-intelligence/backoffice/pkg/types"
)

// Generator hands out new record ids. Generators never repeat an id they
// returned; callers still check ids against their store.
type Generator interface {
	NewID() (string, error)
}

// New returns the generator for strategy. existing seeds the sequence so
// that it starts above every numeric id already in use.
func New(strategy string, existing []string) (Generator, error) {
	switch strategy {
	case "", types.IDSequence:
		return NewSequence(existing...), nil
	case types.IDUUID:
		return UUID{}, nil
	case types.IDULID:
		return NewULID(), nil
	}
	return nil, fmt.Errorf("%w: %q", types.ErrIDStrategyUnknown, strategy)
}

// Sequence issues increasing decimal ids.
type Sequence struct {
	mu   sync.Mutex
	next int64
}

// NewSequence starts after the largest numeric id in existing.
func NewSequence(existing ...string) *Sequence {
	s := &Sequence{next: 1}
	s.Observe(existing...)
	return s
}

// Observe moves the sequence past any numeric id in ids.
func (s *Sequence) Observe(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		n, err := strconv.ParseInt(id, 10, 64)
		if err == nil && n >= s.next {
			s.next = n + 1
		}
	}
}

// NewID returns the next number.
func (s *Sequence) NewID() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.next
	s.next++
	return strconv.FormatInt(id, 10), nil
}

// UUID issues UUID v7 ids.
type UUID struct{}

// NewID generates a UUID v7, falling back to v4 if v7 generation fails.
func (UUID) NewID() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New().String(), nil
	}
	return id.String(), nil
}

// ULID issues monotonic ULIDs.
type ULID struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// NewULID returns a ULID generator seeded from crypto/rand.
func NewULID() *ULID {
	return &ULID{entropy: ulid.Monotonic(rand.Reader, 0)}
}

// NewID returns a ULID that sorts after every previous one from g.
func (g *ULID) NewID() (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(time.Now()), g.entropy)
	if err != nil {
		return "", fmt.Errorf("generating ULID: %w", err)
	}
	return id.String(), nil
}
