// Package history provides the recall ring for console sessions.
package history

import (
	"errors"
	"fmt"
	"strings"
)

// DefaultLength is the recall capacity used when none is configured.
const DefaultLength = 50

var (
	// ErrInvalidLength indicates the store was created with a non-positive capacity.
	ErrInvalidLength = errors.New("history length must be positive")
)

// Store is a fixed-capacity ring of committed statements plus one live
// slot that mirrors the text currently being edited at the prompt.
//
// The live slot doubles as the navigation prefix: Previous and Next only
// visit committed entries that start with its content, so typing "x" and
// pressing up walks only the statements that began with "x". Committed
// entries are never empty; an empty slot marks ring territory that has
// not been used yet.
//
// A Store is not safe for concurrent use. Sessions own their store and
// serialize access.
type Store struct {
	slots     []string
	active    int
	displayed int
}

// NewStore creates a store that retains up to capacity committed entries.
// It returns ErrInvalidLength when capacity is not positive.
func NewStore(capacity int) (*Store, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidLength, capacity)
	}
	// The arena holds one slot beyond capacity: the live slot is not
	// counted against the recallable entries.
	return &Store{slots: make([]string, capacity+1)}, nil
}

// Cap returns the configured recall capacity.
func (s *Store) Cap() int {
	return len(s.slots) - 1
}

// Len returns the number of committed entries currently retrievable.
func (s *Store) Len() int {
	n := 0
	for i, text := range s.slots {
		if i != s.active && text != "" {
			n++
		}
	}
	return n
}

// SetCurrent records text as the live in-progress entry. It overwrites
// the live slot without moving any index; the recorded text is the
// prefix constraint for subsequent navigation and the value Next
// returns to after recall.
func (s *Store) SetCurrent(text string) {
	s.slots[s.checked(s.active)] = text
}

// Current returns the live in-progress text.
func (s *Store) Current() string {
	return s.slots[s.checked(s.active)]
}

// Add commits text as a permanent entry, advances the live slot and
// resets navigation to it. Once the ring is full the oldest committed
// entry is reclaimed. Empty text is ignored: empty slots mark unused
// ring territory.
func (s *Store) Add(text string) {
	if text == "" {
		return
	}
	s.slots[s.checked(s.active)] = text
	s.active = s.step(s.active, 1)
	s.displayed = s.active
	// The new live slot starts as a fresh, empty edit buffer.
	s.slots[s.active] = ""
}

// Previous moves the displayed slot backward to the nearest older entry
// matching the live prefix and returns its content. It refuses to move
// past the oldest slot in the ring and returns the content at the
// current position when nothing older matches. It never fails.
func (s *Store) Previous() string {
	prefix := s.slots[s.checked(s.active)]
	oldest := s.step(s.active, 1)
	for i := s.displayed; i != oldest; {
		i = s.step(i, -1)
		if s.matches(i, prefix) {
			s.displayed = i
			break
		}
	}
	return s.slots[s.checked(s.displayed)]
}

// Next moves the displayed slot forward toward the live slot, skipping
// entries that do not match the live prefix, and returns the content at
// the new position. At the live slot it saturates and returns the
// in-progress text. It never fails.
func (s *Store) Next() string {
	prefix := s.slots[s.checked(s.active)]
	for i := s.displayed; i != s.active; {
		i = s.step(i, 1)
		if i == s.active || s.matches(i, prefix) {
			s.displayed = i
			break
		}
	}
	return s.slots[s.checked(s.displayed)]
}

// Entries returns the committed entries, newest first.
func (s *Store) Entries() []string {
	out := make([]string, 0, s.Cap())
	for i := s.step(s.active, -1); i != s.active; i = s.step(i, -1) {
		if s.slots[i] != "" {
			out = append(out, s.slots[i])
		}
	}
	return out
}

// matches reports whether the slot at i holds a committed entry that
// starts with prefix.
func (s *Store) matches(i int, prefix string) bool {
	text := s.slots[s.checked(i)]
	return text != "" && strings.HasPrefix(text, prefix)
}

// step moves i by delta positions around the ring.
func (s *Store) step(i, delta int) int {
	n := len(s.slots)
	return s.checked(((i+delta)%n + n) % n)
}

// checked panics when i is outside the arena. All ring positions come
// from explicit modulo arithmetic; an out-of-range index is state
// corruption, not a condition to recover from.
func (s *Store) checked(i int) int {
	if i < 0 || i >= len(s.slots) {
		panic(fmt.Sprintf("history: index %d outside arena of %d slots", i, len(s.slots)))
	}
	return i
}
