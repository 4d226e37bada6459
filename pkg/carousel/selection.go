// Package carousel implements the selection state and the rotation timer
// behind a card carousel: an index into a fixed sequence of cards that
// advances on a timer and can be overridden by the user.
package carousel

import (
	"errors"
	"fmt"
)

// Common carousel errors.
var (
	ErrEmpty      = errors.New("carousel: at least one card is required")
	ErrOutOfRange = errors.New("carousel: index out of range")
	ErrInterval   = errors.New("carousel: interval must be positive")
)

// Selection is the active index into a fixed, ordered sequence of cards.
// The index always stays in [0, Len()).
//
// A Selection is owned by a single event loop and is not safe for
// concurrent use.
type Selection struct {
	index int
	n     int
}

// New creates a selection over n cards with the first card active.
func New(n int) (*Selection, error) {
	if n < 1 {
		return nil, ErrEmpty
	}
	return &Selection{n: n}, nil
}

// Index returns the active index.
func (s *Selection) Index() int {
	return s.index
}

// Len returns the fixed card count.
func (s *Selection) Len() int {
	return s.n
}

// Advance moves to the next card, wrapping to the first after the last.
// It returns the new index.
func (s *Selection) Advance() int {
	s.index = (s.index + 1) % s.n
	return s.index
}

// Select makes card i active. Out-of-range targets leave the selection
// unchanged.
func (s *Selection) Select(i int) error {
	if i < 0 || i >= s.n {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, i, s.n)
	}
	s.index = i
	return nil
}

// IsActive reports whether card i is the active one.
func (s *Selection) IsActive(i int) bool {
	return i == s.index
}

// Marks returns one flag per card; exactly one is true.
func (s *Selection) Marks() []bool {
	marks := make([]bool, s.n)
	marks[s.index] = true
	return marks
}
