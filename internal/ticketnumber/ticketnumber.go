// Package ticketnumber allocates the human-readable ticket numbers shown
// to guests. Numbers follow TKT-<year>-<seq> with a zero-padded sequence
// that restarts each calendar year.
package ticketnumber

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// CounterStore yields the next sequence value for a year. Implementations
// must be atomic under concurrent allocation.
type CounterStore interface {
	Next(ctx context.Context, year int) (int64, error)
}

// Clock allows deterministic testing of year boundaries.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

// Allocator produces formatted ticket numbers.
type Allocator struct {
	store CounterStore
	clock Clock
}

// NewAllocator builds an allocator; a nil clock defaults to the system
// clock.
func NewAllocator(store CounterStore, clock Clock) *Allocator {
	if clock == nil {
		clock = systemClock{}
	}
	return &Allocator{store: store, clock: clock}
}

// Next allocates the next number for the current year.
func (a *Allocator) Next(ctx context.Context) (string, error) {
	year := a.clock.Now().Year()
	seq, err := a.store.Next(ctx, year)
	if err != nil {
		return "", fmt.Errorf("ticket number for %d: %w", year, err)
	}
	return Format(year, seq), nil
}

// Format renders a ticket number. The sequence is padded to three digits
// and grows naturally past 999.
func Format(year int, seq int64) string {
	return fmt.Sprintf("TKT-%04d-%03d", year, seq)
}

var numberPattern = regexp.MustCompile(`^TKT-(\d{4})-(\d{3,})$`)

// Parse splits a ticket number into year and sequence.
func Parse(number string) (year int, seq int64, err error) {
	m := numberPattern.FindStringSubmatch(number)
	if m == nil {
		return 0, 0, fmt.Errorf("malformed ticket number %q", number)
	}
	year, _ = strconv.Atoi(m[1])
	seq, _ = strconv.ParseInt(m[2], 10, 64)
	return year, seq, nil
}

// Valid reports whether the string is a well-formed ticket number.
func Valid(number string) bool {
	return numberPattern.MatchString(number)
}
