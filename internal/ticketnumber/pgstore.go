package ticketnumber

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PGCounterStore backs the allocator with a per-year counter row. The
// single upsert-and-return statement makes concurrent allocation safe:
// the database serializes the increment, so no two callers observe the
// same value.
type PGCounterStore struct {
	pool *pgxpool.Pool
}

// NewPGCounterStore constructs the store.
func NewPGCounterStore(pool *pgxpool.Pool) *PGCounterStore {
	return &PGCounterStore{pool: pool}
}

// Next returns the next sequence value for the year.
func (s *PGCounterStore) Next(ctx context.Context, year int) (int64, error) {
	const query = `
        INSERT INTO ticket_number_counters (year, counter)
        VALUES ($1, 1)
        ON CONFLICT (year) DO UPDATE SET counter = ticket_number_counters.counter + 1
        RETURNING counter`
	var counter int64
	if err := s.pool.QueryRow(ctx, query, year).Scan(&counter); err != nil {
		return 0, err
	}
	return counter, nil
}
