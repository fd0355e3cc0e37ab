package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stayhub/service-desk/internal/domain"
)

// TicketHistoryRepository reads audit entries. Writes happen inside the
// ticket repository's transactions so a mutation and its audit row commit
// together.
type TicketHistoryRepository interface {
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error)
}

type ticketHistoryRepository struct {
	pool *pgxpool.Pool
}

// NewTicketHistoryRepository builds repository.
func NewTicketHistoryRepository(pool *pgxpool.Pool) TicketHistoryRepository {
	return &ticketHistoryRepository{pool: pool}
}

func (r *ticketHistoryRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketHistory, error) {
	const query = `
        SELECT id, ticket_id, field, old_value, new_value, actor_id, reason, created_at
        FROM ticket_history WHERE ticket_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketHistory
	for rows.Next() {
		var entry domain.TicketHistory
		if err := rows.Scan(
			&entry.ID,
			&entry.TicketID,
			&entry.Field,
			&entry.OldValue,
			&entry.NewValue,
			&entry.ActorID,
			&entry.Reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
