package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stayhub/service-desk/internal/domain"
)

// TicketCommentRepository persists ticket comments. Comments are
// immutable: there is no update or delete path.
type TicketCommentRepository interface {
	Create(ctx context.Context, comment *domain.TicketComment) error
	ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error)
}

type ticketCommentRepository struct {
	pool *pgxpool.Pool
}

// NewTicketCommentRepository constructs repository.
func NewTicketCommentRepository(pool *pgxpool.Pool) TicketCommentRepository {
	return &ticketCommentRepository{pool: pool}
}

func (r *ticketCommentRepository) Create(ctx context.Context, comment *domain.TicketComment) error {
	const query = `
        INSERT INTO ticket_comments (ticket_id, author_id, body, is_internal)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		comment.TicketID,
		comment.AuthorID,
		comment.Body,
		comment.IsInternal,
	).Scan(&comment.ID, &comment.CreatedAt)
}

func (r *ticketCommentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.TicketComment, error) {
	const query = `
        SELECT c.id, c.ticket_id, c.author_id, u.name, c.body, c.is_internal, c.created_at
        FROM ticket_comments c
        JOIN users u ON u.id = c.author_id
        WHERE c.ticket_id=$1
        ORDER BY c.created_at ASC`
	rows, err := r.pool.Query(ctx, query, ticketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TicketComment
	for rows.Next() {
		var comment domain.TicketComment
		if err := rows.Scan(
			&comment.ID,
			&comment.TicketID,
			&comment.AuthorID,
			&comment.AuthorName,
			&comment.Body,
			&comment.IsInternal,
			&comment.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, comment)
	}
	return result, rows.Err()
}
