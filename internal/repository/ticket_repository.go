package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stayhub/service-desk/internal/domain"
)

// VisibilityScope narrows listings to what a role may see. For staff
// roles the three conditions combine with OR: own assignments, the desk's
// service type, and unclaimed open tickets.
type VisibilityScope struct {
	RequesterID *string
	AssigneeID  *string
	ServiceType *domain.ServiceType
	IncludeOpen bool
}

// TicketFilter captures listing parameters. Scope applies before any
// other filter; the rest AND-combine.
type TicketFilter struct {
	Scope       *VisibilityScope
	Search      *string
	Status      *domain.TicketStatus
	Priority    *domain.TicketPriority
	ServiceType *domain.ServiceType
	Category    *domain.TicketCategory
	RequesterID *string
	AssigneeID  *string
	BookingID   *string
	RoomID      *string
	HotelID     *string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	DueFrom     *time.Time
	DueTo       *time.Time
	SortBy      string
	SortDesc    bool
	Page        int
	PageSize    int
}

// TicketStatistics aggregates counts for reporting.
type TicketStatistics struct {
	Total             int64
	ByStatus          map[domain.TicketStatus]int64
	ByPriority        map[domain.TicketPriority]int64
	ByServiceType     map[domain.ServiceType]int64
	ByCategory        map[domain.TicketCategory]int64
	ResolvedCount     int64
	AvgResolutionDays float64
}

// TicketRepository encapsulates ticket persistence. The WithHistory
// variants write the ticket row and its audit entries in one transaction;
// a ticket mutation without its history row must never be observable.
type TicketRepository interface {
	CreateWithHistory(ctx context.Context, ticket *domain.Ticket, entries []domain.TicketHistory) error
	UpdateWithHistory(ctx context.Context, ticket *domain.Ticket, entries []domain.TicketHistory) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error)
	Delete(ctx context.Context, id string) error
	Stats(ctx context.Context, from, to *time.Time) (*TicketStatistics, error)
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

// IsUniqueViolation reports whether the error is a unique-constraint
// conflict (used to retry ticket number allocation).
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

const ticketColumns = `id, ticket_number, requester_id, assignee_id, booking_id, room_id, hotel_id,
               title, description, service_type, category, sub_category, status, priority,
               risk_level, impact, due_date, resolved_at, closed_at, resolution, work_notes,
               created_at, updated_at`

func (r *ticketRepository) CreateWithHistory(ctx context.Context, ticket *domain.Ticket, entries []domain.TicketHistory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        INSERT INTO tickets (ticket_number, requester_id, assignee_id, booking_id, room_id, hotel_id,
                             title, description, service_type, category, sub_category, status, priority,
                             risk_level, impact, due_date, resolution, work_notes)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		ticket.TicketNumber,
		ticket.RequesterID,
		ticket.AssigneeID,
		ticket.BookingID,
		ticket.RoomID,
		ticket.HotelID,
		ticket.Title,
		ticket.Description,
		ticket.ServiceType,
		ticket.Category,
		ticket.SubCategory,
		ticket.Status,
		ticket.Priority,
		ticket.RiskLevel,
		ticket.Impact,
		ticket.DueDate,
		ticket.Resolution,
		ticket.WorkNotes,
	).Scan(&ticket.ID, &ticket.CreatedAt, &ticket.UpdatedAt); err != nil {
		return err
	}

	if err := insertHistory(ctx, tx, ticket.ID, entries); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (r *ticketRepository) UpdateWithHistory(ctx context.Context, ticket *domain.Ticket, entries []domain.TicketHistory) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const query = `
        UPDATE tickets SET assignee_id=$1, title=$2, description=$3, sub_category=$4, status=$5,
            priority=$6, risk_level=$7, impact=$8, due_date=$9, resolved_at=$10, closed_at=$11,
            resolution=$12, work_notes=$13, updated_at=NOW()
        WHERE id=$14`
	cmd, err := tx.Exec(ctx, query,
		ticket.AssigneeID,
		ticket.Title,
		ticket.Description,
		ticket.SubCategory,
		ticket.Status,
		ticket.Priority,
		ticket.RiskLevel,
		ticket.Impact,
		ticket.DueDate,
		ticket.ResolvedAt,
		ticket.ClosedAt,
		ticket.Resolution,
		ticket.WorkNotes,
		ticket.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}

	if err := insertHistory(ctx, tx, ticket.ID, entries); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func insertHistory(ctx context.Context, tx pgx.Tx, ticketID string, entries []domain.TicketHistory) error {
	const query = `
        INSERT INTO ticket_history (ticket_id, field, old_value, new_value, actor_id, reason)
        VALUES ($1,$2,$3,$4,$5,$6)`
	for i := range entries {
		entries[i].TicketID = ticketID
		if _, err := tx.Exec(ctx, query,
			ticketID,
			entries[i].Field,
			entries[i].OldValue,
			entries[i].NewValue,
			entries[i].ActorID,
			entries[i].Reason,
		); err != nil {
			return err
		}
	}
	return nil
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE id=$1`, ticketColumns)
	var ticket domain.Ticket
	if err := scanTicket(r.pool.QueryRow(ctx, query, id), &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

// sortColumns whitelists sortable fields to their column names.
var sortColumns = map[string]string{
	"priority":  "priority",
	"status":    "status",
	"dueDate":   "due_date",
	"title":     "title",
	"createdAt": "created_at",
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, int64, error) {
	clauses := []string{"1=1"}
	args := []any{}

	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if scope := filter.Scope; scope != nil {
		or := []string{}
		if scope.RequesterID != nil {
			or = append(or, fmt.Sprintf("requester_id=%s", arg(*scope.RequesterID)))
		}
		if scope.AssigneeID != nil {
			or = append(or, fmt.Sprintf("assignee_id=%s", arg(*scope.AssigneeID)))
		}
		if scope.ServiceType != nil {
			or = append(or, fmt.Sprintf("service_type=%s", arg(*scope.ServiceType)))
		}
		if scope.IncludeOpen {
			or = append(or, fmt.Sprintf("status=%s", arg(domain.TicketStatusOpen)))
		}
		if len(or) > 0 {
			clauses = append(clauses, "("+strings.Join(or, " OR ")+")")
		}
	}

	if filter.Status != nil {
		clauses = append(clauses, fmt.Sprintf("status=%s", arg(*filter.Status)))
	}
	if filter.Priority != nil {
		clauses = append(clauses, fmt.Sprintf("priority=%s", arg(*filter.Priority)))
	}
	if filter.ServiceType != nil {
		clauses = append(clauses, fmt.Sprintf("service_type=%s", arg(*filter.ServiceType)))
	}
	if filter.Category != nil {
		clauses = append(clauses, fmt.Sprintf("category=%s", arg(*filter.Category)))
	}
	if filter.RequesterID != nil {
		clauses = append(clauses, fmt.Sprintf("requester_id=%s", arg(*filter.RequesterID)))
	}
	if filter.AssigneeID != nil {
		clauses = append(clauses, fmt.Sprintf("assignee_id=%s", arg(*filter.AssigneeID)))
	}
	if filter.BookingID != nil {
		clauses = append(clauses, fmt.Sprintf("booking_id=%s", arg(*filter.BookingID)))
	}
	if filter.RoomID != nil {
		clauses = append(clauses, fmt.Sprintf("room_id=%s", arg(*filter.RoomID)))
	}
	if filter.HotelID != nil {
		clauses = append(clauses, fmt.Sprintf("hotel_id=%s", arg(*filter.HotelID)))
	}
	if filter.CreatedFrom != nil {
		clauses = append(clauses, fmt.Sprintf("created_at >= %s", arg(*filter.CreatedFrom)))
	}
	if filter.CreatedTo != nil {
		clauses = append(clauses, fmt.Sprintf("created_at <= %s", arg(*filter.CreatedTo)))
	}
	if filter.DueFrom != nil {
		clauses = append(clauses, fmt.Sprintf("due_date >= %s", arg(*filter.DueFrom)))
	}
	if filter.DueTo != nil {
		clauses = append(clauses, fmt.Sprintf("due_date <= %s", arg(*filter.DueTo)))
	}
	if filter.Search != nil && strings.TrimSpace(*filter.Search) != "" {
		search := "%" + strings.ToLower(strings.TrimSpace(*filter.Search)) + "%"
		placeholder := arg(search)
		clauses = append(clauses, fmt.Sprintf(
			"(LOWER(title) LIKE %s OR LOWER(description) LIKE %s OR LOWER(ticket_number) LIKE %s)",
			placeholder, placeholder, placeholder))
	}

	where := strings.Join(clauses, " AND ")

	var total int64
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, where)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	sortCol, ok := sortColumns[filter.SortBy]
	if !ok {
		sortCol = "created_at"
	}
	direction := "ASC"
	if filter.SortDesc {
		direction = "DESC"
	}

	pageSize := filter.PageSize
	if pageSize <= 0 {
		pageSize = 20
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY %s %s LIMIT %d OFFSET %d`,
		ticketColumns, where, sortCol, direction, pageSize, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, 0, err
	}
	return tickets, total, nil
}

func (r *ticketRepository) Delete(ctx context.Context, id string) error {
	// Comments, attachments and history cascade via foreign keys.
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *ticketRepository) Stats(ctx context.Context, from, to *time.Time) (*TicketStatistics, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if from != nil {
		args = append(args, *from)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if to != nil {
		args = append(args, *to)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	stats := &TicketStatistics{
		ByStatus:      make(map[domain.TicketStatus]int64),
		ByPriority:    make(map[domain.TicketPriority]int64),
		ByServiceType: make(map[domain.ServiceType]int64),
		ByCategory:    make(map[domain.TicketCategory]int64),
	}

	if err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM tickets WHERE %s`, where), args...,
	).Scan(&stats.Total); err != nil {
		return nil, err
	}

	groupBy := func(column string, collect func(key string, count int64)) error {
		query := fmt.Sprintf(`SELECT %s, COUNT(*) FROM tickets WHERE %s GROUP BY %s`, column, where, column)
		rows, err := r.pool.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		for rows.Next() {
			var key string
			var count int64
			if err := rows.Scan(&key, &count); err != nil {
				return err
			}
			collect(key, count)
		}
		return rows.Err()
	}

	if err := groupBy("status", func(k string, c int64) { stats.ByStatus[domain.TicketStatus(k)] = c }); err != nil {
		return nil, err
	}
	if err := groupBy("priority", func(k string, c int64) { stats.ByPriority[domain.TicketPriority(k)] = c }); err != nil {
		return nil, err
	}
	if err := groupBy("service_type", func(k string, c int64) { stats.ByServiceType[domain.ServiceType(k)] = c }); err != nil {
		return nil, err
	}
	if err := groupBy("category", func(k string, c int64) { stats.ByCategory[domain.TicketCategory(k)] = c }); err != nil {
		return nil, err
	}

	resolutionQuery := fmt.Sprintf(`
        SELECT COUNT(*), COALESCE(AVG(EXTRACT(EPOCH FROM (resolved_at - created_at)) / 86400.0), 0)
        FROM tickets WHERE %s AND resolved_at IS NOT NULL`, where)
	if err := r.pool.QueryRow(ctx, resolutionQuery, args...).Scan(&stats.ResolvedCount, &stats.AvgResolutionDays); err != nil {
		return nil, err
	}
	return stats, nil
}

func scanTicket(row pgx.Row, ticket *domain.Ticket) error {
	return row.Scan(
		&ticket.ID,
		&ticket.TicketNumber,
		&ticket.RequesterID,
		&ticket.AssigneeID,
		&ticket.BookingID,
		&ticket.RoomID,
		&ticket.HotelID,
		&ticket.Title,
		&ticket.Description,
		&ticket.ServiceType,
		&ticket.Category,
		&ticket.SubCategory,
		&ticket.Status,
		&ticket.Priority,
		&ticket.RiskLevel,
		&ticket.Impact,
		&ticket.DueDate,
		&ticket.ResolvedAt,
		&ticket.ClosedAt,
		&ticket.Resolution,
		&ticket.WorkNotes,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	)
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	var result []domain.Ticket
	for rows.Next() {
		var ticket domain.Ticket
		if err := scanTicket(rows, &ticket); err != nil {
			return nil, err
		}
		result = append(result, ticket)
	}
	return result, rows.Err()
}
