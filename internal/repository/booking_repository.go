package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stayhub/service-desk/internal/domain"
)

// BookingRepository reads reservations. Booking writes live in the
// booking subsystem; the service desk only needs lookups for ticket
// context and ownership checks.
type BookingRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Booking, error)
}

type bookingRepository struct {
	pool *pgxpool.Pool
}

// NewBookingRepository returns a Postgres-backed implementation.
func NewBookingRepository(pool *pgxpool.Pool) BookingRepository {
	return &bookingRepository{pool: pool}
}

const bookingColumns = `id, user_id, room_id, hotel_id, check_in, check_out, status, created_at`

func (r *bookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id=$1`
	var booking domain.Booking
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&booking.ID,
		&booking.UserID,
		&booking.RoomID,
		&booking.HotelID,
		&booking.CheckIn,
		&booking.CheckOut,
		&booking.Status,
		&booking.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &booking, nil
}

func (r *bookingRepository) ListByUser(ctx context.Context, userID string) ([]domain.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id=$1 ORDER BY check_in DESC`
	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Booking
	for rows.Next() {
		var booking domain.Booking
		if err := rows.Scan(
			&booking.ID,
			&booking.UserID,
			&booking.RoomID,
			&booking.HotelID,
			&booking.CheckIn,
			&booking.CheckOut,
			&booking.Status,
			&booking.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, booking)
	}
	return result, rows.Err()
}
