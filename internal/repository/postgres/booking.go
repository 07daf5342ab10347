package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rasoi/chaatbot/internal/domain"
)

// BookingRepository implements domain.BookingRepository
type BookingRepository struct {
	db *DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, booking *domain.Booking) error {
	// created_at comes from the schema default
	query := `
		INSERT INTO bookings
			(user_id, reservation_date, reservation_time, no_of_guests, occasion, email, reference_number)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	err := r.db.Pool.QueryRow(ctx, query,
		booking.UserID,
		booking.ReservationDate,
		booking.ReservationTime,
		booking.NoOfGuests,
		booking.Occasion,
		booking.Email,
		booking.ReferenceNumber,
	).Scan(&booking.ID, &booking.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create booking: %w", err)
	}
	return nil
}

func (r *BookingRepository) ListBookedTimes(ctx context.Context, date time.Time) ([]string, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT reservation_time FROM bookings WHERE reservation_date = $1`, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked times: %w", err)
	}
	defer rows.Close()

	var times []string
	for rows.Next() {
		var t string
		if err := rows.Scan(&t); err != nil {
			return nil, fmt.Errorf("failed to scan booked time: %w", err)
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

func (r *BookingRepository) ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]domain.Booking, error) {
	query := `
		SELECT id, user_id, reservation_date, reservation_time, no_of_guests, occasion, email, reference_number, created_at
		FROM bookings
		WHERE user_id = $1
		ORDER BY reservation_date DESC
		LIMIT $2
	`
	rows, err := r.db.Pool.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		var b domain.Booking
		if err := rows.Scan(
			&b.ID, &b.UserID, &b.ReservationDate, &b.ReservationTime,
			&b.NoOfGuests, &b.Occasion, &b.Email, &b.ReferenceNumber, &b.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}
