package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Booking represents a confirmed table reservation
type Booking struct {
	ID              int64      `json:"id"`
	UserID          *uuid.UUID `json:"user_id,omitempty"` // nil for anonymous bookings
	ReservationDate time.Time  `json:"reservation_date"`
	ReservationTime string     `json:"reservation_time"` // "HH:MM" slot
	NoOfGuests      int        `json:"no_of_guests"`
	Occasion        string     `json:"occasion"`
	Email           string     `json:"email"`
	ReferenceNumber string     `json:"reference_number"`
	CreatedAt       time.Time  `json:"created_at"`
}

// BookingRepository defines the interface for booking storage
type BookingRepository interface {
	Create(ctx context.Context, booking *Booking) error
	ListBookedTimes(ctx context.Context, date time.Time) ([]string, error)
	ListRecentByUser(ctx context.Context, userID uuid.UUID, limit int) ([]Booking, error)
}
