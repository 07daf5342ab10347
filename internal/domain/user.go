package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// User represents a registered customer
type User struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserProfile holds optional demographic data used for personalization
type UserProfile struct {
	UserID        uuid.UUID  `json:"user_id"`
	DOB           *time.Time `json:"dob,omitempty"`
	Gender        string     `json:"gender,omitempty"` // "M", "F" or ""
	City          string     `json:"city,omitempty"`
	State         string     `json:"state,omitempty"`
	Country       string     `json:"country,omitempty"`
	MaritalStatus string     `json:"marital_status,omitempty"`
	Education     string     `json:"education,omitempty"`
	Income        string     `json:"income,omitempty"`
	Phone         string     `json:"phone,omitempty"`
}

// CurrentUser is the authentication capability passed into the chat core.
// Zero value means an anonymous guest.
type CurrentUser struct {
	ID            uuid.UUID
	Username      string
	Email         string
	Authenticated bool
}

// UserCreate represents user registration data
type UserCreate struct {
	Username string `json:"username" validate:"required,min=3,max=150"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// UserLogin represents login credentials
type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenPair represents JWT token pair
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*UserProfile, error)
}
