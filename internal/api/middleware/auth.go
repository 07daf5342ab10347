package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/rasoi/chaatbot/internal/api/response"
	"github.com/rasoi/chaatbot/internal/domain"
	"github.com/rasoi/chaatbot/internal/security"
)

type contextKey string

const currentUserKey contextKey = "currentUser"

// GuestIDHeader carries the frontend-generated guest identity for anonymous
// chat sessions.
const GuestIDHeader = "X-Guest-Id"

// SessionTokenHeader carries the server-minted fallback session token when
// neither a JWT nor a guest id is present.
const SessionTokenHeader = "X-Session-Token"

// AuthMiddleware handles JWT authentication
type AuthMiddleware struct {
	jwtManager *security.JWTManager
}

// NewAuthMiddleware creates a new auth middleware
func NewAuthMiddleware(jwtManager *security.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

func (m *AuthMiddleware) resolve(r *http.Request) (domain.CurrentUser, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return domain.CurrentUser{}, nil
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return domain.CurrentUser{}, nil
	}

	claims, err := m.jwtManager.ValidateAccessToken(parts[1])
	if err != nil {
		return domain.CurrentUser{}, err
	}

	return domain.CurrentUser{
		ID:            claims.UserID,
		Username:      claims.Username,
		Email:         claims.Email,
		Authenticated: true,
	}, nil
}

// Authenticate requires a valid JWT and stores the current user in context
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolve(r)
		if err != nil {
			response.Unauthorized(w, "invalid or expired token: "+err.Error())
			return
		}
		if !user.Authenticated {
			response.Unauthorized(w, "missing authorization header")
			return
		}

		ctx := context.WithValue(r.Context(), currentUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate resolves the current user when a valid JWT is present
// and lets guests through with a zero CurrentUser. The chat endpoint serves
// both; the auth gate for ordering lives in the dialogue layer.
func (m *AuthMiddleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := m.resolve(r)
		if err != nil {
			response.Unauthorized(w, "invalid or expired token: "+err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), currentUserKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CurrentUser returns the resolved user from context. The zero value means
// an anonymous guest.
func CurrentUser(ctx context.Context) domain.CurrentUser {
	user, _ := ctx.Value(currentUserKey).(domain.CurrentUser)
	return user
}
