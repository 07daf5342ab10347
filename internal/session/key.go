package session

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/rasoi/chaatbot/internal/domain"
)

// ResolveKey derives the session id for a request. Precedence:
// authenticated user > guest header > HTTP session cookie. When no cookie
// token exists either, a fresh one is minted and returned alongside the id so
// the handler can set it on the response.
func ResolveKey(user domain.CurrentUser, guestID, sessionToken string) (sessionID, newToken string) {
	switch {
	case user.Authenticated:
		return UserSessionID(user.ID), ""
	case guestID != "":
		return fmt.Sprintf("guest_%s", guestID), ""
	case sessionToken != "":
		return fmt.Sprintf("session_%s", sessionToken), ""
	default:
		token := uuid.NewString()
		return fmt.Sprintf("session_%s", token), token
	}
}

// UserSessionID returns the session id for an authenticated user
func UserSessionID(userID uuid.UUID) string {
	return fmt.Sprintf("user_%s", userID)
}

// GuestSessionID returns the session id for a guest header value
func GuestSessionID(guestID string) string {
	return fmt.Sprintf("guest_%s", guestID)
}
