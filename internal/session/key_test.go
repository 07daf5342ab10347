package session

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/rasoi/chaatbot/internal/domain"
)

func TestResolveKey(t *testing.T) {
	userID := uuid.New()
	user := domain.CurrentUser{ID: userID, Authenticated: true}

	t.Run("authenticated user wins over headers", func(t *testing.T) {
		sessionID, token := ResolveKey(user, "g-123", "tok-456")
		assert.Equal(t, "user_"+userID.String(), sessionID)
		assert.Empty(t, token)
	})

	t.Run("guest header wins over session token", func(t *testing.T) {
		sessionID, token := ResolveKey(domain.CurrentUser{}, "g-123", "tok-456")
		assert.Equal(t, "guest_g-123", sessionID)
		assert.Empty(t, token)
	})

	t.Run("session token used when no guest id", func(t *testing.T) {
		sessionID, token := ResolveKey(domain.CurrentUser{}, "", "tok-456")
		assert.Equal(t, "session_tok-456", sessionID)
		assert.Empty(t, token)
	})

	t.Run("mints a token when nothing identifies the caller", func(t *testing.T) {
		sessionID, token := ResolveKey(domain.CurrentUser{}, "", "")
		assert.NotEmpty(t, token)
		assert.True(t, strings.HasPrefix(sessionID, "session_"))
		assert.Equal(t, "session_"+token, sessionID)

		_, err := uuid.Parse(token)
		assert.NoError(t, err)
	})
}
