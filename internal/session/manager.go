package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rasoi/chaatbot/internal/domain"
)

// Cache key prefixes. The key format is a contract shared with the reset
// endpoint and the guest migration.
const (
	prefixChatHistory = "chat_history_"
	prefixBookingCtx  = "booking_context_"
	prefixOrderCtx    = "order_context_"
	prefixLangPref    = "lang_pref_"
	prefixChatMode    = "chat_mode_"
)

const emptyReplyFallback = "Sorry, kuch samajh nahi aaya! Can you repeat?"

// Manager exposes typed, namespaced access to per-session workflow state on
// top of a Cache. Every write re-arms the TTL (sliding expiry).
type Manager struct {
	cache        Cache
	contextTTL   time.Duration
	langPrefTTL  time.Duration
	historyLimit int
}

// NewManager creates a session manager
func NewManager(cache Cache, contextTTL, langPrefTTL time.Duration, historyLimit int) *Manager {
	if contextTTL <= 0 {
		contextTTL = 600 * time.Second
	}
	if langPrefTTL <= 0 {
		langPrefTTL = 24 * time.Hour
	}
	if historyLimit <= 0 {
		historyLimit = 8
	}
	return &Manager{
		cache:        cache,
		contextTTL:   contextTTL,
		langPrefTTL:  langPrefTTL,
		historyLimit: historyLimit,
	}
}

// History returns the most recent turns for prompt assembly. Assistant turns
// with empty content are backfilled so the LLM input never carries an empty
// assistant message.
func (m *Manager) History(ctx context.Context, sessionID string) ([]domain.ChatTurn, error) {
	var turns []domain.ChatTurn
	if err := m.getJSON(ctx, prefixChatHistory+sessionID, &turns); err != nil {
		return nil, err
	}
	if len(turns) > m.historyLimit {
		turns = turns[len(turns)-m.historyLimit:]
	}
	for i := range turns {
		if turns[i].Role == domain.ChatRoleAssistant && turns[i].Content == "" {
			turns[i].Content = emptyReplyFallback
		}
	}
	return turns, nil
}

// AppendTurn appends a turn to the cached history and re-arms the TTL
func (m *Manager) AppendTurn(ctx context.Context, sessionID string, turn domain.ChatTurn) error {
	key := prefixChatHistory + sessionID
	var turns []domain.ChatTurn
	if err := m.getJSON(ctx, key, &turns); err != nil {
		return err
	}
	turns = append(turns, turn)
	return m.setJSON(ctx, key, turns, m.contextTTL)
}

// Mode returns the active workflow mode, or "" when none is stored
func (m *Manager) Mode(ctx context.Context, sessionID string) (Mode, error) {
	data, err := m.cache.Get(ctx, prefixChatMode+sessionID)
	if err != nil {
		return "", err
	}
	return Mode(data), nil
}

// SetMode stores the active workflow mode with the working-context TTL
func (m *Manager) SetMode(ctx context.Context, sessionID string, mode Mode) error {
	return m.cache.Set(ctx, prefixChatMode+sessionID, []byte(mode), m.contextTTL)
}

// ClearMode removes the active workflow mode
func (m *Manager) ClearMode(ctx context.Context, sessionID string) error {
	return m.cache.Delete(ctx, prefixChatMode+sessionID)
}

// Lang returns the stored language preference, or "" when none is stored
func (m *Manager) Lang(ctx context.Context, sessionID string) (string, error) {
	data, err := m.cache.Get(ctx, prefixLangPref+sessionID)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetLang stores the language preference with the long-lived TTL
func (m *Manager) SetLang(ctx context.Context, sessionID, lang string) error {
	return m.cache.Set(ctx, prefixLangPref+sessionID, []byte(lang), m.langPrefTTL)
}

// BookingContext loads the booking workflow context; nil when absent
func (m *Manager) BookingContext(ctx context.Context, sessionID string) (*BookingContext, error) {
	data, err := m.cache.Get(ctx, prefixBookingCtx+sessionID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var bc BookingContext
	if err := json.Unmarshal(data, &bc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal booking context: %w", err)
	}
	return &bc, nil
}

// SaveBookingContext persists the booking context and re-arms the TTL
func (m *Manager) SaveBookingContext(ctx context.Context, sessionID string, bc *BookingContext) error {
	return m.setJSON(ctx, prefixBookingCtx+sessionID, bc, m.contextTTL)
}

// ClearBookingContext removes the booking context
func (m *Manager) ClearBookingContext(ctx context.Context, sessionID string) error {
	return m.cache.Delete(ctx, prefixBookingCtx+sessionID)
}

// OrderContext loads the ordering workflow context; nil when absent
func (m *Manager) OrderContext(ctx context.Context, sessionID string) (*OrderContext, error) {
	data, err := m.cache.Get(ctx, prefixOrderCtx+sessionID)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}
	var oc OrderContext
	if err := json.Unmarshal(data, &oc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order context: %w", err)
	}
	return &oc, nil
}

// SaveOrderContext persists the order context and re-arms the TTL
func (m *Manager) SaveOrderContext(ctx context.Context, sessionID string, oc *OrderContext) error {
	return m.setJSON(ctx, prefixOrderCtx+sessionID, oc, m.contextTTL)
}

// ClearOrderContext removes the order context
func (m *Manager) ClearOrderContext(ctx context.Context, sessionID string) error {
	return m.cache.Delete(ctx, prefixOrderCtx+sessionID)
}

// Reset removes every namespaced key for the session
func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	return m.cache.Delete(ctx, sessionKeys(sessionID)...)
}

// MigrateGuest copies all guest-session state to the authenticated-user
// session and removes the guest copies. Called once on login so an
// in-progress workflow survives the auth boundary.
func (m *Manager) MigrateGuest(ctx context.Context, guestID string, userID uuid.UUID) error {
	guestSession := GuestSessionID(guestID)
	userSession := UserSessionID(userID)

	prefixes := []struct {
		prefix string
		ttl    time.Duration
	}{
		{prefixChatHistory, m.contextTTL},
		{prefixBookingCtx, m.contextTTL},
		{prefixOrderCtx, m.contextTTL},
		{prefixChatMode, m.contextTTL},
		{prefixLangPref, m.langPrefTTL},
	}

	for _, p := range prefixes {
		data, err := m.cache.Get(ctx, p.prefix+guestSession)
		if err != nil {
			return err
		}
		if data == nil {
			continue
		}
		if err := m.cache.Set(ctx, p.prefix+userSession, data, p.ttl); err != nil {
			return err
		}
	}

	return m.cache.Delete(ctx, sessionKeys(guestSession)...)
}

func sessionKeys(sessionID string) []string {
	return []string{
		prefixChatHistory + sessionID,
		prefixBookingCtx + sessionID,
		prefixOrderCtx + sessionID,
		prefixLangPref + sessionID,
		prefixChatMode + sessionID,
	}
}

func (m *Manager) getJSON(ctx context.Context, key string, out any) error {
	data, err := m.cache.Get(ctx, key)
	if err != nil {
		return err
	}
	if data == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return nil
}

func (m *Manager) setJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return m.cache.Set(ctx, key, data, ttl)
}
