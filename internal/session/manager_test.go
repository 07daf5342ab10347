package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rasoi/chaatbot/internal/domain"
)

func newTestManager() *Manager {
	return NewManager(NewMemoryCache(), 10*time.Minute, 24*time.Hour, 8)
}

func TestManager_History(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	t.Run("empty session has no history", func(t *testing.T) {
		turns, err := m.History(ctx, "session_a")
		require.NoError(t, err)
		assert.Empty(t, turns)
	})

	t.Run("append and read back", func(t *testing.T) {
		require.NoError(t, m.AppendTurn(ctx, "session_a", domain.ChatTurn{Role: domain.ChatRoleUser, Content: "hi"}))
		require.NoError(t, m.AppendTurn(ctx, "session_a", domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: "hello ji"}))

		turns, err := m.History(ctx, "session_a")
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, domain.ChatRoleUser, turns[0].Role)
		assert.Equal(t, "hello ji", turns[1].Content)
	})

	t.Run("history is capped to the limit", func(t *testing.T) {
		for i := 0; i < 12; i++ {
			require.NoError(t, m.AppendTurn(ctx, "session_b", domain.ChatTurn{
				Role:    domain.ChatRoleUser,
				Content: fmt.Sprintf("msg %d", i),
			}))
		}

		turns, err := m.History(ctx, "session_b")
		require.NoError(t, err)
		require.Len(t, turns, 8)
		assert.Equal(t, "msg 4", turns[0].Content)
		assert.Equal(t, "msg 11", turns[7].Content)
	})

	t.Run("empty assistant content is backfilled", func(t *testing.T) {
		require.NoError(t, m.AppendTurn(ctx, "session_c", domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: ""}))

		turns, err := m.History(ctx, "session_c")
		require.NoError(t, err)
		require.Len(t, turns, 1)
		assert.Equal(t, emptyReplyFallback, turns[0].Content)
	})
}

func TestManager_Mode(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	mode, err := m.Mode(ctx, "session_a")
	require.NoError(t, err)
	assert.Empty(t, mode)

	require.NoError(t, m.SetMode(ctx, "session_a", ModeBooking))
	mode, err = m.Mode(ctx, "session_a")
	require.NoError(t, err)
	assert.Equal(t, ModeBooking, mode)

	require.NoError(t, m.ClearMode(ctx, "session_a"))
	mode, err = m.Mode(ctx, "session_a")
	require.NoError(t, err)
	assert.Empty(t, mode)
}

func TestManager_Contexts(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	t.Run("booking context round trip", func(t *testing.T) {
		bc, err := m.BookingContext(ctx, "session_a")
		require.NoError(t, err)
		assert.Nil(t, bc)

		require.NoError(t, m.SaveBookingContext(ctx, "session_a", &BookingContext{
			SelectedDate:   "2026-09-01",
			AvailableSlots: []string{"18:00", "18:30"},
			NoOfGuests:     4,
		}))

		bc, err = m.BookingContext(ctx, "session_a")
		require.NoError(t, err)
		require.NotNil(t, bc)
		assert.Equal(t, "2026-09-01", bc.SelectedDate)
		assert.Equal(t, 4, bc.NoOfGuests)

		require.NoError(t, m.ClearBookingContext(ctx, "session_a"))
		bc, err = m.BookingContext(ctx, "session_a")
		require.NoError(t, err)
		assert.Nil(t, bc)
	})

	t.Run("order context round trip", func(t *testing.T) {
		require.NoError(t, m.SaveOrderContext(ctx, "session_a", &OrderContext{
			OrderID: 42,
			Items:   []OrderLine{{Title: "Pani Puri", Qty: 2, Price: 120}},
		}))

		oc, err := m.OrderContext(ctx, "session_a")
		require.NoError(t, err)
		require.NotNil(t, oc)
		assert.True(t, oc.Started())
		assert.Equal(t, int64(42), oc.OrderID)
		require.Len(t, oc.Items, 1)
		assert.Equal(t, "Pani Puri", oc.Items[0].Title)
	})
}

func TestManager_Reset(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()

	require.NoError(t, m.AppendTurn(ctx, "session_a", domain.ChatTurn{Role: domain.ChatRoleUser, Content: "hi"}))
	require.NoError(t, m.SetMode(ctx, "session_a", ModeOrdering))
	require.NoError(t, m.SetLang(ctx, "session_a", LangHinglish))
	require.NoError(t, m.SaveOrderContext(ctx, "session_a", &OrderContext{OrderID: 7}))

	require.NoError(t, m.Reset(ctx, "session_a"))

	turns, err := m.History(ctx, "session_a")
	require.NoError(t, err)
	assert.Empty(t, turns)

	mode, err := m.Mode(ctx, "session_a")
	require.NoError(t, err)
	assert.Empty(t, mode)

	lang, err := m.Lang(ctx, "session_a")
	require.NoError(t, err)
	assert.Empty(t, lang)

	oc, err := m.OrderContext(ctx, "session_a")
	require.NoError(t, err)
	assert.Nil(t, oc)
}

func TestManager_MigrateGuest(t *testing.T) {
	ctx := context.Background()
	m := newTestManager()
	userID := uuid.New()

	guestSession := GuestSessionID("g-1")
	require.NoError(t, m.AppendTurn(ctx, guestSession, domain.ChatTurn{Role: domain.ChatRoleUser, Content: "table for two"}))
	require.NoError(t, m.SetMode(ctx, guestSession, ModeBooking))
	require.NoError(t, m.SetLang(ctx, guestSession, LangEnglish))
	require.NoError(t, m.SaveBookingContext(ctx, guestSession, &BookingContext{SelectedDate: "2026-09-05"}))

	require.NoError(t, m.MigrateGuest(ctx, "g-1", userID))

	userSession := UserSessionID(userID)

	turns, err := m.History(ctx, userSession)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "table for two", turns[0].Content)

	mode, err := m.Mode(ctx, userSession)
	require.NoError(t, err)
	assert.Equal(t, ModeBooking, mode)

	lang, err := m.Lang(ctx, userSession)
	require.NoError(t, err)
	assert.Equal(t, LangEnglish, lang)

	bc, err := m.BookingContext(ctx, userSession)
	require.NoError(t, err)
	require.NotNil(t, bc)
	assert.Equal(t, "2026-09-05", bc.SelectedDate)

	// Guest copies are gone
	turns, err = m.History(ctx, guestSession)
	require.NoError(t, err)
	assert.Empty(t, turns)

	mode, err = m.Mode(ctx, guestSession)
	require.NoError(t, err)
	assert.Empty(t, mode)
}
