package chat

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rasoi/chaatbot/internal/domain"
	"github.com/rasoi/chaatbot/internal/llm"
	"github.com/rasoi/chaatbot/internal/session"
)

type serviceFixture struct {
	svc      *Service
	sessions *session.Manager
	provider *MockProvider
	bookings *MockBookingRepository
	orders   *MockOrderRepository
	menu     *MockMenuRepository
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()

	sessions := newTestSessions()
	provider := new(MockProvider)
	bookings := new(MockBookingRepository)
	orders := new(MockOrderRepository)
	menu := new(MockMenuRepository)

	// empty menu keeps the composer quiet
	menu.On("ListCategories", mock.Anything).Return([]domain.Category{}, nil).Maybe()
	menu.On("ListItems", mock.Anything).Return([]domain.MenuItem{}, nil).Maybe()
	menu.On("ListFeatured", mock.Anything).Return([]domain.MenuItem{}, nil).Maybe()

	router := llm.NewRouter("mock")
	router.RegisterProvider(provider)

	now := func() time.Time { return fixedNow(t) }
	composer := NewPromptComposer(nil, menu, bookings, orders, nil, "Rasoi")
	intents := NewIntentClassifier(provider, "mock-model", sessions)
	booking := NewBookingEngine(bookings, sessions, nil, now)
	ordering := NewOrderEngine(orders, menu, sessions, nil, "http://localhost:3000", now)

	svc := NewService(sessions, router, "mock", "mock-model", composer, intents, booking, ordering, nil, 500, now)
	return &serviceFixture{
		svc:      svc,
		sessions: sessions,
		provider: provider,
		bookings: bookings,
		orders:   orders,
		menu:     menu,
	}
}

func toolCallResponse(name string, args map[string]any) *llm.ChatResponse {
	raw, _ := json.Marshal(args)
	return &llm.ChatResponse{ToolCalls: []llm.ToolCall{{Name: name, Arguments: raw}}}
}

func TestService_LanguageHandshake(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	out, err := f.svc.Respond(ctx, Input{GuestID: "g-1", Message: "book a table"})
	require.NoError(t, err)
	assert.Contains(t, out.Reply, "English me baat karein ya Hinglish me?")

	// both turns were persisted
	history, err := f.sessions.History(ctx, "guest_g-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, domain.ChatRoleUser, history[0].Role)
	assert.Equal(t, domain.ChatRoleAssistant, history[1].Role)
}

func TestService_OrderingRequiresLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("ordering intent as guest is blocked", func(t *testing.T) {
		f := newServiceFixture(t)
		require.NoError(t, f.sessions.SetLang(ctx, "guest_g-1", session.LangEnglish))

		f.provider.On("Chat", mock.Anything, mock.Anything, "mock-model").Return(tokenResponse("ordering"), nil).Once()

		out, err := f.svc.Respond(ctx, Input{GuestID: "g-1", Message: "2 samosa order karo"})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "Login is required")
		assert.Contains(t, out.Reply, loginLink)

		mode, err := f.sessions.Mode(ctx, "guest_g-1")
		require.NoError(t, err)
		assert.Empty(t, mode)

		history, err := f.sessions.History(ctx, "guest_g-1")
		require.NoError(t, err)
		require.Len(t, history, 1)
		assert.Equal(t, domain.ChatRoleFunction, history[0].Role)
		assert.Equal(t, "login_required", history[0].Name)
	})

	t.Run("hinglish block message without a stored language", func(t *testing.T) {
		f := newServiceFixture(t)
		// a stale ordering mode survives from a pre-logout session
		require.NoError(t, f.sessions.SetMode(ctx, "guest_g-2", session.ModeOrdering))

		out, err := f.svc.Respond(ctx, Input{GuestID: "g-2", Message: "haan confirm"})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "Online ordering ke liye")

		mode, err := f.sessions.Mode(ctx, "guest_g-2")
		require.NoError(t, err)
		assert.Empty(t, mode)
	})
}

func TestService_BookingFlow(t *testing.T) {
	ctx := context.Background()
	sessionID := "guest_g-1"

	t.Run("tool call is dispatched and summarized", func(t *testing.T) {
		f := newServiceFixture(t)
		require.NoError(t, f.sessions.SetMode(ctx, sessionID, session.ModeBooking))

		f.bookings.On("ListBookedTimes", mock.Anything, mock.AnythingOfType("time.Time")).Return([]string{}, nil)

		// main turn requests the slots tool
		f.provider.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.ChatRequest) bool {
			return req.ToolChoice == llm.ToolChoiceAuto && len(req.Tools) > 0
		}), "mock-model").Return(toolCallResponse("get_available_booking_times", map[string]any{
			"selected_date": "tomorrow",
		}), nil).Once()

		// follow-up turn summarizes with tools disabled
		f.provider.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.ChatRequest) bool {
			return req.ToolChoice == llm.ToolChoiceNone
		}), "mock-model").Return(&llm.ChatResponse{Content: "Kal ke liye ye slots available hain: 7 PM!"}, nil).Once()

		out, err := f.svc.Respond(ctx, Input{GuestID: "g-1", Message: "kal ka table dekho"})
		require.NoError(t, err)
		assert.Equal(t, "Kal ke liye ye slots available hain: 7 PM!", out.Reply)
		f.provider.AssertExpectations(t)

		// function turn landed in history
		history, err := f.sessions.History(ctx, sessionID)
		require.NoError(t, err)
		var functionTurns int
		for _, turn := range history {
			if turn.Role == domain.ChatRoleFunction {
				functionTurns++
				assert.Equal(t, "get_available_booking_times", turn.Name)
			}
		}
		assert.Equal(t, 1, functionTurns)
	})

	t.Run("terminal tool streams the raw reply", func(t *testing.T) {
		f := newServiceFixture(t)
		require.NoError(t, f.sessions.SetMode(ctx, sessionID, session.ModeBooking))
		require.NoError(t, f.sessions.SaveBookingContext(ctx, sessionID, &session.BookingContext{
			SelectedDate: "2026-09-01",
			SelectedTime: "19:00",
			NoOfGuests:   2,
			Occasion:     "Other",
			Email:        "party@example.com",
		}))

		f.bookings.On("Create", mock.Anything, mock.AnythingOfType("*domain.Booking")).Return(nil)
		f.provider.On("Chat", mock.Anything, mock.Anything, "mock-model").
			Return(toolCallResponse("create_booking", map[string]any{}), nil).Once()

		out, err := f.svc.Respond(ctx, Input{GuestID: "g-1", Message: "haan confirm karo"})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "Booking confirmed")

		// no follow-up summarization happened
		f.provider.AssertNumberOfCalls(t, "Chat", 1)
	})

	t.Run("unrecognized tool call falls back to the assistant text", func(t *testing.T) {
		f := newServiceFixture(t)
		require.NoError(t, f.sessions.SetMode(ctx, sessionID, session.ModeBooking))

		resp := toolCallResponse("lookup_weather", map[string]any{})
		resp.Content = "Mausam ki baat chhodo, table kab ka chahiye?"
		f.provider.On("Chat", mock.Anything, mock.Anything, "mock-model").Return(resp, nil).Once()

		out, err := f.svc.Respond(ctx, Input{GuestID: "g-1", Message: "kaisa mausam hai?"})
		require.NoError(t, err)
		assert.Equal(t, "Mausam ki baat chhodo, table kab ka chahiye?", out.Reply)
	})

	t.Run("follow-up failure falls back to the tool message", func(t *testing.T) {
		f := newServiceFixture(t)
		require.NoError(t, f.sessions.SetMode(ctx, sessionID, session.ModeBooking))

		f.bookings.On("ListBookedTimes", mock.Anything, mock.AnythingOfType("time.Time")).Return([]string{}, nil)
		f.provider.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.ChatRequest) bool {
			return req.ToolChoice == llm.ToolChoiceAuto
		}), "mock-model").Return(toolCallResponse("get_available_booking_times", map[string]any{
			"selected_date": "tomorrow",
		}), nil).Once()
		f.provider.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.ChatRequest) bool {
			return req.ToolChoice == llm.ToolChoiceNone
		}), "mock-model").Return(nil, errors.New("model down")).Once()

		out, err := f.svc.Respond(ctx, Input{GuestID: "g-1", Message: "kal ka table"})
		require.NoError(t, err)
		assert.Contains(t, out.Reply, "The available slots for")
	})
}

func TestService_PlainChat(t *testing.T) {
	ctx := context.Background()

	t.Run("empty model reply gets the fallback", func(t *testing.T) {
		f := newServiceFixture(t)
		require.NoError(t, f.sessions.SetLang(ctx, "guest_g-1", session.LangEnglish))

		// classifier says none, then the main call returns nothing
		f.provider.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.ChatRequest) bool {
			return req.MaxTokens == 5
		}), "mock-model").Return(tokenResponse("none"), nil).Once()
		f.provider.On("Chat", mock.Anything, mock.MatchedBy(func(req llm.ChatRequest) bool {
			return req.MaxTokens != 5
		}), "mock-model").Return(&llm.ChatResponse{Content: ""}, nil).Once()

		out, err := f.svc.Respond(ctx, Input{GuestID: "g-1", Message: "hello"})
		require.NoError(t, err)
		assert.Equal(t, fallbackReply, out.Reply)
	})

	t.Run("provider failure turns into the apology reply", func(t *testing.T) {
		f := newServiceFixture(t)
		require.NoError(t, f.sessions.SetLang(ctx, "guest_g-1", session.LangEnglish))

		f.provider.On("Chat", mock.Anything, mock.Anything, "mock-model").Return(nil, errors.New("model down"))

		out, err := f.svc.Respond(ctx, Input{GuestID: "g-1", Message: "hello"})
		require.NoError(t, err)
		assert.Equal(t, apologyReply, out.Reply)
	})
}

func TestService_SessionToken(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	// anonymous caller without a guest id gets a minted token
	out, err := f.svc.Respond(ctx, Input{Message: "namaste"})
	require.NoError(t, err)
	require.NotEmpty(t, out.SessionToken)

	_, err = uuid.Parse(out.SessionToken)
	assert.NoError(t, err)

	// echoing the token back continues the same session
	out2, err := f.svc.Respond(ctx, Input{Message: "english", SessionToken: out.SessionToken})
	require.NoError(t, err)
	assert.Empty(t, out2.SessionToken)

	lang, err := f.sessions.Lang(ctx, "session_"+out.SessionToken)
	require.NoError(t, err)
	assert.Equal(t, session.LangEnglish, lang)
}

func TestService_Reset(t *testing.T) {
	ctx := context.Background()
	f := newServiceFixture(t)

	require.NoError(t, f.sessions.SetMode(ctx, "guest_g-1", session.ModeBooking))
	require.NoError(t, f.sessions.AppendTurn(ctx, "guest_g-1", domain.ChatTurn{Role: domain.ChatRoleUser, Content: "hi"}))

	_, err := f.svc.Reset(ctx, domain.CurrentUser{}, "g-1", "")
	require.NoError(t, err)

	mode, err := f.sessions.Mode(ctx, "guest_g-1")
	require.NoError(t, err)
	assert.Empty(t, mode)

	history, err := f.sessions.History(ctx, "guest_g-1")
	require.NoError(t, err)
	assert.Empty(t, history)
}
