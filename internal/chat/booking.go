package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/rasoi/chaatbot/internal/domain"
	"github.com/rasoi/chaatbot/internal/llm"
	"github.com/rasoi/chaatbot/internal/session"
)

// BookingEngine executes booking tool calls against the session context,
// enforcing step ordering and re-validation regardless of what the model
// claims.
type BookingEngine struct {
	bookings domain.BookingRepository
	sessions *session.Manager
	mailer   Mailer
	now      func() time.Time
}

// NewBookingEngine creates a booking engine. A nil mailer disables the
// confirmation email; callers passing a concrete type must pass an untyped
// nil or a live value, never a typed nil pointer.
func NewBookingEngine(bookings domain.BookingRepository, sessions *session.Manager, mailer Mailer, now func() time.Time) *BookingEngine {
	if now == nil {
		now = time.Now
	}
	return &BookingEngine{bookings: bookings, sessions: sessions, mailer: mailer, now: now}
}

// Dispatch executes the first actionable tool call of the batch. Context
// mutations are persisted before the outcome is returned so a crash between
// dispatch and reply never loses accepted slot values.
func (e *BookingEngine) Dispatch(ctx context.Context, sessionID string, user domain.CurrentUser, bc *session.BookingContext, calls []llm.ToolCall) (*Outcome, error) {
	if bc == nil {
		bc = &session.BookingContext{}
	}

	for _, call := range calls {
		log.Debug().Str("tool", call.Name).Str("session_id", sessionID).Msg("dispatching booking tool")

		switch call.Name {
		case toolGetAvailableBookingTimes:
			return e.handleGetSlots(ctx, sessionID, bc, call.Arguments)
		case toolValidateBookingTime:
			return e.handleValidateTime(ctx, sessionID, bc, call.Arguments)
		case toolSetNoOfGuests:
			return e.handleSetGuests(ctx, sessionID, bc, call.Arguments)
		case toolSetOccasion:
			return e.handleSetOccasion(ctx, sessionID, bc, call.Arguments)
		case toolSetEmail:
			return e.handleSetEmail(ctx, sessionID, bc, call.Arguments)
		case toolCreateBooking:
			return e.handleCreate(ctx, sessionID, user, bc, call.Arguments)
		case toolCancelBooking:
			return e.handleCancel(ctx, sessionID, call.Arguments)
		default:
			log.Warn().Str("tool", call.Name).Msg("unknown booking tool requested")
		}
	}

	return nil, errNoActionableTool
}

// fetchSlots resolves the date, loads booked times, and rewrites the context
// for the new date. Slots dependent on the previous date are cleared per the
// step table.
func (e *BookingEngine) fetchSlots(ctx context.Context, sessionID string, bc *session.BookingContext, rawDate string) (map[string]any, error) {
	now := e.now()
	resolved := ResolveDateKeyword(rawDate, now)
	date, err := ParseDateString(resolved, now)
	if err != nil {
		return map[string]any{
			"message": "I could not understand that date. Please give something like '25 July' or 2025-07-25.",
		}, nil
	}

	booked, err := e.bookings.ListBookedTimes(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list booked times: %w", err)
	}

	var available []string
	for _, slot := range BookingTimeSlots {
		if !containsSlot(booked, slot) {
			available = append(available, slot)
		}
	}

	dateStr := date.Format("2006-01-02")
	if step := stepFor(bookingSteps, "selected_date"); bc.SelectedDate != dateStr {
		for _, slot := range step.Clears {
			if slot == "selected_time" {
				bc.SelectedTime = ""
			}
		}
	}
	bc.SelectedDate = dateStr
	bc.AvailableSlots = available
	bc.SlotsFetched = true
	if err := e.sessions.SaveBookingContext(ctx, sessionID, bc); err != nil {
		return nil, err
	}

	var formatted []string
	for _, slot := range available {
		formatted = append(formatted, FormatSlot(slot))
	}
	return map[string]any{
		"available_slots": available,
		"message": fmt.Sprintf("The available slots for %s are: %s. Please pick one.",
			FriendlyDate(date), strings.Join(formatted, ", ")),
	}, nil
}

func (e *BookingEngine) handleGetSlots(ctx context.Context, sessionID string, bc *session.BookingContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		SelectedDate string `json:"selected_date"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}

	result, err := e.fetchSlots(ctx, sessionID, bc, args.SelectedDate)
	if err != nil {
		return nil, err
	}
	return &Outcome{
		Reply:        resultMessage(result),
		FunctionTurn: functionTurn(toolGetAvailableBookingTimes, result),
	}, nil
}

// handleValidateTime checks the proposed time against the slots in context.
// An implicit date change forces a slot re-fetch instead of validating a time
// against stale slots.
func (e *BookingEngine) handleValidateTime(ctx context.Context, sessionID string, bc *session.BookingContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		SelectedTime   string   `json:"selected_time"`
		AvailableSlots []string `json:"available_slots"`
		SelectedDate   string   `json:"selected_date"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}

	if args.SelectedDate != "" {
		resolved := ResolveDateKeyword(args.SelectedDate, e.now())
		if resolved != bc.SelectedDate {
			log.Info().Str("session_id", sessionID).Str("new_date", resolved).
				Msg("date changed inside time validation, re-fetching slots")
			result, err := e.fetchSlots(ctx, sessionID, bc, args.SelectedDate)
			if err != nil {
				return nil, err
			}
			return &Outcome{
				Reply:        resultMessage(result),
				FunctionTurn: functionTurn(toolGetAvailableBookingTimes, result),
			}, nil
		}
	}

	// validate against the context copy, not whatever the model echoed back
	slots := bc.AvailableSlots
	if len(slots) == 0 {
		slots = args.AvailableSlots
	}

	var result map[string]any
	if containsSlot(slots, args.SelectedTime) {
		bc.SelectedTime = args.SelectedTime
		if err := e.sessions.SaveBookingContext(ctx, sessionID, bc); err != nil {
			return nil, err
		}
		result = map[string]any{
			"valid":   true,
			"message": fmt.Sprintf("Are wah! %s slot available hai. Confirm?", args.SelectedTime),
		}
	} else {
		result = map[string]any{
			"valid":   false,
			"message": fmt.Sprintf("Arey sorry yaar, %s available nahi hai. Koi aur time try karo?", args.SelectedTime),
		}
	}

	return &Outcome{
		Reply:        resultMessage(result),
		FunctionTurn: functionTurn(toolValidateBookingTime, result),
	}, nil
}

func (e *BookingEngine) handleSetGuests(ctx context.Context, sessionID string, bc *session.BookingContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		NoOfGuests int `json:"no_of_guests"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}

	var result map[string]any
	if args.NoOfGuests < 1 {
		result = map[string]any{
			"message": "Guests kam se kam 1 hona chahiye. Kripya sahi number batayein.",
		}
	} else {
		bc.NoOfGuests = args.NoOfGuests
		if err := e.sessions.SaveBookingContext(ctx, sessionID, bc); err != nil {
			return nil, err
		}
		result = map[string]any{
			"no_of_guests": args.NoOfGuests,
			"message":      fmt.Sprintf("Noted, %d guests. Okay?", args.NoOfGuests),
		}
	}

	return &Outcome{
		Reply:        resultMessage(result),
		FunctionTurn: functionTurn(toolSetNoOfGuests, result),
	}, nil
}

func normalizeOccasion(occasion string) string {
	switch strings.ToLower(strings.TrimSpace(occasion)) {
	case "birthday", "bday":
		return "Birthday"
	case "anniversary", "anniv":
		return "Anniversary"
	case "other", "none", "na", "":
		return "Other"
	}
	trimmed := strings.TrimSpace(occasion)
	if len(trimmed) > 64 {
		trimmed = trimmed[:64]
	}
	return trimmed
}

func (e *BookingEngine) handleSetOccasion(ctx context.Context, sessionID string, bc *session.BookingContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		Occasion string `json:"occasion"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}

	bc.Occasion = normalizeOccasion(args.Occasion)
	if err := e.sessions.SaveBookingContext(ctx, sessionID, bc); err != nil {
		return nil, err
	}

	result := map[string]any{
		"occasion": bc.Occasion,
		"message":  fmt.Sprintf("Occasion set: %s. Okay?", bc.Occasion),
	}
	return &Outcome{
		Reply:        resultMessage(result),
		FunctionTurn: functionTurn(toolSetOccasion, result),
	}, nil
}

func (e *BookingEngine) handleSetEmail(ctx context.Context, sessionID string, bc *session.BookingContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}

	var result map[string]any
	email := strings.TrimSpace(args.Email)
	if !strings.Contains(email, "@") {
		result = map[string]any{
			"message": "Yeh email sahi nahi lag raha. Kripya ek valid email dijiye (e.g. name@example.com).",
		}
	} else {
		bc.Email = email
		if err := e.sessions.SaveBookingContext(ctx, sessionID, bc); err != nil {
			return nil, err
		}
		result = map[string]any{
			"email":   email,
			"message": fmt.Sprintf("Email saved: %s.", email),
		}
	}

	return &Outcome{
		Reply:        resultMessage(result),
		FunctionTurn: functionTurn(toolSetEmail, result),
	}, nil
}

// handleCreate merges the model's arguments over the session context (context
// wins for absent arguments), creates the booking, emails the confirmation,
// and tears down the workflow. Terminal.
func (e *BookingEngine) handleCreate(ctx context.Context, sessionID string, user domain.CurrentUser, bc *session.BookingContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		SelectedDate string `json:"selected_date"`
		SelectedTime string `json:"selected_time"`
		NoOfGuests   int    `json:"no_of_guests"`
		Occasion     string `json:"occasion"`
		Email        string `json:"email"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}

	if args.SelectedDate == "" {
		args.SelectedDate = bc.SelectedDate
	}
	if args.SelectedTime == "" {
		args.SelectedTime = bc.SelectedTime
	}
	if args.NoOfGuests == 0 {
		args.NoOfGuests = bc.NoOfGuests
	}
	if args.Occasion == "" {
		args.Occasion = bc.Occasion
	}
	if args.Email == "" {
		args.Email = bc.Email
	}
	if args.Email == "" && user.Authenticated {
		args.Email = user.Email
	}

	// the confirmation step depends on every upstream slot; never create a
	// booking with holes in it, no matter what the model claims
	filled := map[string]bool{
		"selected_date": args.SelectedDate != "",
		"selected_time": args.SelectedTime != "",
		"no_of_guests":  args.NoOfGuests >= 1,
		"occasion":      args.Occasion != "",
		"email":         args.Email != "",
	}
	var missing []string
	for _, slot := range stepFor(bookingSteps, "confirmation").DependsOn {
		if !filled[slot] {
			missing = append(missing, bookingSlotLabel(slot))
		}
	}
	if len(missing) > 0 {
		result := map[string]any{
			"missing": missing,
			"message": fmt.Sprintf("The booking is not complete yet, I still need %s. Let's fill that in first.",
				strings.Join(missing, ", ")),
		}
		return &Outcome{
			Reply:        resultMessage(result),
			FunctionTurn: functionTurn(toolCreateBooking, result),
		}, nil
	}

	now := e.now()
	date, err := ParseDateString(ResolveDateKeyword(args.SelectedDate, now), now)
	if err != nil {
		result := map[string]any{
			"message": "The reservation date looks off. Could you re-confirm the date?",
		}
		return &Outcome{
			Reply:        resultMessage(result),
			FunctionTurn: functionTurn(toolCreateBooking, result),
		}, nil
	}

	booking := &domain.Booking{
		ReservationDate: date,
		ReservationTime: args.SelectedTime,
		NoOfGuests:      args.NoOfGuests,
		Occasion:        args.Occasion,
		Email:           args.Email,
		ReferenceNumber: newBookingReference(),
	}
	if user.Authenticated {
		id := user.ID
		booking.UserID = &id
	}

	if err := e.bookings.Create(ctx, booking); err != nil {
		return nil, fmt.Errorf("failed to create booking: %w", err)
	}

	if e.mailer != nil {
		if err := e.mailer.SendBookingConfirmation(booking); err != nil {
			log.Error().Err(err).Int64("booking_id", booking.ID).Msg("confirmation email failed")
		}
	}

	if err := e.sessions.ClearBookingContext(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to clear booking context")
	}
	if err := e.sessions.ClearMode(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to clear chat mode")
	}

	message := fmt.Sprintf(
		"Booking confirmed for %s at %s.\nGuests: %d, Occasion: %s\nReference: %s\nA confirmation email has been sent to %s.",
		booking.ReservationDate.Format("January 02, 2006"), booking.ReservationTime,
		booking.NoOfGuests, booking.Occasion, booking.ReferenceNumber, booking.Email,
	)
	result := map[string]any{
		"reference_number": booking.ReferenceNumber,
		"message":          message,
	}
	return &Outcome{
		Reply:        message,
		Terminal:     true,
		FunctionTurn: functionTurn(toolCreateBooking, result),
	}, nil
}

func (e *BookingEngine) handleCancel(ctx context.Context, sessionID string, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		Cancel bool `json:"cancel"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}

	if !args.Cancel {
		result := map[string]any{
			"message": "No problem. Let us continue on booking a table!",
		}
		return &Outcome{
			Reply:        resultMessage(result),
			FunctionTurn: functionTurn(toolCancelBooking, result),
		}, nil
	}

	if err := e.sessions.ClearBookingContext(ctx, sessionID); err != nil {
		return nil, err
	}
	if err := e.sessions.ClearMode(ctx, sessionID); err != nil {
		return nil, err
	}

	message := "Booking process cancelled. Let me know if you'd like to start again!"
	return &Outcome{
		Reply:        message,
		Terminal:     true,
		FunctionTurn: functionTurn(toolCancelBooking, map[string]any{"message": message}),
	}, nil
}

func bookingSlotLabel(slot string) string {
	switch slot {
	case "selected_date":
		return "the reservation date"
	case "selected_time":
		return "a time slot"
	case "no_of_guests":
		return "the number of guests"
	case "occasion":
		return "the occasion"
	case "email":
		return "an email address"
	}
	return slot
}

func newBookingReference() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.New().String(), "-", "")[:8])
}
