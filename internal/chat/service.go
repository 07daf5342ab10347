package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rasoi/chaatbot/internal/domain"
	"github.com/rasoi/chaatbot/internal/llm"
	"github.com/rasoi/chaatbot/internal/session"
)

const loginLink = `<a href="/login" data-spa="true">login</a>`

const fallbackReply = "Sorry, kuch samajh nahi aaya! Can you repeat?"

const apologyReply = "Kuch gadbad ho gayi. Please try again in a moment!"

// Input is one inbound chat message with its session identity material
type Input struct {
	User         domain.CurrentUser
	GuestID      string
	SessionToken string
	Message      string
}

// Output carries the reply text and, for fresh anonymous sessions, the newly
// minted session token the client must echo back.
type Output struct {
	Reply        string
	SessionToken string
}

// Service is the dialogue orchestrator: it resolves the session, routes the
// message by workflow mode, runs the model with the right tool palette, and
// hands tool calls to the engines.
type Service struct {
	sessions  *session.Manager
	llmRouter *llm.Router
	provider  string
	model     string
	composer  *PromptComposer
	intents   *IntentClassifier
	booking   *BookingEngine
	ordering  *OrderEngine
	chatLog   domain.ChatLogRepository
	logMaxLen int
	now       func() time.Time
}

// NewService creates the chat orchestrator
func NewService(
	sessions *session.Manager,
	llmRouter *llm.Router,
	provider, model string,
	composer *PromptComposer,
	intents *IntentClassifier,
	booking *BookingEngine,
	ordering *OrderEngine,
	chatLog domain.ChatLogRepository,
	logMaxLen int,
	now func() time.Time,
) *Service {
	if now == nil {
		now = time.Now
	}
	if logMaxLen <= 0 {
		logMaxLen = 500
	}
	return &Service{
		sessions:  sessions,
		llmRouter: llmRouter,
		provider:  provider,
		model:     model,
		composer:  composer,
		intents:   intents,
		booking:   booking,
		ordering:  ordering,
		chatLog:   chatLog,
		logMaxLen: logMaxLen,
		now:       now,
	}
}

// Respond handles one chat turn end to end and returns the text to stream
func (s *Service) Respond(ctx context.Context, in Input) (*Output, error) {
	sessionID, newToken := session.ResolveKey(in.User, in.GuestID, in.SessionToken)
	out := &Output{SessionToken: newToken}

	reply, err := s.respond(ctx, sessionID, in)
	if err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("chat turn failed")
		out.Reply = apologyReply
		return out, nil
	}
	out.Reply = reply
	return out, nil
}

func (s *Service) respond(ctx context.Context, sessionID string, in Input) (string, error) {
	mode, err := s.sessions.Mode(ctx, sessionID)
	if err != nil {
		return "", err
	}

	history, err := s.sessions.History(ctx, sessionID)
	if err != nil {
		return "", err
	}

	now := s.now()
	userCtx := s.composer.UserContext(ctx, in.User, now)
	menuCtx := s.composer.MenuContext(ctx)

	switch mode {
	case session.ModeBooking:
		lang, _ := s.sessions.Lang(ctx, sessionID)
		base := s.composer.BasePrompt(userCtx, menuCtx, lang)
		return s.runBooking(ctx, sessionID, in, base, history)
	case session.ModeOrdering:
		if !in.User.Authenticated {
			return s.blockOrdering(ctx, sessionID, in.User)
		}
		lang, _ := s.sessions.Lang(ctx, sessionID)
		base := s.composer.BasePrompt(userCtx, menuCtx, lang)
		return s.runOrdering(ctx, sessionID, in, base, history)
	}

	// no active workflow: classify first
	cls, err := s.intents.Classify(ctx, sessionID, in.Message)
	if err != nil {
		return "", err
	}
	if cls.Reply != "" {
		s.persistTurn(ctx, sessionID, in.User, domain.ChatTurn{Role: domain.ChatRoleUser, Content: in.Message})
		s.persistTurn(ctx, sessionID, in.User, domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: cls.Reply})
		return cls.Reply, nil
	}

	base := s.composer.BasePrompt(userCtx, menuCtx, cls.Lang)

	switch cls.Intent {
	case IntentBooking:
		if err := s.sessions.SetMode(ctx, sessionID, session.ModeBooking); err != nil {
			return "", err
		}
		return s.runBooking(ctx, sessionID, in, base, history)
	case IntentOrdering:
		if !in.User.Authenticated {
			return s.blockOrdering(ctx, sessionID, in.User)
		}
		if err := s.sessions.SetMode(ctx, sessionID, session.ModeOrdering); err != nil {
			return "", err
		}
		return s.runOrdering(ctx, sessionID, in, base, history)
	default:
		return s.runPlainChat(ctx, sessionID, in, base, history)
	}
}

// blockOrdering localizes the login-required message, clears any
// half-entered ordering mode, and records a login_required function turn so
// the model knows why the flow stopped.
func (s *Service) blockOrdering(ctx context.Context, sessionID string, user domain.CurrentUser) (string, error) {
	lang, _ := s.sessions.Lang(ctx, sessionID)
	if lang == "" {
		lang = session.LangHinglish
	}

	var blockMsg string
	if lang == session.LangEnglish {
		blockMsg = fmt.Sprintf(
			"Login is required for placing an online order. Please %s first, then return to me and confirm to continue. "+
				"If you prefer, you can say make a reservation, or just chat casually without logging in!", loginLink)
	} else {
		blockMsg = fmt.Sprintf(
			"Online ordering ke liye %s zaroori hai. Pehle login kijiye aur wapas laut ke mere paas aiye aur confirm kariye. "+
				"Bina login ke agar aap chahein to 'book table' keh kar reservation kar sakte hain, ya general baat cheet bhi kar sakte hain.", loginLink)
	}

	if err := s.sessions.ClearMode(ctx, sessionID); err != nil {
		return "", err
	}

	turn := domain.ChatTurn{
		Role:    domain.ChatRoleFunction,
		Name:    "login_required",
		Content: fmt.Sprintf(`{"requires_login": true, "message": %q}`, blockMsg),
	}
	s.persistTurn(ctx, sessionID, user, turn)

	return blockMsg, nil
}

func (s *Service) runBooking(ctx context.Context, sessionID string, in Input, basePrompt string, history []domain.ChatTurn) (string, error) {
	bc, err := s.sessions.BookingContext(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if bc == nil {
		bc = &session.BookingContext{Email: in.User.Email}
	}

	prompt := s.composer.BookingPrompt(basePrompt, bc, s.now())
	resp, err := s.chat(ctx, llm.ChatRequest{
		Messages:   s.buildMessages(prompt, history, in.Message),
		Tools:      BookingTools,
		ToolChoice: llm.ToolChoiceAuto,
	})
	if err != nil {
		return "", err
	}

	s.persistTurn(ctx, sessionID, in.User, domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: resp.Content})

	if len(resp.ToolCalls) == 0 {
		return s.finishPlainTurn(ctx, sessionID, in, resp.Content)
	}

	outcome, err := s.booking.Dispatch(ctx, sessionID, in.User, bc, resp.ToolCalls)
	if errors.Is(err, errNoActionableTool) {
		return s.finishPlainTurn(ctx, sessionID, in, resp.Content)
	}
	if err != nil {
		return "", err
	}
	return s.finishToolTurn(ctx, sessionID, in, prompt, history, resp.Content, outcome)
}

func (s *Service) runOrdering(ctx context.Context, sessionID string, in Input, basePrompt string, history []domain.ChatTurn) (string, error) {
	oc, err := s.sessions.OrderContext(ctx, sessionID)
	if err != nil {
		return "", err
	}
	if oc == nil {
		oc = &session.OrderContext{}
	}

	prompt := s.composer.OrderPrompt(basePrompt, oc, in.User.Authenticated, s.now())
	resp, err := s.chat(ctx, llm.ChatRequest{
		Messages:   s.buildMessages(prompt, history, in.Message),
		Tools:      OrderTools,
		ToolChoice: llm.ToolChoiceAuto,
	})
	if err != nil {
		return "", err
	}

	s.persistTurn(ctx, sessionID, in.User, domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: resp.Content})

	if len(resp.ToolCalls) == 0 {
		return s.finishPlainTurn(ctx, sessionID, in, resp.Content)
	}

	outcome, err := s.ordering.Dispatch(ctx, sessionID, in.User, oc, resp.ToolCalls)
	if errors.Is(err, errNoActionableTool) {
		return s.finishPlainTurn(ctx, sessionID, in, resp.Content)
	}
	if err != nil {
		return "", err
	}
	return s.finishToolTurn(ctx, sessionID, in, prompt, history, resp.Content, outcome)
}

func (s *Service) runPlainChat(ctx context.Context, sessionID string, in Input, basePrompt string, history []domain.ChatTurn) (string, error) {
	resp, err := s.chat(ctx, llm.ChatRequest{
		Messages:   s.buildMessages(basePrompt, history, in.Message),
		ToolChoice: llm.ToolChoiceNone,
	})
	if err != nil {
		return "", err
	}
	return s.finishPlainTurn(ctx, sessionID, in, resp.Content)
}

// finishPlainTurn persists the user/assistant pair and returns the reply,
// falling back when the model returned no text.
func (s *Service) finishPlainTurn(ctx context.Context, sessionID string, in Input, content string) (string, error) {
	if content == "" {
		content = fallbackReply
	}
	s.persistTurn(ctx, sessionID, in.User, domain.ChatTurn{Role: domain.ChatRoleUser, Content: in.Message})
	s.persistTurn(ctx, sessionID, in.User, domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: content})
	return content, nil
}

// finishToolTurn persists the function-role result and either streams a
// terminal reply directly or asks the model (tools disabled) to summarize the
// tool result conversationally.
func (s *Service) finishToolTurn(ctx context.Context, sessionID string, in Input, prompt string, history []domain.ChatTurn, assistantContent string, outcome *Outcome) (string, error) {
	if outcome.FunctionTurn != nil {
		s.persistTurn(ctx, sessionID, in.User, *outcome.FunctionTurn)
	}

	if outcome.Terminal {
		if outcome.FunctionTurn == nil {
			s.persistTurn(ctx, sessionID, in.User, domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: outcome.Reply})
		}
		return outcome.Reply, nil
	}

	messages := s.buildMessages(prompt, history, in.Message)
	messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: assistantContent})
	if outcome.FunctionTurn != nil {
		messages = append(messages, llm.Message{
			Role:    llm.RoleFunction,
			Name:    outcome.FunctionTurn.Name,
			Content: outcome.FunctionTurn.Content,
		})
	}

	followup, err := s.chat(ctx, llm.ChatRequest{
		Messages:   messages,
		ToolChoice: llm.ToolChoiceNone,
	})
	if err != nil {
		log.Warn().Err(err).Msg("follow-up summarization failed, streaming raw tool message")
		return outcome.Reply, nil
	}

	reply := followup.Content
	if reply == "" {
		reply = outcome.Reply
	}
	s.persistTurn(ctx, sessionID, in.User, domain.ChatTurn{Role: domain.ChatRoleAssistant, Content: reply})
	return reply, nil
}

// Reset clears every cached key for the resolved session
func (s *Service) Reset(ctx context.Context, user domain.CurrentUser, guestID, sessionToken string) (string, error) {
	sessionID, newToken := session.ResolveKey(user, guestID, sessionToken)
	if err := s.sessions.Reset(ctx, sessionID); err != nil {
		return "", err
	}
	return newToken, nil
}

func (s *Service) chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	provider, err := s.llmRouter.GetProvider(s.provider)
	if err != nil {
		return nil, err
	}
	return provider.Chat(ctx, req, s.model)
}

func (s *Service) buildMessages(systemPrompt string, history []domain.ChatTurn, userMessage string) []llm.Message {
	messages := make([]llm.Message, 0, len(history)+2)
	messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	for _, t := range history {
		messages = append(messages, llm.Message{Role: string(t.Role), Content: t.Content, Name: t.Name})
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
	return messages
}

// persistTurn writes a turn to both the cached history and the durable chat
// log. Log failures never fail the request.
func (s *Service) persistTurn(ctx context.Context, sessionID string, user domain.CurrentUser, turn domain.ChatTurn) {
	if err := s.sessions.AppendTurn(ctx, sessionID, turn); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to append chat turn")
	}

	if s.chatLog == nil {
		return
	}

	message := turn.Content
	if turn.Role == domain.ChatRoleFunction && turn.Name != "" {
		message = fmt.Sprintf("[%s] %s", turn.Name, turn.Content)
	}
	if len(message) > s.logMaxLen {
		message = message[:s.logMaxLen-3] + "..."
	}

	entry := &domain.ChatLogEntry{
		SessionID: sessionID,
		Role:      turn.Role,
		Message:   message,
	}
	if user.Authenticated {
		id := user.ID
		entry.UserID = &id
	}
	if err := s.chatLog.Append(ctx, entry); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to append chat log entry")
	}
}
