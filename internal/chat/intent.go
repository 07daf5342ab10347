package chat

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/rasoi/chaatbot/internal/llm"
	"github.com/rasoi/chaatbot/internal/session"
)

// Intent tokens returned by the classifier.
const (
	IntentBooking  = "booking"
	IntentOrdering = "ordering"
	IntentNone     = "none"

	tokenSwitchEN = "switch_to_en"
	tokenSwitchHN = "switch_to_h"
)

const classifierPrompt = `Classify the user's explicit intent.

Return exactly one token:
- booking
- ordering
- none
- switch_to_en
- switch_to_h

Treat imperative commands as explicit intent even without "do it for me".

Examples that mean ORDERING:
- "please order for me", "start the order", "order shuru karo"
- "mere liye order kar do", "aap hi kar do" (when context is about ordering)
- "4 aloo puri chahiye", "2 samosa dena" (items with quantities imply ordering)

Examples that mean BOOKING:
- "book a table", "reserve a table"
- "table book kar do", "kal 7 baje 4 logon ke liye table"

Examples that mean SWITCH_TO_EN / SWITCH_TO_H:
- "switch to english", "english please" -> switch_to_en
- "hindi me baat karo", "hinglish please" -> switch_to_h

Examples that mean NONE (just info):
- "how does ordering work?", "can I reserve online?"
- "what is there in menu/specials?", "what are your hours?"

The user may write in English, Hindi, or Hinglish. Answer with exactly one token.`

// Classification is the outcome of one classifier pass. A non-empty Reply
// short-circuits the main LLM turn (language handshake or switch
// confirmation).
type Classification struct {
	Intent string
	Lang   string
	Reply  string
}

// IntentClassifier decides whether a message starts a workflow, switches
// language, or is plain chat. Before any classification it runs the one-time
// language handshake for the session.
type IntentClassifier struct {
	provider llm.Provider
	model    string
	sessions *session.Manager
}

// NewIntentClassifier creates an intent classifier
func NewIntentClassifier(provider llm.Provider, model string, sessions *session.Manager) *IntentClassifier {
	return &IntentClassifier{provider: provider, model: model, sessions: sessions}
}

// Classify runs the handshake and, once a language is known, the single-token
// LLM classification. Classifier failures fail open to IntentNone so the chat
// never hard-errors on the model.
func (c *IntentClassifier) Classify(ctx context.Context, sessionID, message string) (Classification, error) {
	lang, err := c.sessions.Lang(ctx, sessionID)
	if err != nil {
		return Classification{}, err
	}

	if lang == "" {
		return c.handshake(ctx, sessionID, message)
	}

	token := c.classifyToken(ctx, message)
	switch token {
	case IntentBooking, IntentOrdering:
		return Classification{Intent: token, Lang: lang}, nil
	case tokenSwitchEN:
		if err := c.sessions.SetLang(ctx, sessionID, session.LangEnglish); err != nil {
			return Classification{}, err
		}
		return Classification{
			Intent: IntentNone,
			Lang:   session.LangEnglish,
			Reply:  "Done! We will continue in English. How can I help you?",
		}, nil
	case tokenSwitchHN:
		if err := c.sessions.SetLang(ctx, sessionID, session.LangHinglish); err != nil {
			return Classification{}, err
		}
		return Classification{
			Intent: IntentNone,
			Lang:   session.LangHinglish,
			Reply:  "Theek hai! Ab se Hinglish me baat karenge. Boliye, kya seva karein?",
		}, nil
	default:
		return Classification{Intent: IntentNone, Lang: lang}, nil
	}
}

// handshake inspects the first messages of a session for a literal language
// choice. Until one is made, every turn gets the canned language question.
func (c *IntentClassifier) handshake(ctx context.Context, sessionID, message string) (Classification, error) {
	m := strings.ToLower(message)

	switch {
	case strings.Contains(m, "english"):
		if err := c.sessions.SetLang(ctx, sessionID, session.LangEnglish); err != nil {
			return Classification{}, err
		}
		return Classification{
			Intent: IntentNone,
			Lang:   session.LangEnglish,
			Reply:  "Lovely, English it is! What can I get you today, a table or some street food?",
		}, nil
	case strings.Contains(m, "hinglish"), strings.Contains(m, "hindi"):
		if err := c.sessions.SetLang(ctx, sessionID, session.LangHinglish); err != nil {
			return Classification{}, err
		}
		return Classification{
			Intent: IntentNone,
			Lang:   session.LangHinglish,
			Reply:  "Wah! Hinglish me hi baat karenge. Boliye, table book karna hai ya kuch khaana order karna hai?",
		}, nil
	default:
		return Classification{
			Intent: IntentNone,
			Reply:  "Namaste! Before we begin: English me baat karein ya Hinglish me? (Say \"English\" or \"Hinglish\")",
		}, nil
	}
}

// classifyToken asks the model for a single-token classification. Any
// unexpected output maps to IntentNone.
func (c *IntentClassifier) classifyToken(ctx context.Context, message string) string {
	resp, err := c.provider.Chat(ctx, llm.ChatRequest{
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: classifierPrompt},
			{Role: llm.RoleUser, Content: strings.TrimSpace(message)},
		},
		Temperature: 0,
		MaxTokens:   5,
		ToolChoice:  llm.ToolChoiceNone,
	}, c.model)
	if err != nil {
		log.Warn().Err(err).Msg("intent classification failed, falling back to none")
		return IntentNone
	}

	raw := strings.TrimSpace(resp.Content)
	if idx := strings.IndexByte(raw, '\n'); idx >= 0 {
		raw = raw[:idx]
	}
	token := strings.ToLower(strings.Trim(raw, `"' .`))

	switch token {
	case IntentBooking, IntentOrdering, tokenSwitchEN, tokenSwitchHN:
		return token
	default:
		return IntentNone
	}
}
