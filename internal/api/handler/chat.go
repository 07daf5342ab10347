package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/rasoi/chaatbot/internal/api/middleware"
	"github.com/rasoi/chaatbot/internal/api/response"
	"github.com/rasoi/chaatbot/internal/chat"
)

var validate = validator.New()

// ChatHandler handles the conversational endpoints
type ChatHandler struct {
	chatService *chat.Service
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *chat.Service) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// Chat handles one chat turn and streams the reply as plain text. A freshly
// minted session token for anonymous clients is exposed via the
// X-Session-Token response header before the body starts.
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Message string `json:"message" validate:"required,max=2000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(input); err != nil {
		response.BadRequest(w, "message is required")
		return
	}

	out, err := h.chatService.Respond(r.Context(), chat.Input{
		User:         middleware.CurrentUser(r.Context()),
		GuestID:      r.Header.Get(middleware.GuestIDHeader),
		SessionToken: r.Header.Get(middleware.SessionTokenHeader),
		Message:      input.Message,
	})
	if err != nil {
		response.InternalError(w, "chat failed")
		return
	}

	if out.SessionToken != "" {
		w.Header().Set(middleware.SessionTokenHeader, out.SessionToken)
	}
	streamText(w, out.Reply)
}

// Reset clears all cached session state for the caller
func (h *ChatHandler) Reset(w http.ResponseWriter, r *http.Request) {
	newToken, err := h.chatService.Reset(
		r.Context(),
		middleware.CurrentUser(r.Context()),
		r.Header.Get(middleware.GuestIDHeader),
		r.Header.Get(middleware.SessionTokenHeader),
	)
	if err != nil {
		response.InternalError(w, "reset failed")
		return
	}

	if newToken != "" {
		w.Header().Set(middleware.SessionTokenHeader, newToken)
	}
	response.OK(w, map[string]string{"status": "reset"})
}

// streamText writes the reply in small flushed chunks so clients can render
// it progressively.
func streamText(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(http.StatusOK)

	flusher, ok := w.(http.Flusher)
	if !ok {
		w.Write([]byte(text))
		return
	}

	const chunkSize = 64
	for len(text) > 0 {
		n := chunkSize
		if n > len(text) {
			n = len(text)
		}
		w.Write([]byte(text[:n]))
		flusher.Flush()
		text = text[n:]
	}
}
