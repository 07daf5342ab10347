package chat

import (
	"encoding/json"
	"errors"

	"github.com/rasoi/chaatbot/internal/domain"
)

// Mailer sends transactional confirmations. Satisfied by email.Sender.
type Mailer interface {
	SendBookingConfirmation(booking *domain.Booking) error
	SendOrderConfirmation(to string, order *domain.Order, items []domain.OrderItem) error
}

// errNoActionableTool signals that every tool call in the batch was skipped
// or unknown. The orchestrator treats it as a plain conversational turn
// rather than a failure.
var errNoActionableTool = errors.New("no executable tool call in batch")

// Outcome is the result of dispatching one batch of tool calls.
//
// Terminal outcomes stream Reply to the client as-is and skip the follow-up
// model turn. Non-terminal outcomes carry a function-role turn that the
// orchestrator appends to history before re-invoking the model (tools
// disabled) for a conversational summary.
type Outcome struct {
	Reply        string
	Terminal     bool
	FunctionTurn *domain.ChatTurn
}

// functionTurn packages a tool result as a function-role chat turn
func functionTurn(name string, result map[string]any) *domain.ChatTurn {
	content, err := json.Marshal(result)
	if err != nil {
		content = []byte(`{}`)
	}
	return &domain.ChatTurn{
		Role:    domain.ChatRoleFunction,
		Name:    name,
		Content: string(content),
	}
}

func resultMessage(result map[string]any) string {
	if msg, ok := result["message"].(string); ok && msg != "" {
		return msg
	}
	content, err := json.Marshal(result)
	if err != nil {
		return ""
	}
	return string(content)
}

func containsSlot(slots []string, slot string) bool {
	for _, s := range slots {
		if s == slot {
			return true
		}
	}
	return false
}
