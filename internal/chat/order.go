package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rasoi/chaatbot/internal/domain"
	"github.com/rasoi/chaatbot/internal/llm"
	"github.com/rasoi/chaatbot/internal/session"
)

// OrderEngine executes ordering tool calls. The database order row is the
// source of truth; the session context is a working mirror that gets
// reconciled against it before any mutation.
type OrderEngine struct {
	orders      domain.OrderRepository
	menu        domain.MenuRepository
	sessions    *session.Manager
	mailer      Mailer
	frontendURL string
	now         func() time.Time
}

// NewOrderEngine creates an order engine. A nil mailer disables the COD
// confirmation email; pass an untyped nil, never a typed nil pointer.
func NewOrderEngine(orders domain.OrderRepository, menu domain.MenuRepository, sessions *session.Manager, mailer Mailer, frontendURL string, now func() time.Time) *OrderEngine {
	if now == nil {
		now = time.Now
	}
	return &OrderEngine{
		orders:      orders,
		menu:        menu,
		sessions:    sessions,
		mailer:      mailer,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		now:         now,
	}
}

// Dispatch executes the first actionable tool call of the batch, enforcing
// the confirmed-order lock and order id injection before any handler runs.
func (e *OrderEngine) Dispatch(ctx context.Context, sessionID string, user domain.CurrentUser, oc *session.OrderContext, calls []llm.ToolCall) (*Outcome, error) {
	if oc == nil {
		oc = &session.OrderContext{}
	}

	for _, call := range calls {
		log.Debug().Str("tool", call.Name).Str("session_id", sessionID).Msg("dispatching order tool")

		// The context may lag behind a payment confirmation that landed via
		// the frontend; reconcile before trusting is_confirmed.
		if !oc.IsConfirmed && oc.OrderID != 0 {
			if order, err := e.orders.Get(ctx, oc.OrderID); err == nil && order.IsConfirmed {
				oc.IsConfirmed = true
				if err := e.sessions.SaveOrderContext(ctx, sessionID, oc); err != nil {
					return nil, err
				}
			}
		}

		if call.Name != toolStartOrder && oc.IsConfirmed {
			warning := fmt.Sprintf("Order #%d is already confirmed. Further changes are not allowed.", oc.OrderID)
			return &Outcome{Reply: warning, Terminal: true}, nil
		}

		if call.Name == toolStartOrder && oc.OrderID != 0 {
			order, err := e.orders.Get(ctx, oc.OrderID)
			switch {
			case err == domain.ErrNotFound:
				// stale id in cache, start fresh
				*oc = session.OrderContext{}
			case err != nil:
				return nil, fmt.Errorf("failed to load order: %w", err)
			case order.IsConfirmed:
				// confirmed order stays untouched, start a new one
				*oc = session.OrderContext{}
			default:
				// order already in progress, skip the duplicate start
				log.Info().Int64("order_id", oc.OrderID).Msg("ignoring duplicate start_order")
				continue
			}
		}

		switch call.Name {
		case toolStartOrder:
			return e.handleStart(ctx, sessionID, user, oc)
		case toolAddOrderItem:
			return e.handleAddItem(ctx, sessionID, oc, call.Arguments)
		case toolReviseOrderItem:
			return e.handleReviseItem(ctx, sessionID, oc, call.Arguments)
		case toolAvailableDeliverySlots:
			return e.handleAvailableSlots(ctx, sessionID, oc, call.Arguments)
		case toolValidateDeliveryTime:
			return e.handleValidateTime(ctx, sessionID, oc, call.Arguments)
		case toolSetDeliveryDate:
			return e.handleSetDate(ctx, sessionID, oc, call.Arguments)
		case toolSetDeliveryTimeSlot:
			return e.handleSetTimeSlot(ctx, sessionID, oc, call.Arguments)
		case toolSetDeliveryType:
			return e.handleSetType(ctx, sessionID, oc, call.Arguments)
		case toolSetDeliveryDetails:
			return e.handleSetDetails(ctx, sessionID, oc, call.Arguments)
		case toolSetPaymentMethod:
			return e.handleSetPayment(ctx, sessionID, oc, call.Arguments)
		case toolCheckoutOrder:
			return e.handleCheckout(ctx, sessionID, user, oc, call.Arguments)
		case toolDeleteOrder:
			return e.handleDelete(ctx, sessionID, oc)
		default:
			log.Warn().Str("tool", call.Name).Msg("unknown order tool requested")
		}
	}

	return nil, errNoActionableTool
}

func (e *OrderEngine) handleStart(ctx context.Context, sessionID string, user domain.CurrentUser, oc *session.OrderContext) (*Outcome, error) {
	order := &domain.Order{UserID: user.ID}
	if err := e.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	oc.OrderID = order.ID
	if err := e.sessions.SaveOrderContext(ctx, sessionID, oc); err != nil {
		return nil, err
	}

	result := map[string]any{
		"order_id": order.ID,
		"message": fmt.Sprintf("Your order has started! (Order ID: %d) Let's start with your first item to add. "+
			"Let me know if you want to browse the menu or categories.", order.ID),
	}
	return &Outcome{
		Reply:        resultMessage(result),
		FunctionTurn: functionTurn(toolStartOrder, result),
	}, nil
}

// refreshItems mirrors the order rows back into the session context and
// returns the line list for tool results.
func (e *OrderEngine) refreshItems(ctx context.Context, sessionID string, oc *session.OrderContext) ([]map[string]any, error) {
	items, err := e.orders.ListItems(ctx, oc.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}

	lines := make([]session.OrderLine, 0, len(items))
	list := make([]map[string]any, 0, len(items))
	for _, it := range items {
		lines = append(lines, session.OrderLine{Title: it.Title, Qty: it.Quantity, Price: it.Price})
		list = append(list, map[string]any{"title": it.Title, "qty": it.Quantity, "price": it.Price})
	}

	oc.Items = lines
	if err := e.sessions.SaveOrderContext(ctx, sessionID, oc); err != nil {
		return nil, err
	}
	return list, nil
}

func (e *OrderEngine) requireOrder(oc *session.OrderContext) *Outcome {
	if oc.Started() {
		return nil
	}
	return &Outcome{
		Reply:        "There is no active order yet. Shall I start one for you?",
		FunctionTurn: functionTurn(toolStartOrder, map[string]any{"message": "no active order in context"}),
	}
}

// handleAddItem adds quantities additively: asking for 2 samosas twice means
// 4 samosas.
func (e *OrderEngine) handleAddItem(ctx context.Context, sessionID string, oc *session.OrderContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		MenuItemTitle string `json:"menuitem_title"`
		Quantity      int    `json:"quantity"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	if out := e.requireOrder(oc); out != nil {
		return out, nil
	}

	item, err := e.menu.GetItemByTitle(ctx, args.MenuItemTitle)
	if err == domain.ErrNotFound {
		result := map[string]any{"message": fmt.Sprintf("Item %q not found in our menu.", args.MenuItemTitle)}
		return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolAddOrderItem, result)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up menu item: %w", err)
	}
	if args.Quantity < 1 {
		result := map[string]any{"message": "Quantity should be at least 1. Use revise_order_item with 0 to remove."}
		return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolAddOrderItem, result)}, nil
	}

	line, err := e.orders.GetItem(ctx, oc.OrderID, item.ID)
	if err != nil && err != domain.ErrNotFound {
		return nil, fmt.Errorf("failed to load order line: %w", err)
	}

	qty := args.Quantity
	if line != nil {
		qty += line.Quantity
	}
	if err := e.orders.UpsertItem(ctx, &domain.OrderItem{
		OrderID:    oc.OrderID,
		MenuItemID: item.ID,
		Title:      item.Title,
		Quantity:   qty,
		Price:      item.Price * float64(qty),
	}); err != nil {
		return nil, fmt.Errorf("failed to save order line: %w", err)
	}

	list, err := e.refreshItems(ctx, sessionID, oc)
	if err != nil {
		return nil, err
	}

	result := map[string]any{
		"message": fmt.Sprintf("Added %d x %s (@ Rs %.2f) to Order #%d (now %d total).",
			args.Quantity, item.Title, item.Price, oc.OrderID, qty),
		"items": list,
	}
	return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolAddOrderItem, result)}, nil
}

func (e *OrderEngine) handleReviseItem(ctx context.Context, sessionID string, oc *session.OrderContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		MenuItemTitle string `json:"menuitem_title"`
		Quantity      int    `json:"quantity"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	if out := e.requireOrder(oc); out != nil {
		return out, nil
	}

	item, err := e.menu.GetItemByTitle(ctx, args.MenuItemTitle)
	if err == domain.ErrNotFound {
		result := map[string]any{"message": fmt.Sprintf("Item %q not found in our menu.", args.MenuItemTitle)}
		return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolReviseOrderItem, result)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up menu item: %w", err)
	}

	if _, err := e.orders.GetItem(ctx, oc.OrderID, item.ID); err == domain.ErrNotFound {
		result := map[string]any{"message": fmt.Sprintf("%q is not in your order.", args.MenuItemTitle)}
		return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolReviseOrderItem, result)}, nil
	} else if err != nil {
		return nil, fmt.Errorf("failed to load order line: %w", err)
	}

	var msg string
	if args.Quantity == 0 {
		if err := e.orders.DeleteItem(ctx, oc.OrderID, item.ID); err != nil {
			return nil, fmt.Errorf("failed to remove order line: %w", err)
		}
		msg = fmt.Sprintf("%q has been removed from your order.", item.Title)
	} else {
		if err := e.orders.UpsertItem(ctx, &domain.OrderItem{
			OrderID:    oc.OrderID,
			MenuItemID: item.ID,
			Title:      item.Title,
			Quantity:   args.Quantity,
			Price:      item.Price * float64(args.Quantity),
		}); err != nil {
			return nil, fmt.Errorf("failed to save order line: %w", err)
		}
		msg = fmt.Sprintf("%q quantity updated to %d.", item.Title, args.Quantity)
	}

	list, err := e.refreshItems(ctx, sessionID, oc)
	if err != nil {
		return nil, err
	}

	result := map[string]any{"message": msg, "items": list}
	return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolReviseOrderItem, result)}, nil
}

func (e *OrderEngine) handleAvailableSlots(ctx context.Context, sessionID string, oc *session.OrderContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		DeliveryDate string `json:"delivery_date"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}

	now := e.now()
	resolved := ResolveDateKeyword(args.DeliveryDate, now)
	slots := AvailableDeliverySlots(resolved, now)

	// fetching slots for a different date invalidates the chosen time
	if step := stepFor(orderSteps, "delivery_date"); oc.DeliveryDate != resolved {
		for _, slot := range step.Clears {
			if slot == "delivery_time_slot" {
				oc.DeliveryTimeSlot = ""
			}
		}
	}
	oc.DeliveryDate = resolved
	oc.AvailableSlots = slots
	if err := e.sessions.SaveOrderContext(ctx, sessionID, oc); err != nil {
		return nil, err
	}

	var formatted []string
	for _, slot := range slots {
		formatted = append(formatted, FormatSlot(slot))
	}
	result := map[string]any{
		"delivery_date":   resolved,
		"available_slots": slots,
		"message":         fmt.Sprintf("Available slots for %s: %s.", resolved, strings.Join(formatted, ", ")),
	}
	return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolAvailableDeliverySlots, result)}, nil
}

func (e *OrderEngine) handleValidateTime(ctx context.Context, sessionID string, oc *session.OrderContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		DeliveryTime   string   `json:"delivery_time"`
		AvailableSlots []string `json:"available_slots"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}

	slots := oc.AvailableSlots
	if len(slots) == 0 {
		slots = args.AvailableSlots
	}

	var result map[string]any
	if containsSlot(slots, args.DeliveryTime) {
		result = map[string]any{
			"valid":   true,
			"message": fmt.Sprintf("%s it is!", args.DeliveryTime),
		}
	} else {
		result = map[string]any{
			"valid":   false,
			"message": fmt.Sprintf("Oops! %s is not available. Please choose another time.", args.DeliveryTime),
		}
	}
	return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolValidateDeliveryTime, result)}, nil
}

// handleSetDate persists the date and clears the dependent time slot per the
// step table, so a stale pick can never survive a date change.
func (e *OrderEngine) handleSetDate(ctx context.Context, sessionID string, oc *session.OrderContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		DeliveryDate string `json:"delivery_date"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	if out := e.requireOrder(oc); out != nil {
		return out, nil
	}

	resolved := ResolveDateKeyword(args.DeliveryDate, e.now())
	if step := stepFor(orderSteps, "delivery_date"); oc.DeliveryDate != resolved {
		for _, slot := range step.Clears {
			switch slot {
			case "delivery_time_slot":
				oc.DeliveryTimeSlot = ""
			case "available_slots":
				oc.AvailableSlots = nil
			}
		}
	}
	oc.DeliveryDate = resolved
	if err := e.sessions.SaveOrderContext(ctx, sessionID, oc); err != nil {
		return nil, err
	}

	result := map[string]any{
		"delivery_date": resolved,
		"message":       fmt.Sprintf("Delivery date set to %s.", resolved),
	}
	return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolSetDeliveryDate, result)}, nil
}

func (e *OrderEngine) handleSetTimeSlot(ctx context.Context, sessionID string, oc *session.OrderContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		DeliveryTimeSlot string `json:"delivery_time_slot"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	if out := e.requireOrder(oc); out != nil {
		return out, nil
	}

	if len(oc.AvailableSlots) > 0 && !containsSlot(oc.AvailableSlots, args.DeliveryTimeSlot) {
		result := map[string]any{
			"message": fmt.Sprintf("%s is not among the available slots. Please pick from: %s.",
				args.DeliveryTimeSlot, strings.Join(oc.AvailableSlots, ", ")),
		}
		return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolSetDeliveryTimeSlot, result)}, nil
	}

	oc.DeliveryTimeSlot = args.DeliveryTimeSlot
	if err := e.sessions.SaveOrderContext(ctx, sessionID, oc); err != nil {
		return nil, err
	}

	result := map[string]any{
		"delivery_time_slot": args.DeliveryTimeSlot,
		"message":            fmt.Sprintf("Time slot set to %s.", args.DeliveryTimeSlot),
	}
	return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolSetDeliveryTimeSlot, result)}, nil
}

func (e *OrderEngine) handleSetType(ctx context.Context, sessionID string, oc *session.OrderContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		DeliveryType string `json:"delivery_type"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	if out := e.requireOrder(oc); out != nil {
		return out, nil
	}

	dt := strings.ToLower(strings.TrimSpace(args.DeliveryType))
	if dt != domain.DeliveryTypeDelivery && dt != domain.DeliveryTypePickup {
		result := map[string]any{"message": "Please choose either delivery or pickup."}
		return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolSetDeliveryType, result)}, nil
	}

	oc.DeliveryType = dt
	if dt == domain.DeliveryTypePickup {
		oc.DeliveryAddress, oc.DeliveryCity, oc.DeliveryPin = "", "", ""
	}
	if err := e.sessions.SaveOrderContext(ctx, sessionID, oc); err != nil {
		return nil, err
	}

	result := map[string]any{
		"delivery_type": dt,
		"message":       fmt.Sprintf("Method set to %s.", dt),
	}
	return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolSetDeliveryType, result)}, nil
}

func (e *OrderEngine) handleSetDetails(ctx context.Context, sessionID string, oc *session.OrderContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		DeliveryAddress string `json:"delivery_address"`
		DeliveryCity    string `json:"delivery_city"`
		DeliveryPin     string `json:"delivery_pin"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	if out := e.requireOrder(oc); out != nil {
		return out, nil
	}

	oc.DeliveryAddress = strings.TrimSpace(args.DeliveryAddress)
	oc.DeliveryCity = strings.TrimSpace(args.DeliveryCity)
	oc.DeliveryPin = strings.TrimSpace(args.DeliveryPin)
	if err := e.sessions.SaveOrderContext(ctx, sessionID, oc); err != nil {
		return nil, err
	}

	result := map[string]any{
		"delivery_address": oc.DeliveryAddress,
		"delivery_city":    oc.DeliveryCity,
		"delivery_pin":     oc.DeliveryPin,
		"message":          "Delivery address saved.",
	}
	return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolSetDeliveryDetails, result)}, nil
}

func (e *OrderEngine) handleSetPayment(ctx context.Context, sessionID string, oc *session.OrderContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		PaymentMethod string `json:"payment_method"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	if out := e.requireOrder(oc); out != nil {
		return out, nil
	}

	pm := strings.ToLower(strings.TrimSpace(args.PaymentMethod))
	if pm != domain.PaymentMethodStripe && pm != domain.PaymentMethodCOD {
		result := map[string]any{"message": "Please choose either stripe (online) or cod (cash on delivery)."}
		return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolSetPaymentMethod, result)}, nil
	}

	oc.PaymentMethod = pm
	if err := e.sessions.SaveOrderContext(ctx, sessionID, oc); err != nil {
		return nil, err
	}

	result := map[string]any{
		"payment_method": pm,
		"message":        fmt.Sprintf("Payment method set to %s.", pm),
	}
	return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolSetPaymentMethod, result)}, nil
}

// handleCheckout finalizes the order row from the merged context, appends the
// checkout iframe sentinel the frontend swaps for an embedded form, and ends
// the workflow. Terminal.
func (e *OrderEngine) handleCheckout(ctx context.Context, sessionID string, user domain.CurrentUser, oc *session.OrderContext, raw json.RawMessage) (*Outcome, error) {
	var args struct {
		DeliveryType     string `json:"delivery_type"`
		DeliveryDate     string `json:"delivery_date"`
		DeliveryTimeSlot string `json:"delivery_time_slot"`
		PaymentMethod    string `json:"payment_method"`
		DeliveryAddress  string `json:"delivery_address"`
		DeliveryCity     string `json:"delivery_city"`
		DeliveryPin      string `json:"delivery_pin"`
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("failed to decode tool arguments: %w", err)
	}
	if out := e.requireOrder(oc); out != nil {
		return out, nil
	}

	order, err := e.orders.Get(ctx, oc.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.IsConfirmed {
		return &Outcome{
			Reply:    fmt.Sprintf("Order #%d has already been confirmed and cannot be checked out again.", order.ID),
			Terminal: true,
		}, nil
	}

	// arguments win over context, context fills the gaps
	deliveryType := firstNonEmpty(args.DeliveryType, oc.DeliveryType)
	deliveryDate := ResolveDateKeyword(firstNonEmpty(args.DeliveryDate, oc.DeliveryDate), e.now())
	timeSlot := firstNonEmpty(args.DeliveryTimeSlot, oc.DeliveryTimeSlot)
	payment := firstNonEmpty(args.PaymentMethod, oc.PaymentMethod)
	address := firstNonEmpty(args.DeliveryAddress, oc.DeliveryAddress)
	city := firstNonEmpty(args.DeliveryCity, oc.DeliveryCity)
	pin := firstNonEmpty(args.DeliveryPin, oc.DeliveryPin)

	items, err := e.orders.ListItems(ctx, oc.OrderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}

	// checkout depends on every upstream slot; an order with holes is
	// re-prompted, never persisted
	filled := map[string]bool{
		"items":              len(items) > 0,
		"delivery_date":      deliveryDate != "",
		"delivery_time_slot": timeSlot != "",
		"delivery_type":      deliveryType != "",
		"payment_method":     payment != "",
	}
	var missing []string
	for _, slot := range stepFor(orderSteps, "confirmation").DependsOn {
		if !filled[slot] {
			missing = append(missing, orderSlotLabel(slot))
		}
	}
	if strings.EqualFold(deliveryType, domain.DeliveryTypeDelivery) && (address == "" || city == "" || pin == "") {
		missing = append(missing, "the delivery address")
	}
	if len(missing) > 0 {
		result := map[string]any{
			"missing": missing,
			"message": fmt.Sprintf("The order is not ready for checkout yet, I still need %s. Let's sort that out first.",
				strings.Join(missing, ", ")),
		}
		return &Outcome{Reply: resultMessage(result), FunctionTurn: functionTurn(toolCheckoutOrder, result)}, nil
	}

	var total float64
	for _, it := range items {
		total += it.Price
	}

	order.Total = total
	order.DeliveryType = deliveryType
	order.DeliveryTimeSlot = timeSlot
	order.PaymentMethod = payment
	if parsed, err := time.ParseInLocation("2006-01-02", deliveryDate, e.now().Location()); err == nil {
		order.DeliveryDate = &parsed
	}
	if strings.EqualFold(deliveryType, domain.DeliveryTypeDelivery) {
		order.DeliveryAddress = address
		order.DeliveryCity = city
		order.DeliveryPin = pin
	}

	if err := e.orders.Update(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to update order: %w", err)
	}

	// COD has no payment step, so the confirmation email goes out at
	// checkout. Online payments get theirs after the payment succeeds.
	if payment == domain.PaymentMethodCOD && e.mailer != nil && user.Email != "" {
		if err := e.mailer.SendOrderConfirmation(user.Email, order, items); err != nil {
			log.Error().Err(err).Int64("order_id", order.ID).Msg("order confirmation email failed")
		}
	}

	oc.DeliveryType = deliveryType
	oc.DeliveryDate = deliveryDate
	oc.DeliveryTimeSlot = timeSlot
	oc.PaymentMethod = payment
	oc.DeliveryAddress = order.DeliveryAddress
	oc.DeliveryCity = order.DeliveryCity
	oc.DeliveryPin = order.DeliveryPin
	oc.IsConfirmed = order.IsConfirmed
	if err := e.sessions.SaveOrderContext(ctx, sessionID, oc); err != nil {
		return nil, err
	}
	if err := e.sessions.ClearMode(ctx, sessionID); err != nil {
		log.Error().Err(err).Str("session_id", sessionID).Msg("failed to clear chat mode")
	}

	iframeURL := fmt.Sprintf("__IFRAME_URL__:%s/bot-orders?order_id=%d__", e.frontendURL, order.ID)
	message := "Finalized."
	if payment == domain.PaymentMethodCOD {
		message += fmt.Sprintf("\n\nHere is your checkout form:\n%s", iframeURL)
	} else {
		message += fmt.Sprintf("Here is your checkout form:\n%s\n\nOnce payment is successful, you'll get a confirmation email!", iframeURL)
	}

	result := map[string]any{
		"order_id":       order.ID,
		"total":          total,
		"delivery_type":  deliveryType,
		"delivery_date":  deliveryDate,
		"payment_method": payment,
		"is_confirmed":   order.IsConfirmed,
		"message":        message,
	}
	return &Outcome{
		Reply:        message,
		Terminal:     true,
		FunctionTurn: functionTurn(toolCheckoutOrder, result),
	}, nil
}

func (e *OrderEngine) handleDelete(ctx context.Context, sessionID string, oc *session.OrderContext) (*Outcome, error) {
	if !oc.Started() {
		return &Outcome{Reply: "Order not found or already deleted.", Terminal: true}, nil
	}

	order, err := e.orders.Get(ctx, oc.OrderID)
	if err == domain.ErrNotFound {
		if err := e.sessions.ClearOrderContext(ctx, sessionID); err != nil {
			return nil, err
		}
		return &Outcome{Reply: "Order not found or already deleted.", Terminal: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	if order.IsConfirmed {
		return &Outcome{Reply: "Confirmed orders cannot be deleted.", Terminal: true}, nil
	}

	if err := e.orders.Delete(ctx, order.ID); err != nil {
		return nil, fmt.Errorf("failed to delete order: %w", err)
	}
	if err := e.sessions.ClearOrderContext(ctx, sessionID); err != nil {
		return nil, err
	}
	if err := e.sessions.ClearMode(ctx, sessionID); err != nil {
		return nil, err
	}

	message := fmt.Sprintf("Order #%d deleted successfully.", order.ID)
	return &Outcome{
		Reply:        message,
		Terminal:     true,
		FunctionTurn: functionTurn(toolDeleteOrder, map[string]any{"message": message}),
	}, nil
}

func orderSlotLabel(slot string) string {
	switch slot {
	case "items":
		return "at least one item"
	case "delivery_date":
		return "a delivery date"
	case "delivery_time_slot":
		return "a time slot"
	case "delivery_type":
		return "delivery or pickup"
	case "payment_method":
		return "a payment method"
	}
	return slot
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
