package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rasoi/chaatbot/internal/domain"
	"github.com/rasoi/chaatbot/internal/session"
)

// PromptComposer assembles the system prompt from personalization data, the
// menu, and the active workflow context. Prompts are advisory input for the
// model; all real enforcement lives in the dispatchers.
type PromptComposer struct {
	users    domain.UserRepository
	menu     domain.MenuRepository
	bookings domain.BookingRepository
	orders   domain.OrderRepository
	reviews  domain.ReviewRepository

	restaurantName string
}

// NewPromptComposer creates a prompt composer
func NewPromptComposer(
	users domain.UserRepository,
	menu domain.MenuRepository,
	bookings domain.BookingRepository,
	orders domain.OrderRepository,
	reviews domain.ReviewRepository,
	restaurantName string,
) *PromptComposer {
	return &PromptComposer{
		users:          users,
		menu:           menu,
		bookings:       bookings,
		orders:         orders,
		reviews:        reviews,
		restaurantName: restaurantName,
	}
}

// addressLabel picks the endearing honorific used to greet the user, based
// on profile gender and age.
func addressLabel(profile *domain.UserProfile, now time.Time) string {
	if profile == nil {
		return "Janaab"
	}

	age := -1
	if profile.DOB != nil {
		dob := *profile.DOB
		age = now.Year() - dob.Year()
		if now.Month() < dob.Month() || (now.Month() == dob.Month() && now.Day() < dob.Day()) {
			age--
		}
	}

	switch profile.Gender {
	case "M":
		if age >= 0 && age >= 40 {
			return "Chacha-Jaan"
		}
		return "Bhai-Jaan"
	case "F":
		switch {
		case age < 0:
			return "Mohtarma"
		case age < 40:
			return "Jiji-Jaan"
		case age < 50:
			return "Aapi-Jaan"
		default:
			return "Khala-Jaan"
		}
	}
	return "Mitra"
}

// UserContext renders the personalization block: profile, honorific, and the
// user's recent bookings, orders, and reviews. Guests get a neutral line.
func (p *PromptComposer) UserContext(ctx context.Context, user domain.CurrentUser, now time.Time) string {
	if !user.Authenticated {
		return "No user is logged in, so help in general terms and manner."
	}

	profile, err := p.users.GetProfile(ctx, user.ID)
	if err != nil {
		log.Warn().Err(err).Str("user_id", user.ID.String()).Msg("failed to load user profile")
	}
	label := addressLabel(profile, now)

	profileStr := "No profile data available."
	if profile != nil {
		dob := "unknown"
		if profile.DOB != nil {
			dob = profile.DOB.Format("2006-01-02")
		}
		profileStr = fmt.Sprintf(
			"- DOB: %s\n- Gender: %s\n- City: %s, State: %s, Country: %s\n- Phone: %s",
			dob, profile.Gender, profile.City, profile.State, profile.Country, profile.Phone,
		)
	}

	bookingStr := "No recent bookings."
	if bookings, err := p.bookings.ListRecentByUser(ctx, user.ID, 3); err == nil && len(bookings) > 0 {
		var lines []string
		for _, b := range bookings {
			lines = append(lines, fmt.Sprintf(
				"%s at %s (%d guests, occasion: %s, Ref: %s)",
				b.ReservationDate.Format("January 02, 2006"), FormatSlot(b.ReservationTime),
				b.NoOfGuests, b.Occasion, b.ReferenceNumber,
			))
		}
		bookingStr = strings.Join(lines, "\n")
	}

	orderStr := "No recent orders."
	if orders, err := p.orders.ListRecentByUser(ctx, user.ID, 3); err == nil && len(orders) > 0 {
		var lines []string
		for _, o := range orders {
			items, _ := p.orders.ListItems(ctx, o.ID)
			var itemList []string
			for _, it := range items {
				itemList = append(itemList, fmt.Sprintf("%s x%d", it.Title, it.Quantity))
			}
			status := "Pending"
			if o.Delivered {
				status = "Delivered"
			}
			lines = append(lines, fmt.Sprintf(
				"Order #%d on %s: %s | Total: Rs %.2f | Status: %s",
				o.ID, o.CreatedAt.Format("January 02, 2006"), strings.Join(itemList, ", "), o.Total, status,
			))
		}
		orderStr = strings.Join(lines, "\n")
	}

	reviewStr := "No recent reviews."
	if reviews, err := p.reviews.ListRecentByUser(ctx, user.ID, 3); err == nil && len(reviews) > 0 {
		var lines []string
		for _, r := range reviews {
			feedback := r.Feedback
			if len(feedback) > 60 {
				feedback = feedback[:60] + "..."
			}
			lines = append(lines, fmt.Sprintf("%s (rating %d/5)", feedback, r.Rating))
		}
		reviewStr = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`Ka ho %s %s, sab theek ba?

USER INFO:
- Username: %s
- Addressed as: %s
- Email: %s
- Profile Details:
%s

RECENT BOOKINGS:
%s

RECENT ORDERS:
%s

RECENT REVIEWS:
%s`,
		user.Username, strings.ToUpper(label),
		user.Username, label, user.Email, profileStr,
		bookingStr, orderStr, reviewStr,
	)
}

// MenuContext renders the static restaurant block: categories, specials, the
// full menu, and the fixed slot/type/payment palettes.
func (p *PromptComposer) MenuContext(ctx context.Context) string {
	categoryStr := "No categories."
	if categories, err := p.menu.ListCategories(ctx); err == nil && len(categories) > 0 {
		var titles []string
		for _, c := range categories {
			titles = append(titles, c.Title)
		}
		categoryStr = strings.Join(titles, ", ")
	}

	menuList := "No menu data."
	if items, err := p.menu.ListItems(ctx); err == nil && len(items) > 0 {
		menuList = renderMenuItems(items)
	}

	specialsList := "No specials."
	if specials, err := p.menu.ListFeatured(ctx); err == nil && len(specials) > 0 {
		specialsList = renderMenuItems(specials)
	}

	return fmt.Sprintf(`OUR MENU CATEGORIES:
%s

FEATURED SPECIALS:
%s

FULL MENU ITEMS:
%s

DELIVERY TIME SLOTS:
%s

DELIVERY TYPES: %s, %s
PAYMENT METHODS: %s, %s`,
		categoryStr, specialsList, menuList,
		strings.Join(DeliveryTimeSlots, ", "),
		domain.DeliveryTypeDelivery, domain.DeliveryTypePickup,
		domain.PaymentMethodStripe, domain.PaymentMethodCOD,
	)
}

func renderMenuItems(items []domain.MenuItem) string {
	var lines []string
	for _, item := range items {
		desc := item.Description
		if desc == "" {
			desc = "No description"
		}
		lines = append(lines, fmt.Sprintf("%s (Rs %.2f) - %s", item.Title, item.Price, desc))
	}
	return strings.Join(lines, "\n")
}

// BasePrompt is the persona and general-chat system prompt, localized by the
// stored language preference.
func (p *PromptComposer) BasePrompt(userContext, menuContext, langPref string) string {
	isEN := langPref == session.LangEnglish

	var styleBlock, langMode string
	if isEN {
		styleBlock = "Style & Tone:\n" +
			"- Reply in clear, polite English with a light touch of British humour.\n" +
			"- Keep responses concise and helpful.\n" +
			"- Be serious and precise for bookings, orders, delivery, or payments."
		langMode = "English"
	} else {
		styleBlock = "Style & Tone:\n" +
			"- Speak in Eastern UP Benarasi-Awadhi Hinglish, friendly and witty.\n" +
			"- Include light desi jokes or street-food references in about a quarter of responses.\n" +
			"- Be serious and clear for bookings, orders, delivery, or payments."
		langMode = "Hinglish"
	}

	return fmt.Sprintf(`You are %s's chat assistant, a witty Indian street food expert.

%s

Language Mode:
- Current mode: %s. If the user asks to switch later, switch immediately.

Personalization Rules:
- Greet the user only once per session using their name and honorific label (e.g. Aapi-Jaan, Chacha-Jaan).
- If the user's gender is unknown, address them in friendly terms (Dost, Friend, Dear).
- Ask about the weather in their city only during the first greeting.
- After that keep it conversational, no repetitive greetings.

Your Chat Responsibilities:
- Discuss food, menu items, specials, and street food culture.
- Share what is available for delivery or reservation.
- Guide users toward bookings or online orders when they show intent.

IMPORTANT:
Users can complete both booking and ordering themselves on the website.
- Booking (no login required): choose date, pick time, guests, occasion, email, confirm.
- Ordering (login required): browse menu, add to cart, choose date/time, delivery or pickup, address if delivery, pay and confirm.

The backend detects intent automatically. Never mention tools or internal functions. When unsure, ask a brief clarifying question.

USER CONTEXT:
%s

%s`,
		p.restaurantName, styleBlock, langMode, userContext, menuContext)
}

// BookingPrompt appends the live booking context and the rendered step
// protocol to the base prompt.
func (p *PromptComposer) BookingPrompt(basePrompt string, bc *session.BookingContext, now time.Time) string {
	if bc == nil {
		bc = &session.BookingContext{}
	}

	contextBlock := fmt.Sprintf(`CURRENT BOOKING CONTEXT:
- Selected date: %s
- Available slots: %s
- Selected time: %s
- Guests: %s
- Occasion: %s
- Email: %s
- Slots fetched? %t`,
		orNotYet(bc.SelectedDate),
		orNotYet(strings.Join(bc.AvailableSlots, ", ")),
		orNotYet(bc.SelectedTime),
		orNotYetInt(bc.NoOfGuests),
		orNotYet(bc.Occasion),
		orNotYet(bc.Email),
		bc.SlotsFetched,
	)

	return basePrompt + "\n\n" + contextBlock + "\n\n" + workflowDiscipline("booking", "cancel_booking") +
		"\n\nBOOKING FLOW, STEP BY STEP:\n" + renderSteps(bookingSteps, now)
}

// OrderPrompt appends the auth fact and live order context to the base
// prompt. The auth fact is ground truth for the model: a logged-in user is
// never asked to log in again.
func (p *PromptComposer) OrderPrompt(basePrompt string, oc *session.OrderContext, authenticated bool, now time.Time) string {
	if oc == nil {
		oc = &session.OrderContext{}
	}

	authStatus := "GUEST"
	if authenticated {
		authStatus = "LOGGED_IN"
	}
	authFact := fmt.Sprintf(`AUTH STATUS: %s
- Treat this as ground truth. If AUTH STATUS is LOGGED_IN, never ask the user to log in.
- If AUTH STATUS is LOGGED_IN and the current order context has no order_id, call start_order() immediately.
- If AUTH STATUS is GUEST, ask them to log in and do not call tools until they confirm login.`, authStatus)

	confirmed := "not yet"
	if oc.IsConfirmed {
		confirmed = "yes"
	}
	var itemLines []string
	for _, it := range oc.Items {
		itemLines = append(itemLines, fmt.Sprintf("%s x%d (Rs %.2f)", it.Title, it.Qty, it.Price))
	}

	contextBlock := fmt.Sprintf(`CURRENT ORDER CONTEXT:
- Order ID: %s
- Items & quantities: %s
- Delivery date: %s
- Time slot: %s
- Method (delivery/pickup): %s
- Address: %s
- City: %s
- PIN: %s
- Payment method: %s
- Order confirmed? %s
- Available slots: %s`,
		orNotYetInt64(oc.OrderID),
		orNotYet(strings.Join(itemLines, "; ")),
		orNotYet(oc.DeliveryDate),
		orNotYet(oc.DeliveryTimeSlot),
		orNotYet(oc.DeliveryType),
		orNA(oc.DeliveryAddress),
		orNA(oc.DeliveryCity),
		orNA(oc.DeliveryPin),
		orNotYet(oc.PaymentMethod),
		confirmed,
		orNotYet(strings.Join(oc.AvailableSlots, ", ")),
	)

	afterConfirm := `After Order Confirmation:
Once an order is confirmed, no edits are allowed. If the user tries to change anything, tell them the order is already confirmed. Never invent or guess an order_id; always read it from the current order context.`

	return basePrompt + "\n\n" + authFact + "\n\n" + contextBlock + "\n\n" +
		workflowDiscipline("order", "delete_order") + "\n\n" + afterConfirm +
		"\n\nORDER FLOW, STEP BY STEP:\n" + renderSteps(orderSteps, now)
}

// workflowDiscipline is the shared tool-handling and flow-lock prose
func workflowDiscipline(flow, cancelTool string) string {
	return fmt.Sprintf(`TOOL CALL HANDLING:
If a function-role message appears in the history, that tool call already succeeded. Do not call it again for the same input, and do not re-ask for values already present in the context above unless the user wants to change them. Always summarize tool results in human terms, never robotic confirmations.

FLOW LOCK:
Once the %s flow begins, the user must either complete it or explicitly cancel. You may briefly answer small general questions, but always steer back to completing or cancelling the current %s. On a confirmed cancellation, call %s immediately. Do not switch to another major flow until this one is completed or cancelled.`, flow, flow, cancelTool)
}

func orNotYet(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not yet"
	}
	return s
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "not applicable"
	}
	return s
}

func orNotYetInt(n int) string {
	if n == 0 {
		return "not yet"
	}
	return fmt.Sprintf("%d", n)
}

func orNotYetInt64(n int64) string {
	if n == 0 {
		return "not yet"
	}
	return fmt.Sprintf("%d", n)
}
