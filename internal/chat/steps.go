package chat

import (
	"fmt"
	"strings"
	"time"
)

// Step is one slot of a workflow. The step tables are the single source of
// truth for ordering rules: the prompt composer renders them into the
// step-by-step protocol text the model sees, and the engines consult them
// when deciding what to invalidate after a correction.
type Step struct {
	// Slot is the context field this step fills.
	Slot string
	// DependsOn lists slots that must be filled before this step runs.
	DependsOn []string
	// Setter is the tool that persists the slot, empty when the slot is set
	// as a side effect of another tool.
	Setter string
	// Clears lists slots invalidated whenever this slot changes value.
	Clears []string
	// Ask is rendered into the protocol prose.
	Ask string
	// DateAnchored marks date slots that need the year-lock block.
	DateAnchored bool
}

var bookingSteps = []Step{
	{
		Slot:         "selected_date",
		Setter:       "get_available_booking_times",
		Clears:       []string{"selected_time", "available_slots"},
		Ask:          `Get a confirmed reservation date first. Ask: "Today, tomorrow, or a later date?" ("aaj" means today, "kal" means tomorrow). When the user confirms the date, call get_available_booking_times(selected_date).`,
		DateAnchored: true,
	},
	{
		Slot:      "available_slots",
		DependsOn: []string{"selected_date"},
		Setter:    "get_available_booking_times",
		Ask:       "Present the returned slots in a friendly format (19:00 as 7 PM) and ask the user to pick one.",
	},
	{
		Slot:      "selected_time",
		DependsOn: []string{"selected_date", "available_slots"},
		Setter:    "validate_booking_time",
		Ask:       "When the user picks a time, call validate_booking_time(selected_time, available_slots) with the slots from context. If invalid, show the available slots again and retry with a new pick. If the user changes the date instead, go back to get_available_booking_times.",
	},
	{
		Slot:      "no_of_guests",
		DependsOn: []string{"selected_time"},
		Setter:    "set_no_of_guests",
		Ask:       "Ask for the number of guests. Never infer or invent the number; wait for the user's reply, then call set_no_of_guests(no_of_guests).",
	},
	{
		Slot:      "occasion",
		DependsOn: []string{"no_of_guests"},
		Setter:    "set_occasion",
		Ask:       "Ask for the occasion (Birthday, Anniversary, Other). When provided, call set_occasion(occasion) immediately.",
	},
	{
		Slot:      "email",
		DependsOn: []string{"occasion"},
		Setter:    "set_email",
		Ask:       "Ask for a confirmation email if not already in context, then call set_email(email).",
	},
	{
		Slot:      "confirmation",
		DependsOn: []string{"selected_date", "selected_time", "no_of_guests", "occasion", "email"},
		Setter:    "create_booking",
		Ask:       `Show a summary built strictly from context (date, time, guests, occasion, email) and ask for confirmation. If the user changes the date or time, re-validate through the earlier steps without re-asking for guests, occasion, or email. Only after an explicit "yes" call create_booking.`,
	},
}

var orderSteps = []Step{
	{
		Slot:   "order_id",
		Setter: "start_order",
		Ask:    "If there is no order_id in context and the user is logged in, call start_order() immediately. Never call start_order() for mid-order changes. If the user wants to cancel an unconfirmed order, call delete_order(order_id); confirmed orders cannot be deleted.",
	},
	{
		Slot:      "items",
		DependsOn: []string{"order_id"},
		Setter:    "add_order_item",
		Ask:       "Add items one by one with add_order_item(order_id, menuitem_title, quantity), confirming name, price, and quantity. Use revise_order_item for quantity changes; quantity 0 removes the item. Keep offering the menu until the user declines.",
	},
	{
		Slot:         "delivery_date",
		DependsOn:    []string{"items"},
		Setter:       "set_delivery_date",
		Clears:       []string{"delivery_time_slot", "available_slots"},
		Ask:          `Ask: "Today, tomorrow, or a later date?" ("aaj" means today, "kal" means tomorrow). When the user confirms, call set_delivery_date then available_delivery_slots(delivery_date).`,
		DateAnchored: true,
	},
	{
		Slot:      "available_slots",
		DependsOn: []string{"delivery_date"},
		Setter:    "available_delivery_slots",
		Ask:       "Present the returned slots in a friendly format and ask the user to pick one.",
	},
	{
		Slot:      "delivery_time_slot",
		DependsOn: []string{"delivery_date", "available_slots"},
		Setter:    "validate_delivery_time",
		Ask:       `When the user picks a time (treat "5 baje" / "7 baje" as PM, "11 baje" as AM), call validate_delivery_time(delivery_time_slot, available_slots) then set_delivery_time_slot. If invalid, ask them to choose from the available slots. If the date changes, re-fetch slots and re-validate.`,
	},
	{
		Slot:      "delivery_type",
		DependsOn: []string{"delivery_time_slot"},
		Setter:    "set_delivery_type",
		Ask:       `Ask: "Delivery or pickup?" and call set_delivery_type. For delivery, continue to the address step; for pickup, skip straight to payment. Never assume a saved address.`,
	},
	{
		Slot:      "delivery_address",
		DependsOn: []string{"delivery_type"},
		Setter:    "set_delivery_details",
		Ask:       "Only for delivery: ask for address, city, and PIN in one prompt, then call set_delivery_details(delivery_address, delivery_city, delivery_pin). Skip this step for pickup.",
	},
	{
		Slot:      "payment_method",
		DependsOn: []string{"delivery_type"},
		Setter:    "set_payment_method",
		Ask:       `Ask: "Payment online (Stripe) ya delivery ke time (COD)?" Map "online" to stripe and "cash"/"cod" to cod, then call set_payment_method.`,
	},
	{
		Slot:      "confirmation",
		DependsOn: []string{"items", "delivery_date", "delivery_time_slot", "delivery_type", "payment_method"},
		Setter:    "checkout_order",
		Ask:       "Show a compact summary from context and ask whether anything should change. On a revision, update only the affected field and return to this summary. A date change requires re-fetching slots and re-validating the time but never repeats the type, address, or payment steps. Proceed to checkout_order only after explicit confirmation.",
	},
}

// stepFor returns the step filling the given slot, or nil
func stepFor(steps []Step, slot string) *Step {
	for i := range steps {
		if steps[i].Slot == slot {
			return &steps[i]
		}
	}
	return nil
}

// renderSteps turns a step table into the numbered protocol text embedded in
// the system prompt. The date-anchor block pins the model's notion of
// "today" so day/month-only dates resolve deterministically.
func renderSteps(steps []Step, now time.Time) string {
	anchor := fmt.Sprintf(
		"DATE ANCHOR (hard year lock, use this instead of your own sense of today): today is %d %s, current year is %d. "+
			"If the user gives a day and month that falls after today, assume year %d. "+
			"If it falls before today, ask whether they mean %d. If vague, ask for the full date.",
		now.Day(), now.Month().String(), now.Year(), now.Year(), now.Year()+1,
	)

	var b strings.Builder
	for i, s := range steps {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s.Ask)
		if s.DateAnchored {
			b.WriteString(anchor)
			b.WriteString("\n")
		}
		if len(s.DependsOn) > 0 {
			fmt.Fprintf(&b, "Do not run this step until %s is set.\n", strings.Join(s.DependsOn, ", "))
		}
		if s.Slot != "confirmation" {
			fmt.Fprintf(&b, "Do not proceed until %s is set.\n", s.Slot)
		}
		b.WriteString("\n")
	}
	return strings.TrimSpace(b.String())
}
