package chat

import "github.com/rasoi/chaatbot/internal/llm"

// Tool names shared between the schema palettes and the dispatchers.
const (
	toolGetAvailableBookingTimes = "get_available_booking_times"
	toolValidateBookingTime      = "validate_booking_time"
	toolSetNoOfGuests            = "set_no_of_guests"
	toolSetOccasion              = "set_occasion"
	toolSetEmail                 = "set_email"
	toolCreateBooking            = "create_booking"
	toolCancelBooking            = "cancel_booking"

	toolStartOrder             = "start_order"
	toolAddOrderItem           = "add_order_item"
	toolReviseOrderItem        = "revise_order_item"
	toolAvailableDeliverySlots = "available_delivery_slots"
	toolValidateDeliveryTime   = "validate_delivery_time"
	toolSetDeliveryDate        = "set_delivery_date"
	toolSetDeliveryTimeSlot    = "set_delivery_time_slot"
	toolSetDeliveryType        = "set_delivery_type"
	toolSetDeliveryDetails     = "set_delivery_details"
	toolSetPaymentMethod       = "set_payment_method"
	toolCheckoutOrder          = "checkout_order"
	toolDeleteOrder            = "delete_order"
)

func str(desc string) *llm.Schema {
	return &llm.Schema{Type: "string", Description: desc}
}

func integer(desc string) *llm.Schema {
	return &llm.Schema{Type: "integer", Description: desc}
}

// BookingTools is the tool palette offered to the model while the booking
// workflow is active.
var BookingTools = []llm.Tool{
	{
		Name:        toolGetAvailableBookingTimes,
		Description: "Get available booking time slots for a given reservation date.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"selected_date": str("Reservation date, e.g. 2025-08-10 or '1 August'"),
			},
			Required: []string{"selected_date"},
		},
	},
	{
		Name:        toolValidateBookingTime,
		Description: "Check if the chosen time is in the available slots. Returns valid: true/false.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"selected_time":   str("Chosen time slot, e.g. 18:30"),
				"available_slots": {Type: "array", Items: str("")},
				"selected_date":   str("Only when the user changed the date in the same breath"),
			},
			Required: []string{"selected_time", "available_slots"},
		},
	},
	{
		Name:        toolSetNoOfGuests,
		Description: "Set or update the number of guests for the current booking.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"no_of_guests": integer("Number of guests, at least 1"),
			},
			Required: []string{"no_of_guests"},
		},
	},
	{
		Name:        toolSetOccasion,
		Description: "Set or update the occasion (Birthday, Anniversary, Other, or short description).",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"occasion": str("Occasion label"),
			},
			Required: []string{"occasion"},
		},
	},
	{
		Name:        toolSetEmail,
		Description: "Set or update the email to use for booking confirmation.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"email": str("Email address"),
			},
			Required: []string{"email"},
		},
	},
	{
		Name:        toolCreateBooking,
		Description: "Book a table for the user with all necessary details.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"selected_date": str("Reservation date"),
				"selected_time": str("Validated time slot"),
				"no_of_guests":  integer("Number of guests"),
				"occasion":      str("Occasion"),
				"email":         str("Confirmation email"),
			},
			Required: []string{"selected_date", "selected_time", "no_of_guests", "occasion", "email"},
		},
	},
	{
		Name:        toolCancelBooking,
		Description: "Cancels the current booking process and clears the booking context.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"cancel": {Type: "boolean", Description: "True only when the user clearly asked to cancel"},
			},
			Required: []string{"cancel"},
		},
	},
}

// OrderTools is the tool palette offered while the ordering workflow is
// active.
var OrderTools = []llm.Tool{
	{
		Name:        toolStartOrder,
		Description: "Starts a new order for the logged-in user.",
		Parameters:  &llm.Schema{Type: "object"},
	},
	{
		Name:        toolAddOrderItem,
		Description: "Adds an item to the ongoing order.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"order_id":       integer("Current order id from context"),
				"menuitem_title": str("Exact menu item title"),
				"quantity":       integer("How many to add"),
			},
			Required: []string{"order_id", "menuitem_title", "quantity"},
		},
	},
	{
		Name:        toolReviseOrderItem,
		Description: "Changes quantity of an item in the order, or deletes it if quantity is 0.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"order_id":       integer("Current order id from context"),
				"menuitem_title": str("Exact menu item title"),
				"quantity":       integer("New quantity, 0 to remove"),
			},
			Required: []string{"order_id", "menuitem_title", "quantity"},
		},
	},
	{
		Name:        toolAvailableDeliverySlots,
		Description: "Lists available delivery or pickup slots for a date.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"delivery_date": str("Delivery date, e.g. 2025-08-10 or 'today'"),
			},
			Required: []string{"delivery_date"},
		},
	},
	{
		Name:        toolValidateDeliveryTime,
		Description: "Validates the chosen delivery time against the available slots.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"delivery_time":   str("Chosen slot, e.g. ASAP or 18:30"),
				"available_slots": {Type: "array", Items: str("")},
			},
			Required: []string{"delivery_time", "available_slots"},
		},
	},
	{
		Name:        toolSetDeliveryDate,
		Description: "Persist the chosen delivery date for the current order.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"order_id":      integer("Current order id from context"),
				"delivery_date": str("Delivery date"),
			},
			Required: []string{"order_id", "delivery_date"},
		},
	},
	{
		Name:        toolSetDeliveryTimeSlot,
		Description: "Persist the chosen delivery/pickup time slot for the current order.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"order_id":           integer("Current order id from context"),
				"delivery_time_slot": str("Validated slot"),
			},
			Required: []string{"order_id", "delivery_time_slot"},
		},
	},
	{
		Name:        toolSetDeliveryType,
		Description: "Persist delivery or pickup choice for the current order.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"order_id":      integer("Current order id from context"),
				"delivery_type": {Type: "string", Enum: []string{"delivery", "pickup"}},
			},
			Required: []string{"order_id", "delivery_type"},
		},
	},
	{
		Name:        toolSetDeliveryDetails,
		Description: "Persist delivery address details (address, city, pin).",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"order_id":         integer("Current order id from context"),
				"delivery_address": str("Street address"),
				"delivery_city":    str("City"),
				"delivery_pin":     str("Postal PIN"),
			},
			Required: []string{"order_id", "delivery_address", "delivery_city", "delivery_pin"},
		},
	},
	{
		Name:        toolSetPaymentMethod,
		Description: "Persist payment method for the current order.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"order_id":       integer("Current order id from context"),
				"payment_method": {Type: "string", Enum: []string{"stripe", "cod"}},
			},
			Required: []string{"order_id", "payment_method"},
		},
	},
	{
		Name:        toolCheckoutOrder,
		Description: "Finalizes delivery, time, and payment details for the order.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"order_id":           integer("Current order id from context"),
				"delivery_type":      {Type: "string", Enum: []string{"delivery", "pickup"}},
				"delivery_date":      str("Delivery date"),
				"delivery_time_slot": str("Validated slot"),
				"payment_method":     {Type: "string", Enum: []string{"stripe", "cod"}},
				"delivery_address":   str("Street address, delivery only"),
				"delivery_city":      str("City, delivery only"),
				"delivery_pin":       str("Postal PIN, delivery only"),
			},
			Required: []string{"order_id", "delivery_type", "delivery_date", "delivery_time_slot", "payment_method"},
		},
	},
	{
		Name:        toolDeleteOrder,
		Description: "Deletes the current order and clears the context. Use when the user cancels the order entirely.",
		Parameters: &llm.Schema{
			Type: "object",
			Properties: map[string]*llm.Schema{
				"order_id": integer("Current order id from context"),
			},
			Required: []string{"order_id"},
		},
	},
}
