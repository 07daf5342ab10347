package session

// Mode is the active workflow for a session. Absence of a stored mode means
// no workflow is in progress.
type Mode string

const (
	ModeBooking  Mode = "booking"
	ModeOrdering Mode = "ordering"
)

// Language preference tokens
const (
	LangEnglish  = "en"
	LangHinglish = "hn"
)

// BookingContext is the slot-filling state of the booking workflow.
// SelectedTime is only meaningful while SelectedDate is unchanged: any date
// change clears it until re-validated against fresh slots.
type BookingContext struct {
	SelectedDate   string   `json:"selected_date,omitempty"` // YYYY-MM-DD
	AvailableSlots []string `json:"available_slots,omitempty"`
	SelectedTime   string   `json:"selected_time,omitempty"`
	NoOfGuests     int      `json:"no_of_guests,omitempty"`
	Occasion       string   `json:"occasion,omitempty"`
	Email          string   `json:"email,omitempty"`
	SlotsFetched   bool     `json:"slots_fetched"`
}

// OrderLine is one cart line as mirrored into session state
type OrderLine struct {
	Title string  `json:"title"`
	Qty   int     `json:"qty"`
	Price float64 `json:"price"`
}

// OrderContext is the slot-filling state of the ordering workflow. Once
// IsConfirmed is set no mutation is permitted other than starting a brand-new
// order. DeliveryTimeSlot resets whenever DeliveryDate or AvailableSlots
// change.
type OrderContext struct {
	OrderID          int64       `json:"order_id,omitempty"`
	Items            []OrderLine `json:"items,omitempty"`
	DeliveryDate     string      `json:"delivery_date,omitempty"` // YYYY-MM-DD
	DeliveryTimeSlot string      `json:"delivery_time_slot,omitempty"`
	DeliveryType     string      `json:"delivery_type,omitempty"`
	DeliveryAddress  string      `json:"delivery_address,omitempty"`
	DeliveryCity     string      `json:"delivery_city,omitempty"`
	DeliveryPin      string      `json:"delivery_pin,omitempty"`
	PaymentMethod    string      `json:"payment_method,omitempty"`
	IsConfirmed      bool        `json:"is_confirmed"`
	AvailableSlots   []string    `json:"available_slots,omitempty"`
}

// Started reports whether an order record has been created for this context
func (c *OrderContext) Started() bool {
	return c != nil && c.OrderID != 0
}
