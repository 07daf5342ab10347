package email

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/rasoi/chaatbot/internal/domain"
)

// Sender delivers transactional mail over SMTP
type Sender struct {
	dialer *gomail.Dialer
	from   string
}

// NewSender creates an SMTP sender
func NewSender(host string, port int, username, password, from string) *Sender {
	return &Sender{
		dialer: gomail.NewDialer(host, port, username, password),
		from:   from,
	}
}

// SendBookingConfirmation mails the reservation summary to the booking email.
// Failures are logged and returned; callers treat them as non-fatal because
// the booking row is already committed.
func (s *Sender) SendBookingConfirmation(booking *domain.Booking) error {
	body := fmt.Sprintf(
		"<h2>Table booked!</h2>"+
			"<p>Your reservation is confirmed for <b>%s</b> at <b>%s</b>.</p>"+
			"<ul>"+
			"<li>Guests: %d</li>"+
			"<li>Occasion: %s</li>"+
			"<li>Reference: %s</li>"+
			"</ul>"+
			"<p>Show the reference number at the door. See you soon!</p>",
		booking.ReservationDate.Format("January 2, 2006"),
		booking.ReservationTime,
		booking.NoOfGuests,
		booking.Occasion,
		booking.ReferenceNumber,
	)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", booking.Email)
	m.SetHeader("Subject", fmt.Sprintf("Booking confirmed: %s", booking.ReferenceNumber))
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Error().Err(err).Str("to", booking.Email).Msg("failed to send booking confirmation")
		return fmt.Errorf("failed to send booking confirmation: %w", err)
	}
	return nil
}

// SendOrderConfirmation mails the order summary after checkout
func (s *Sender) SendOrderConfirmation(to string, order *domain.Order, items []domain.OrderItem) error {
	var lines strings.Builder
	for _, it := range items {
		fmt.Fprintf(&lines, "<li>%s x%d &ndash; &#8377;%.2f</li>", it.Title, it.Quantity, it.Price)
	}

	when := "ASAP"
	if order.DeliveryDate != nil {
		when = order.DeliveryDate.Format("January 2, 2006")
		if order.DeliveryTimeSlot != "" {
			when += " at " + order.DeliveryTimeSlot
		}
	}

	body := fmt.Sprintf(
		"<h2>Order #%d confirmed</h2>"+
			"<ul>%s</ul>"+
			"<p>Total: &#8377;%.2f</p>"+
			"<p>%s on %s, payment via %s.</p>",
		order.ID, lines.String(), order.Total,
		order.DeliveryType, when, strings.ToUpper(order.PaymentMethod),
	)

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", fmt.Sprintf("Order #%d confirmed", order.ID))
	m.SetBody("text/html", body)

	if err := s.dialer.DialAndSend(m); err != nil {
		log.Error().Err(err).Str("to", to).Msg("failed to send order confirmation")
		return fmt.Errorf("failed to send order confirmation: %w", err)
	}
	return nil
}
