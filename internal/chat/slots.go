package chat

import (
	"fmt"
	"time"
)

// SlotASAP is the immediate-delivery pseudo slot, only offered for same-day
// delivery.
const SlotASAP = "ASAP"

// BookingTimeSlots is the fixed reservation palette: half-hour marks from
// 11:00 through 20:00.
var BookingTimeSlots = halfHourSlots()

// DeliveryTimeSlots is the delivery/pickup palette: ASAP plus the same
// half-hour marks.
var DeliveryTimeSlots = append([]string{SlotASAP}, halfHourSlots()...)

func halfHourSlots() []string {
	var slots []string
	for h := 11; h <= 20; h++ {
		for _, m := range []string{"00", "30"} {
			if h == 20 && m == "30" {
				break
			}
			slots = append(slots, fmt.Sprintf("%02d:%s", h, m))
		}
	}
	return slots
}

// AvailableDeliverySlots returns the delivery slots still reachable for the
// given date. For today, slots that have already passed are dropped and ASAP
// stays offered; future dates get the full palette.
func AvailableDeliverySlots(deliveryDate string, now time.Time) []string {
	if deliveryDate != now.Format("2006-01-02") {
		return append([]string(nil), DeliveryTimeSlots...)
	}

	upcoming := []string{SlotASAP}
	for _, slot := range DeliveryTimeSlots {
		if slot == SlotASAP {
			continue
		}
		t, err := time.Parse("15:04", slot)
		if err != nil {
			continue
		}
		slotTime := time.Date(now.Year(), now.Month(), now.Day(), t.Hour(), t.Minute(), 0, 0, now.Location())
		if slotTime.After(now) {
			upcoming = append(upcoming, slot)
		}
	}
	return upcoming
}
