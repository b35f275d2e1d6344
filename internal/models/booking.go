package models

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// Booking is immutable once created and only ever appended to the store.
type Booking struct {
	ID            string       `json:"id"`
	RoomID        string       `json:"roomId"`
	RoomName      string       `json:"roomName"`
	RoomCategory  RoomCategory `json:"roomCategory"`
	CheckIn       time.Time    `json:"checkIn"`
	CheckOut      time.Time    `json:"checkOut"`
	CustomerName  string       `json:"customerName"`
	CustomerEmail string       `json:"customerEmail"`
	CustomerPhone string       `json:"customerPhone"`
	TotalPrice    int          `json:"totalPrice"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// UnmarshalJSON accepts dates either as RFC 3339 timestamps or as bare
// YYYY-MM-DD strings, the shape older ledgers were written in.
func (b *Booking) UnmarshalJSON(data []byte) error {
	type plain Booking
	aux := struct {
		*plain
		CheckIn   flexTime `json:"checkIn"`
		CheckOut  flexTime `json:"checkOut"`
		CreatedAt flexTime `json:"createdAt"`
	}{plain: (*plain)(b)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	b.CheckIn = time.Time(aux.CheckIn)
	b.CheckOut = time.Time(aux.CheckOut)
	b.CreatedAt = time.Time(aux.CreatedAt)
	return nil
}

type flexTime time.Time

func (t *flexTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = flexTime(parsed)
	return nil
}

// ParseTimestamp parses RFC 3339 or YYYY-MM-DD (as UTC midnight). An empty
// string is the zero time.
func ParseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	if t, err := ParseDate(s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

// Overlaps reports whether the booking's stay intersects [checkIn, checkOut).
// Back-to-back stays do not overlap.
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return checkIn.Before(b.CheckOut) && checkOut.After(b.CheckIn)
}

func (b *Booking) Nights() int {
	return StayNights(b.CheckIn, b.CheckOut)
}

// StayNights rounds the stay up to whole days.
func StayNights(checkIn, checkOut time.Time) int {
	diff := checkOut.Sub(checkIn)
	return int(math.Ceil(float64(diff) / float64(24*time.Hour)))
}

// ChargeableNights is StayNights with a floor of one night for missing or
// inverted dates.
func ChargeableNights(checkIn, checkOut time.Time) int {
	if checkIn.IsZero() || checkOut.IsZero() {
		return 1
	}
	nights := StayNights(checkIn, checkOut)
	if nights < 1 {
		return 1
	}
	return nights
}

func TotalPrice(nightlyPrice int, checkIn, checkOut time.Time) int {
	return ChargeableNights(checkIn, checkOut) * nightlyPrice
}

// ValidStay reports whether check-out is strictly after check-in.
func ValidStay(checkIn, checkOut time.Time) bool {
	if checkIn.IsZero() || checkOut.IsZero() {
		return false
	}
	return checkOut.After(checkIn)
}

// ParseDate parses a YYYY-MM-DD date as UTC midnight.
func ParseDate(s string) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, time.UTC)
}

// BookingStats summarises the bookings collection for the admin dashboard.
type BookingStats struct {
	TotalOrders  int                  `json:"total_orders"`
	TotalRevenue int                  `json:"total_revenue"`
	ByCategory   map[RoomCategory]int `json:"by_category"`
}
