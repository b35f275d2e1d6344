package models

import (
	"time"
)

// LocalizedText maps a language code to text.
type LocalizedText map[Language]string

// Get returns the text for lang, falling back to English and then Turkish.
func (t LocalizedText) Get(lang Language) string {
	if v, ok := t[lang]; ok && v != "" {
		return v
	}
	if v, ok := t[LangEN]; ok && v != "" {
		return v
	}
	return t[LangTR]
}

type Room struct {
	ID          string        `json:"id" validate:"required"`
	Name        LocalizedText `json:"name"`
	Category    RoomCategory  `json:"category" validate:"oneof=Suite Double Twin"`
	Price       int           `json:"price" validate:"gt=0"`
	Description LocalizedText `json:"description"`
	Image       string        `json:"image"`
	Gallery     []string      `json:"gallery"`
	Amenities   []string      `json:"amenities"`
}

type HeroSection struct {
	Tag      LocalizedText `json:"tag"`
	Title    LocalizedText `json:"title"`
	Subtitle LocalizedText `json:"subtitle"`
	Image    string        `json:"image"`
}

type AboutSection struct {
	Title      LocalizedText `json:"title"`
	Subtitle   LocalizedText `json:"subtitle"`
	Philosophy LocalizedText `json:"philosophy"`
	Image1     string        `json:"image1"`
	Image2     string        `json:"image2"`
}

type SiteConfig struct {
	Hero  HeroSection  `json:"hero"`
	About AboutSection `json:"about"`
	Rooms []Room       `json:"rooms" validate:"unique=ID,dive"`
}

// Room looks up a room by id.
func (c *SiteConfig) Room(id string) (Room, bool) {
	for _, r := range c.Rooms {
		if r.ID == id {
			return r, true
		}
	}
	return Room{}, false
}

// Validate requires every room to have an id, a known category and a
// positive price, with ids unique across rooms.
func (c *SiteConfig) Validate() error {
	return ValidateStruct(c)
}

// CategoryAvailability is remaining capacity per category for a date range.
type CategoryAvailability map[RoomCategory]int

// AvailabilityReport adds the overbooking signal that the clamped snapshot hides.
type AvailabilityReport struct {
	CheckIn    time.Time            `json:"check_in"`
	CheckOut   time.Time            `json:"check_out"`
	Remaining  CategoryAvailability `json:"remaining"`
	Overlaps   map[RoomCategory]int `json:"overlaps"`
	Overbooked map[RoomCategory]int `json:"overbooked"`
}

func (r *AvailabilityReport) HasOverbooking() bool {
	for _, n := range r.Overbooked {
		if n > 0 {
			return true
		}
	}
	return false
}

type GuestInfo struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// FlowSession is the persisted state of one booking flow.
type FlowSession struct {
	ID        string    `json:"id"`
	Step      string    `json:"step"`
	RoomID    string    `json:"room_id"`
	CheckIn   time.Time `json:"check_in"`
	CheckOut  time.Time `json:"check_out"`
	Lang      Language  `json:"lang"`
	Guest     GuestInfo `json:"guest"`
	BookingID string    `json:"booking_id,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentDetails is collected by the mocked payment step and never persisted.
type PaymentDetails struct {
	CardNumber string `json:"card_number" validate:"required"`
	CardName   string `json:"card_name" validate:"required"`
	Expiry     string `json:"expiry" validate:"required"`
	CVV        string `json:"cvv" validate:"required"`
}

// FlowResult is returned when a flow reaches its terminal step.
type FlowResult struct {
	Session    *FlowSession  `json:"session"`
	Booking    Booking       `json:"booking"`
	CloseAfter time.Duration `json:"close_after"`
}
