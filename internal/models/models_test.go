package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestTotalPrice(t *testing.T) {
	t.Run("ThreeNights", func(t *testing.T) {
		assert.Equal(t, 300, TotalPrice(100, date(t, "2024-07-01"), date(t, "2024-07-04")))
	})

	t.Run("MissingDatesChargeOneNight", func(t *testing.T) {
		assert.Equal(t, 100, TotalPrice(100, time.Time{}, time.Time{}))
		assert.Equal(t, 100, TotalPrice(100, date(t, "2024-07-01"), time.Time{}))
	})

	t.Run("InvertedDatesChargeOneNight", func(t *testing.T) {
		assert.Equal(t, 100, TotalPrice(100, date(t, "2024-07-04"), date(t, "2024-07-01")))
		assert.Equal(t, 100, TotalPrice(100, date(t, "2024-07-04"), date(t, "2024-07-04")))
	})

	t.Run("PartialDayRoundsUp", func(t *testing.T) {
		in := date(t, "2024-07-01")
		assert.Equal(t, 2, StayNights(in, in.Add(25*time.Hour)))
	})
}

func TestBookingOverlaps(t *testing.T) {
	b := Booking{CheckIn: date(t, "2024-06-01"), CheckOut: date(t, "2024-06-05")}

	assert.True(t, b.Overlaps(date(t, "2024-06-03"), date(t, "2024-06-04")))
	assert.True(t, b.Overlaps(date(t, "2024-05-30"), date(t, "2024-06-02")))
	assert.True(t, b.Overlaps(date(t, "2024-05-30"), date(t, "2024-06-10")))
	assert.False(t, b.Overlaps(date(t, "2024-06-05"), date(t, "2024-06-06")), "check-in on check-out day")
	assert.False(t, b.Overlaps(date(t, "2024-05-28"), date(t, "2024-06-01")), "check-out on check-in day")
	assert.Equal(t, 4, b.Nights())
}

func TestBookingUnmarshalDates(t *testing.T) {
	var ledger []Booking
	require.NoError(t, json.Unmarshal([]byte(`[
		{"id":"x1","roomCategory":"Suite","checkIn":"2024-06-01","checkOut":"2024-06-03","createdAt":"2024-05-01"},
		{"id":"x2","roomCategory":"Twin","checkIn":"2024-06-01T00:00:00Z","checkOut":"2024-06-02T00:00:00.000Z","createdAt":"2024-05-01T10:30:00+03:00"},
		{"id":"x3","checkIn":null,"checkOut":""}
	]`), &ledger))
	require.Len(t, ledger, 3)

	assert.Equal(t, "x1", ledger[0].ID)
	assert.Equal(t, CategorySuite, ledger[0].RoomCategory)
	assert.True(t, ledger[0].CheckIn.Equal(date(t, "2024-06-01")))
	assert.Equal(t, 2, ledger[0].Nights())

	assert.True(t, ledger[1].CheckOut.Equal(date(t, "2024-06-02")))
	assert.True(t, ledger[1].CreatedAt.Equal(time.Date(2024, 5, 1, 7, 30, 0, 0, time.UTC)))

	assert.True(t, ledger[2].CheckIn.IsZero())
	assert.True(t, ledger[2].CheckOut.IsZero())

	var b Booking
	assert.Error(t, json.Unmarshal([]byte(`{"id":"x4","checkIn":"01/06/2024"}`), &b))
	assert.Error(t, json.Unmarshal([]byte(`{"id":"x5","checkIn":20240601}`), &b))
}

func TestValidStay(t *testing.T) {
	assert.True(t, ValidStay(date(t, "2024-06-01"), date(t, "2024-06-02")))
	assert.False(t, ValidStay(date(t, "2024-06-02"), date(t, "2024-06-02")))
	assert.False(t, ValidStay(date(t, "2024-06-02"), date(t, "2024-06-01")))
	assert.False(t, ValidStay(time.Time{}, date(t, "2024-06-01")))
}

func TestLocalizedText(t *testing.T) {
	text := LocalizedText{LangTR: "merhaba", LangEN: "hello"}
	assert.Equal(t, "hello", text.Get(LangEN))
	assert.Equal(t, "hello", text.Get(LangDE))
	assert.Equal(t, "merhaba", LocalizedText{LangTR: "merhaba"}.Get(LangDE))
}

func TestCategories(t *testing.T) {
	assert.Equal(t, 1, CategorySuite.Total())
	assert.Equal(t, 12, CategoryDouble.Total())
	assert.Equal(t, 4, CategoryTwin.Total())
	assert.False(t, RoomCategory("Penthouse").Valid())
	assert.Len(t, Categories(), 3)
	assert.Equal(t, LangDE, ParseLanguage("de", LangTR))
	assert.Equal(t, LangTR, ParseLanguage("fr", LangTR))
}

func TestDefaultSiteConfig(t *testing.T) {
	cfg := DefaultSiteConfig()
	require.NoError(t, cfg.Validate())
	require.Len(t, cfg.Rooms, 3)

	room, ok := cfg.Room("cat_double")
	require.True(t, ok)
	assert.Equal(t, CategoryDouble, room.Category)
	assert.Equal(t, 280, room.Price)

	_, ok = cfg.Room("missing")
	assert.False(t, ok)

	// every call returns an independent copy
	cfg.Rooms[0].Price = 1
	assert.Equal(t, 450, DefaultSiteConfig().Rooms[0].Price)

	for _, r := range cfg.Rooms {
		for _, a := range r.Amenities {
			assert.Contains(t, AmenityNames, a)
		}
	}
}

func TestSiteConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *SiteConfig)
		path   string
		rule   string
	}{
		{"DuplicateID", func(c *SiteConfig) { c.Rooms = append(c.Rooms, c.Rooms[0]) }, "rooms", "unique=ID"},
		{"UnknownCategory", func(c *SiteConfig) { c.Rooms[0].Category = "Penthouse" }, "rooms[0].category", "oneof=Suite Double Twin"},
		{"ZeroPrice", func(c *SiteConfig) { c.Rooms[1].Price = 0 }, "rooms[1].price", "gt=0"},
		{"MissingID", func(c *SiteConfig) { c.Rooms[2].ID = "" }, "rooms[2].id", "required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultSiteConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			require.Error(t, err)
			var fields InvalidFields
			require.True(t, errors.As(err, &fields))
			assert.Equal(t, tt.rule, fields[tt.path])
		})
	}

	empty := SiteConfig{}
	assert.NoError(t, empty.Validate())
}

func TestValidatePaymentDetails(t *testing.T) {
	err := ValidateStruct(PaymentDetails{CardNumber: "4242 4242 4242 4242", CardName: "Jane"})
	require.Error(t, err)

	var fields InvalidFields
	require.True(t, errors.As(err, &fields))
	assert.Equal(t, InvalidFields{"expiry": "required", "cvv": "required"}, fields)
	assert.Equal(t, "cvv failed required; expiry failed required", err.Error())

	assert.NoError(t, ValidateStruct(PaymentDetails{CardNumber: "1", CardName: "J", Expiry: "12/29", CVV: "123"}))
}

func TestAvailabilityReport(t *testing.T) {
	r := AvailabilityReport{Overbooked: map[RoomCategory]int{CategorySuite: 0}}
	assert.False(t, r.HasOverbooking())
	r.Overbooked[CategorySuite] = 2
	assert.True(t, r.HasOverbooking())
}
