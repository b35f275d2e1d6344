package models

type RoomCategory string

const (
	CategorySuite  RoomCategory = "Suite"
	CategoryDouble RoomCategory = "Double"
	CategoryTwin   RoomCategory = "Twin"
)

// CategoryInventory is the number of sellable rooms per category.
var CategoryInventory = map[RoomCategory]int{
	CategorySuite:  1,
	CategoryDouble: 12,
	CategoryTwin:   4,
}

// Categories returns all categories in display order.
func Categories() []RoomCategory {
	return []RoomCategory{CategorySuite, CategoryDouble, CategoryTwin}
}

func (c RoomCategory) Valid() bool {
	_, ok := CategoryInventory[c]
	return ok
}

// Total returns the configured inventory for the category, 0 when unknown.
func (c RoomCategory) Total() int {
	return CategoryInventory[c]
}

type Language string

const (
	LangTR Language = "tr"
	LangEN Language = "en"
	LangDE Language = "de"
)

func Languages() []Language {
	return []Language{LangTR, LangEN, LangDE}
}

func (l Language) Valid() bool {
	switch l {
	case LangTR, LangEN, LangDE:
		return true
	}
	return false
}

// ParseLanguage returns fallback for empty or unsupported codes.
func ParseLanguage(code string, fallback Language) Language {
	l := Language(code)
	if l.Valid() {
		return l
	}
	return fallback
}

const (
	FlowStepCollectingInfo    = "collecting_info"
	FlowStepCollectingPayment = "collecting_payment"
	FlowStepFinalized         = "finalized"
)

const (
	// BookingsDocumentKey holds the append-only bookings collection.
	BookingsDocumentKey = "viona_hotel_bookings"
	// SiteConfigDocumentKey holds the admin-editable site configuration.
	SiteConfigDocumentKey = "viona_hotel_config"
	// FlowSessionKeyPrefix prefixes persisted booking flow sessions.
	FlowSessionKeyPrefix = "flow_session:"
	// MalformedBookingsKeyPrefix prefixes copies of bookings documents that
	// could not be parsed, set aside before a fresh ledger is started.
	MalformedBookingsKeyPrefix = "viona_hotel_bookings_malformed:"
)

// DateLayout is the wire format for check-in and check-out dates.
const DateLayout = "2006-01-02"

const Currency = "$"
