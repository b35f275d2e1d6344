package domain

import (
	"context"
	"time"

	"viona/internal/models"
)

// DocumentStore persists whole JSON documents by key. Load reports absence
// with ok=false rather than an error.
type DocumentStore interface {
	Load(ctx context.Context, key string) (doc []byte, ok bool, err error)
	Save(ctx context.Context, key string, doc []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// DocumentPruner is implemented by stores that cannot expire keys on their
// own. PruneBefore deletes keys under prefix last saved before cutoff.
type DocumentPruner interface {
	PruneBefore(ctx context.Context, prefix string, cutoff time.Time) (int, error)
}

type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// ConfirmationQueue accepts finalized bookings for out-of-band confirmation.
type ConfirmationQueue interface {
	Enqueue(ctx context.Context, booking models.Booking, lang models.Language) error
}

type BookingStore interface {
	GetAllBookings(ctx context.Context) []models.Booking
	SaveBooking(ctx context.Context, booking models.Booking) error
	ReserveBooking(ctx context.Context, booking models.Booking) error
	GetCategoryAvailability(ctx context.Context, checkIn, checkOut time.Time) models.CategoryAvailability
	AvailabilityReport(ctx context.Context, checkIn, checkOut time.Time) models.AvailabilityReport
	GetSiteConfig(ctx context.Context) models.SiteConfig
	UpdateSiteConfig(ctx context.Context, cfg models.SiteConfig) error
	Stats(ctx context.Context) models.BookingStats
}

type BookingFlow interface {
	Start(ctx context.Context, roomID string, checkIn, checkOut time.Time, lang models.Language) (*models.FlowSession, error)
	Get(ctx context.Context, flowID string) (*models.FlowSession, error)
	SubmitInfo(ctx context.Context, flowID string, guest models.GuestInfo) (*models.FlowSession, error)
	SubmitPayment(ctx context.Context, flowID string, payment models.PaymentDetails) (*models.FlowResult, error)
	Back(ctx context.Context, flowID string) (*models.FlowSession, error)
	Cancel(ctx context.Context, flowID string) error
}
