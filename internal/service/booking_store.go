package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"viona/internal/domain"
	"viona/internal/events"
	"viona/internal/metrics"
	"viona/internal/models"

	"github.com/rs/zerolog"
)

var errMalformedDocument = errors.New("malformed bookings document")

// BookingStore owns the bookings collection and the site configuration.
// Both are whole JSON documents in a DocumentStore.
type BookingStore struct {
	docs     domain.DocumentStore
	eventBus domain.EventPublisher
	logger   *zerolog.Logger

	// mu serialises read-modify-write of the bookings document.
	mu sync.Mutex
}

func NewBookingStore(docs domain.DocumentStore, eventBus domain.EventPublisher, logger *zerolog.Logger) *BookingStore {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingStore{
		docs:     docs,
		eventBus: eventBus,
		logger:   logger,
	}
}

// ledger is the bookings document as stored. Records that do not decode as a
// Booking stay in records so a write carries them through untouched.
type ledger struct {
	records  []json.RawMessage
	bookings []models.Booking
}

// GetAllBookings returns bookings in insertion order. Read failures degrade to
// an empty list.
func (s *BookingStore) GetAllBookings(ctx context.Context) []models.Booking {
	l, _, err := s.loadLedger(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load bookings, treating as empty")
		return []models.Booking{}
	}
	return l.bookings
}

// readForWrite is loadLedger for the append path. A store failure aborts the
// write. A document that is not a JSON array is copied aside before a fresh
// ledger is started, and the write is refused if that copy fails.
func (s *BookingStore) readForWrite(ctx context.Context) (*ledger, error) {
	l, raw, err := s.loadLedger(ctx)
	if err == nil {
		return l, nil
	}
	if !errors.Is(err, errMalformedDocument) {
		return nil, fmt.Errorf("load bookings: %w", err)
	}

	key := models.MalformedBookingsKeyPrefix + time.Now().UTC().Format("20060102T150405.000000000")
	if saveErr := s.docs.Save(ctx, key, raw); saveErr != nil {
		return nil, fmt.Errorf("set aside malformed bookings: %w", saveErr)
	}
	s.logger.Warn().Err(err).Str("moved_to", key).Msg("Malformed bookings document set aside")
	return &ledger{bookings: []models.Booking{}}, nil
}

// SaveBooking appends the booking. Duplicate ids are not rejected.
func (s *BookingStore) SaveBooking(ctx context.Context, booking models.Booking) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.readForWrite(ctx)
	if err != nil {
		return err
	}
	return s.appendLocked(ctx, l, booking)
}

// ReserveBooking appends the booking only if its category still has a free
// room for the booking's range.
func (s *BookingStore) ReserveBooking(ctx context.Context, booking models.Booking) error {
	if !models.ValidStay(booking.CheckIn, booking.CheckOut) {
		return ErrInvalidDateRange
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, err := s.readForWrite(ctx)
	if err != nil {
		return err
	}
	remaining := categoryRemaining(l.bookings, booking.CheckIn, booking.CheckOut)
	if remaining[booking.RoomCategory] <= 0 {
		return ErrNotAvailable
	}

	return s.appendLocked(ctx, l, booking)
}

func (s *BookingStore) appendLocked(ctx context.Context, l *ledger, booking models.Booking) error {
	record, err := json.Marshal(booking)
	if err != nil {
		return fmt.Errorf("encode booking: %w", err)
	}
	raw, err := json.Marshal(append(l.records, record))
	if err != nil {
		return fmt.Errorf("encode bookings: %w", err)
	}
	if err := s.docs.Save(ctx, models.BookingsDocumentKey, raw); err != nil {
		return fmt.Errorf("save bookings: %w", err)
	}

	metrics.IncBookingCreated(string(booking.RoomCategory))
	s.logger.Info().
		Str("booking_id", booking.ID).
		Str("room_id", booking.RoomID).
		Str("category", string(booking.RoomCategory)).
		Msg("Booking saved")
	return nil
}

// loadLedger decodes the bookings document record by record. On
// errMalformedDocument the raw document is returned alongside.
func (s *BookingStore) loadLedger(ctx context.Context) (*ledger, []byte, error) {
	raw, ok, err := s.docs.Load(ctx, models.BookingsDocumentKey)
	if err != nil {
		return nil, nil, err
	}
	l := &ledger{bookings: []models.Booking{}}
	if !ok || len(raw) == 0 {
		return l, nil, nil
	}

	if err := json.Unmarshal(raw, &l.records); err != nil {
		return nil, raw, fmt.Errorf("%w: %v", errMalformedDocument, err)
	}
	for i, record := range l.records {
		var b models.Booking
		if err := json.Unmarshal(record, &b); err != nil {
			s.logger.Warn().Err(err).Int("index", i).Msg("Skipping unreadable booking record")
			continue
		}
		l.bookings = append(l.bookings, b)
	}
	return l, nil, nil
}

// GetCategoryAvailability returns remaining rooms per category, clamped to
// [0, inventory].
func (s *BookingStore) GetCategoryAvailability(ctx context.Context, checkIn, checkOut time.Time) models.CategoryAvailability {
	metrics.IncAvailabilityQuery()
	return categoryRemaining(s.GetAllBookings(ctx), checkIn, checkOut)
}

// AvailabilityReport is GetCategoryAvailability plus the number of overlapping
// bookings beyond inventory, which the clamped counts cannot show.
func (s *BookingStore) AvailabilityReport(ctx context.Context, checkIn, checkOut time.Time) models.AvailabilityReport {
	metrics.IncAvailabilityQuery()
	bookings := s.GetAllBookings(ctx)
	overlaps := categoryOverlaps(bookings, checkIn, checkOut)

	report := models.AvailabilityReport{
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Remaining:  clampRemaining(overlaps),
		Overlaps:   overlaps,
		Overbooked: make(map[models.RoomCategory]int, len(overlaps)),
	}

	for _, cat := range models.Categories() {
		excess := overlaps[cat] - cat.Total()
		if excess < 0 {
			excess = 0
		}
		report.Overbooked[cat] = excess
		metrics.SetOverbooked(string(cat), excess)
		if excess > 0 {
			s.logger.Warn().
				Str("category", string(cat)).
				Int("overlapping", overlaps[cat]).
				Int("inventory", cat.Total()).
				Time("check_in", checkIn).
				Time("check_out", checkOut).
				Msg("Overbooking detected")
		}
	}

	if report.HasOverbooking() {
		payload := events.OverbookingEventPayload{
			CheckIn:    checkIn.Format(models.DateLayout),
			CheckOut:   checkOut.Format(models.DateLayout),
			Overbooked: report.Overbooked,
		}
		s.publish(events.EventOverbookingDetected, payload)
	}

	return report
}

func categoryOverlaps(bookings []models.Booking, checkIn, checkOut time.Time) map[models.RoomCategory]int {
	overlaps := make(map[models.RoomCategory]int, len(models.CategoryInventory))
	for _, cat := range models.Categories() {
		overlaps[cat] = 0
	}
	for i := range bookings {
		b := &bookings[i]
		if !b.RoomCategory.Valid() {
			continue
		}
		if b.Overlaps(checkIn, checkOut) {
			overlaps[b.RoomCategory]++
		}
	}
	return overlaps
}

func clampRemaining(overlaps map[models.RoomCategory]int) models.CategoryAvailability {
	remaining := make(models.CategoryAvailability, len(overlaps))
	for _, cat := range models.Categories() {
		left := cat.Total() - overlaps[cat]
		if left < 0 {
			left = 0
		}
		remaining[cat] = left
	}
	return remaining
}

func categoryRemaining(bookings []models.Booking, checkIn, checkOut time.Time) models.CategoryAvailability {
	return clampRemaining(categoryOverlaps(bookings, checkIn, checkOut))
}

// GetSiteConfig returns the persisted configuration or the built-in default
// when it is absent or unreadable.
func (s *BookingStore) GetSiteConfig(ctx context.Context) models.SiteConfig {
	raw, ok, err := s.docs.Load(ctx, models.SiteConfigDocumentKey)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to load site config, using default")
		return models.DefaultSiteConfig()
	}
	if !ok || len(raw) == 0 {
		return models.DefaultSiteConfig()
	}

	var cfg models.SiteConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		s.logger.Error().Err(err).Msg("Malformed site config, using default")
		return models.DefaultSiteConfig()
	}
	return cfg
}

// UpdateSiteConfig replaces the whole document. Last writer wins.
func (s *BookingStore) UpdateSiteConfig(ctx context.Context, cfg models.SiteConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidSiteConfig, err)
	}

	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode site config: %w", err)
	}
	if err := s.docs.Save(ctx, models.SiteConfigDocumentKey, raw); err != nil {
		return fmt.Errorf("save site config: %w", err)
	}

	payload := events.SiteConfigEventPayload{Rooms: len(cfg.Rooms), UpdatedAt: time.Now()}
	s.publish(events.EventSiteConfigUpdated, payload)
	return nil
}

func (s *BookingStore) publish(eventType string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event", eventType).Msg("Failed to publish event")
	}
}

// ResetSiteConfig drops the persisted document so the default applies again.
func (s *BookingStore) ResetSiteConfig(ctx context.Context) error {
	if err := s.docs.Delete(ctx, models.SiteConfigDocumentKey); err != nil {
		return fmt.Errorf("reset site config: %w", err)
	}
	return nil
}

func (s *BookingStore) Stats(ctx context.Context) models.BookingStats {
	stats := models.BookingStats{ByCategory: make(map[models.RoomCategory]int)}
	for _, b := range s.GetAllBookings(ctx) {
		stats.TotalOrders++
		stats.TotalRevenue += b.TotalPrice
		stats.ByCategory[b.RoomCategory]++
	}
	return stats
}
