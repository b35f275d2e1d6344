package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"viona/internal/domain"
	"viona/internal/events"
	"viona/internal/metrics"
	"viona/internal/models"
	"viona/internal/validation"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// FlowOptions tune the booking flow.
type FlowOptions struct {
	// CloseAfter is the success display delay reported to the caller.
	CloseAfter  time.Duration
	StrictPhone bool
	DefaultLang models.Language
	// SessionTTL expires sessions idle for longer; zero keeps them.
	SessionTTL time.Duration
}

// BookingFlowService drives a guest from room selection to a persisted
// booking. Only SubmitPayment commits anything outside the session document.
type BookingFlowService struct {
	sessions      domain.DocumentStore
	store         domain.BookingStore
	confirmations domain.ConfirmationQueue
	eventBus      domain.EventPublisher
	opts          FlowOptions
	logger        *zerolog.Logger

	// locks serialises transitions of one flow so a repeated submit sees
	// the step the first one left behind.
	locks flowLocks

	newID func() string
	now   func() time.Time
}

func NewBookingFlowService(
	sessions domain.DocumentStore,
	store domain.BookingStore,
	confirmations domain.ConfirmationQueue,
	eventBus domain.EventPublisher,
	opts FlowOptions,
	logger *zerolog.Logger,
) *BookingFlowService {
	if opts.CloseAfter <= 0 {
		opts.CloseAfter = 3 * time.Second
	}
	if !opts.DefaultLang.Valid() {
		opts.DefaultLang = models.LangTR
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &BookingFlowService{
		sessions:      sessions,
		store:         store,
		confirmations: confirmations,
		eventBus:      eventBus,
		opts:          opts,
		logger:        logger,
		newID:         uuid.NewString,
		now:           time.Now,
	}
}

func (s *BookingFlowService) Start(ctx context.Context, roomID string, checkIn, checkOut time.Time, lang models.Language) (*models.FlowSession, error) {
	if !models.ValidStay(checkIn, checkOut) {
		return nil, ErrInvalidDateRange
	}

	cfg := s.store.GetSiteConfig(ctx)
	if _, ok := cfg.Room(roomID); !ok {
		return nil, ErrRoomNotFound
	}

	now := s.now().UTC()
	session := &models.FlowSession{
		ID:        s.newID(),
		Step:      models.FlowStepCollectingInfo,
		RoomID:    roomID,
		CheckIn:   checkIn,
		CheckOut:  checkOut,
		Lang:      models.ParseLanguage(string(lang), s.opts.DefaultLang),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	metrics.IncFlowTransition(session.Step)
	s.logger.Debug().Str("flow_id", session.ID).Str("room_id", roomID).Msg("Booking flow started")
	return session, nil
}

func (s *BookingFlowService) Get(ctx context.Context, flowID string) (*models.FlowSession, error) {
	return s.loadSession(ctx, flowID)
}

// SubmitInfo validates guest details. On failure it returns
// validation.FieldErrors and leaves the session untouched.
func (s *BookingFlowService) SubmitInfo(ctx context.Context, flowID string, guest models.GuestInfo) (*models.FlowSession, error) {
	defer s.locks.lock(flowID)()

	session, err := s.loadSession(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if session.Step != models.FlowStepCollectingInfo {
		return nil, ErrInvalidTransition
	}

	guest = models.GuestInfo{
		Name:  strings.TrimSpace(guest.Name),
		Email: strings.TrimSpace(guest.Email),
		Phone: strings.TrimSpace(guest.Phone),
	}
	if err := validation.ValidateGuest(guest, session.Lang, s.opts.StrictPhone); err != nil {
		return nil, err
	}

	session.Guest = guest
	session.Step = models.FlowStepCollectingPayment
	session.UpdatedAt = s.now().UTC()
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	metrics.IncFlowTransition(session.Step)
	return session, nil
}

// SubmitPayment checks that every payment field is present, persists the
// booking and queues its confirmation. Payment data is mocked and never
// stored.
func (s *BookingFlowService) SubmitPayment(ctx context.Context, flowID string, payment models.PaymentDetails) (*models.FlowResult, error) {
	defer s.locks.lock(flowID)()

	session, err := s.loadSession(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if session.Step != models.FlowStepCollectingPayment {
		return nil, ErrInvalidTransition
	}

	payment = NormalizePayment(payment)
	if err := models.ValidateStruct(payment); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPaymentIncomplete, err)
	}

	cfg := s.store.GetSiteConfig(ctx)
	room, ok := cfg.Room(session.RoomID)
	if !ok {
		return nil, ErrRoomNotFound
	}

	now := s.now().UTC()
	booking := models.Booking{
		ID:            s.newID(),
		RoomID:        room.ID,
		RoomName:      room.Name.Get(session.Lang),
		RoomCategory:  room.Category,
		CheckIn:       session.CheckIn,
		CheckOut:      session.CheckOut,
		CustomerName:  session.Guest.Name,
		CustomerEmail: session.Guest.Email,
		CustomerPhone: session.Guest.Phone,
		TotalPrice:    models.TotalPrice(room.Price, session.CheckIn, session.CheckOut),
		CreatedAt:     now,
	}

	if err := s.store.ReserveBooking(ctx, booking); err != nil {
		return nil, err
	}

	if s.confirmations != nil {
		if err := s.confirmations.Enqueue(ctx, booking, session.Lang); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("Failed to queue confirmation")
		}
	}

	if s.eventBus != nil {
		payload := events.NewBookingEventPayload(booking, session.Lang)
		if err := s.eventBus.PublishJSON(events.EventBookingCreated, payload); err != nil {
			s.logger.Error().Err(err).Str("booking_id", booking.ID).Msg("Failed to publish booking event")
		}
	}

	session.Step = models.FlowStepFinalized
	session.BookingID = booking.ID
	session.UpdatedAt = now
	if err := s.saveSession(ctx, session); err != nil {
		// the booking is already persisted; the caller still gets its result
		s.logger.Error().Err(err).Str("flow_id", session.ID).Msg("Failed to save finalized session")
	}

	metrics.IncFlowTransition(session.Step)
	s.logger.Info().
		Str("flow_id", session.ID).
		Str("booking_id", booking.ID).
		Int("total_price", booking.TotalPrice).
		Msg("Booking flow finalized")

	return &models.FlowResult{
		Session:    session,
		Booking:    booking,
		CloseAfter: s.opts.CloseAfter,
	}, nil
}

// Back returns from payment to guest details, keeping what was entered.
func (s *BookingFlowService) Back(ctx context.Context, flowID string) (*models.FlowSession, error) {
	defer s.locks.lock(flowID)()

	session, err := s.loadSession(ctx, flowID)
	if err != nil {
		return nil, err
	}
	if session.Step != models.FlowStepCollectingPayment {
		return nil, ErrInvalidTransition
	}

	session.Step = models.FlowStepCollectingInfo
	session.UpdatedAt = s.now().UTC()
	if err := s.saveSession(ctx, session); err != nil {
		return nil, err
	}

	metrics.IncFlowTransition(session.Step)
	return session, nil
}

// Cancel discards the session. A finalized booking is not affected.
func (s *BookingFlowService) Cancel(ctx context.Context, flowID string) error {
	defer s.locks.lock(flowID)()

	if _, err := s.loadSession(ctx, flowID); err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, sessionKey(flowID)); err != nil {
		return fmt.Errorf("delete flow session: %w", err)
	}
	metrics.IncFlowTransition("cancelled")
	return nil
}

func sessionKey(flowID string) string {
	return models.FlowSessionKeyPrefix + flowID
}

func (s *BookingFlowService) loadSession(ctx context.Context, flowID string) (*models.FlowSession, error) {
	if flowID == "" {
		return nil, ErrFlowNotFound
	}
	raw, ok, err := s.sessions.Load(ctx, sessionKey(flowID))
	if err != nil {
		return nil, fmt.Errorf("load flow session: %w", err)
	}
	if !ok {
		return nil, ErrFlowNotFound
	}

	var session models.FlowSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, fmt.Errorf("decode flow session: %w", err)
	}
	if s.expired(&session) {
		if err := s.sessions.Delete(ctx, sessionKey(flowID)); err != nil {
			s.logger.Warn().Err(err).Str("flow_id", flowID).Msg("Failed to delete expired session")
		}
		return nil, ErrFlowNotFound
	}
	return &session, nil
}

func (s *BookingFlowService) expired(session *models.FlowSession) bool {
	return s.opts.SessionTTL > 0 && s.now().Sub(session.UpdatedAt) > s.opts.SessionTTL
}

// PruneSessions deletes sessions idle past SessionTTL from stores that do not
// expire keys themselves.
func (s *BookingFlowService) PruneSessions(ctx context.Context) (int, error) {
	pruner, ok := s.sessions.(domain.DocumentPruner)
	if !ok || s.opts.SessionTTL <= 0 {
		return 0, nil
	}
	return pruner.PruneBefore(ctx, models.FlowSessionKeyPrefix, s.now().Add(-s.opts.SessionTTL))
}

// RunSessionJanitor calls PruneSessions every interval until ctx is done.
func (s *BookingFlowService) RunSessionJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PruneSessions(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("Failed to prune flow sessions")
				continue
			}
			if n > 0 {
				s.logger.Info().Int("removed", n).Msg("Pruned expired flow sessions")
			}
		}
	}
}

func (s *BookingFlowService) saveSession(ctx context.Context, session *models.FlowSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode flow session: %w", err)
	}
	if err := s.sessions.Save(ctx, sessionKey(session.ID), raw); err != nil {
		return fmt.Errorf("save flow session: %w", err)
	}
	return nil
}

// NormalizePayment applies the payment form's input masks: card number in
// groups of four, expiry as MM/YY and a numeric CVV. Nothing is checked
// beyond that.
func NormalizePayment(p models.PaymentDetails) models.PaymentDetails {
	return models.PaymentDetails{
		CardNumber: groupCardNumber(p.CardNumber),
		CardName:   strings.TrimSpace(p.CardName),
		Expiry:     formatExpiry(p.Expiry),
		CVV:        truncate(digitsOnly(p.CVV), 3),
	}
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n]
	}
	return s
}

func groupCardNumber(s string) string {
	digits := truncate(digitsOnly(s), 16)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && i%4 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func formatExpiry(s string) string {
	digits := truncate(digitsOnly(s), 4)
	if len(digits) > 2 {
		return digits[:2] + "/" + digits[2:]
	}
	return digits
}
