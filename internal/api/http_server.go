package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"viona/internal/config"
	"viona/internal/domain"
	"viona/internal/export"
	"viona/internal/models"
	"viona/internal/service"
	"viona/internal/validation"

	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// HTTPServer exposes the booking core over JSON.
type HTTPServer struct {
	cfg    config.APIConfig
	store  domain.BookingStore
	flow   domain.BookingFlow
	health HealthCheck
	auth   *HTTPAuth
	server *http.Server
	logger *zerolog.Logger
}

func NewHTTPServer(cfg config.APIConfig, store domain.BookingStore, flow domain.BookingFlow, health HealthCheck, logger *zerolog.Logger) *HTTPServer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	srv := &HTTPServer{
		cfg:    cfg,
		store:  store,
		flow:   flow,
		health: health,
		auth:   NewHTTPAuth(cfg),
		logger: logger,
	}

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

// Handler returns the full middleware-wrapped router.
func (s *HTTPServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle("GET /healthz", instrument("healthz", s.handleHealth))
	mux.Handle("GET /api/v1/rooms", instrument("rooms", s.handleRooms))
	mux.Handle("GET /api/v1/site-config", instrument("site_config", s.handleSiteConfig))
	mux.Handle("GET /api/v1/availability", instrument("availability", s.handleAvailability))

	mux.Handle("POST /api/v1/flows", instrument("flow_start", s.handleFlowStart))
	mux.Handle("GET /api/v1/flows/{id}", instrument("flow_get", s.handleFlowGet))
	mux.Handle("DELETE /api/v1/flows/{id}", instrument("flow_cancel", s.handleFlowCancel))
	mux.Handle("POST /api/v1/flows/{id}/info", instrument("flow_info", s.handleFlowInfo))
	mux.Handle("POST /api/v1/flows/{id}/payment", instrument("flow_payment", s.handleFlowPayment))
	mux.Handle("POST /api/v1/flows/{id}/back", instrument("flow_back", s.handleFlowBack))

	mux.Handle("GET /api/v1/admin/bookings", instrument("admin_bookings", s.handleAdminBookings))
	mux.Handle("GET /api/v1/admin/bookings/export", instrument("admin_export", s.handleAdminExport))
	mux.Handle("GET /api/v1/admin/stats", instrument("admin_stats", s.handleAdminStats))
	mux.Handle("PUT /api/v1/admin/site-config", instrument("admin_site_config", s.handleAdminUpdateSiteConfig))
	mux.Handle("GET /api/v1/admin/availability/report", instrument("admin_report", s.handleAdminReport))

	return chain(mux, loggingMiddleware(s.logger), recoverMiddleware(s.logger), s.auth.Wrap)
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *HTTPServer) handleRooms(w http.ResponseWriter, r *http.Request) {
	cfg := s.store.GetSiteConfig(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"rooms": cfg.Rooms})
}

func (s *HTTPServer) handleSiteConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.GetSiteConfig(r.Context()))
}

// parseRange reads check_in/check_out and enforces check-out after check-in
// before any availability work is done.
func parseRange(r *http.Request) (time.Time, time.Time, error) {
	q := r.URL.Query()
	inStr := strings.TrimSpace(q.Get("check_in"))
	outStr := strings.TrimSpace(q.Get("check_out"))
	if inStr == "" || outStr == "" {
		return time.Time{}, time.Time{}, errors.New("check_in and check_out are required")
	}
	checkIn, err := models.ParseDate(inStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid check_in format; expected YYYY-MM-DD")
	}
	checkOut, err := models.ParseDate(outStr)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("invalid check_out format; expected YYYY-MM-DD")
	}
	if !models.ValidStay(checkIn, checkOut) {
		return time.Time{}, time.Time{}, service.ErrInvalidDateRange
	}
	return checkIn, checkOut, nil
}

func (s *HTTPServer) handleAvailability(w http.ResponseWriter, r *http.Request) {
	checkIn, checkOut, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	avail := s.store.GetCategoryAvailability(r.Context(), checkIn, checkOut)
	writeJSON(w, http.StatusOK, map[string]any{
		"check_in":     checkIn.Format(models.DateLayout),
		"check_out":    checkOut.Format(models.DateLayout),
		"nights":       models.StayNights(checkIn, checkOut),
		"availability": avail,
	})
}

type startFlowRequest struct {
	RoomID   string `json:"room_id" validate:"required"`
	CheckIn  string `json:"check_in" validate:"required,datetime=2006-01-02"`
	CheckOut string `json:"check_out" validate:"required,datetime=2006-01-02"`
	Lang     string `json:"lang"`
}

func (s *HTTPServer) handleFlowStart(w http.ResponseWriter, r *http.Request) {
	var body startFlowRequest
	if !decodeBody(w, r, &body) {
		return
	}
	body.RoomID = strings.TrimSpace(body.RoomID)
	body.CheckIn = strings.TrimSpace(body.CheckIn)
	body.CheckOut = strings.TrimSpace(body.CheckOut)
	if err := models.ValidateStruct(body); err != nil {
		writeInvalid(w, http.StatusBadRequest, err)
		return
	}

	// both dates passed the datetime rule
	checkIn, _ := models.ParseDate(body.CheckIn)
	checkOut, _ := models.ParseDate(body.CheckOut)

	session, err := s.flow.Start(r.Context(), body.RoomID, checkIn, checkOut, models.Language(body.Lang))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (s *HTTPServer) handleFlowGet(w http.ResponseWriter, r *http.Request) {
	session, err := s.flow.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleFlowCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.flow.Cancel(r.Context(), r.PathValue("id")); err != nil {
		s.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *HTTPServer) handleFlowInfo(w http.ResponseWriter, r *http.Request) {
	var guest models.GuestInfo
	if !decodeBody(w, r, &guest) {
		return
	}

	session, err := s.flow.SubmitInfo(r.Context(), r.PathValue("id"), guest)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type flowResultResponse struct {
	Session      *models.FlowSession `json:"session"`
	Booking      models.Booking      `json:"booking"`
	CloseAfterMS int64               `json:"close_after_ms"`
}

func (s *HTTPServer) handleFlowPayment(w http.ResponseWriter, r *http.Request) {
	var payment models.PaymentDetails
	if !decodeBody(w, r, &payment) {
		return
	}

	result, err := s.flow.SubmitPayment(r.Context(), r.PathValue("id"), payment)
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, flowResultResponse{
		Session:      result.Session,
		Booking:      result.Booking,
		CloseAfterMS: result.CloseAfter.Milliseconds(),
	})
}

func (s *HTTPServer) handleFlowBack(w http.ResponseWriter, r *http.Request) {
	session, err := s.flow.Back(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (s *HTTPServer) handleAdminBookings(w http.ResponseWriter, r *http.Request) {
	bookings := s.store.GetAllBookings(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"bookings": bookings, "count": len(bookings)})
}

func (s *HTTPServer) handleAdminExport(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, format, s.store.GetAllBookings(r.Context())); err != nil {
		s.logger.Error().Err(err).Str("format", format).Msg("Export failed")
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", export.ContentType(format))
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(format, time.Now())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *HTTPServer) handleAdminStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats(r.Context()))
}

func (s *HTTPServer) handleAdminUpdateSiteConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.SiteConfig
	if !decodeBody(w, r, &cfg) {
		return
	}
	if err := s.store.UpdateSiteConfig(r.Context(), cfg); err != nil {
		s.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *HTTPServer) handleAdminReport(w http.ResponseWriter, r *http.Request) {
	checkIn, checkOut, err := parseRange(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.store.AvailabilityReport(r.Context(), checkIn, checkOut))
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func (s *HTTPServer) writeServiceError(w http.ResponseWriter, err error) {
	var fieldErrs validation.FieldErrors
	switch {
	case errors.As(err, &fieldErrs):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  "validation failed",
			"fields": fieldErrs,
		})
	case errors.Is(err, service.ErrFlowNotFound), errors.Is(err, service.ErrRoomNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrInvalidSiteConfig):
		writeInvalid(w, http.StatusBadRequest, err)
	case errors.Is(err, service.ErrPaymentIncomplete):
		writeInvalid(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, service.ErrInvalidTransition), errors.Is(err, service.ErrNotAvailable):
		writeError(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error().Err(err).Msg("Request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}

// writeInvalid adds the per-field rules to the error body when err carries
// them.
func writeInvalid(w http.ResponseWriter, statusCode int, err error) {
	var fields models.InvalidFields
	if !errors.As(err, &fields) {
		writeError(w, statusCode, err.Error())
		return
	}
	writeJSON(w, statusCode, map[string]any{
		"error":  err.Error(),
		"fields": fields,
	})
}
