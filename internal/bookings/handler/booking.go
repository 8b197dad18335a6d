package handler

import (
	"net/http"

	"masterbook/internal/bookings/events"
	"masterbook/internal/bookings/service"
	"masterbook/pkg/auth"
	apperrors "masterbook/pkg/errors"
	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"
	"masterbook/pkg/middleware"
	"masterbook/pkg/model"
	"masterbook/pkg/timerange"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	auth    *auth.Authenticator
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, authenticator *auth.Authenticator, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		auth:    authenticator,
		log:     log,
	}
}

// Request creates a pending booking. Anonymous callers may book as guests.
func (h *BookingHandler) Request(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.BookingRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx := events.WithCorrelationID(r.Context(), middleware.RequestIDFromContext(r.Context()))
	booking, err := h.service.Request(ctx, auth.UID(ctx), &req)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteCreated(w, httputil.Envelope{"id": booking.ID, "booking": booking}); err != nil {
		h.log.Error("failed to write created response", "handler", "Request", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) UpdateStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var update model.BookingStatusUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	ctx := events.WithCorrelationID(r.Context(), middleware.RequestIDFromContext(r.Context()))
	booking, err := h.service.UpdateStatus(ctx, auth.UID(ctx), ps.ByName("id"), &update)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, httputil.Envelope{"booking": booking}); err != nil {
		h.log.Error("failed to write success response", "handler", "UpdateStatus", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), auth.UID(r.Context()), ps.ByName("id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, httputil.Envelope{"booking": booking}); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// List returns a provider's bookings, optionally narrowed to one date.
func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	masterID := query.Get("masterId")
	if masterID == "" {
		httputil.WriteError(w, apperrors.InvalidInput("masterId is required"))
		return
	}

	var date *timerange.Date
	if raw := query.Get("date"); raw != "" {
		d, err := timerange.ParseDate(raw)
		if err != nil {
			httputil.WriteError(w, apperrors.InvalidDate("date must be a real calendar day in YYYY-MM-DD format"))
			return
		}
		date = &d
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	bookings, total, err := h.service.ListForMaster(r.Context(), auth.UID(r.Context()), masterID, date, limit, offset)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if bookings == nil {
		bookings = []*model.Booking{}
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "List", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/booking/request", h.auth.Optional(h.Request))
	router.PATCH("/api/v1/booking/:id", h.auth.Required(h.UpdateStatus))
	router.GET("/api/v1/booking/:id", h.auth.Required(h.GetByID))
	router.GET("/api/v1/booking", h.auth.Required(h.List))
}
