package handler

import (
	"context"
	"net/http"

	"masterbook/internal/availability/service"
	"masterbook/pkg/auth"
	apperrors "masterbook/pkg/errors"
	httputil "masterbook/pkg/http"
	"masterbook/pkg/logger"
	"masterbook/pkg/model"
	"masterbook/pkg/timerange"

	"github.com/julienschmidt/httprouter"
)

// BookedIntervals reports the time occupied by a provider's active bookings on a date.
type BookedIntervals interface {
	BookedIntervals(ctx context.Context, masterID string, date timerange.Date) ([]timerange.Interval, error)
}

type AvailabilityHandler struct {
	service service.AvailabilityService
	booked  BookedIntervals
	auth    *auth.Authenticator
	log     *logger.Logger
}

func NewAvailabilityHandler(
	service service.AvailabilityService,
	booked BookedIntervals,
	authenticator *auth.Authenticator,
	log *logger.Logger,
) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		booked:  booked,
		auth:    authenticator,
		log:     log,
	}
}

type getRequest struct {
	MasterID string `json:"masterId"`
}

func (h *AvailabilityHandler) Set(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var update model.AvailabilityUpdate
	if err := httputil.DecodeJSON(r, &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Set(r.Context(), auth.UID(r.Context()), &update); err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, nil); err != nil {
		h.log.Error("failed to write success response", "handler", "Set", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req getRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}

	profile, err := h.service.Get(r.Context(), req.MasterID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := httputil.WriteSuccess(w, httputil.Envelope{"schedule": profile}); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

// Open returns the resolved open intervals for a date and, when a booking
// source is wired, the part of them not taken by active bookings.
func (h *AvailabilityHandler) Open(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	masterID := query.Get("masterId")
	if masterID == "" {
		httputil.WriteError(w, apperrors.InvalidInput("masterId is required"))
		return
	}
	date, err := timerange.ParseDate(query.Get("date"))
	if err != nil {
		httputil.WriteError(w, apperrors.InvalidDate("date must be a real calendar day in YYYY-MM-DD format"))
		return
	}

	open, err := h.service.OpenIntervals(r.Context(), masterID, date)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	free := open
	if h.booked != nil {
		booked, err := h.booked.BookedIntervals(r.Context(), masterID, date)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		for _, b := range booked {
			free = timerange.Subtract(free, b)
		}
	}

	if err := httputil.WriteSuccess(w, httputil.Envelope{
		"masterId": masterID,
		"date":     date,
		"open":     nonNil(open),
		"free":     nonNil(free),
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Open", "operation", "WriteSuccess", "error", err)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/availability/set", h.auth.Required(h.Set))
	router.POST("/api/v1/availability/get", h.auth.Optional(h.Get))
	router.GET("/api/v1/availability/open", h.auth.Optional(h.Open))
}

func nonNil(set []timerange.Interval) []timerange.Interval {
	if set == nil {
		return []timerange.Interval{}
	}
	return set
}
