package service

import (
	"context"
	"errors"

	"masterbook/internal/availability/resolver"
	bookingserrors "masterbook/internal/bookings/errors"
	"masterbook/internal/bookings/events"
	"masterbook/internal/bookings/lifecycle"
	"masterbook/internal/bookings/repository"
	"masterbook/internal/bookings/validator"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/lock"
	"masterbook/pkg/model"
	"masterbook/pkg/timerange"
	"masterbook/pkg/validation"

	"golang.org/x/sync/errgroup"
)

type BookingService interface {
	// Request admits a new pending booking or explains why the slot cannot be taken.
	Request(ctx context.Context, actorID string, req *model.BookingRequest) (*model.Booking, error)
	UpdateStatus(ctx context.Context, actorID, id string, update *model.BookingStatusUpdate) (*model.Booking, error)
	// Complete marks a confirmed booking completed on behalf of an out-of-band process.
	Complete(ctx context.Context, id string) (*model.Booking, error)
	GetByID(ctx context.Context, actorID, id string) (*model.Booking, error)
	ListForMaster(ctx context.Context, actorID, masterID string, date *timerange.Date, limit int, offset int64) ([]*model.Booking, int64, error)
	BookedIntervals(ctx context.Context, masterID string, date timerange.Date) ([]timerange.Interval, error)
}

// ScheduleSource resolves a provider's availability.
type ScheduleSource interface {
	Schedule(ctx context.Context, masterID string) (*resolver.Schedule, error)
}

// ChatOpener creates the conversation that belongs to a booking.
type ChatOpener interface {
	EnsureForBooking(ctx context.Context, booking *model.Booking) error
}

type bookingService struct {
	repo         repository.BookingRepository
	locker       lock.Locker
	availability ScheduleSource
	chats        ChatOpener
	publisher    events.Publisher
	validator    *validator.BookingValidator
	cfg          *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	locker lock.Locker,
	availability ScheduleSource,
	chats ChatOpener,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	cfg *config.Config,
) BookingService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &bookingService{
		repo:         repo,
		locker:       locker,
		availability: availability,
		chats:        chats,
		publisher:    publisher,
		validator:    validator,
		cfg:          cfg,
	}
}

func (s *bookingService) Request(ctx context.Context, actorID string, req *model.BookingRequest) (*model.Booking, error) {
	if err := s.resolveClient(actorID, req); err != nil {
		return nil, err
	}

	slot, err := s.validator.ValidateRequest(req)
	if err != nil {
		s.cfg.Log.Warn("Booking request validation failed", "master_id", req.MasterID, "error", err)
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Booking validation failed", verrs.Details())
		}
		return nil, bookingserrors.TranslateRequest(err)
	}

	schedule, err := s.availability.Schedule(ctx, req.MasterID)
	if err != nil {
		return nil, err
	}
	if !schedule.Admits(slot.Date, slot.Window) {
		return nil, apperrors.OutsideAvailability("Requested time is outside the provider's availability").
			WithDetails(map[string]any{
				"date":   slot.Date.String(),
				"window": slot.Window.String(),
			})
	}

	booking := &model.Booking{
		ListingID:       req.ListingID,
		MasterID:        req.MasterID,
		ClientID:        req.ClientID,
		Date:            slot.Date.String(),
		Time:            slot.Window.Start.String(),
		EndTime:         slot.Window.End.String(),
		DurationMinutes: slot.Window.Duration(),
		Status:          model.StatusPending,
		Note:            req.Note,
		ContactName:     req.Contact.Name,
		ContactPhone:    req.Contact.Phone,
	}

	release, err := s.locker.Acquire(ctx, lock.DomainKey(req.MasterID, slot.Date))
	if err != nil {
		s.cfg.Log.Error("Failed to acquire scheduling lock",
			"master_id", req.MasterID,
			"date", booking.Date,
			"error", err,
		)
		return nil, apperrors.StorageUnavailable("Provider's calendar is busy, please retry", err)
	}
	defer func() {
		if releaseErr := release(ctx); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release scheduling lock", "master_id", req.MasterID, "date", booking.Date, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(txCtx context.Context) error {
		if err := s.verifySlotFree(txCtx, booking.MasterID, slot); err != nil {
			return err
		}
		if err := s.repo.Create(txCtx, booking); err != nil {
			return apperrors.StorageUnavailable("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeSlotTaken) {
			s.cfg.Log.Info("Booking rejected, slot taken", "master_id", booking.MasterID, "date", booking.Date, "time", booking.Time)
			return nil, err
		}
		s.cfg.Log.Error("Failed to create booking", "master_id", booking.MasterID, "error", err)
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, apperrors.StorageUnavailable("Failed to create booking", err)
	}

	s.cfg.Log.Info("Booking requested successfully",
		"id", booking.ID,
		"master_id", booking.MasterID,
		"client_id", booking.ClientID,
		"date", booking.Date,
		"time", booking.Time,
		"duration", booking.DurationMinutes,
	)

	s.openChat(ctx, booking)
	s.publish(ctx, booking, actorID)
	return booking, nil
}

// resolveClient binds the booking to the authenticated caller. Guests book
// anonymously; a signed-in client books for themselves; a provider may enter
// a walk-in guest into their own calendar.
func (s *bookingService) resolveClient(actorID string, req *model.BookingRequest) error {
	if req.ClientID != "" && req.ClientID != actorID {
		return apperrors.Unauthorized("clientId must match the authenticated user")
	}
	if req.ClientID == "" && actorID != "" && actorID != req.MasterID {
		req.ClientID = actorID
	}
	if req.ClientID != "" && req.ClientID == req.MasterID {
		return apperrors.InvalidInput("A provider cannot book their own listing as a client")
	}
	return nil
}

func (s *bookingService) verifySlotFree(ctx context.Context, masterID string, slot *validator.Slot) error {
	active, err := s.repo.FindActiveOverlapping(ctx, masterID, slot.Date, slot.Window)
	if err != nil {
		return apperrors.StorageUnavailable("Failed to check existing bookings", err)
	}
	for _, existing := range active {
		window, ok := s.windowOf(existing)
		if !ok {
			continue
		}
		if timerange.Overlaps(window, slot.Window) {
			return apperrors.SlotTaken("Requested time overlaps an existing booking").
				WithCause(bookingserrors.ErrSlotTaken).
				WithDetails(map[string]any{"conflict": window.String()})
		}
	}
	return nil
}

func (s *bookingService) UpdateStatus(ctx context.Context, actorID, id string, update *model.BookingStatusUpdate) (*model.Booking, error) {
	if actorID == "" {
		return nil, apperrors.Unauthenticated("Authentication required")
	}
	if err := s.validator.ValidateStatus(update); err != nil {
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return nil, apperrors.Validation("Invalid status update", verrs.Details())
		}
		return nil, apperrors.InvalidInput(err.Error())
	}

	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	role := lifecycle.RoleOf(booking, actorID)
	if role == lifecycle.RoleNone {
		return nil, apperrors.Unauthorized("Only the booking's participants can change it")
	}

	return s.transition(ctx, booking, update.Status, role, actorID)
}

func (s *bookingService) Complete(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.transition(ctx, booking, model.StatusCompleted, lifecycle.RoleSystem, "")
}

func (s *bookingService) transition(ctx context.Context, booking *model.Booking, to model.BookingStatus, role lifecycle.Role, actorID string) (*model.Booking, error) {
	if err := lifecycle.Check(booking.Status, to, role); err != nil {
		s.cfg.Log.Warn("Booking transition rejected",
			"id", booking.ID,
			"from", booking.Status,
			"to", to,
			"role", role,
		)
		if errors.Is(err, lifecycle.ErrNotPermitted) {
			return nil, apperrors.Unauthorized("You are not allowed to set this status")
		}
		return nil, apperrors.InvalidTransition(string(booking.Status), string(to))
	}

	if to == model.StatusConfirmed {
		if err := s.verifyStillAvailable(ctx, booking); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.UpdateStatus(ctx, booking.ID, booking.Status, to)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			current := booking.Status
			if fresh, findErr := s.repo.FindByID(ctx, booking.ID); findErr == nil {
				current = fresh.Status
			}
			return nil, apperrors.InvalidTransition(string(current), string(to))
		}
		s.cfg.Log.Error("Failed to update booking status", "id", booking.ID, "error", err)
		return nil, apperrors.StorageUnavailable("Failed to update booking", err)
	}

	s.cfg.Log.Info("Booking status updated successfully",
		"id", updated.ID,
		"from", booking.Status,
		"to", updated.Status,
		"role", role,
	)
	s.publish(ctx, updated, actorID)
	return updated, nil
}

// verifyStillAvailable rejects a confirmation when the provider has since
// closed the booked time.
func (s *bookingService) verifyStillAvailable(ctx context.Context, booking *model.Booking) error {
	date, err := timerange.ParseDate(booking.Date)
	if err != nil {
		return apperrors.Internal("Stored booking has an invalid date", err)
	}
	window, ok := s.windowOf(booking)
	if !ok {
		return apperrors.Internal("Stored booking has an invalid time window", nil)
	}

	schedule, err := s.availability.Schedule(ctx, booking.MasterID)
	if err != nil {
		return err
	}
	if !schedule.Admits(date, window) {
		return apperrors.OutsideAvailability("Booked time is no longer within the provider's availability")
	}
	return nil
}

func (s *bookingService) GetByID(ctx context.Context, actorID, id string) (*model.Booking, error) {
	if actorID == "" {
		return nil, apperrors.Unauthenticated("Authentication required")
	}
	booking, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !booking.IsParticipant(actorID) {
		return nil, apperrors.Unauthorized("Only the booking's participants can view it")
	}
	return booking, nil
}

func (s *bookingService) ListForMaster(ctx context.Context, actorID, masterID string, date *timerange.Date, limit int, offset int64) ([]*model.Booking, int64, error) {
	if actorID == "" {
		return nil, 0, apperrors.Unauthenticated("Authentication required")
	}
	if masterID == "" {
		masterID = actorID
	}
	if masterID != actorID {
		return nil, 0, apperrors.Unauthorized("Providers can only list their own bookings")
	}

	var (
		bookings []*model.Booking
		total    int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		total, err = s.repo.CountByMasterAndDate(gctx, masterID, date)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings", "master_id", masterID, "error", err)
			return apperrors.StorageUnavailable("Failed to count bookings", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		bookings, err = s.repo.FindByMasterAndDate(gctx, masterID, date, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to list bookings", "master_id", masterID, "error", err)
			return apperrors.StorageUnavailable("Failed to retrieve bookings", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, 0, err
	}

	if bookings == nil {
		bookings = []*model.Booking{}
	}
	return bookings, total, nil
}

func (s *bookingService) BookedIntervals(ctx context.Context, masterID string, date timerange.Date) ([]timerange.Interval, error) {
	active, err := s.repo.FindActiveByMasterAndDate(ctx, masterID, date)
	if err != nil {
		s.cfg.Log.Error("Failed to load active bookings", "master_id", masterID, "date", date.String(), "error", err)
		return nil, apperrors.StorageUnavailable("Failed to load bookings", err)
	}

	intervals := make([]timerange.Interval, 0, len(active))
	for _, b := range active {
		if window, ok := s.windowOf(b); ok {
			intervals = append(intervals, window)
		}
	}
	return timerange.Normalize(intervals), nil
}

func (s *bookingService) find(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, bookingserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		s.cfg.Log.Error("Failed to load booking", "id", id, "error", err)
		return nil, apperrors.StorageUnavailable("Failed to retrieve booking", err)
	}
	return booking, nil
}

// windowOf rebuilds the occupied interval of a stored booking.
func (s *bookingService) windowOf(b *model.Booking) (timerange.Interval, bool) {
	start, err := timerange.ParseTimeOfDay(b.Time)
	if err != nil {
		s.cfg.Log.Error("Stored booking has invalid time", "id", b.ID, "time", b.Time)
		return timerange.Interval{}, false
	}
	window, err := timerange.BookingWindow(start, b.DurationMinutes)
	if err != nil {
		s.cfg.Log.Error("Stored booking has invalid duration", "id", b.ID, "duration", b.DurationMinutes)
		return timerange.Interval{}, false
	}
	return window, true
}

func (s *bookingService) openChat(ctx context.Context, booking *model.Booking) {
	if s.chats == nil || booking.ClientID == "" {
		return
	}
	if err := s.chats.EnsureForBooking(ctx, booking); err != nil {
		s.cfg.Log.Warn("Failed to open booking chat", "booking_id", booking.ID, "error", err)
	}
}

func (s *bookingService) publish(ctx context.Context, booking *model.Booking, actorID string) {
	if err := s.publisher.Publish(ctx, events.NewBookingEvent(booking, actorID)); err != nil {
		s.cfg.Log.Warn("Failed to publish booking event", "booking_id", booking.ID, "status", booking.Status, "error", err)
	}
}
