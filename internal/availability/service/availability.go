package service

import (
	"context"
	"errors"

	availabilityerrors "masterbook/internal/availability/errors"
	"masterbook/internal/availability/repository"
	"masterbook/internal/availability/resolver"
	"masterbook/internal/availability/validator"
	"masterbook/pkg/config"
	apperrors "masterbook/pkg/errors"
	"masterbook/pkg/model"
	"masterbook/pkg/timerange"
	"masterbook/pkg/validation"
)

type AvailabilityService interface {
	Set(ctx context.Context, actorID string, update *model.AvailabilityUpdate) error
	Get(ctx context.Context, masterID string) (*model.AvailabilityProfile, error)
	Schedule(ctx context.Context, masterID string) (*resolver.Schedule, error)
	OpenIntervals(ctx context.Context, masterID string, date timerange.Date) ([]timerange.Interval, error)
}

type availabilityService struct {
	repo      repository.AvailabilityRepository
	validator *validator.AvailabilityValidator
	cfg       *config.Config
}

func NewAvailabilityService(
	repo repository.AvailabilityRepository,
	validator *validator.AvailabilityValidator,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *availabilityService) Set(ctx context.Context, actorID string, update *model.AvailabilityUpdate) error {
	if actorID == "" {
		return apperrors.Unauthenticated("Authentication required")
	}
	if update.MasterID != "" && update.MasterID != actorID {
		s.cfg.Log.Warn("Availability write by non-owner rejected",
			"master_id", update.MasterID,
			"actor_id", actorID,
		)
		return apperrors.Unauthorized("Only the provider can change their availability")
	}

	if err := s.validator.ValidateUpdate(update); err != nil {
		s.cfg.Log.Warn("Availability validation failed", "master_id", update.MasterID, "error", err)
		var verrs validation.ValidationErrors
		if errors.As(err, &verrs) {
			return apperrors.Validation("Availability validation failed", verrs.Details())
		}
		return availabilityerrors.Translate(err)
	}

	if err := s.repo.Upsert(ctx, update); err != nil {
		s.cfg.Log.Error("Failed to save availability", "master_id", update.MasterID, "error", err)
		return apperrors.StorageUnavailable("Failed to save availability", err)
	}

	s.cfg.Log.Info("Availability updated successfully",
		"master_id", update.MasterID,
		"weekly_set", update.Weekly != nil,
		"days_off_set", update.DaysOff != nil,
		"blocks_set", update.Blocks != nil,
	)
	return nil
}

// Get returns the stored profile, or an empty one for a provider who never
// configured a schedule.
func (s *availabilityService) Get(ctx context.Context, masterID string) (*model.AvailabilityProfile, error) {
	if masterID == "" {
		return nil, apperrors.InvalidInput("masterId is required")
	}

	profile, err := s.repo.FindByMasterID(ctx, masterID)
	if err != nil {
		if errors.Is(err, availabilityerrors.ErrNotFound) {
			return model.EmptyAvailabilityProfile(masterID), nil
		}
		s.cfg.Log.Error("Failed to load availability", "master_id", masterID, "error", err)
		return nil, apperrors.StorageUnavailable("Failed to load availability", err)
	}
	return profile, nil
}

func (s *availabilityService) Schedule(ctx context.Context, masterID string) (*resolver.Schedule, error) {
	profile, err := s.Get(ctx, masterID)
	if err != nil {
		return nil, err
	}

	schedule, err := resolver.Compile(profile)
	if err != nil {
		s.cfg.Log.Error("Stored availability profile is invalid", "master_id", masterID, "error", err)
		return nil, apperrors.Internal("Stored availability profile is invalid", err)
	}
	return schedule, nil
}

func (s *availabilityService) OpenIntervals(ctx context.Context, masterID string, date timerange.Date) ([]timerange.Interval, error) {
	schedule, err := s.Schedule(ctx, masterID)
	if err != nil {
		return nil, err
	}
	return schedule.OpenIntervals(date), nil
}
