package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/cshaw-hub/hub-api/internal/dto"
	"github.com/cshaw-hub/hub-api/internal/models"
	appErrors "github.com/cshaw-hub/hub-api/pkg/errors"
)

type activityRepository interface {
	List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error)
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Create(ctx context.Context, activity *models.Activity) error
	Update(ctx context.Context, activity *models.Activity) error
	Delete(ctx context.Context, id, createdBy string) error
	AdjustSpots(ctx context.Context, id string, delta int) error
	FindRole(ctx context.Context, activityID, roleID string) (*models.ActivityRole, error)
}

type signupWriter interface {
	Create(ctx context.Context, activityID, userID string, roleID *string) (string, error)
	Exists(ctx context.Context, activityID, userID string) (bool, error)
	Delete(ctx context.Context, activityID, userID string) (bool, error)
}

// ActivityService covers the activity catalogue and student RSVPs.
type ActivityService struct {
	activities activityRepository
	signups    signupWriter
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewActivityService constructs the service.
func NewActivityService(activities activityRepository, signups signupWriter, logger *zap.Logger) *ActivityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{
		activities: activities,
		signups:    signups,
		validate:   validator.New(),
		logger:     logger,
	}
}

// List returns activities matching the filter along with the total count.
func (s *ActivityService) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, int, error) {
	if filter.Campus != "" && !filter.Campus.Valid() {
		return nil, 0, appErrors.Clone(appErrors.ErrValidation, "Invalid campus")
	}
	activities, total, err := s.activities.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list activities")
	}
	return activities, total, nil
}

// Get loads one activity with its roles.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.activities.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

// Create registers a new activity owned by the coordinator.
func (s *ActivityService) Create(ctx context.Context, req dto.CreateActivityRequest, claims *models.JWTClaims) (*models.Activity, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, err.Error())
	}
	if !req.Campus.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid campus")
	}
	for _, role := range req.Roles {
		if !role.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid role type")
		}
	}

	activity := &models.Activity{
		Title:         req.Title,
		Campus:        req.Campus,
		Description:   req.Description,
		Details:       req.Details,
		TotalSpots:    req.TotalSpots,
		StartTime:     req.StartTime,
		DurationHours: req.DurationHours,
		CreatedBy:     claims.UserID,
	}
	if req.AdditionalDetails != "" {
		activity.AdditionalDetails = &req.AdditionalDetails
	}
	if req.ImageURL != "" {
		activity.ImageURL = &req.ImageURL
	}
	for _, role := range req.Roles {
		activity.Roles = append(activity.Roles, models.ActivityRole{RoleType: role})
	}

	if err := s.activities.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	s.logger.Info("activity created",
		zap.String("activity_id", activity.ID),
		zap.String("created_by", claims.UserID))
	return activity, nil
}

// Update applies the partial edit and returns the fresh activity.
func (s *ActivityService) Update(ctx context.Context, id string, req dto.UpdateActivityRequest, claims *models.JWTClaims) (*models.Activity, error) {
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	activity, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if activity.CreatedBy != claims.UserID && claims.Role != models.RoleExecutive {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "You can only edit your own activities")
	}

	if req.Title != nil {
		activity.Title = *req.Title
	}
	if req.Campus != nil {
		if !req.Campus.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Invalid campus")
		}
		activity.Campus = *req.Campus
	}
	if req.Description != nil {
		activity.Description = *req.Description
	}
	if req.Details != nil {
		activity.Details = *req.Details
	}
	if req.AdditionalDetails != nil {
		activity.AdditionalDetails = req.AdditionalDetails
	}
	if req.TotalSpots != nil {
		if *req.TotalSpots < activity.SpotsTaken {
			return nil, appErrors.Clone(appErrors.ErrValidation, "Total spots cannot be below the current signups")
		}
		activity.TotalSpots = *req.TotalSpots
	}
	if req.StartTime != nil {
		activity.StartTime = *req.StartTime
	}
	if req.DurationHours != nil {
		activity.DurationHours = *req.DurationHours
	}
	if req.ImageURL != nil {
		activity.ImageURL = req.ImageURL
	}

	if err := s.activities.Update(ctx, activity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "Activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity")
	}
	return activity, nil
}

// Delete removes an activity owned by the caller.
func (s *ActivityService) Delete(ctx context.Context, id string, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	if err := s.activities.Delete(ctx, id, claims.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "Activity not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	s.logger.Info("activity deleted", zap.String("activity_id", id))
	return nil
}

// Signup RSVPs the student to the activity, claiming one spot.
func (s *ActivityService) Signup(ctx context.Context, activityID string, req dto.SignupRequest, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	activity, err := s.Get(ctx, activityID)
	if err != nil {
		return err
	}

	exists, err := s.signups.Exists(ctx, activityID, claims.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check signup")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, "You have already signed up for this event.")
	}
	if activity.SpotsLeft() <= 0 {
		return appErrors.Clone(appErrors.ErrConflict, "Sorry, this event is fully booked.")
	}

	var roleID *string
	if req.RoleID != "" {
		if _, err := s.activities.FindRole(ctx, activityID, req.RoleID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrValidation, "Selected role is not offered by this event")
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve role")
		}
		roleID = &req.RoleID
	}

	// The guarded counter update is the capacity gate under concurrency; a
	// zero-row update means the last spot went to someone else.
	if err := s.activities.AdjustSpots(ctx, activityID, 1); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrConflict, "Sorry, this event is fully booked.")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to claim spot")
	}
	if _, err := s.signups.Create(ctx, activityID, claims.UserID, roleID); err != nil {
		if rollback := s.activities.AdjustSpots(ctx, activityID, -1); rollback != nil {
			s.logger.Error("failed to release spot after signup error",
				zap.String("activity_id", activityID), zap.Error(rollback))
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create signup")
	}
	s.logger.Info("signup created",
		zap.String("activity_id", activityID),
		zap.String("user_id", claims.UserID))
	return nil
}

// CancelSignup withdraws the student's RSVP and releases the spot. An RSVP
// that already has a sign-in cannot be withdrawn.
func (s *ActivityService) CancelSignup(ctx context.Context, activityID string, claims *models.JWTClaims) error {
	if claims == nil {
		return appErrors.ErrUnauthorized
	}
	removed, err := s.signups.Delete(ctx, activityID, claims.UserID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel signup")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "Signup not found")
	}
	if err := s.activities.AdjustSpots(ctx, activityID, -1); err != nil && !errors.Is(err, sql.ErrNoRows) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to release spot")
	}
	return nil
}
