package dto

import (
	"time"

	"github.com/cshaw-hub/hub-api/internal/models"
)

// CreateActivityRequest creates a volunteer activity.
type CreateActivityRequest struct {
	Title             string            `json:"title" validate:"required,max=200"`
	Campus            models.Campus     `json:"campus" validate:"required"`
	Description       string            `json:"description" validate:"required"`
	Details           string            `json:"details" validate:"required"`
	AdditionalDetails string            `json:"additional_details"`
	TotalSpots        int               `json:"total_spots" validate:"required,min=1"`
	StartTime         time.Time         `json:"start_time" validate:"required"`
	DurationHours     float64           `json:"duration_hours" validate:"min=0"`
	ImageURL          string            `json:"image_url"`
	Roles             []models.RoleType `json:"roles"`
}

// UpdateActivityRequest carries partial updates; nil fields are untouched.
type UpdateActivityRequest struct {
	Title             *string        `json:"title,omitempty"`
	Campus            *models.Campus `json:"campus,omitempty"`
	Description       *string        `json:"description,omitempty"`
	Details           *string        `json:"details,omitempty"`
	AdditionalDetails *string        `json:"additional_details,omitempty"`
	TotalSpots        *int           `json:"total_spots,omitempty"`
	StartTime         *time.Time     `json:"start_time,omitempty"`
	DurationHours     *float64       `json:"duration_hours,omitempty"`
	ImageURL          *string        `json:"image_url,omitempty"`
}

// SignupRequest is a student RSVP, optionally choosing a role.
type SignupRequest struct {
	RoleID string `json:"selected_role,omitempty"`
}
