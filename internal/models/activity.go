package models

import "time"

// RoleType labels the volunteer roles an activity offers.
type RoleType string

const (
	RoleTypeSetup         RoleType = "Set Up"
	RoleTypeDemonstration RoleType = "Demonstration"
	RoleTypeRecruitment   RoleType = "Recruitment"
	RoleTypeGeneral       RoleType = "General"
)

// Valid reports whether the role type is a supported value.
func (r RoleType) Valid() bool {
	switch r {
	case RoleTypeSetup, RoleTypeDemonstration, RoleTypeRecruitment, RoleTypeGeneral:
		return true
	default:
		return false
	}
}

// ActivityRole says "this activity has this role available"; roles carry no
// capacity of their own.
type ActivityRole struct {
	ID         string   `db:"id" json:"id"`
	ActivityID string   `db:"activity_id" json:"-"`
	RoleType   RoleType `db:"role_type" json:"role_type"`
}

// Activity is a scheduled volunteer event with capacity and roles.
type Activity struct {
	ID                string         `db:"id" json:"id"`
	Title             string         `db:"title" json:"title"`
	Campus            Campus         `db:"campus" json:"campus"`
	Description       string         `db:"description" json:"description"`
	Details           string         `db:"details" json:"details"`
	AdditionalDetails *string        `db:"additional_details" json:"additional_details,omitempty"`
	TotalSpots        int            `db:"total_spots" json:"total_spots"`
	SpotsTaken        int            `db:"spots_taken" json:"spots_taken"`
	StartTime         time.Time      `db:"start_time" json:"start_time"`
	DurationHours     float64        `db:"duration_hours" json:"duration_hours"`
	ImageURL          *string        `db:"image_url" json:"image_url,omitempty"`
	CreatedBy         string         `db:"created_by" json:"created_by"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	Roles             []ActivityRole `json:"roles"`
}

// SpotsLeft derives remaining capacity; the repository keeps the invariant
// 0 <= spots_taken <= total_spots.
func (a *Activity) SpotsLeft() int {
	left := a.TotalSpots - a.SpotsTaken
	if left < 0 {
		return 0
	}
	return left
}

// EndTime is the scheduled close of the activity: start plus duration.
func (a *Activity) EndTime() time.Time {
	return a.StartTime.Add(time.Duration(a.DurationHours * float64(time.Hour)))
}

// ActivityFilter captures listing criteria for activities.
type ActivityFilter struct {
	Campus    Campus
	CreatedBy string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}
