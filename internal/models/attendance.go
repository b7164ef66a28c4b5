package models

import (
	"math"
	"time"
)

// AttendanceStatus is derived from the sign-in/sign-out timestamp pair and
// never stored.
type AttendanceStatus string

const (
	StatusPending    AttendanceStatus = "PENDING"
	StatusInProgress AttendanceStatus = "IN_PROGRESS"
	StatusCompleted  AttendanceStatus = "COMPLETED"
)

// AttendanceRecord is one student's RSVP plus attendance lifecycle for one
// activity. sign_out_time set implies sign_in_time set and sign_out >= sign_in.
type AttendanceRecord struct {
	ID                 string     `db:"id" json:"id"`
	ActivityID         string     `db:"activity_id" json:"activity_id"`
	UserID             string     `db:"user_id" json:"user_id"`
	StudentName        string     `db:"student_name" json:"student_name"`
	StudentSurname     string     `db:"student_surname" json:"student_surname"`
	StudentEmail       string     `db:"student_email" json:"student_email"`
	StudentCampus      Campus     `db:"student_campus" json:"student_campus"`
	RoleLabel          *string    `db:"role_label" json:"role_name,omitempty"`
	SignupAt           time.Time  `db:"signup_at" json:"signup_at"`
	Attended           bool       `db:"attended" json:"attended"`
	SignInTime         *time.Time `db:"sign_in_time" json:"sign_in_time,omitempty"`
	SignOutTime        *time.Time `db:"sign_out_time" json:"sign_out_time,omitempty"`
	HoursEarned        float64    `db:"hours_earned" json:"hours_earned"`
	SignInFacilitator  *string    `db:"sign_in_facilitator" json:"-"`
	SignOutFacilitator *string    `db:"sign_out_facilitator" json:"-"`
}

// Status derives the attendance state from the two optional timestamps. This
// is the single derivation used everywhere a badge or action is chosen.
func (r *AttendanceRecord) Status() AttendanceStatus {
	switch {
	case r.SignOutTime != nil:
		return StatusCompleted
	case r.SignInTime != nil:
		return StatusInProgress
	default:
		return StatusPending
	}
}

// HoursBetween converts a sign-in/sign-out pair into earned hours, rounded
// to two decimal places.
func HoursBetween(in, out time.Time) float64 {
	if out.Before(in) {
		return 0
	}
	return math.Round(out.Sub(in).Hours()*100) / 100
}

// HistoryEntry is one attended activity in a student's recent history.
type HistoryEntry struct {
	Activity string    `db:"activity" json:"activity"`
	Date     time.Time `db:"date" json:"date"`
	Hours    float64   `db:"hours" json:"hours"`
}

// StudentStats aggregates a student's earned hours and attendance count.
type StudentStats struct {
	TotalHours     float64        `json:"total_hours"`
	EventsAttended int            `json:"events_attended"`
	History        []HistoryEntry `json:"history"`
}

// RosterRow is one student on the coordinator roster with lifetime hours.
type RosterRow struct {
	ID                string   `db:"id" json:"id"`
	FirstName         string   `db:"first_name" json:"first_name"`
	LastName          string   `db:"last_name" json:"last_name"`
	Email             string   `db:"email" json:"email"`
	StudentNumber     *string  `db:"student_number" json:"student_number,omitempty"`
	Campus            Campus   `db:"campus" json:"campus"`
	ExecutivePosition *string  `db:"executive_position" json:"executive_position,omitempty"`
	TotalHours        float64  `db:"total_hours" json:"total_hours"`
}
