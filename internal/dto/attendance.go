package dto

import "time"

// TransitionAction names the two attendance transitions.
const (
	ActionSignIn  = "signin"
	ActionSignOut = "signout"
)

// TransitionRequest applies a sign-in or sign-out to one attendance record.
// ManualTime ("HH:MM") back- or front-dates the timestamp instead of "now";
// the server validates it against the activity's time window.
type TransitionRequest struct {
	Action     string `json:"action" validate:"required,oneof=signin signout"`
	ManualTime string `json:"manual_time,omitempty"`
}

// TransitionResponse acknowledges a successful transition.
type TransitionResponse struct {
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
	Hours   float64   `json:"hours,omitempty"`
}

// BulkSignoutResponse acknowledges a bulk close-out.
type BulkSignoutResponse struct {
	Message   string `json:"message"`
	SignedOut int    `json:"signed_out"`
}
