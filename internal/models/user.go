package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent     UserRole = "STUDENT"
	RoleCoordinator UserRole = "COORDINATOR"
	RoleExecutive   UserRole = "EXECUTIVE"
)

// Campus identifies a university campus; ALL targets every campus.
type Campus string

const (
	CampusAPB Campus = "APB"
	CampusDFC Campus = "DFC"
	CampusAPK Campus = "APK"
	CampusSWC Campus = "SWC"
	CampusAll Campus = "ALL"
)

// Valid reports whether the campus is a supported value.
func (c Campus) Valid() bool {
	switch c {
	case CampusAPB, CampusDFC, CampusAPK, CampusSWC, CampusAll:
		return true
	default:
		return false
	}
}

// User represents an application user stored in the users table.
type User struct {
	ID                string    `db:"id" json:"id"`
	Email             string    `db:"email" json:"email"`
	PasswordHash      string    `db:"password_hash" json:"-"`
	FirstName         string    `db:"first_name" json:"first_name"`
	LastName          string    `db:"last_name" json:"last_name"`
	StudentNumber     *string   `db:"student_number" json:"student_number,omitempty"`
	Campus            Campus    `db:"campus" json:"campus"`
	Role              UserRole  `db:"role" json:"role"`
	ExecutivePosition *string   `db:"executive_position" json:"executive_position,omitempty"`
	Active            bool      `db:"active" json:"active"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
