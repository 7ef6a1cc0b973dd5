package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleAdmin UserRole = "ADMIN"
	RoleUser  UserRole = "USER"
)

// User represents an application user stored in the users table.
type User struct {
	ID                      string                  `db:"id" json:"id"`
	Email                   string                  `db:"email" json:"email"`
	PasswordHash            string                  `db:"password_hash" json:"-"`
	FullName                string                  `db:"full_name" json:"full_name"`
	Role                    UserRole                `db:"role" json:"role"`
	CollegeName             *string                 `db:"college_name" json:"college_name"`
	Department              *string                 `db:"department" json:"department"`
	Phone                   *string                 `db:"phone" json:"phone"`
	DOB                     *Date                   `db:"dob" json:"dob"`
	Place                   *string                 `db:"place" json:"place"`
	YearOfStudy             *string                 `db:"year_of_study" json:"year_of_study"`
	AvatarURL               *string                 `db:"avatar_url" json:"avatar_url"`
	NotificationPreferences NotificationPreferences `db:"notification_preferences" json:"notification_preferences"`
	LastLogin               *time.Time              `db:"last_login" json:"last_login,omitempty"`
	CreatedAt               time.Time               `db:"created_at" json:"created_at"`
	UpdatedAt               time.Time               `db:"updated_at" json:"updated_at"`
}

// UpdateProfileRequest carries editable profile fields. Nil fields are left unchanged.
type UpdateProfileRequest struct {
	FullName    *string `json:"full_name" validate:"omitempty,min=1,max=120"`
	CollegeName *string `json:"college_name" validate:"omitempty,max=160"`
	Department  *string `json:"department" validate:"omitempty,max=120"`
	Phone       *string `json:"phone" validate:"omitempty,max=32"`
	DOB         *string `json:"dob" validate:"omitempty,datetime=2006-01-02"`
	Place       *string `json:"place" validate:"omitempty,max=120"`
	YearOfStudy *string `json:"year_of_study" validate:"omitempty,max=32"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
