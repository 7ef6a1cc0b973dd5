package models

import "time"

// Semester is a dated term owned by a single user. At most one semester per user is unarchived.
type Semester struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Name       string    `db:"name" json:"name"`
	Year       string    `db:"year" json:"year"`
	StartDate  Date      `db:"start_date" json:"start_date"`
	EndDate    Date      `db:"end_date" json:"end_date"`
	IsArchived bool      `db:"is_archived" json:"is_archived"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// Contains reports whether day lies within the semester bounds, inclusive.
func (s Semester) Contains(day Date) bool {
	return !day.Before(s.StartDate) && !day.After(s.EndDate)
}

// UpsertSemesterRequest creates a semester, or updates it when ID is set.
type UpsertSemesterRequest struct {
	ID        *string `json:"id" validate:"omitempty,max=64"`
	Name      string  `json:"name" validate:"required,max=120"`
	Year      string  `json:"year" validate:"max=60"`
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date" validate:"required,datetime=2006-01-02"`
}

// SemesterOverview is the read-only view of a semester with derived statistics.
type SemesterOverview struct {
	Semester    Semester          `json:"semester"`
	Subjects    []SubjectStats    `json:"subjects"`
	Summary     AttendanceSummary `json:"summary"`
	Tests       []Test            `json:"tests"`
	Assignments []Assignment      `json:"assignments"`
	GeneratedAt time.Time         `json:"generated_at"`
}

// SemesterOwner is an active semester joined with the account that owns it.
type SemesterOwner struct {
	Semester
	Email       string                  `db:"email"`
	FullName    string                  `db:"full_name"`
	Preferences NotificationPreferences `db:"notification_preferences"`
}
