package models

import "time"

// OfficialStatus is the institution-recorded mark for a class.
type OfficialStatus string

const (
	OfficialNotTaken OfficialStatus = "not_taken"
	OfficialPresent  OfficialStatus = "present"
	OfficialAbsent   OfficialStatus = "absent"
	OfficialNoClass  OfficialStatus = "no_class"
)

// Valid returns true when the status is a supported value.
func (s OfficialStatus) Valid() bool {
	switch s {
	case OfficialNotTaken, OfficialPresent, OfficialAbsent, OfficialNoClass:
		return true
	default:
		return false
	}
}

// Held reports whether a class actually took place.
func (s OfficialStatus) Held() bool {
	return s != OfficialNoClass
}

// PersonalStatus is the user's own mark. A nil *PersonalStatus means not marked.
type PersonalStatus string

const (
	PersonalPresent PersonalStatus = "present"
	PersonalAbsent  PersonalStatus = "absent"
)

// Valid returns true when the status is a supported value.
func (s PersonalStatus) Valid() bool {
	return s == PersonalPresent || s == PersonalAbsent
}

// AttendanceRecord stores the marks for one subject on one date.
type AttendanceRecord struct {
	ID             string          `db:"id" json:"id"`
	SubjectID      string          `db:"subject_id" json:"subject_id"`
	Date           Date            `db:"date" json:"date"`
	DurationHours  float64         `db:"duration_hours" json:"duration_hours"`
	OfficialStatus OfficialStatus  `db:"official_status" json:"official_status"`
	PersonalStatus *PersonalStatus `db:"personal_status" json:"personal_status"`
	Reason         *string         `db:"reason" json:"reason"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// UpsertAttendanceRequest creates or replaces the record for (subject_id, date).
type UpsertAttendanceRequest struct {
	SubjectID      string   `json:"subject_id" validate:"required"`
	Date           string   `json:"date" validate:"required,datetime=2006-01-02"`
	OfficialStatus string   `json:"official_status" validate:"required,official_status"`
	PersonalStatus *string  `json:"personal_status" validate:"omitempty,personal_status"`
	Reason         *string  `json:"reason" validate:"omitempty,max=240"`
	DurationHours  *float64 `json:"duration_hours" validate:"omitempty,gt=0,lte=24"`
}

// BulkNoClassRequest marks every class of a semester on Date as not held.
type BulkNoClassRequest struct {
	SemesterID string `json:"semester_id" validate:"required"`
	Date       string `json:"date" validate:"required,datetime=2006-01-02"`
	Reason     string `json:"reason" validate:"required,max=240"`
}
