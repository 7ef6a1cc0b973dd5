package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// DefaultAttendanceGoal is applied when a subject is created without a goal.
const DefaultAttendanceGoal = 75

// WeeklySlot is one recurring class meeting in the week.
type WeeklySlot struct {
	DayOfWeek     string  `json:"day_of_week" validate:"required,weekday"`
	StartTime     string  `json:"start_time" validate:"required,hhmm"`
	DurationHours float64 `json:"duration_hours" validate:"gt=0,lte=24"`
}

// WeeklySlots is persisted as a JSONB array.
type WeeklySlots []WeeklySlot

// Value marshals the slots to JSON for persistence.
func (w WeeklySlots) Value() (driver.Value, error) {
	if w == nil {
		w = WeeklySlots{}
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("marshal weekly slots: %w", err)
	}
	return data, nil
}

// Scan unmarshals the JSONB column.
func (w *WeeklySlots) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*w = WeeklySlots{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type %T for WeeklySlots", value)
	}
	if len(data) == 0 {
		*w = WeeklySlots{}
		return nil
	}
	if err := json.Unmarshal(data, w); err != nil {
		return fmt.Errorf("unmarshal weekly slots: %w", err)
	}
	return nil
}

// Subject is a course within a semester with its weekly timetable.
type Subject struct {
	ID             string      `db:"id" json:"id"`
	SemesterID     string      `db:"semester_id" json:"semester_id"`
	Code           string      `db:"code" json:"code"`
	Name           string      `db:"name" json:"name"`
	ProfessorName  *string     `db:"professor_name" json:"professor_name,omitempty"`
	AttendanceGoal int         `db:"attendance_goal" json:"attendance_goal"`
	WeeklySlots    WeeklySlots `db:"weekly_slots" json:"weekly_slots"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at" json:"updated_at"`
}

// SubjectRequest is the create/update payload for subjects.
type SubjectRequest struct {
	SemesterID     string       `json:"semester_id" validate:"required"`
	Code           string       `json:"code" validate:"required,max=32"`
	Name           string       `json:"name" validate:"required,max=160"`
	ProfessorName  *string      `json:"professor_name" validate:"omitempty,max=120"`
	AttendanceGoal *int         `json:"attendance_goal" validate:"omitempty,min=1,max=100"`
	WeeklySlots    []WeeklySlot `json:"weekly_slots" validate:"required,min=1,dive"`
}
