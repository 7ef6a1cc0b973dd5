package models

import "time"

// DashboardPayload bundles everything the home screen renders for the active semester.
type DashboardPayload struct {
	Semester     *Semester          `json:"semester"`
	Subjects     []Subject          `json:"subjects"`
	Records      []AttendanceRecord `json:"attendance_records"`
	Tests        []Test             `json:"tests"`
	Assignments  []Assignment       `json:"assignments"`
	Schedule     []Occurrence       `json:"schedule"`
	Summary      AttendanceSummary  `json:"summary"`
	SubjectStats []SubjectStats     `json:"subject_stats"`
	Upcoming     []UpcomingItem     `json:"upcoming"`
	ShowAlert    bool               `json:"show_alert"`
	GeneratedAt  time.Time          `json:"generated_at"`
}
