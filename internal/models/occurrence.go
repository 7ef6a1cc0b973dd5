package models

// Occurrence is one scheduled class meeting derived from a weekly slot, merged with its record.
type Occurrence struct {
	ID             string          `json:"id"`
	Date           Date            `json:"date"`
	SubjectID      string          `json:"subject_id"`
	SubjectCode    string          `json:"subject_code"`
	SubjectName    string          `json:"subject_name"`
	StartTime      string          `json:"start_time"`
	DurationHours  float64         `json:"duration_hours"`
	OfficialStatus OfficialStatus  `json:"official_status"`
	PersonalStatus *PersonalStatus `json:"personal_status"`
	Reason         *string         `json:"reason"`
}

// HoursRatio is attended over total hours with the derived percentage.
type HoursRatio struct {
	AttendedHours float64 `json:"attended_hours"`
	TotalHours    float64 `json:"total_hours"`
	Percentage    float64 `json:"pct"`
}

// AttendanceSummary holds personal and official ratios for a set of occurrences.
type AttendanceSummary struct {
	Personal HoursRatio `json:"personal"`
	Official HoursRatio `json:"official"`
}

// ProjectionStatus tells whether the official percentage meets the goal.
type ProjectionStatus string

const (
	ProjectionAhead  ProjectionStatus = "ahead"
	ProjectionBehind ProjectionStatus = "behind"
)

// Projection is the bunk budget or catch-up requirement against a goal.
type Projection struct {
	Status             ProjectionStatus `json:"status"`
	GoalPercentage     float64          `json:"goal_pct"`
	OfficialPercentage float64          `json:"official_pct"`
	ConductedHours     float64          `json:"conducted_hours"`
	RemainingHours     float64          `json:"remaining_hours"`
	RequiredTotalHours float64          `json:"required_total_hours"`
	BunkableHours      float64          `json:"bunkable_hours"`
	RequiredHours      float64          `json:"required_hours"`
	Reachable          bool             `json:"reachable"`
}

// SubjectStats combines a subject with its summary and projection.
type SubjectStats struct {
	SubjectID      string            `json:"subject_id"`
	Code           string            `json:"code"`
	Name           string            `json:"name"`
	ProfessorName  *string           `json:"professor_name,omitempty"`
	AttendanceGoal int               `json:"attendance_goal"`
	Summary        AttendanceSummary `json:"summary"`
	Projection     Projection        `json:"projection"`
}

// TrendPoint is the cumulative percentage after the classes held on Date.
type TrendPoint struct {
	Date               Date    `json:"date"`
	PersonalPercentage float64 `json:"personal_pct"`
	OfficialPercentage float64 `json:"official_pct"`
}

// DayKind classifies a calendar day by its classes.
type DayKind string

const (
	DayHoliday DayKind = "holiday"
	DayAbsent  DayKind = "absent"
	DayMixed   DayKind = "mixed"
	DayPerfect DayKind = "perfect"
	DayNeutral DayKind = "neutral"
)

// DayStatus summarises the personal marks of every class on one date.
type DayStatus struct {
	Date      Date    `json:"date"`
	Kind      DayKind `json:"status"`
	Present   int     `json:"present"`
	Absent    int     `json:"absent"`
	NoClass   int     `json:"no_class"`
	NotMarked int     `json:"not_marked"`
}

// SubjectInsights is the detail view of one subject: stats, cumulative trend and past log.
type SubjectInsights struct {
	Subject Subject      `json:"subject"`
	Stats   SubjectStats `json:"stats"`
	Trend   []TrendPoint `json:"trend"`
	Log     []Occurrence `json:"log"`
}
