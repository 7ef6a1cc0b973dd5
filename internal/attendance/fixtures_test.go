package attendance

import (
	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

func semester(start, end string) models.Semester {
	return models.Semester{ID: "sem-1", StartDate: models.MustDate(start), EndDate: models.MustDate(end)}
}

func subject(id, code string, slots ...models.WeeklySlot) models.Subject {
	return models.Subject{ID: id, Code: code, Name: code + " name", AttendanceGoal: 75, WeeklySlots: slots}
}

func slot(day, start string, hours float64) models.WeeklySlot {
	return models.WeeklySlot{DayOfWeek: day, StartTime: start, DurationHours: hours}
}

func personal(s models.PersonalStatus) *models.PersonalStatus {
	return &s
}

func occ(date string, official models.OfficialStatus, p *models.PersonalStatus, hours float64) models.Occurrence {
	return models.Occurrence{
		ID:             date + "-sub-1",
		Date:           models.MustDate(date),
		SubjectID:      "sub-1",
		SubjectCode:    "CS101",
		DurationHours:  hours,
		OfficialStatus: official,
		PersonalStatus: p,
	}
}

// series returns n one-hour occurrences on consecutive days starting at start.
func series(start string, n int, official models.OfficialStatus) []models.Occurrence {
	out := make([]models.Occurrence, 0, n)
	day := models.MustDate(start)
	for i := 0; i < n; i++ {
		out = append(out, occ(day.AddDays(i).String(), official, nil, 1))
	}
	return out
}
