package attendance

import (
	"sort"
	"time"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

// ForSubject returns the occurrences belonging to subjectID, preserving order.
func ForSubject(occurrences []models.Occurrence, subjectID string) []models.Occurrence {
	out := make([]models.Occurrence, 0)
	for _, occ := range occurrences {
		if occ.SubjectID == subjectID {
			out = append(out, occ)
		}
	}
	return out
}

// SubjectStats summarises one subject and projects it against its own goal.
func SubjectStats(subject models.Subject, occurrences []models.Occurrence, asOf models.Date) models.SubjectStats {
	own := ForSubject(occurrences, subject.ID)
	goal := subject.AttendanceGoal
	if goal <= 0 {
		goal = models.DefaultAttendanceGoal
	}
	return models.SubjectStats{
		SubjectID:      subject.ID,
		Code:           subject.Code,
		Name:           subject.Name,
		ProfessorName:  subject.ProfessorName,
		AttendanceGoal: goal,
		Summary:        Aggregate(own, asOf),
		Projection:     Project(own, float64(goal), asOf),
	}
}

// Trend returns cumulative personal and official percentages for one subject,
// one point per past class date in ascending order. Cancelled dates get a
// point too, carrying the totals reached so far.
func Trend(subjectID string, occurrences []models.Occurrence, asOf models.Date) []models.TrendPoint {
	past := pastFor(subjectID, occurrences, asOf, true)
	sort.SliceStable(past, func(i, j int) bool { return past[i].Date.Before(past[j].Date) })

	points := make([]models.TrendPoint, 0)
	for i, occ := range past {
		if i+1 < len(past) && past[i+1].Date.Equal(occ.Date) {
			continue
		}
		summary := Aggregate(past[:i+1], occ.Date)
		points = append(points, models.TrendPoint{
			Date:               occ.Date,
			PersonalPercentage: summary.Personal.Percentage,
			OfficialPercentage: summary.Official.Percentage,
		})
	}
	return points
}

// Log returns one subject's past occurrences, newest first.
func Log(subjectID string, occurrences []models.Occurrence, asOf models.Date) []models.Occurrence {
	past := pastFor(subjectID, occurrences, asOf, false)
	sort.SliceStable(past, func(i, j int) bool {
		if !past[i].Date.Equal(past[j].Date) {
			return past[i].Date.After(past[j].Date)
		}
		return past[i].StartTime > past[j].StartTime
	})
	return past
}

// DayStatus classifies the classes held on one date by their personal marks.
//
//	holiday  a class was cancelled and nothing is marked
//	absent   at least one absence and no presence
//	mixed    both presences and absences
//	perfect  at least one presence and no absence
//	neutral  nothing marked and nothing cancelled
func DayStatus(day models.Date, occurrences []models.Occurrence) models.DayStatus {
	status := models.DayStatus{Date: day, Kind: models.DayNeutral}
	for _, occ := range occurrences {
		if !occ.Date.Equal(day) {
			continue
		}
		switch {
		case !occ.OfficialStatus.Held():
			status.NoClass++
		case occ.PersonalStatus == nil:
			status.NotMarked++
		case *occ.PersonalStatus == models.PersonalPresent:
			status.Present++
		default:
			status.Absent++
		}
	}

	switch {
	case status.Present > 0 && status.Absent > 0:
		status.Kind = models.DayMixed
	case status.Absent > 0:
		status.Kind = models.DayAbsent
	case status.Present > 0:
		status.Kind = models.DayPerfect
	case status.NoClass > 0:
		status.Kind = models.DayHoliday
	}
	return status
}

// Calendar returns a DayStatus for every date in month that has classes.
func Calendar(occurrences []models.Occurrence, year int, month time.Month) []models.DayStatus {
	seen := make(map[string]bool)
	days := make([]models.Date, 0)
	for _, occ := range occurrences {
		if occ.Date.Year() != year || occ.Date.Month() != month {
			continue
		}
		key := occ.Date.String()
		if !seen[key] {
			seen[key] = true
			days = append(days, occ.Date)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })

	out := make([]models.DayStatus, 0, len(days))
	for _, day := range days {
		out = append(out, DayStatus(day, occurrences))
	}
	return out
}

// OnDate returns the occurrences scheduled on day.
func OnDate(occurrences []models.Occurrence, day models.Date) []models.Occurrence {
	out := make([]models.Occurrence, 0)
	for _, occ := range occurrences {
		if occ.Date.Equal(day) {
			out = append(out, occ)
		}
	}
	return out
}

func pastFor(subjectID string, occurrences []models.Occurrence, asOf models.Date, withCancelled bool) []models.Occurrence {
	out := make([]models.Occurrence, 0)
	for _, occ := range occurrences {
		if occ.SubjectID != subjectID || occ.Date.After(asOf) {
			continue
		}
		if withCancelled || occ.OfficialStatus.Held() {
			out = append(out, occ)
		}
	}
	return out
}
