package attendance

import (
	"fmt"
	"sort"
	"time"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

type parsedSlot struct {
	weekday time.Weekday
	slot    models.WeeklySlot
}

// Expand emits one Occurrence per subject slot whose weekday falls on a
// semester date, merging the record stored for (subject, date) if any.
// A reversed date range yields an empty schedule. Unknown weekday names fail
// the whole expansion.
//
// Output is ordered by date, start time, then subject code.
func Expand(semester models.Semester, subjects []models.Subject, records []models.AttendanceRecord) ([]models.Occurrence, error) {
	slotsBySubject := make([][]parsedSlot, len(subjects))
	for i, subject := range subjects {
		parsed := make([]parsedSlot, 0, len(subject.WeeklySlots))
		for _, slot := range subject.WeeklySlots {
			day, err := ParseWeekday(slot.DayOfWeek)
			if err != nil {
				return nil, fmt.Errorf("subject %s: %w", subject.Code, err)
			}
			parsed = append(parsed, parsedSlot{weekday: day, slot: slot})
		}
		slotsBySubject[i] = parsed
	}

	if semester.StartDate.After(semester.EndDate) {
		return []models.Occurrence{}, nil
	}

	byKey := make(map[string]models.AttendanceRecord, len(records))
	for _, record := range records {
		byKey[recordKey(record.SubjectID, record.Date)] = record
	}

	occurrences := make([]models.Occurrence, 0)
	for day := semester.StartDate; !day.After(semester.EndDate); day = day.AddDays(1) {
		weekday := day.Weekday()
		for i, subject := range subjects {
			for _, ps := range slotsBySubject[i] {
				if ps.weekday != weekday {
					continue
				}
				occurrences = append(occurrences, newOccurrence(subject, ps.slot, day, byKey))
			}
		}
	}

	sort.SliceStable(occurrences, func(i, j int) bool {
		a, b := occurrences[i], occurrences[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.SubjectCode < b.SubjectCode
	})
	return occurrences, nil
}

func newOccurrence(subject models.Subject, slot models.WeeklySlot, day models.Date, records map[string]models.AttendanceRecord) models.Occurrence {
	occ := models.Occurrence{
		ID:             fmt.Sprintf("%s-%s", day, subject.ID),
		Date:           day,
		SubjectID:      subject.ID,
		SubjectCode:    subject.Code,
		SubjectName:    subject.Name,
		StartTime:      slot.StartTime,
		DurationHours:  slot.DurationHours,
		OfficialStatus: models.OfficialNotTaken,
	}
	if record, ok := records[recordKey(subject.ID, day)]; ok {
		if record.ID != "" {
			occ.ID = record.ID
		}
		if record.OfficialStatus != "" {
			occ.OfficialStatus = record.OfficialStatus
		}
		occ.PersonalStatus = record.PersonalStatus
		occ.Reason = record.Reason
	}
	return occ
}

func recordKey(subjectID string, day models.Date) string {
	return subjectID + "|" + day.String()
}
