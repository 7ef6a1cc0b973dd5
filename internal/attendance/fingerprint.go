package attendance

import (
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

// Fingerprint hashes everything Expand depends on so a cached schedule can be
// reused until the semester, a subject or a record changes.
func Fingerprint(semester models.Semester, subjects []models.Subject, records []models.AttendanceRecord) string {
	d := xxhash.New()
	write := func(parts ...string) {
		for _, p := range parts {
			_, _ = d.WriteString(p)
			_, _ = d.WriteString("\x1f")
		}
	}

	write(semester.ID, semester.StartDate.String(), semester.EndDate.String())
	for _, s := range subjects {
		write("s", s.ID, s.Code, s.Name, strconv.FormatInt(s.UpdatedAt.UnixNano(), 10))
		for _, slot := range s.WeeklySlots {
			write(slot.DayOfWeek, slot.StartTime, strconv.FormatFloat(slot.DurationHours, 'f', -1, 64))
		}
	}
	for _, r := range records {
		write("r", r.ID, r.SubjectID, r.Date.String(), strconv.FormatInt(r.UpdatedAt.UnixNano(), 10))
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
