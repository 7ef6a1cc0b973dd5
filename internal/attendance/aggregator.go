package attendance

import "github.com/noah-isme/attendance-tracker-api/internal/models"

// Aggregate sums attended and total hours over occurrences dated on or before asOf.
//
// Personal totals count every held class (official status other than
// no_class); attended adds a personal "present" mark. Official totals count
// only classes explicitly marked present or absent. A zero total yields 100%.
func Aggregate(occurrences []models.Occurrence, asOf models.Date) models.AttendanceSummary {
	var summary models.AttendanceSummary
	for _, occ := range occurrences {
		if occ.Date.After(asOf) {
			continue
		}
		if occ.OfficialStatus.Held() {
			summary.Personal.TotalHours += occ.DurationHours
			if occ.PersonalStatus != nil && *occ.PersonalStatus == models.PersonalPresent {
				summary.Personal.AttendedHours += occ.DurationHours
			}
		}
		switch occ.OfficialStatus {
		case models.OfficialPresent:
			summary.Official.TotalHours += occ.DurationHours
			summary.Official.AttendedHours += occ.DurationHours
		case models.OfficialAbsent:
			summary.Official.TotalHours += occ.DurationHours
		}
	}
	summary.Personal.Percentage = percentage(summary.Personal.AttendedHours, summary.Personal.TotalHours)
	summary.Official.Percentage = percentage(summary.Official.AttendedHours, summary.Official.TotalHours)
	return summary
}

func percentage(attended, total float64) float64 {
	if total <= 0 {
		return 100
	}
	return attended / total * 100
}
