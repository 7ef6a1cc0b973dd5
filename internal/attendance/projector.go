package attendance

import (
	"math"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

// epsilon absorbs float drift from summing fractional hours before floor/ceil.
const epsilon = 1e-9

// Project compares official attendance against goalPct and reports either the
// hours that can still be missed (ahead) or the hours that must be attended
// (behind). Callers validate goalPct in (0, 100].
func Project(occurrences []models.Occurrence, goalPct float64, asOf models.Date) models.Projection {
	var conducted, remaining float64
	for _, occ := range occurrences {
		if !occ.OfficialStatus.Held() {
			continue
		}
		conducted += occ.DurationHours
		if occ.Date.After(asOf) {
			remaining += occ.DurationHours
		}
	}
	official := Aggregate(occurrences, asOf).Official
	return projectTotals(official, conducted, remaining, goalPct)
}

func projectTotals(official models.HoursRatio, conducted, remaining, goalPct float64) models.Projection {
	p := models.Projection{
		GoalPercentage:     goalPct,
		OfficialPercentage: official.Percentage,
		ConductedHours:     conducted,
		RemainingHours:     remaining,
		Reachable:          true,
	}
	if conducted <= 0 {
		p.Status = models.ProjectionAhead
		p.OfficialPercentage = 100
		return p
	}

	p.RequiredTotalHours = goalPct / 100 * conducted
	if official.Percentage >= goalPct {
		p.Status = models.ProjectionAhead
		p.BunkableHours = math.Max(0, math.Floor(official.AttendedHours+remaining-p.RequiredTotalHours+epsilon))
		return p
	}

	p.Status = models.ProjectionBehind
	p.RequiredHours = math.Max(0, math.Ceil(p.RequiredTotalHours-official.AttendedHours-epsilon))
	p.Reachable = p.RequiredHours <= remaining
	return p
}
