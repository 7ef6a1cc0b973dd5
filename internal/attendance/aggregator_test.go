package attendance

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/attendance-tracker-api/internal/models"
)

func TestAggregateEmptyIsPerfect(t *testing.T) {
	summary := Aggregate(nil, models.MustDate("2024-01-01"))
	assert.Equal(t, 100.0, summary.Personal.Percentage)
	assert.Equal(t, 100.0, summary.Official.Percentage)
	assert.Zero(t, summary.Personal.TotalHours)
	assert.Zero(t, summary.Official.TotalHours)
}

func TestAggregateSplitsPersonalAndOfficial(t *testing.T) {
	occurrences := []models.Occurrence{
		occ("2024-01-01", models.OfficialPresent, personal(models.PersonalPresent), 2),
		occ("2024-01-02", models.OfficialAbsent, personal(models.PersonalPresent), 1),
		occ("2024-01-03", models.OfficialNotTaken, personal(models.PersonalAbsent), 1),
		occ("2024-01-04", models.OfficialNotTaken, nil, 1),
		occ("2024-01-05", models.OfficialNoClass, personal(models.PersonalPresent), 3),
		occ("2024-01-09", models.OfficialPresent, personal(models.PersonalPresent), 5),
	}

	summary := Aggregate(occurrences, models.MustDate("2024-01-05"))

	assert.Equal(t, 5.0, summary.Personal.TotalHours)
	assert.Equal(t, 3.0, summary.Personal.AttendedHours)
	assert.InDelta(t, 60.0, summary.Personal.Percentage, 1e-9)

	assert.Equal(t, 3.0, summary.Official.TotalHours)
	assert.Equal(t, 2.0, summary.Official.AttendedHours)
	assert.InDelta(t, 66.6667, summary.Official.Percentage, 1e-3)
}

func TestAggregateNoClassContributesNothing(t *testing.T) {
	occurrences := []models.Occurrence{
		occ("2024-01-01", models.OfficialNoClass, personal(models.PersonalPresent), 4),
	}
	summary := Aggregate(occurrences, models.MustDate("2024-01-31"))
	assert.Zero(t, summary.Personal.TotalHours)
	assert.Zero(t, summary.Official.TotalHours)
	assert.Equal(t, 100.0, summary.Personal.Percentage)
}

func TestAggregateCountsAsOfDayInclusive(t *testing.T) {
	occurrences := []models.Occurrence{occ("2024-01-10", models.OfficialPresent, nil, 1)}
	assert.Equal(t, 1.0, Aggregate(occurrences, models.MustDate("2024-01-10")).Official.TotalHours)
	assert.Zero(t, Aggregate(occurrences, models.MustDate("2024-01-09")).Official.TotalHours)
}
