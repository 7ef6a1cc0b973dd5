package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTodayUsesUTCCalendarDay(t *testing.T) {
	east := time.FixedZone("UTC+5", 5*60*60)
	west := time.FixedZone("UTC-8", -8*60*60)

	early := func() time.Time { return time.Date(2024, 1, 10, 1, 0, 0, 0, east) }
	assert.Equal(t, "2024-01-09", today(early).String())

	late := func() time.Time { return time.Date(2024, 1, 10, 20, 0, 0, 0, west) }
	assert.Equal(t, "2024-01-11", today(late).String())
}
