package attendance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWeekday(t *testing.T) {
	cases := map[string]time.Weekday{
		"Sunday":     time.Sunday,
		"monday":     time.Monday,
		"  TUESDAY ": time.Tuesday,
		"Saturday":   time.Saturday,
	}
	for in, want := range cases {
		got, err := ParseWeekday(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseWeekday("Funday")
	assert.ErrorIs(t, err, ErrUnknownWeekday)
	_, err = ParseWeekday("Mon")
	assert.ErrorIs(t, err, ErrUnknownWeekday)
}

func TestParseClock(t *testing.T) {
	minutes, err := ParseClock("09:30")
	require.NoError(t, err)
	assert.Equal(t, 570, minutes)

	minutes, err = ParseClock("23:59")
	require.NoError(t, err)
	assert.Equal(t, 1439, minutes)

	for _, bad := range []string{"9:30", "24:00", "12:60", "noon", "12-30", ""} {
		_, err := ParseClock(bad)
		assert.ErrorIs(t, err, ErrInvalidClock, bad)
	}
}
