package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseScheduleType(t *testing.T) {
	lvc, err := ParseScheduleType("lvc")
	require.NoError(t, err)
	assert.Equal(t, ScheduleTypeLVC, lvc)

	lvrc, err := ParseScheduleType("lvrc")
	require.NoError(t, err)
	assert.Equal(t, ScheduleTypeLVRC, lvrc)

	_, err = ParseScheduleType("live")
	assert.Error(t, err)
}

func TestNormalizeClock(t *testing.T) {
	got, err := NormalizeClock("09:30:00")
	require.NoError(t, err)
	assert.Equal(t, "09:30", got)

	got, err = NormalizeClock("22:15")
	require.NoError(t, err)
	assert.Equal(t, "22:15", got)

	_, err = NormalizeClock("25:00")
	assert.Error(t, err)
}

func TestScheduleDuration(t *testing.T) {
	schedule := Schedule{
		ScheduledDate: "2026-02-15",
		StartTime:     "10:00",
		EndTime:       "11:30",
	}
	duration, err := schedule.Duration()
	require.NoError(t, err)
	assert.Equal(t, 90*time.Minute, duration)
}

func TestCombineDateTimeRollsOverMonthBoundary(t *testing.T) {
	start, err := CombineDateTime("2026-01-31", "20:00")
	require.NoError(t, err)

	derived := start.Add(36 * time.Hour)
	assert.Equal(t, "2026-02-02", derived.Format(DateLayout))
	assert.Equal(t, "08:00", derived.Format(TimeLayout))
}
