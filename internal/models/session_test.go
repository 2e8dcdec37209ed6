package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySessionBoundaries(t *testing.T) {
	cases := []struct {
		startTime string
		want      Session
	}{
		{"04:59", SessionUnclassified},
		{"05:00", SessionMorning},
		{"11:59", SessionMorning},
		{"12:00", SessionAfternoon},
		{"16:59", SessionAfternoon},
		{"17:00", SessionEvening},
		{"23:59", SessionEvening},
		{"00:00", SessionUnclassified},
	}

	for _, tc := range cases {
		t.Run(tc.startTime, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifySession(tc.startTime))
		})
	}
}

func TestClassifySessionNormalizesSeconds(t *testing.T) {
	assert.Equal(t, SessionMorning, ClassifySession("09:30:00"))
	assert.Equal(t, SessionEvening, ClassifySession("22:00:00"))
}

func TestClassifySessionInvalidClock(t *testing.T) {
	assert.Equal(t, SessionUnclassified, ClassifySession("not-a-time"))
	assert.Equal(t, SessionUnclassified, ClassifySession(""))
}

func TestParseSession(t *testing.T) {
	for _, raw := range []string{"morning", "afternoon", "evening", "unclassified"} {
		parsed, ok := ParseSession(raw)
		assert.True(t, ok)
		assert.Equal(t, Session(raw), parsed)
	}

	_, ok := ParseSession("midnight")
	assert.False(t, ok)
}
