package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dosetrack/dosetrack-api/internal/models"
)

func TestDueDoseTimes(t *testing.T) {
	med := models.Medication{
		Schedule: []models.ScheduleEntry{
			{Time: "08:00", Days: []string{"Monday", "Wednesday"}},
			{Time: "20:00", Days: []string{"Monday"}},
		},
	}

	monday := func(hour, min int) time.Time {
		// 2026-01-05 is a Monday.
		return time.Date(2026, 1, 5, hour, min, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		now  time.Time
		want []string
	}{
		{"four minutes before dose", monday(7, 56), []string{"08:00"}},
		{"exactly at dose time", monday(8, 0), []string{"08:00"}},
		{"outside the lead window", monday(7, 54), nil},
		{"just after dose time", monday(8, 1), nil},
		{"evening dose due", monday(19, 57), []string{"20:00"}},
		{"wrong weekday", time.Date(2026, 1, 6, 7, 56, 0, 0, time.UTC), nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DueDoseTimes(med, tc.now, 5*time.Minute))
		})
	}
}

func TestDueDoseTimesIgnoresMalformedTime(t *testing.T) {
	med := models.Medication{
		Schedule: []models.ScheduleEntry{
			{Time: "not-a-time", Days: []string{"Monday"}},
		},
	}
	now := time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)

	assert.Empty(t, DueDoseTimes(med, now, 5*time.Minute))
}
