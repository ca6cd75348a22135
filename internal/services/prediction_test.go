package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dosetrack/dosetrack-api/internal/models"
)

func logAt(t time.Time, status string) models.AdherenceLog {
	return models.AdherenceLog{ScheduledTime: t, Status: status}
}

func TestPredictAdherenceNoLogs(t *testing.T) {
	result := PredictAdherence(nil)

	assert.Nil(t, result.Patterns)
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0], "Not enough adherence data")
}

func TestPredictAdherenceAllTaken(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var logs []models.AdherenceLog
	for i := 0; i < 5; i++ {
		logs = append(logs, logAt(base.AddDate(0, 0, i), models.StatusTaken))
	}

	result := PredictAdherence(logs)

	require.NotNil(t, result.Patterns)
	assert.Empty(t, result.Patterns.LikelyMissedPeriods)
	assert.Empty(t, result.Patterns.LikelyMissedDays)
	assert.Equal(t, 0, result.Patterns.Streak)
	require.Len(t, result.Recommendations, 1)
	assert.Contains(t, result.Recommendations[0], "Keep up the good work")
}

func TestPredictAdherenceEveningProblem(t *testing.T) {
	// Five evening doses on five different weekdays, three of them missed:
	// the evening bucket trips the 40% threshold, no weekday bucket has
	// enough observations to be flagged.
	base := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC) // Monday evening
	logs := []models.AdherenceLog{
		logAt(base, models.StatusMissed),
		logAt(base.AddDate(0, 0, 1), models.StatusMissed),
		logAt(base.AddDate(0, 0, 2), models.StatusSkipped),
		logAt(base.AddDate(0, 0, 3), models.StatusTaken),
		logAt(base.AddDate(0, 0, 4), models.StatusTaken),
	}

	result := PredictAdherence(logs)

	require.NotNil(t, result.Patterns)
	assert.Equal(t, []string{"evening"}, result.Patterns.LikelyMissedPeriods)
	assert.Empty(t, result.Patterns.LikelyMissedDays)
	assert.Equal(t, 0, result.Patterns.Streak) // most recent dose was taken

	foundEvening := false
	for _, rec := range result.Recommendations {
		if strings.Contains(rec, "evening") {
			foundEvening = true
		}
	}
	assert.True(t, foundEvening, "expected an evening recommendation")
}

func TestPredictAdherenceProblematicWeekday(t *testing.T) {
	// Three Mondays in a row, all missed, at varied hours so no single
	// time-of-day bucket reaches three observations.
	logs := []models.AdherenceLog{
		logAt(time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC), models.StatusMissed),
		logAt(time.Date(2026, 3, 9, 14, 0, 0, 0, time.UTC), models.StatusMissed),
		logAt(time.Date(2026, 3, 16, 20, 0, 0, 0, time.UTC), models.StatusMissed),
	}

	result := PredictAdherence(logs)

	require.NotNil(t, result.Patterns)
	assert.Equal(t, []string{"Monday"}, result.Patterns.LikelyMissedDays)
}

func TestPredictAdherenceMissStreak(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var logs []models.AdherenceLog
	for i := 0; i < 10; i++ {
		logs = append(logs, logAt(base.AddDate(0, 0, i), models.StatusMissed))
	}

	result := PredictAdherence(logs)

	require.NotNil(t, result.Patterns)
	assert.Equal(t, 10, result.Patterns.Streak)

	foundStreak := false
	for _, rec := range result.Recommendations {
		if strings.Contains(rec, "in a row") {
			foundStreak = true
		}
	}
	assert.True(t, foundStreak, "expected a streak recommendation")
}

func TestPredictAdherenceStreakCappedAtTenScanned(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	var logs []models.AdherenceLog
	for i := 0; i < 14; i++ {
		logs = append(logs, logAt(base.AddDate(0, 0, i), models.StatusMissed))
	}

	result := PredictAdherence(logs)

	require.NotNil(t, result.Patterns)
	assert.Equal(t, 10, result.Patterns.Streak)
}

func TestPredictAdherenceStreakStopsAtTaken(t *testing.T) {
	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	logs := []models.AdherenceLog{
		logAt(base, models.StatusMissed), // oldest
		logAt(base.AddDate(0, 0, 1), models.StatusTaken),
		logAt(base.AddDate(0, 0, 2), models.StatusMissed),
		logAt(base.AddDate(0, 0, 3), models.StatusPending), // newest
	}

	result := PredictAdherence(logs)

	require.NotNil(t, result.Patterns)
	assert.Equal(t, 2, result.Patterns.Streak)
}

func TestEventTimeFallsBackToCreatedAt(t *testing.T) {
	created := time.Date(2026, 3, 2, 20, 0, 0, 0, time.UTC)
	entry := models.AdherenceLog{Status: models.StatusMissed, CreatedAt: created}

	assert.Equal(t, created, eventTime(entry))
	assert.Equal(t, "evening", periodOfDay(eventTime(entry)))
}
