package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dosetrack/dosetrack-api/internal/models"
)

const (
	// A time-of-day or weekday bucket needs this many observations before it
	// can be flagged.
	minBucketObservations = 3
	// Missed fraction at or above which a bucket is flagged.
	problematicThreshold = 0.4
	// The miss streak scan stops after this many entries.
	maxStreakScan = 10
)

type AdherencePatterns struct {
	LikelyMissedPeriods []string `json:"likelyMissedPeriods"`
	LikelyMissedDays    []string `json:"likelyMissedDays"`
	Streak              int      `json:"streak"`
}

type Prediction struct {
	Patterns        *AdherencePatterns `json:"patterns"`
	Recommendations []string           `json:"recommendations"`
}

type bucket struct {
	total  int
	missed int
}

func (b bucket) problematic() bool {
	return b.total >= minBucketObservations &&
		float64(b.missed)/float64(b.total) >= problematicThreshold
}

// eventTime picks the timestamp a log is bucketed by: the scheduled time when
// present, otherwise when the log was created, otherwise when it was taken.
func eventTime(entry models.AdherenceLog) time.Time {
	if !entry.ScheduledTime.IsZero() {
		return entry.ScheduledTime
	}
	if !entry.CreatedAt.IsZero() {
		return entry.CreatedAt
	}
	if entry.TakenAt != nil {
		return *entry.TakenAt
	}
	return time.Time{}
}

func periodOfDay(t time.Time) string {
	switch hour := t.Hour(); {
	case hour < 12:
		return "morning"
	case hour < 18:
		return "afternoon"
	default:
		return "evening"
	}
}

// PredictAdherence inspects a window of adherence logs for one patient and
// emits the dose-time and weekday buckets they tend to miss, their current
// miss streak, and plain-language recommendations. Any status other than
// "taken" counts as a miss.
func PredictAdherence(logs []models.AdherenceLog) Prediction {
	if len(logs) == 0 {
		return Prediction{
			Patterns: nil,
			Recommendations: []string{
				"Not enough adherence data yet. Keep logging your doses to see personalized insights.",
			},
		}
	}

	periods := map[string]*bucket{}
	days := map[string]*bucket{}
	for _, entry := range logs {
		t := eventTime(entry)
		missed := entry.Status != models.StatusTaken

		period := periodOfDay(t)
		if periods[period] == nil {
			periods[period] = &bucket{}
		}
		periods[period].total++

		day := t.Weekday().String()
		if days[day] == nil {
			days[day] = &bucket{}
		}
		days[day].total++

		if missed {
			periods[period].missed++
			days[day].missed++
		}
	}

	patterns := &AdherencePatterns{
		LikelyMissedPeriods: []string{},
		LikelyMissedDays:    []string{},
	}
	for _, period := range []string{"morning", "afternoon", "evening"} {
		if b := periods[period]; b != nil && b.problematic() {
			patterns.LikelyMissedPeriods = append(patterns.LikelyMissedPeriods, period)
		}
	}
	for day := time.Sunday; day <= time.Saturday; day++ {
		name := day.String()
		if b := days[name]; b != nil && b.problematic() {
			patterns.LikelyMissedDays = append(patterns.LikelyMissedDays, name)
		}
	}
	patterns.Streak = currentMissStreak(logs)

	return Prediction{
		Patterns:        patterns,
		Recommendations: buildRecommendations(patterns),
	}
}

// currentMissStreak counts consecutive non-taken logs from the most recent
// backwards, stopping at the first taken dose or after maxStreakScan entries.
func currentMissStreak(logs []models.AdherenceLog) int {
	sorted := make([]models.AdherenceLog, len(logs))
	copy(sorted, logs)
	sort.Slice(sorted, func(i, j int) bool {
		return eventTime(sorted[i]).After(eventTime(sorted[j]))
	})

	streak := 0
	for i, entry := range sorted {
		if i == maxStreakScan {
			break
		}
		if entry.Status == models.StatusTaken {
			break
		}
		streak++
	}
	return streak
}

func buildRecommendations(patterns *AdherencePatterns) []string {
	var recs []string

	for _, period := range patterns.LikelyMissedPeriods {
		switch period {
		case "evening":
			recs = append(recs, "You often miss evening doses. Try pairing them with a nightly routine like brushing your teeth, or set an alarm.")
		case "morning":
			recs = append(recs, "You often miss morning doses. Keeping your medication next to your breakfast or coffee can help.")
		case "afternoon":
			recs = append(recs, "You often miss afternoon doses. A phone reminder in the middle of the day can help you stay on track.")
		}
	}

	if len(patterns.LikelyMissedDays) > 0 {
		recs = append(recs, fmt.Sprintf(
			"Doses are frequently missed on %s. Consider setting extra reminders on those days.",
			strings.Join(patterns.LikelyMissedDays, ", ")))
	}

	if patterns.Streak >= 3 {
		recs = append(recs, fmt.Sprintf(
			"You have missed %d doses in a row. Getting back on schedule today makes a real difference.",
			patterns.Streak))
	}

	if len(recs) == 0 {
		recs = append(recs, "Your adherence looks steady. Keep up the good work!")
	}
	return recs
}
