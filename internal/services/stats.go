package services

import "math"

// StatusCount is one row of the $group-by-status aggregation.
type StatusCount struct {
	Status string `bson:"_id" json:"status"`
	Count  int64  `bson:"count" json:"count"`
}

type StatusStat struct {
	Status     string  `json:"status"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type AdherenceStats struct {
	Total int64        `json:"total"`
	Stats []StatusStat `json:"stats"`
}

// BuildAdherenceStats turns raw status counts into totals and percentages.
// Percentages are rounded to 2 decimals and zero when there are no logs.
func BuildAdherenceStats(counts []StatusCount) AdherenceStats {
	var total int64
	for _, c := range counts {
		total += c.Count
	}

	stats := make([]StatusStat, 0, len(counts))
	for _, c := range counts {
		var pct float64
		if total > 0 {
			pct = math.Round(float64(c.Count)/float64(total)*100*100) / 100
		}
		stats = append(stats, StatusStat{
			Status:     c.Status,
			Count:      c.Count,
			Percentage: pct,
		})
	}

	return AdherenceStats{Total: total, Stats: stats}
}
