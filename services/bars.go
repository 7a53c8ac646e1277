package services

import (
	"sort"
	"time"

	"fundamental-analyst/models"
)

// sortBars orders bars oldest first.
func sortBars(bars []models.Bar) {
	sort.SliceStable(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
}

// trimBars drops sorted bars older than days before now. days <= 0 keeps all.
func trimBars(bars []models.Bar, days int, now time.Time) []models.Bar {
	if days <= 0 {
		return bars
	}
	cutoff := now.AddDate(0, 0, -days)
	i := sort.Search(len(bars), func(i int) bool {
		return !bars[i].Timestamp.Before(cutoff)
	})
	return bars[i:]
}
