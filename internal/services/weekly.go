package services

import (
	"math"
	"time"

	"studystreak-backend/internal/models"
)

const (
	DefaultWeeks = 4
	MaxWeeks     = 52
)

// WeeklyProgress buckets sessions by creation time into rolling seven-day
// windows ending at now, oldest first.
func WeeklyProgress(sessions []models.StudySession, now time.Time, weeks int) []models.WeekProgress {
	if weeks <= 0 {
		weeks = DefaultWeeks
	}
	if weeks > MaxWeeks {
		weeks = MaxWeeks
	}
	week := 7 * 24 * time.Hour

	out := make([]models.WeekProgress, weeks)
	for k := 0; k < weeks; k++ {
		end := now.Add(-time.Duration(k) * week)
		start := end.Add(-week)
		wp := models.WeekProgress{WeekStart: start, WeekEnd: end}
		for _, s := range sessions {
			if s.CreatedAt.Before(start) || !s.CreatedAt.Before(end) {
				continue
			}
			wp.TotalSessions++
			if s.Status == models.SessionCompleted {
				wp.Completed++
				wp.MinutesStudied += s.DurationMinutes
			}
		}
		wp.CompletionRate = rate(wp.Completed, wp.TotalSessions)
		out[weeks-1-k] = wp
	}
	return out
}

// Statistics summarizes a user's sessions. Recent counts sessions created in
// the seven days before now.
func Statistics(sessions []models.StudySession, stats models.StreakStats, now time.Time) models.UserStatistics {
	us := models.UserStatistics{
		TotalSessions: len(sessions),
		CurrentStreak: stats.CurrentStreak,
		LongestStreak: stats.LongestStreak,
	}
	cutoff := now.Add(-7 * 24 * time.Hour)
	for _, s := range sessions {
		if s.Status == models.SessionCompleted {
			us.CompletedSessions++
		}
		if !s.CreatedAt.Before(cutoff) && !s.CreatedAt.After(now) {
			us.RecentSessions++
		}
	}
	us.CompletionRate = rate(us.CompletedSessions, us.TotalSessions)
	return us
}

func rate(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(1000*float64(part)/float64(total)) / 10
}
