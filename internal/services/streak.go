package services

import (
	"math"
	"sort"
	"time"

	"github.com/google/uuid"

	"studystreak-backend/internal/models"
)

// DefaultHabitTargetDays is used when no positive target is configured.
const DefaultHabitTargetDays = 70

// dayIndex numbers calendar days so that consecutive days differ by one.
func dayIndex(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// completionDays reduces timestamps to distinct, sorted day indexes in loc,
// dropping days after today.
func completionDays(dates []time.Time, today time.Time) []int {
	loc := today.Location()
	limit := dayIndex(today)
	seen := make(map[int]bool, len(dates))
	days := make([]int, 0, len(dates))
	for _, d := range dates {
		idx := dayIndex(d.In(loc))
		if idx > limit || seen[idx] {
			continue
		}
		seen[idx] = true
		days = append(days, idx)
	}
	sort.Ints(days)
	return days
}

// CalculateStreak computes the current and longest run of consecutive days
// containing a completion. The current run only counts when it ends today
// or yesterday.
func CalculateStreak(dates []time.Time, today time.Time, target int) models.StreakStats {
	if target <= 0 {
		target = DefaultHabitTargetDays
	}
	days := completionDays(dates, today)
	if len(days) == 0 {
		return models.StreakStats{}
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i]-days[i-1] == 1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}

	current := 0
	if days[len(days)-1] >= dayIndex(today)-1 {
		current = run
	}

	return models.StreakStats{
		CurrentStreak: current,
		LongestStreak: longest,
		PercentToGoal: percentToGoal(current, target),
	}
}

func percentToGoal(current, target int) float64 {
	pct := 100 * float64(current) / float64(target)
	if pct > 100 {
		pct = 100
	}
	return math.Round(pct*100) / 100
}

// CompletionDates returns the completion timestamps of completed sessions.
func CompletionDates(sessions []models.StudySession) []time.Time {
	dates := make([]time.Time, 0, len(sessions))
	for _, s := range sessions {
		if s.Status == models.SessionCompleted && s.CompletedAt != nil {
			dates = append(dates, *s.CompletedAt)
		}
	}
	return dates
}

// HabitProgress turns streak stats into progress toward the habit target.
func HabitProgress(stats models.StreakStats, target int) models.HabitProgressReport {
	if target <= 0 {
		target = DefaultHabitTargetDays
	}
	completed := stats.CurrentStreak
	if completed > target {
		completed = target
	}
	report := models.HabitProgressReport{
		TargetDays:         target,
		DaysCompleted:      completed,
		DaysRemaining:      target - completed,
		ProgressPercentage: percentToGoal(completed, target),
		CurrentStreak:      stats.CurrentStreak,
		LongestStreak:      stats.LongestStreak,
		IsOnTrack:          stats.CurrentStreak >= 5,
		MilestoneReached:   completed >= target,
	}
	report.Rewards = MilestoneRewards(report)
	return report
}

// MilestoneRewards lists the rewards unlocked by a progress report.
func MilestoneRewards(p models.HabitProgressReport) []string {
	rewards := []string{}
	if p.CurrentStreak >= 7 {
		rewards = append(rewards, "🔥 7-day streak! You're building momentum!")
	}
	if p.CurrentStreak >= 21 {
		rewards = append(rewards, "🌟 21-day streak! This is becoming a habit!")
	}
	if p.CurrentStreak >= 30 {
		rewards = append(rewards, "💪 30-day streak! You're unstoppable!")
	}
	if p.DaysCompleted >= 50 {
		rewards = append(rewards, "🎯 50 days! You're almost at the finish line!")
	}
	if p.MilestoneReached {
		rewards = append(rewards, "🏆 Congratulations! You've formed a lasting habit!")
	}
	return rewards
}

// NewMilestones returns the rewards present in after but not in before.
func NewMilestones(before, after []string) []string {
	had := make(map[string]bool, len(before))
	for _, r := range before {
		had[r] = true
	}
	fresh := []string{}
	for _, r := range after {
		if !had[r] {
			fresh = append(fresh, r)
		}
	}
	return fresh
}

// GroupStreak computes a streak over the union of the members' completion days.
func GroupStreak(memberDates map[uuid.UUID][]time.Time, today time.Time, target int) models.StreakStats {
	var all []time.Time
	for _, dates := range memberDates {
		all = append(all, dates...)
	}
	return CalculateStreak(all, today, target)
}
