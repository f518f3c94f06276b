package services

import (
	"sort"
	"time"

	"studystreak-backend/internal/models"
)

// ChallengeScore scores completion timestamps against a challenge window.
// Start and end are calendar dates, both inclusive; completions are reduced
// to days in loc.
func ChallengeScore(rule string, dates []time.Time, start, end time.Time, loc *time.Location) int {
	first, last := dayIndex(start), dayIndex(end)
	inWindow := make([]int, 0, len(dates))
	for _, d := range dates {
		idx := dayIndex(d.In(loc))
		if idx >= first && idx <= last {
			inWindow = append(inWindow, idx)
		}
	}

	switch rule {
	case models.ScoreTotalSessions:
		return len(inWindow)
	default:
		return longestRun(inWindow)
	}
}

func longestRun(days []int) int {
	if len(days) == 0 {
		return 0
	}
	sort.Ints(days)
	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		switch days[i] - days[i-1] {
		case 0:
		case 1:
			run++
		default:
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// RankChallenge scores every member and orders them by score, then account
// age, then user id.
func RankChallenge(c models.Challenge, members []MemberActivity) []models.ChallengeStanding {
	standings := make([]models.ChallengeStanding, 0, len(members))
	for _, m := range members {
		score := ChallengeScore(c.ScoringRule, CompletionDates(m.Sessions), c.StartDate, c.EndDate, m.Location)
		standings = append(standings, models.ChallengeStanding{
			UserID:        m.Member.UserID,
			Username:      m.Member.Username,
			Score:         score,
			Completed:     score >= c.Target,
			UserCreatedAt: m.Member.UserCreatedAt,
		})
	}
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.UserCreatedAt.Equal(b.UserCreatedAt) {
			return a.UserCreatedAt.Before(b.UserCreatedAt)
		}
		return a.UserID.String() < b.UserID.String()
	})
	for i := range standings {
		standings[i].Rank = i + 1
	}
	return standings
}
