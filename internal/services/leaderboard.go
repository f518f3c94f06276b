package services

import (
	"sort"
	"time"

	"github.com/google/uuid"

	"studystreak-backend/internal/models"
)

// RankLeaderboard orders entries by current streak, then completed sessions,
// then account age, then user id, and assigns 1-based ranks. The input slice
// is left untouched.
func RankLeaderboard(entries []models.LeaderboardEntry) []models.LeaderboardEntry {
	ranked := make([]models.LeaderboardEntry, len(entries))
	copy(ranked, entries)
	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.CurrentStreak != b.CurrentStreak {
			return a.CurrentStreak > b.CurrentStreak
		}
		if a.TotalCompletedSessions != b.TotalCompletedSessions {
			return a.TotalCompletedSessions > b.TotalCompletedSessions
		}
		if !a.UserCreatedAt.Equal(b.UserCreatedAt) {
			return a.UserCreatedAt.Before(b.UserCreatedAt)
		}
		return a.UserID.String() < b.UserID.String()
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// MemberActivity is one member's completion history.
type MemberActivity struct {
	Member   models.GroupMember
	Sessions []models.StudySession
	Location *time.Location
}

// BuildLeaderboard computes every member's streak and ranks them.
func BuildLeaderboard(members []MemberActivity, now time.Time, target int) []models.LeaderboardEntry {
	entries := make([]models.LeaderboardEntry, 0, len(members))
	for _, m := range members {
		dates := CompletionDates(m.Sessions)
		stats := CalculateStreak(dates, now.In(m.Location), target)
		entries = append(entries, models.LeaderboardEntry{
			UserID:                 m.Member.UserID,
			Username:               m.Member.Username,
			CurrentStreak:          stats.CurrentStreak,
			LongestStreak:          stats.LongestStreak,
			TotalCompletedSessions: len(dates),
			UserCreatedAt:          m.Member.UserCreatedAt,
		})
	}
	return RankLeaderboard(entries)
}

// BuildGroupStreaks ranks members and adds the group's union streak,
// evaluated in loc.
func BuildGroupStreaks(groupID uuid.UUID, members []MemberActivity, now time.Time, loc *time.Location, target int) models.GroupStreaks {
	union := make(map[uuid.UUID][]time.Time, len(members))
	for _, m := range members {
		union[m.Member.UserID] = CompletionDates(m.Sessions)
	}
	return models.GroupStreaks{
		GroupID: groupID,
		Group:   GroupStreak(union, now.In(loc), target),
		Members: BuildLeaderboard(members, now, target),
	}
}
