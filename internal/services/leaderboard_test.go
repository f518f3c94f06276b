package services

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"

	"studystreak-backend/internal/models"
)

func TestRankLeaderboard_Order(t *testing.T) {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := models.LeaderboardEntry{UserID: uuid.New(), Username: "a", CurrentStreak: 5, TotalCompletedSessions: 3, UserCreatedAt: base}
	b := models.LeaderboardEntry{UserID: uuid.New(), Username: "b", CurrentStreak: 5, TotalCompletedSessions: 9, UserCreatedAt: base.Add(time.Hour)}
	c := models.LeaderboardEntry{UserID: uuid.New(), Username: "c", CurrentStreak: 2, TotalCompletedSessions: 40, UserCreatedAt: base}
	d := models.LeaderboardEntry{UserID: uuid.New(), Username: "d", CurrentStreak: 5, TotalCompletedSessions: 3, UserCreatedAt: base.Add(-time.Hour)}

	input := []models.LeaderboardEntry{a, b, c, d}
	got := RankLeaderboard(input)

	wantOrder := []string{"b", "d", "a", "c"}
	for i, name := range wantOrder {
		if got[i].Username != name {
			t.Fatalf("position %d: expected %s, got %s", i, name, got[i].Username)
		}
		if got[i].Rank != i+1 {
			t.Fatalf("position %d: expected rank %d, got %d", i, i+1, got[i].Rank)
		}
	}
	if input[0].Username != "a" || input[0].Rank != 0 {
		t.Fatalf("expected input to be left unchanged")
	}
}

func TestRankLeaderboard_Idempotent(t *testing.T) {
	created := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	var entries []models.LeaderboardEntry
	for i := 0; i < 6; i++ {
		entries = append(entries, models.LeaderboardEntry{UserID: uuid.New(), CurrentStreak: i % 2, UserCreatedAt: created})
	}

	first := RankLeaderboard(entries)
	reversed := make([]models.LeaderboardEntry, len(entries))
	for i := range entries {
		reversed[len(entries)-1-i] = entries[i]
	}
	second := RankLeaderboard(reversed)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical ordering regardless of input order")
	}
	if !reflect.DeepEqual(first, RankLeaderboard(first)) {
		t.Fatalf("expected re-ranking to be idempotent")
	}
}

func TestBuildGroupStreaks(t *testing.T) {
	now := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	d0, d1 := now, now.AddDate(0, 0, -1)
	members := []MemberActivity{
		{
			Member:   models.GroupMember{UserID: uuid.New(), Username: "early"},
			Sessions: []models.StudySession{{Status: models.SessionCompleted, CompletedAt: &d1}},
			Location: time.UTC,
		},
		{
			Member:   models.GroupMember{UserID: uuid.New(), Username: "today"},
			Sessions: []models.StudySession{{Status: models.SessionCompleted, CompletedAt: &d0}, {Status: models.SessionCompleted, CompletedAt: &d1}},
			Location: time.UTC,
		},
	}

	got := BuildGroupStreaks(uuid.New(), members, now, time.UTC, 70)
	if got.Group.CurrentStreak != 2 {
		t.Fatalf("expected group streak 2, got %d", got.Group.CurrentStreak)
	}
	if got.Members[0].Username != "today" {
		t.Fatalf("expected member with longer streak first, got %s", got.Members[0].Username)
	}
}
