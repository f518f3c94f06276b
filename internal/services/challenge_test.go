package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"studystreak-backend/internal/models"
)

func TestChallengeScore(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	day := func(d, h int) time.Time { return time.Date(2026, 3, d, h, 0, 0, 0, time.UTC) }

	// A three-day run of four sessions, one more day, and two completions
	// outside the window.
	dates := []time.Time{
		day(2, 9), day(2, 18), day(3, 9), day(4, 9),
		day(6, 9),
		day(8, 9),
		time.Date(2026, 2, 28, 23, 0, 0, 0, time.UTC),
	}

	if got := ChallengeScore(models.ScoreLongestStreak, dates, start, end, time.UTC); got != 3 {
		t.Fatalf("expected longest streak 3, got %d", got)
	}
	if got := ChallengeScore(models.ScoreTotalSessions, dates, start, end, time.UTC); got != 5 {
		t.Fatalf("expected 5 sessions, got %d", got)
	}
}

func TestRankChallenge(t *testing.T) {
	c := models.Challenge{
		ScoringRule: models.ScoreTotalSessions,
		Target:      2,
		StartDate:   time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:     time.Date(2026, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	d := time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)
	done := models.StudySession{Status: models.SessionCompleted, CompletedAt: &d}

	members := []MemberActivity{
		{Member: models.GroupMember{UserID: uuid.New(), Username: "one"}, Sessions: []models.StudySession{done}, Location: time.UTC},
		{Member: models.GroupMember{UserID: uuid.New(), Username: "two"}, Sessions: []models.StudySession{done, done}, Location: time.UTC},
	}

	got := RankChallenge(c, members)
	if got[0].Username != "two" || got[0].Rank != 1 || !got[0].Completed {
		t.Fatalf("expected 'two' first and completed, got %+v", got[0])
	}
	if got[1].Completed {
		t.Fatalf("expected 'one' below target")
	}
}
