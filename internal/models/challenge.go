package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	ScoreLongestStreak = "longest_streak"
	ScoreTotalSessions = "total_sessions"
)

type Challenge struct {
	ID          uuid.UUID  `json:"id"`
	GroupID     uuid.UUID  `json:"group_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ScoringRule string     `json:"scoring_rule"`
	Target      int        `json:"target"`
	StartDate   time.Time  `json:"start_date"`
	EndDate     time.Time  `json:"end_date"`
	CreatedBy   *uuid.UUID `json:"created_by,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type CreateChallengeRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"max=2000"`
	ScoringRule string `json:"scoring_rule" validate:"omitempty,oneof=longest_streak total_sessions"`
	Target      int    `json:"target" validate:"required,min=1,max=365"`
	StartDate   string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate     string `json:"end_date" validate:"required,datetime=2006-01-02"`
}

type ChallengeStanding struct {
	Rank          int       `json:"rank"`
	UserID        uuid.UUID `json:"user_id"`
	Username      string    `json:"username"`
	Score         int       `json:"score"`
	Completed     bool      `json:"completed"`
	UserCreatedAt time.Time `json:"-"`
}

type ChallengeLeaderboard struct {
	Challenge Challenge           `json:"challenge"`
	Standings []ChallengeStanding `json:"standings"`
}
