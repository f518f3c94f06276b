package models

import (
	"time"

	"github.com/google/uuid"
)

type StreakStats struct {
	CurrentStreak int     `json:"current_streak"`
	LongestStreak int     `json:"longest_streak"`
	PercentToGoal float64 `json:"percent_to_goal"`
}

type HabitProgressReport struct {
	TargetDays         int      `json:"target_days"`
	DaysCompleted      int      `json:"days_completed"`
	DaysRemaining      int      `json:"days_remaining"`
	ProgressPercentage float64  `json:"progress_percentage"`
	CurrentStreak      int      `json:"current_streak"`
	LongestStreak      int      `json:"longest_streak"`
	IsOnTrack          bool     `json:"is_on_track"`
	MilestoneReached   bool     `json:"milestone_reached"`
	Rewards            []string `json:"rewards"`
}

type LeaderboardEntry struct {
	Rank                   int       `json:"rank"`
	UserID                 uuid.UUID `json:"user_id"`
	Username               string    `json:"username"`
	CurrentStreak          int       `json:"current_streak"`
	LongestStreak          int       `json:"longest_streak"`
	TotalCompletedSessions int       `json:"total_completed_sessions"`
	UserCreatedAt          time.Time `json:"-"`
}

type GroupStreaks struct {
	GroupID uuid.UUID          `json:"group_id"`
	Group   StreakStats        `json:"group"`
	Members []LeaderboardEntry `json:"members"`
}

// UserStreaks is one user's streak together with their standing in every
// group they belong to.
type UserStreaks struct {
	UserID       uuid.UUID             `json:"user_id"`
	Streak       StreakStats           `json:"streak"`
	LastActivity *time.Time            `json:"last_activity"`
	Groups       []GroupStreakStanding `json:"groups"`
}

type GroupStreakStanding struct {
	GroupID     uuid.UUID   `json:"group_id"`
	GroupName   string      `json:"group_name"`
	Rank        int         `json:"rank"`
	MemberCount int         `json:"member_count"`
	GroupStreak StreakStats `json:"group_streak"`
}

type WeekProgress struct {
	WeekStart      time.Time `json:"week_start"`
	WeekEnd        time.Time `json:"week_end"`
	TotalSessions  int       `json:"total_sessions"`
	Completed      int       `json:"completed_sessions"`
	CompletionRate float64   `json:"completion_rate"`
	MinutesStudied int       `json:"minutes_studied"`
}

type UserStatistics struct {
	TotalSessions     int     `json:"total_sessions"`
	CompletedSessions int     `json:"completed_sessions"`
	CompletionRate    float64 `json:"completion_rate"`
	RecentSessions    int     `json:"recent_sessions"`
	CurrentStreak     int     `json:"current_streak"`
	LongestStreak     int     `json:"longest_streak"`
}

type DashboardCalendar struct {
	Slots  []Slot         `json:"suggested_slots"`
	Status CalendarStatus `json:"status"`
}

type Dashboard struct {
	User           PublicProfile       `json:"user"`
	Streak         StreakStats         `json:"streak"`
	HabitProgress  HabitProgressReport `json:"habit_progress"`
	Statistics     UserStatistics      `json:"statistics"`
	RecentSessions []StudySession      `json:"recent_sessions"`
	WeeklyProgress []WeekProgress      `json:"weekly_progress"`
	Groups         []GroupMembership   `json:"groups"`
	Calendar       *DashboardCalendar  `json:"calendar,omitempty"`
	Partial        bool                `json:"partial"`
	Warnings       []string            `json:"warnings,omitempty"`
	GeneratedAt    time.Time           `json:"generated_at"`
}

type CompleteSessionResponse struct {
	Session    StudySession `json:"session"`
	Streak     StreakStats  `json:"streak"`
	Milestones []string     `json:"new_milestones"`
}
