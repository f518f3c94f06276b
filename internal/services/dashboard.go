package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studystreak-backend/internal/calendar"
	"studystreak-backend/internal/models"
)

const (
	recentSessionLimit = 10
	dashboardSlots     = 3
)

type DashboardService struct {
	users      UserStore
	sessions   SessionStore
	groups     GroupStore
	calendar   CalendarSource
	schedule   ScheduleConfig
	target     int
	defaultLoc *time.Location
	now        func() time.Time
}

func NewDashboardService(
	users UserStore,
	sessions SessionStore,
	groups GroupStore,
	cal CalendarSource,
	schedule ScheduleConfig,
	targetDays int,
	defaultLoc *time.Location,
) *DashboardService {
	return &DashboardService{
		users:      users,
		sessions:   sessions,
		groups:     groups,
		calendar:   cal,
		schedule:   schedule.withDefaults(),
		target:     targetDays,
		defaultLoc: defaultLoc,
		now:        time.Now,
	}
}

// history loads the user and their sessions, newest first.
func (s *DashboardService) history(ctx context.Context, actorID, userID uuid.UUID) (*models.User, []models.StudySession, error) {
	if actorID != userID {
		return nil, nil, &ForbiddenError{Message: "You can only view your own dashboard"}
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, nil, notFound(err, "User not found")
	}
	sessions, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, sessions, nil
}

func (s *DashboardService) streak(user *models.User, sessions []models.StudySession, now time.Time) models.StreakStats {
	return CalculateStreak(CompletionDates(sessions), now.In(user.Location(s.defaultLoc)), s.target)
}

// Build assembles the dashboard. Calendar trouble never fails it: the
// calendar block is dropped and the payload is marked partial.
func (s *DashboardService) Build(ctx context.Context, actorID, userID uuid.UUID) (*models.Dashboard, error) {
	user, sessions, err := s.history(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	loc := user.Location(s.defaultLoc)
	stats := s.streak(user, sessions, now)

	recent := sessions
	if len(recent) > recentSessionLimit {
		recent = recent[:recentSessionLimit]
	}

	d := &models.Dashboard{
		User:           user.Public(),
		Streak:         stats,
		HabitProgress:  HabitProgress(stats, s.target),
		Statistics:     Statistics(sessions, stats, now),
		RecentSessions: recent,
		WeeklyProgress: WeeklyProgress(sessions, now, DefaultWeeks),
		Groups:         groups,
		GeneratedAt:    now,
	}

	if s.calendar == nil {
		return d, nil
	}
	start, end := horizon(now, loc, s.schedule.HorizonDays)
	res := s.calendar.Fetch(ctx, user, loc, start, end)
	if res.Unavailable() {
		d.Partial = true
		d.Warnings = append(d.Warnings, "Calendar data is unavailable; suggested slots were omitted")
		d.Warnings = append(d.Warnings, res.Status.Warnings...)
		return d, nil
	}
	if res.Status.Degraded {
		d.Partial = true
		d.Warnings = append(d.Warnings, res.Status.Warnings...)
	}
	slots := calendar.ProposeSlots(proposal(user.Preferences, now, loc, res.Busy, 0, s.schedule.HorizonDays, dashboardSlots))
	d.Calendar = &models.DashboardCalendar{Slots: slots, Status: res.Status}
	return d, nil
}

func (s *DashboardService) HabitProgress(ctx context.Context, actorID, userID uuid.UUID) (*models.HabitProgressReport, error) {
	user, sessions, err := s.history(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}
	report := HabitProgress(s.streak(user, sessions, s.now()), s.target)
	return &report, nil
}

func (s *DashboardService) Weekly(ctx context.Context, actorID, userID uuid.UUID, weeks int) ([]models.WeekProgress, error) {
	if weeks < 0 || weeks > MaxWeeks {
		return nil, &ValidationError{Fields: map[string]string{"weeks": "Must be between 1 and 52"}}
	}
	_, sessions, err := s.history(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}
	return WeeklyProgress(sessions, s.now(), weeks), nil
}

// Streaks reports the user's own streak and, for each of their groups, the
// group's union streak and the user's leaderboard rank.
func (s *DashboardService) Streaks(ctx context.Context, actorID, userID uuid.UUID) (*models.UserStreaks, error) {
	user, sessions, err := s.history(ctx, actorID, userID)
	if err != nil {
		return nil, err
	}
	memberships, err := s.groups.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	out := &models.UserStreaks{
		UserID:       userID,
		Streak:       s.streak(user, sessions, now),
		LastActivity: lastCompletion(sessions),
		Groups:       make([]models.GroupStreakStanding, 0, len(memberships)),
	}
	for _, m := range memberships {
		members, err := memberActivity(ctx, s.groups, s.sessions, m.ID, s.defaultLoc)
		if err != nil {
			return nil, err
		}
		gs := BuildGroupStreaks(m.ID, members, now, s.defaultLoc, s.target)
		standing := models.GroupStreakStanding{
			GroupID:     m.ID,
			GroupName:   m.Name,
			MemberCount: len(gs.Members),
			GroupStreak: gs.Group,
		}
		for _, e := range gs.Members {
			if e.UserID == userID {
				standing.Rank = e.Rank
				break
			}
		}
		out.Groups = append(out.Groups, standing)
	}
	return out, nil
}

func lastCompletion(sessions []models.StudySession) *time.Time {
	var last *time.Time
	for _, t := range CompletionDates(sessions) {
		if last == nil || t.After(*last) {
			t := t
			last = &t
		}
	}
	return last
}
