package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"studystreak-backend/internal/calendar"
	"studystreak-backend/internal/models"
)

func newDashboardFixture(cal *stubCalendar, sessions ...*models.StudySession) (*DashboardService, *models.User) {
	user := newUser("ada")
	for _, s := range sessions {
		s.UserID = user.ID
	}
	users := newMemUsers(user)
	svc := NewDashboardService(users, newMemSessions(sessions...), newMemGroups(users), cal, ScheduleConfig{}, 70, time.UTC)
	// Thursday morning, so the afternoon window is still open.
	svc.now = fixed(time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC))
	return svc, user
}

func TestDashboardBuild(t *testing.T) {
	var sessions []*models.StudySession
	for i := 1; i <= 3; i++ {
		sessions = append(sessions, completedSession(uuid.Nil, daysAgo(i)))
	}
	for i := 0; i < 12; i++ {
		sessions = append(sessions, scheduledSession(uuid.Nil, daysAgo(i)))
	}
	cal := &stubCalendar{result: calendar.Result{Status: models.CalendarStatus{Sources: []string{models.SourceNone}}}}
	svc, user := newDashboardFixture(cal, sessions...)

	d, err := svc.Build(context.Background(), user.ID, user.ID)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if d.Streak.CurrentStreak != 3 {
		t.Fatalf("expected streak 3, got %d", d.Streak.CurrentStreak)
	}
	if len(d.RecentSessions) != recentSessionLimit {
		t.Fatalf("expected %d recent sessions, got %d", recentSessionLimit, len(d.RecentSessions))
	}
	if len(d.WeeklyProgress) != DefaultWeeks {
		t.Fatalf("expected %d weeks, got %d", DefaultWeeks, len(d.WeeklyProgress))
	}
	if d.Partial {
		t.Fatal("dashboard should not be partial")
	}
	if d.Calendar == nil || len(d.Calendar.Slots) != dashboardSlots {
		t.Fatalf("expected %d slots, got %+v", dashboardSlots, d.Calendar)
	}
}

func TestDashboardBuild_DegradedCalendar(t *testing.T) {
	cal := &stubCalendar{result: calendar.Result{Status: models.CalendarStatus{
		Sources:      []string{models.SourceNone},
		Degraded:     true,
		AuthRequired: true,
		Warnings:     []string{"google calendar access was revoked"},
	}}}
	svc, user := newDashboardFixture(cal, completedSession(uuid.Nil, daysAgo(0)))

	d, err := svc.Build(context.Background(), user.ID, user.ID)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if !d.Partial {
		t.Fatal("expected partial dashboard")
	}
	if d.Calendar != nil {
		t.Fatal("calendar block should be omitted")
	}
	if len(d.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", d.Warnings)
	}
	if d.Streak.CurrentStreak != 1 {
		t.Fatalf("non-calendar fields should be populated, streak %d", d.Streak.CurrentStreak)
	}
}

func TestDashboardBuild_FallsBackToICal(t *testing.T) {
	thursday := func(h int) time.Time { return time.Date(2026, 3, 5, h, 0, 0, 0, time.UTC) }
	cal := &stubCalendar{result: calendar.Result{
		Busy: []calendar.BusyInterval{{Start: thursday(9), End: thursday(12)}},
		Status: models.CalendarStatus{
			Sources:      []string{models.SourceICal},
			Degraded:     true,
			AuthRequired: true,
			Warnings:     []string{"google calendar access was revoked"},
		},
		Configured: 2,
		Failed:     1,
		Served:     1,
		AuthSource: models.SourceGoogle,
	}}
	svc, user := newDashboardFixture(cal)

	d, err := svc.Build(context.Background(), user.ID, user.ID)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if d.Calendar == nil {
		t.Fatal("calendar block should be kept when another source served data")
	}
	if len(d.Calendar.Slots) != dashboardSlots {
		t.Fatalf("expected %d slots, got %d", dashboardSlots, len(d.Calendar.Slots))
	}
	if first := d.Calendar.Slots[0].Start; !first.Equal(thursday(14)) {
		t.Fatalf("expected the first slot after the ical busy block at 14:00, got %v", first)
	}
	if !d.Partial || len(d.Warnings) != 1 || d.Warnings[0] != "google calendar access was revoked" {
		t.Fatalf("expected partial dashboard carrying the google warning, got partial=%v %v", d.Partial, d.Warnings)
	}
}

func TestDashboardBuild_OtherUserForbidden(t *testing.T) {
	svc, user := newDashboardFixture(&stubCalendar{})
	if _, err := svc.Build(context.Background(), uuid.New(), user.ID); !isForbidden(err) {
		t.Fatalf("expected ForbiddenError, got %v", err)
	}
}

func TestDashboardHabitProgress(t *testing.T) {
	svc, user := newDashboardFixture(&stubCalendar{},
		completedSession(uuid.Nil, daysAgo(0)),
		completedSession(uuid.Nil, daysAgo(1)),
	)
	report, err := svc.HabitProgress(context.Background(), user.ID, user.ID)
	if err != nil {
		t.Fatalf("HabitProgress: %v", err)
	}
	if report.TargetDays != 70 || report.DaysCompleted != 2 || report.DaysRemaining != 68 {
		t.Fatalf("unexpected report %+v", report)
	}
}

func TestDashboardWeekly_Bounds(t *testing.T) {
	svc, user := newDashboardFixture(&stubCalendar{})
	if _, err := svc.Weekly(context.Background(), user.ID, user.ID, 53); !isValidation(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	weeks, err := svc.Weekly(context.Background(), user.ID, user.ID, 2)
	if err != nil {
		t.Fatalf("Weekly: %v", err)
	}
	if len(weeks) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(weeks))
	}
}

func TestDashboardStreaks(t *testing.T) {
	ada, bob := newUser("ada"), newUser("bob")
	users := newMemUsers(ada, bob)
	groups := newMemGroups(users)
	var sessions []*models.StudySession
	for i := 0; i < 3; i++ {
		sessions = append(sessions, completedSession(ada.ID, daysAgo(i)))
	}
	for i := 3; i < 5; i++ {
		sessions = append(sessions, completedSession(bob.ID, daysAgo(i)))
	}
	store := newMemSessions(sessions...)

	group := &models.Group{Name: "Chemistry", CreatedBy: bob.ID}
	if err := groups.Create(context.Background(), group); err != nil {
		t.Fatalf("create group: %v", err)
	}
	if _, err := groups.AddMember(context.Background(), group.ID, ada.ID); err != nil {
		t.Fatalf("join: %v", err)
	}

	svc := NewDashboardService(users, store, groups, &stubCalendar{}, ScheduleConfig{}, 70, time.UTC)
	svc.now = fixed(time.Date(2026, 3, 5, 20, 0, 0, 0, time.UTC))

	got, err := svc.Streaks(context.Background(), ada.ID, ada.ID)
	if err != nil {
		t.Fatalf("Streaks: %v", err)
	}
	if got.Streak.CurrentStreak != 3 {
		t.Fatalf("expected own streak 3, got %d", got.Streak.CurrentStreak)
	}
	if got.LastActivity == nil || !got.LastActivity.Equal(daysAgo(0)) {
		t.Fatalf("expected last activity today, got %v", got.LastActivity)
	}
	if len(got.Groups) != 1 {
		t.Fatalf("expected one group, got %d", len(got.Groups))
	}
	g := got.Groups[0]
	if g.GroupName != "Chemistry" || g.MemberCount != 2 {
		t.Fatalf("unexpected group standing %+v", g)
	}
	if g.Rank != 1 {
		t.Fatalf("expected ada to lead the group, got rank %d", g.Rank)
	}
	if g.GroupStreak.CurrentStreak != 5 {
		t.Fatalf("expected union streak 5, got %d", g.GroupStreak.CurrentStreak)
	}

	if _, err := svc.Streaks(context.Background(), bob.ID, ada.ID); !isForbidden(err) {
		t.Fatalf("expected ForbiddenError for another user, got %v", err)
	}
}

func TestDashboardStreaks_NoActivity(t *testing.T) {
	svc, user := newDashboardFixture(&stubCalendar{})
	got, err := svc.Streaks(context.Background(), user.ID, user.ID)
	if err != nil {
		t.Fatalf("Streaks: %v", err)
	}
	if got.LastActivity != nil || got.Streak.CurrentStreak != 0 || len(got.Groups) != 0 {
		t.Fatalf("expected an empty report, got %+v", got)
	}
}
