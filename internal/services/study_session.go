package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studystreak-backend/internal/models"
)

type StudySessionService struct {
	sessions   SessionStore
	users      UserStore
	groups     GroupStore
	calendar   CalendarSource
	notifier   MilestoneNotifier
	planner    *Planner
	target     int
	defaultLoc *time.Location
	now        func() time.Time
}

func NewStudySessionService(
	sessions SessionStore,
	users UserStore,
	groups GroupStore,
	cal CalendarSource,
	notifier MilestoneNotifier,
	planner *Planner,
	targetDays int,
	defaultLoc *time.Location,
) *StudySessionService {
	return &StudySessionService{
		sessions:   sessions,
		users:      users,
		groups:     groups,
		calendar:   cal,
		notifier:   notifier,
		planner:    planner,
		target:     targetDays,
		defaultLoc: defaultLoc,
		now:        time.Now,
	}
}

func (s *StudySessionService) Create(ctx context.Context, userID uuid.UUID, req models.CreateStudySessionRequest) (*models.StudySession, error) {
	if !req.EndTime.After(req.StartTime) {
		return nil, &ValidationError{Fields: map[string]string{"end_time": "End time must be after start time"}}
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}

	session := &models.StudySession{
		UserID:          userID,
		Title:           strings.TrimSpace(req.Title),
		Subject:         strings.TrimSpace(req.Subject),
		Description:     req.Description,
		Location:        req.Location,
		Notes:           req.Notes,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		DurationMinutes: req.DurationMinutes,
	}
	if session.Title == "" {
		session.Title = session.Subject + " study session"
	}
	if session.DurationMinutes == 0 {
		session.DurationMinutes = int(req.EndTime.Sub(req.StartTime) / time.Minute)
	}
	if session.DurationMinutes == 0 {
		session.DurationMinutes = user.Preferences.SessionDurationMinutes
	}

	if req.GroupID != "" {
		groupID, err := uuid.Parse(req.GroupID)
		if err != nil {
			return nil, &ValidationError{Fields: map[string]string{"group_id": "Invalid group ID"}}
		}
		member, err := s.groups.IsMember(ctx, groupID, userID)
		if err != nil {
			return nil, err
		}
		if !member {
			return nil, &ForbiddenError{Message: "You are not a member of this group"}
		}
		session.GroupID = &groupID
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}

	if req.AddToCalendar {
		s.addToCalendar(ctx, user, session)
	}
	return session, nil
}

// addToCalendar is best effort: failures are logged and the session keeps a
// null calendar_event_id.
func (s *StudySessionService) addToCalendar(ctx context.Context, user *models.User, session *models.StudySession) {
	if s.calendar == nil {
		return
	}
	creator, err := s.calendar.EventCreator(ctx, user, user.Location(s.defaultLoc))
	if err != nil {
		log.Printf("sessions: calendar lookup for user %s failed: %v", user.ID, err)
		return
	}
	if creator == nil {
		return
	}
	eventID, err := creator.CreateEvent(ctx, session)
	if err != nil {
		log.Printf("sessions: creating calendar event for session %s failed: %v", session.ID, err)
		return
	}
	if err := s.sessions.SetCalendarEventID(ctx, session.ID, eventID); err != nil {
		log.Printf("sessions: storing calendar event id for session %s failed: %v", session.ID, err)
		return
	}
	session.CalendarEventID = &eventID
}

func (s *StudySessionService) owned(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudySession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, notFound(err, "Study session not found")
	}
	if session.UserID != userID {
		return nil, &ForbiddenError{Message: "You can only modify your own study sessions"}
	}
	return session, nil
}

func stateConflict(session *models.StudySession) error {
	switch session.Status {
	case models.SessionCompleted:
		return &ConflictError{Message: "Study session is already completed"}
	case models.SessionCancelled:
		return &ConflictError{Message: "Study session was cancelled"}
	}
	return &ConflictError{Message: "Study session is no longer scheduled"}
}

// Complete marks a scheduled session done and reports the recomputed streak
// and any milestone it unlocked.
func (s *StudySessionService) Complete(ctx context.Context, userID, sessionID uuid.UUID) (*models.CompleteSessionResponse, error) {
	session, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionScheduled {
		return nil, stateConflict(session)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	history, err := s.sessions.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	completed, err := s.sessions.Complete(ctx, sessionID, now)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost a race with another completion or cancellation.
		return nil, &ConflictError{Message: "Study session is no longer scheduled"}
	}
	if err != nil {
		return nil, err
	}

	today := now.In(user.Location(s.defaultLoc))
	dates := CompletionDates(history)
	before := CalculateStreak(dates, today, s.target)
	after := CalculateStreak(append(dates, now), today, s.target)

	fresh := NewMilestones(
		HabitProgress(before, s.target).Rewards,
		HabitProgress(after, s.target).Rewards,
	)
	if len(fresh) > 0 && s.notifier != nil {
		if err := s.notifier.SendMilestoneEmail(user.Email, user.Username, after.CurrentStreak, fresh); err != nil {
			log.Printf("sessions: milestone email for user %s failed: %v", user.ID, err)
		}
	}

	return &models.CompleteSessionResponse{Session: *completed, Streak: after, Milestones: fresh}, nil
}

func (s *StudySessionService) Cancel(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudySession, error) {
	session, err := s.owned(ctx, userID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionScheduled {
		return nil, stateConflict(session)
	}
	cancelled, err := s.sessions.Cancel(ctx, sessionID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, &ConflictError{Message: "Study session is no longer scheduled"}
	}
	return cancelled, err
}

func (s *StudySessionService) Delete(ctx context.Context, userID, sessionID uuid.UUID) error {
	if _, err := s.owned(ctx, userID, sessionID); err != nil {
		return err
	}
	return notFound(s.sessions.Delete(ctx, sessionID), "Study session not found")
}

func (s *StudySessionService) Get(ctx context.Context, userID, sessionID uuid.UUID) (*models.StudySession, error) {
	return s.owned(ctx, userID, sessionID)
}

func (s *StudySessionService) ListForUser(ctx context.Context, actorID, userID uuid.UUID) ([]models.StudySession, error) {
	if actorID != userID {
		return nil, &ForbiddenError{Message: "You can only list your own study sessions"}
	}
	return s.sessions.ListByUser(ctx, userID)
}

func (s *StudySessionService) Suggest(ctx context.Context, userID uuid.UUID, req models.SuggestSessionsRequest) ([]models.StudySuggestion, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}
	return s.planner.Suggest(ctx, req.WorkDescription, user.Preferences, user.Location(s.defaultLoc)), nil
}
