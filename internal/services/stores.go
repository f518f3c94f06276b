package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"studystreak-backend/internal/calendar"
	"studystreak-backend/internal/models"
)

type SessionStore interface {
	Create(ctx context.Context, s *models.StudySession) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.StudySession, error)
	ListCompletedByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]models.StudySession, error)
	Complete(ctx context.Context, id uuid.UUID, at time.Time) (*models.StudySession, error)
	Cancel(ctx context.Context, id uuid.UUID) (*models.StudySession, error)
	SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type GroupStore interface {
	Create(ctx context.Context, g *models.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error)
	List(ctx context.Context) ([]models.Group, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.GroupMembership, error)
	AddMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error)
	Members(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ChallengeStore interface {
	Create(ctx context.Context, c *models.Challenge) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Challenge, error)
}

type AccomplishmentStore interface {
	Create(ctx context.Context, a *models.Accomplishment) error
	ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]models.Accomplishment, error)
}

// CalendarSource is the part of calendar.Adapter the services use.
type CalendarSource interface {
	Fetch(ctx context.Context, user *models.User, loc *time.Location, start, end time.Time) calendar.Result
	EventCreator(ctx context.Context, user *models.User, loc *time.Location) (calendar.EventCreator, error)
	ValidateICalURL(ctx context.Context, url string) error
}

// MilestoneNotifier is told about newly unlocked rewards.
type MilestoneNotifier interface {
	SendMilestoneEmail(to, username string, streak int, rewards []string) error
}

// locationFor resolves a timezone name, falling back when empty or unknown.
func locationFor(name string, fallback *time.Location) *time.Location {
	if name == "" {
		return fallback
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fallback
	}
	return loc
}
