package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"studystreak-backend/internal/models"
)

const accomplishmentFeedLimit = 50

type GroupService struct {
	groups          GroupStore
	sessions        SessionStore
	challenges      ChallengeStore
	accomplishments AccomplishmentStore
	target          int
	defaultLoc      *time.Location
	now             func() time.Time
}

func NewGroupService(
	groups GroupStore,
	sessions SessionStore,
	challenges ChallengeStore,
	accomplishments AccomplishmentStore,
	targetDays int,
	defaultLoc *time.Location,
) *GroupService {
	return &GroupService{
		groups:          groups,
		sessions:        sessions,
		challenges:      challenges,
		accomplishments: accomplishments,
		target:          targetDays,
		defaultLoc:      defaultLoc,
		now:             time.Now,
	}
}

func (s *GroupService) Create(ctx context.Context, userID uuid.UUID, req models.CreateGroupRequest) (*models.Group, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &ValidationError{Fields: map[string]string{"name": "Name is required"}}
	}
	group := &models.Group{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		CreatedBy:   userID,
	}
	if err := s.groups.Create(ctx, group); err != nil {
		return nil, err
	}
	group.MemberCount = 1
	return group, nil
}

func (s *GroupService) List(ctx context.Context) ([]models.Group, error) {
	return s.groups.List(ctx)
}

func (s *GroupService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.GroupMembership, error) {
	return s.groups.ListForUser(ctx, userID)
}

func (s *GroupService) Get(ctx context.Context, groupID uuid.UUID) (*models.Group, error) {
	group, err := s.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, notFound(err, "Group not found")
	}
	return group, nil
}

func (s *GroupService) Join(ctx context.Context, userID, groupID uuid.UUID) error {
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	added, err := s.groups.AddMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !added {
		return &ConflictError{Message: "You are already a member of this group"}
	}
	return nil
}

func (s *GroupService) Leave(ctx context.Context, userID, groupID uuid.UUID) error {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatedBy == userID {
		return &ConflictError{Message: "The group owner cannot leave; delete the group instead"}
	}
	removed, err := s.groups.RemoveMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !removed {
		return &NotFoundError{Message: "You are not a member of this group"}
	}
	return nil
}

func (s *GroupService) Delete(ctx context.Context, userID, groupID uuid.UUID) error {
	group, err := s.Get(ctx, groupID)
	if err != nil {
		return err
	}
	if group.CreatedBy != userID {
		return &ForbiddenError{Message: "Only the group owner can delete the group"}
	}
	return notFound(s.groups.Delete(ctx, groupID), "Group not found")
}

func (s *GroupService) requireMember(ctx context.Context, userID, groupID uuid.UUID) error {
	if _, err := s.Get(ctx, groupID); err != nil {
		return err
	}
	member, err := s.groups.IsMember(ctx, groupID, userID)
	if err != nil {
		return err
	}
	if !member {
		return &ForbiddenError{Message: "You are not a member of this group"}
	}
	return nil
}

func (s *GroupService) activity(ctx context.Context, groupID uuid.UUID) ([]MemberActivity, error) {
	return memberActivity(ctx, s.groups, s.sessions, groupID, s.defaultLoc)
}

// memberActivity loads each member with their completed sessions and
// timezone.
func memberActivity(ctx context.Context, groups GroupStore, sessions SessionStore, groupID uuid.UUID, defaultLoc *time.Location) ([]MemberActivity, error) {
	members, err := groups.Members(ctx, groupID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, len(members))
	for i, m := range members {
		ids[i] = m.UserID
	}
	completed, err := sessions.ListCompletedByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]MemberActivity, len(members))
	for i, m := range members {
		out[i] = MemberActivity{
			Member:   m,
			Sessions: completed[m.UserID],
			Location: locationFor(m.Timezone, defaultLoc),
		}
	}
	return out, nil
}

func (s *GroupService) Leaderboard(ctx context.Context, groupID uuid.UUID) ([]models.LeaderboardEntry, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.activity(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return BuildLeaderboard(members, s.now(), s.target), nil
}

func (s *GroupService) Streaks(ctx context.Context, groupID uuid.UUID) (*models.GroupStreaks, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	members, err := s.activity(ctx, groupID)
	if err != nil {
		return nil, err
	}
	streaks := BuildGroupStreaks(groupID, members, s.now(), s.defaultLoc, s.target)
	return &streaks, nil
}

func parseDate(field, value string, loc *time.Location) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02", value, loc)
	if err != nil {
		return time.Time{}, &ValidationError{Fields: map[string]string{field: "Must be a date in YYYY-MM-DD format"}}
	}
	return t, nil
}

func (s *GroupService) CreateChallenge(ctx context.Context, userID, groupID uuid.UUID, req models.CreateChallengeRequest) (*models.Challenge, error) {
	if err := s.requireMember(ctx, userID, groupID); err != nil {
		return nil, err
	}
	start, err := parseDate("start_date", req.StartDate, time.UTC)
	if err != nil {
		return nil, err
	}
	end, err := parseDate("end_date", req.EndDate, time.UTC)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, &ValidationError{Fields: map[string]string{"end_date": "End date must not be before start date"}}
	}

	rule := req.ScoringRule
	if rule == "" {
		rule = models.ScoreLongestStreak
	}
	challenge := &models.Challenge{
		GroupID:     groupID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		ScoringRule: rule,
		Target:      req.Target,
		StartDate:   start,
		EndDate:     end,
		CreatedBy:   &userID,
	}
	if err := s.challenges.Create(ctx, challenge); err != nil {
		return nil, err
	}
	return challenge, nil
}

func (s *GroupService) ListChallenges(ctx context.Context, groupID uuid.UUID) ([]models.Challenge, error) {
	if _, err := s.Get(ctx, groupID); err != nil {
		return nil, err
	}
	return s.challenges.ListByGroup(ctx, groupID)
}

func (s *GroupService) ChallengeLeaderboard(ctx context.Context, challengeID uuid.UUID) (*models.ChallengeLeaderboard, error) {
	challenge, err := s.challenges.GetByID(ctx, challengeID)
	if err != nil {
		return nil, notFound(err, "Challenge not found")
	}
	members, err := s.activity(ctx, challenge.GroupID)
	if err != nil {
		return nil, err
	}
	return &models.ChallengeLeaderboard{
		Challenge: *challenge,
		Standings: RankChallenge(*challenge, members),
	}, nil
}

func (s *GroupService) CreateAccomplishment(ctx context.Context, userID uuid.UUID, req models.CreateAccomplishmentRequest) (*models.Accomplishment, error) {
	groupID, err := uuid.Parse(req.GroupID)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"group_id": "Invalid group ID"}}
	}
	if err := s.requireMember(ctx, userID, groupID); err != nil {
		return nil, err
	}
	category := strings.TrimSpace(req.Category)
	if category == "" {
		category = "general"
	}
	a := &models.Accomplishment{
		UserID:      userID,
		GroupID:     groupID,
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Category:    category,
	}
	if err := s.accomplishments.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *GroupService) ListAccomplishments(ctx context.Context, userID, groupID uuid.UUID) ([]models.Accomplishment, error) {
	if err := s.requireMember(ctx, userID, groupID); err != nil {
		return nil, err
	}
	return s.accomplishments.ListByGroup(ctx, groupID, accomplishmentFeedLimit)
}
