package services

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/oauth2"

	"studystreak-backend/internal/calendar"
	"studystreak-backend/internal/models"
)

type memUsers struct {
	byID map[uuid.UUID]*models.User
}

func newMemUsers(users ...*models.User) *memUsers {
	m := &memUsers{byID: map[uuid.UUID]*models.User{}}
	for _, u := range users {
		m.byID[u.ID] = u
	}
	return m
}

func (m *memUsers) Create(ctx context.Context, user *models.User) error {
	for _, u := range m.byID {
		if u.Username == user.Username {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_username_key"}
		}
		if strings.EqualFold(u.Email, user.Email) {
			return &pgconn.PgError{Code: "23505", ConstraintName: "users_email_key"}
		}
	}
	user.ID = uuid.New()
	user.CreatedAt = time.Now()
	m.byID[user.ID] = user
	return nil
}

func (m *memUsers) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.byID {
		if strings.EqualFold(u.Email, email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *memUsers) UpdatePreferences(ctx context.Context, userID uuid.UUID, prefs models.Preferences) error {
	u, ok := m.byID[userID]
	if !ok {
		return pgx.ErrNoRows
	}
	u.Preferences = prefs
	return nil
}

func (m *memUsers) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, ok := m.byID[userID]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, userID)
	return nil
}

type memSessions struct {
	byID map[uuid.UUID]*models.StudySession
}

func newMemSessions(sessions ...*models.StudySession) *memSessions {
	m := &memSessions{byID: map[uuid.UUID]*models.StudySession{}}
	for _, s := range sessions {
		m.byID[s.ID] = s
	}
	return m
}

func (m *memSessions) Create(ctx context.Context, s *models.StudySession) error {
	s.ID = uuid.New()
	s.Status = models.SessionScheduled
	s.CreatedAt = time.Now()
	m.byID[s.ID] = s
	return nil
}

func (m *memSessions) GetByID(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	s, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (m *memSessions) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.StudySession, error) {
	out := []models.StudySession{}
	for _, s := range m.byID {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memSessions) ListCompletedByUsers(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID][]models.StudySession, error) {
	out := map[uuid.UUID][]models.StudySession{}
	for _, id := range userIDs {
		for _, s := range m.byID {
			if s.UserID == id && s.Status == models.SessionCompleted {
				out[id] = append(out[id], *s)
			}
		}
	}
	return out, nil
}

func (m *memSessions) Complete(ctx context.Context, id uuid.UUID, at time.Time) (*models.StudySession, error) {
	s, ok := m.byID[id]
	if !ok || s.Status != models.SessionScheduled {
		return nil, pgx.ErrNoRows
	}
	s.Status = models.SessionCompleted
	s.Completed = true
	s.CompletedAt = &at
	cp := *s
	return &cp, nil
}

func (m *memSessions) Cancel(ctx context.Context, id uuid.UUID) (*models.StudySession, error) {
	s, ok := m.byID[id]
	if !ok || s.Status != models.SessionScheduled {
		return nil, pgx.ErrNoRows
	}
	s.Status = models.SessionCancelled
	cp := *s
	return &cp, nil
}

func (m *memSessions) SetCalendarEventID(ctx context.Context, id uuid.UUID, eventID string) error {
	s, ok := m.byID[id]
	if !ok {
		return pgx.ErrNoRows
	}
	s.CalendarEventID = &eventID
	return nil
}

func (m *memSessions) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.byID[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.byID, id)
	return nil
}

type memGroups struct {
	groups  map[uuid.UUID]*models.Group
	members map[uuid.UUID][]models.GroupMember
	users   *memUsers
}

func newMemGroups(users *memUsers) *memGroups {
	return &memGroups{
		groups:  map[uuid.UUID]*models.Group{},
		members: map[uuid.UUID][]models.GroupMember{},
		users:   users,
	}
}

func (m *memGroups) Create(ctx context.Context, g *models.Group) error {
	g.ID = uuid.New()
	g.CreatedAt = time.Now()
	m.groups[g.ID] = g
	_, err := m.AddMember(ctx, g.ID, g.CreatedBy)
	return err
}

func (m *memGroups) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	g, ok := m.groups[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *g
	cp.MemberCount = len(m.members[id])
	return &cp, nil
}

func (m *memGroups) List(ctx context.Context) ([]models.Group, error) {
	out := []models.Group{}
	for id := range m.groups {
		g, _ := m.GetByID(ctx, id)
		out = append(out, *g)
	}
	return out, nil
}

func (m *memGroups) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.GroupMembership, error) {
	out := []models.GroupMembership{}
	for id, members := range m.members {
		for _, mem := range members {
			if mem.UserID == userID {
				g, _ := m.GetByID(ctx, id)
				out = append(out, models.GroupMembership{Group: *g, JoinedAt: mem.JoinedAt})
			}
		}
	}
	return out, nil
}

func (m *memGroups) AddMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	if ok, _ := m.IsMember(ctx, groupID, userID); ok {
		return false, nil
	}
	member := models.GroupMember{UserID: userID, JoinedAt: time.Now()}
	if u, ok := m.users.byID[userID]; ok {
		member.Username = u.Username
		member.UserCreatedAt = u.CreatedAt
		member.Timezone = u.Preferences.Timezone
	}
	m.members[groupID] = append(m.members[groupID], member)
	return true, nil
}

func (m *memGroups) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	members := m.members[groupID]
	for i, mem := range members {
		if mem.UserID == userID {
			m.members[groupID] = append(members[:i], members[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memGroups) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	for _, mem := range m.members[groupID] {
		if mem.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memGroups) Members(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	return append([]models.GroupMember(nil), m.members[groupID]...), nil
}

func (m *memGroups) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.groups[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.groups, id)
	delete(m.members, id)
	return nil
}

type memChallenges struct {
	byID map[uuid.UUID]*models.Challenge
}

func (m *memChallenges) Create(ctx context.Context, c *models.Challenge) error {
	if m.byID == nil {
		m.byID = map[uuid.UUID]*models.Challenge{}
	}
	c.ID = uuid.New()
	m.byID[c.ID] = c
	return nil
}

func (m *memChallenges) GetByID(ctx context.Context, id uuid.UUID) (*models.Challenge, error) {
	c, ok := m.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return c, nil
}

func (m *memChallenges) ListByGroup(ctx context.Context, groupID uuid.UUID) ([]models.Challenge, error) {
	out := []models.Challenge{}
	for _, c := range m.byID {
		if c.GroupID == groupID {
			out = append(out, *c)
		}
	}
	return out, nil
}

type memAccomplishments struct {
	items []models.Accomplishment
}

func (m *memAccomplishments) Create(ctx context.Context, a *models.Accomplishment) error {
	a.ID = uuid.New()
	m.items = append(m.items, *a)
	return nil
}

func (m *memAccomplishments) ListByGroup(ctx context.Context, groupID uuid.UUID, limit int) ([]models.Accomplishment, error) {
	out := []models.Accomplishment{}
	for _, a := range m.items {
		if a.GroupID == groupID && len(out) < limit {
			out = append(out, a)
		}
	}
	return out, nil
}

type memKV struct {
	data map[string][]byte
}

func newMemKV() *memKV { return &memKV{data: map[string][]byte{}} }

func (m *memKV) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := m.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (m *memKV) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.data[key] = value
	return nil
}

func (m *memKV) Del(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *memKV) Take(ctx context.Context, key string) ([]byte, error) {
	v, err := m.Get(ctx, key)
	delete(m.data, key)
	return v, err
}

type stubEventCreator struct {
	id  string
	err error
}

func (s *stubEventCreator) CreateEvent(ctx context.Context, session *models.StudySession) (string, error) {
	return s.id, s.err
}

type stubCalendar struct {
	result   calendar.Result
	creator  calendar.EventCreator
	icalErr  error
	fetched  int
	lastUser *models.User
}

func (s *stubCalendar) Fetch(ctx context.Context, user *models.User, loc *time.Location, start, end time.Time) calendar.Result {
	s.fetched++
	s.lastUser = user
	return s.result
}

func (s *stubCalendar) EventCreator(ctx context.Context, user *models.User, loc *time.Location) (calendar.EventCreator, error) {
	return s.creator, nil
}

func (s *stubCalendar) ValidateICalURL(ctx context.Context, url string) error {
	return s.icalErr
}

type recordingNotifier struct {
	sent [][]string
}

func (r *recordingNotifier) SendMilestoneEmail(to, username string, streak int, rewards []string) error {
	r.sent = append(r.sent, rewards)
	return nil
}

type stubOAuth struct {
	token *oauth2.Token
	err   error
}

func (s *stubOAuth) AuthURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (s *stubOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	return s.token, s.err
}

type memCreds struct {
	saved map[uuid.UUID]*models.CalendarCredential
}

func (m *memCreds) UpsertCalendarCredential(ctx context.Context, c *models.CalendarCredential) error {
	if m.saved == nil {
		m.saved = map[uuid.UUID]*models.CalendarCredential{}
	}
	m.saved[c.UserID] = c
	return nil
}

func (m *memCreds) Delete(ctx context.Context, userID uuid.UUID) error {
	if _, ok := m.saved[userID]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.saved, userID)
	return nil
}

func fixed(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newUser(name string) *models.User {
	return &models.User{
		ID:        uuid.New(),
		Username:  name,
		Email:     name + "@example.com",
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func completedSession(userID uuid.UUID, at time.Time) *models.StudySession {
	done := at
	return &models.StudySession{
		ID:              uuid.New(),
		UserID:          userID,
		Subject:         "Math",
		StartTime:       at.Add(-time.Hour),
		EndTime:         at,
		DurationMinutes: 60,
		Status:          models.SessionCompleted,
		Completed:       true,
		CompletedAt:     &done,
		CreatedAt:       at.Add(-2 * time.Hour),
	}
}

func scheduledSession(userID uuid.UUID, at time.Time) *models.StudySession {
	return &models.StudySession{
		ID:              uuid.New(),
		UserID:          userID,
		Subject:         "Math",
		StartTime:       at,
		EndTime:         at.Add(time.Hour),
		DurationMinutes: 60,
		Status:          models.SessionScheduled,
		CreatedAt:       at.Add(-time.Hour),
	}
}

func isForbidden(err error) bool {
	var e *ForbiddenError
	return errors.As(err, &e)
}

func isValidation(err error) bool {
	var e *ValidationError
	return errors.As(err, &e)
}

func isNil(err error) bool {
	return err == nil
}
