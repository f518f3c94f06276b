package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"studystreak-backend/internal/calendar"
	"studystreak-backend/internal/models"
)

const (
	oauthStateTTL     = 10 * time.Minute
	maxEventRangeDays = 92
)

// OAuthFlow is the Google consent round trip.
type OAuthFlow interface {
	AuthURL(state string) string
	Exchange(ctx context.Context, code string) (*oauth2.Token, error)
}

// CredentialWriter persists Google tokens.
type CredentialWriter interface {
	UpsertCalendarCredential(ctx context.Context, c *models.CalendarCredential) error
	Delete(ctx context.Context, userID uuid.UUID) error
}

type CalendarService struct {
	users      UserStore
	state      KeyValueStore
	calendar   CalendarSource
	oauth      OAuthFlow
	creds      CredentialWriter
	schedule   ScheduleConfig
	defaultLoc *time.Location
	now        func() time.Time
}

// NewCalendarService wires the calendar endpoints. oauth may be nil when
// Google Calendar is not configured.
func NewCalendarService(
	users UserStore,
	state KeyValueStore,
	cal CalendarSource,
	oauth OAuthFlow,
	creds CredentialWriter,
	schedule ScheduleConfig,
	defaultLoc *time.Location,
) *CalendarService {
	return &CalendarService{
		users:      users,
		state:      state,
		calendar:   cal,
		oauth:      oauth,
		creds:      creds,
		schedule:   schedule.withDefaults(),
		defaultLoc: defaultLoc,
		now:        time.Now,
	}
}

func stateKey(state string) string { return "calendar_state:" + state }

// AuthenticateResult tells the client what to do next.
type AuthenticateResult struct {
	Type    string `json:"type"`
	AuthURL string `json:"auth_url,omitempty"`
	ICalURL string `json:"ical_url,omitempty"`
}

// Authenticate starts a Google consent flow or connects an iCal feed.
func (s *CalendarService) Authenticate(ctx context.Context, userID uuid.UUID, req models.CalendarAuthRequest) (*AuthenticateResult, error) {
	switch req.Type {
	case models.SourceGoogle:
		if s.oauth == nil {
			return nil, &ValidationError{Fields: map[string]string{"type": "Google Calendar is not configured on this server"}}
		}
		state, err := generateToken(24)
		if err != nil {
			return nil, err
		}
		if err := s.state.Set(ctx, stateKey(state), []byte(userID.String()), oauthStateTTL); err != nil {
			return nil, fmt.Errorf("failed to store oauth state: %w", err)
		}
		return &AuthenticateResult{Type: req.Type, AuthURL: s.oauth.AuthURL(state)}, nil

	case models.SourceICal:
		if req.ICalURL == "" {
			return nil, &ValidationError{Fields: map[string]string{"ical_url": "This field is required"}}
		}
		if err := s.calendar.ValidateICalURL(ctx, req.ICalURL); err != nil {
			log.Printf("calendar: iCal feed for user %s rejected: %v", userID, err)
			return nil, &ValidationError{Fields: map[string]string{"ical_url": "Calendar feed could not be fetched or parsed"}}
		}
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return nil, notFound(err, "User not found")
		}
		prefs := user.Preferences
		if !containsString(prefs.ICalURLs, req.ICalURL) {
			prefs.ICalURLs = append(prefs.ICalURLs, req.ICalURL)
			if err := s.users.UpdatePreferences(ctx, userID, prefs); err != nil {
				return nil, notFound(err, "User not found")
			}
		}
		return &AuthenticateResult{Type: req.Type, ICalURL: req.ICalURL}, nil
	}
	return nil, &ValidationError{Fields: map[string]string{"type": "Must be google or ical"}}
}

// Callback finishes the Google consent flow started by Authenticate.
func (s *CalendarService) Callback(ctx context.Context, state, code string) error {
	if s.oauth == nil {
		return &NotFoundError{Message: "Google Calendar is not configured"}
	}
	if state == "" || code == "" {
		return &ValidationError{Fields: map[string]string{"state": "state and code are required"}}
	}
	raw, err := s.state.Take(ctx, stateKey(state))
	if err != nil {
		return &UnauthorizedError{Message: "Calendar authorization expired. Please try again."}
	}
	userID, err := uuid.Parse(string(raw))
	if err != nil {
		return fmt.Errorf("invalid user ID in oauth state: %w", err)
	}
	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return err
	}
	return s.creds.UpsertCalendarCredential(ctx, calendar.CredentialFromToken(userID, token))
}

func (s *CalendarService) Disconnect(ctx context.Context, userID uuid.UUID) error {
	err := s.creds.Delete(ctx, userID)
	return notFound(err, "No calendar is connected")
}

// Events lists the user's calendar events in [start, end). It fails with an
// AuthError only when the single configured source rejected the stored
// credentials and nothing could stand in for it.
func (s *CalendarService) Events(ctx context.Context, actorID, userID uuid.UUID, start, end time.Time) (*models.CalendarEventsResponse, error) {
	if actorID != userID {
		return nil, &ForbiddenError{Message: "You can only view your own calendar"}
	}
	if !end.After(start) {
		return nil, &ValidationError{Fields: map[string]string{"end_date": "End date must be after start date"}}
	}
	if end.Sub(start) > maxEventRangeDays*24*time.Hour {
		return nil, &ValidationError{Fields: map[string]string{"end_date": fmt.Sprintf("Range must not exceed %d days", maxEventRangeDays)}}
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}

	res := s.calendar.Fetch(ctx, user, user.Location(s.defaultLoc), start, end)
	if res.RequiresReauth() {
		return nil, &calendar.AuthError{Source: res.AuthSource, Message: "Calendar credentials were rejected. Please reconnect your calendar."}
	}
	return &models.CalendarEventsResponse{Events: res.Events, Status: res.Status}, nil
}

// Recommend proposes open slots. Calendar failures degrade the status and
// never fail the call.
func (s *CalendarService) Recommend(ctx context.Context, actorID uuid.UUID, req models.RecommendRequest) (*models.RecommendResponse, error) {
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		return nil, &ValidationError{Fields: map[string]string{"user_id": "Invalid user ID"}}
	}
	if actorID != userID {
		return nil, &ForbiddenError{Message: "You can only schedule for yourself"}
	}
	if err := ValidatePreferences(req.Preferences); err != nil {
		return nil, &ValidationError{Fields: map[string]string{"preferences": err.Error()}}
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, notFound(err, "User not found")
	}

	prefs := user.Preferences.Merge(req.Preferences)
	merged := *user
	merged.Preferences = prefs
	loc := merged.Location(s.defaultLoc)

	days := req.DaysAhead
	if days <= 0 {
		days = s.schedule.HorizonDays
	}
	limit := req.Limit
	if limit <= 0 || limit > s.schedule.MaxSlots {
		limit = s.schedule.MaxSlots
	}

	now := s.now()
	start, end := horizon(now, loc, days)
	res := s.calendar.Fetch(ctx, &merged, loc, start, end)
	slots := calendar.ProposeSlots(proposal(prefs, now, loc, res.Busy, req.DurationMinutes, days, limit))
	return &models.RecommendResponse{Slots: slots, Status: res.Status}, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
