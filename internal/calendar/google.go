package calendar

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"studystreak-backend/internal/models"
)

// CredentialStore persists OAuth tokens per user. Find returns nil, nil when
// the user has no stored credential.
type CredentialStore interface {
	FindCalendarCredential(ctx context.Context, userID uuid.UUID) (*models.CalendarCredential, error)
	UpsertCalendarCredential(ctx context.Context, cred *models.CalendarCredential) error
}

// GoogleOAuth holds the client configuration for the Google Calendar consent flow.
type GoogleOAuth struct {
	config   *oauth2.Config
	endpoint string
}

func NewGoogleOAuth(clientID, clientSecret, redirectURL string) *GoogleOAuth {
	return &GoogleOAuth{
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURL,
			Scopes:       []string{gcal.CalendarEventsScope},
			Endpoint:     google.Endpoint,
		},
	}
}

// AuthURL asks for offline access so a refresh token is issued.
func (g *GoogleOAuth) AuthURL(state string) string {
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

func (g *GoogleOAuth) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return nil, classifyGoogleError(err)
	}
	return token, nil
}

// CredentialFromToken builds the stored form of an OAuth token.
func CredentialFromToken(userID uuid.UUID, token *oauth2.Token) *models.CalendarCredential {
	return &models.CalendarCredential{
		UserID:       userID,
		Provider:     models.SourceGoogle,
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		TokenType:    token.TokenType,
		Expiry:       token.Expiry,
	}
}

func tokenFromCredential(cred *models.CalendarCredential) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    cred.TokenType,
		Expiry:       cred.Expiry,
	}
}

// GoogleProvider reads the user's primary Google calendar.
type GoogleProvider struct {
	oauth    *GoogleOAuth
	cred     *models.CalendarCredential
	store    CredentialStore
	location *time.Location
}

func (g *GoogleOAuth) Provider(cred *models.CalendarCredential, store CredentialStore, loc *time.Location) *GoogleProvider {
	return &GoogleProvider{oauth: g, cred: cred, store: store, location: loc}
}

func (p *GoogleProvider) Source() string { return models.SourceGoogle }

func (p *GoogleProvider) service(ctx context.Context) (*gcal.Service, error) {
	base := p.oauth.config.TokenSource(ctx, tokenFromCredential(p.cred))
	ts := oauth2.ReuseTokenSource(nil, &persistingTokenSource{
		ctx:   ctx,
		base:  base,
		cred:  p.cred,
		store: p.store,
	})
	opts := []option.ClientOption{option.WithTokenSource(ts)}
	if p.oauth.endpoint != "" {
		opts = append(opts, option.WithEndpoint(p.oauth.endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, &ExternalServiceError{Source: models.SourceGoogle, Err: err}
	}
	return svc, nil
}

func (p *GoogleProvider) Events(ctx context.Context, start, end time.Time) ([]models.CalendarEvent, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return nil, err
	}

	var events []models.CalendarEvent
	call := svc.Events.List("primary").
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(250)

	err = call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			if ev, ok := p.convert(item); ok {
				events = append(events, ev)
			}
		}
		return nil
	})
	if err != nil {
		return nil, classifyGoogleError(err)
	}
	return events, nil
}

func (p *GoogleProvider) convert(item *gcal.Event) (models.CalendarEvent, bool) {
	if item.Status == "cancelled" || item.Transparency == "transparent" || item.Start == nil {
		return models.CalendarEvent{}, false
	}
	ev := models.CalendarEvent{
		ID:          item.Id,
		Title:       item.Summary,
		Description: item.Description,
		Source:      models.SourceGoogle,
	}

	if item.Start.DateTime == "" {
		start, err := time.ParseInLocation("2006-01-02", item.Start.Date, p.location)
		if err != nil {
			return ev, false
		}
		ev.Start, ev.AllDay = start, true
		ev.End = start.AddDate(0, 0, 1)
		if item.End != nil && item.End.Date != "" {
			if end, err := time.ParseInLocation("2006-01-02", item.End.Date, p.location); err == nil {
				ev.End = end
			}
		}
		return ev, true
	}

	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return ev, false
	}
	ev.Start, ev.End = start, start
	if item.End != nil {
		if end, err := time.Parse(time.RFC3339, item.End.DateTime); err == nil {
			ev.End = end
		}
	}
	return ev, true
}

// CreateEvent adds a study session to the primary calendar and returns the
// event id.
func (p *GoogleProvider) CreateEvent(ctx context.Context, session *models.StudySession) (string, error) {
	svc, err := p.service(ctx)
	if err != nil {
		return "", err
	}

	zone := p.location.String()
	event := &gcal.Event{
		Summary:     session.Title,
		Description: session.Description,
		Location:    session.Location,
		Start:       &gcal.EventDateTime{DateTime: session.StartTime.In(p.location).Format(time.RFC3339), TimeZone: zone},
		End:         &gcal.EventDateTime{DateTime: session.EndTime.In(p.location).Format(time.RFC3339), TimeZone: zone},
		ColorId:     "2",
		Reminders: &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60},
				{Method: "popup", Minutes: 30},
			},
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := svc.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return "", classifyGoogleError(err)
	}
	return created.Id, nil
}

// persistingTokenSource stores refreshed tokens so the next request starts
// from the new access token.
type persistingTokenSource struct {
	ctx   context.Context
	base  oauth2.TokenSource
	cred  *models.CalendarCredential
	store CredentialStore
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.base.Token()
	if err != nil {
		return nil, err
	}
	if token.AccessToken != s.cred.AccessToken && s.store != nil {
		updated := CredentialFromToken(s.cred.UserID, token)
		if updated.RefreshToken == "" {
			updated.RefreshToken = s.cred.RefreshToken
		}
		if err := s.store.UpsertCalendarCredential(s.ctx, updated); err != nil {
			log.Printf("calendar: failed to persist refreshed token for user %s: %v", s.cred.UserID, err)
		} else {
			*s.cred = *updated
		}
	}
	return token, nil
}

func classifyGoogleError(err error) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return &AuthError{Source: models.SourceGoogle, Message: "Google Calendar authorization expired. Please reconnect your calendar."}
	}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
		return &AuthError{Source: models.SourceGoogle, Message: "Google Calendar rejected the stored credentials. Please reconnect your calendar."}
	}
	if errors.As(err, &apiErr) {
		return &ExternalServiceError{Source: models.SourceGoogle, Err: fmt.Errorf("google api status %d", apiErr.Code)}
	}
	return &ExternalServiceError{Source: models.SourceGoogle, Err: err}
}
