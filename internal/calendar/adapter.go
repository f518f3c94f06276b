package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"studystreak-backend/internal/models"
)

// Cache stores calendar snapshots. Get returns an error for any miss.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

type AdapterConfig struct {
	Timeout  time.Duration
	CacheTTL time.Duration
	// AllowPrivateFeeds lets iCal feeds resolve to loopback or private
	// addresses. Off outside local development.
	AllowPrivateFeeds bool
}

// Adapter combines a user's calendar sources into one view, falling back to
// cached data per source and finally to preference-only scheduling.
type Adapter struct {
	google   *GoogleOAuth
	creds    CredentialStore
	cache    Cache
	client   *http.Client
	timeout  time.Duration
	cacheTTL time.Duration

	// providersFor replaces the provider chain in tests.
	providersFor func(ctx context.Context, user *models.User, loc *time.Location) ([]CredentialProvider, []string)
}

// NewAdapter builds an adapter. google may be nil when Google Calendar is
// not configured.
func NewAdapter(google *GoogleOAuth, creds CredentialStore, cache Cache, cfg AdapterConfig) *Adapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	return &Adapter{
		google:   google,
		creds:    creds,
		cache:    cache,
		client:   NewFeedClient(cfg.Timeout, cfg.AllowPrivateFeeds),
		timeout:  cfg.Timeout,
		cacheTTL: cfg.CacheTTL,
	}
}

// Result is the merged calendar view for one window.
type Result struct {
	Events []models.CalendarEvent
	Busy   []BusyInterval
	Status models.CalendarStatus

	Configured int
	Failed     int
	// Served counts sources that contributed events, live or cached.
	Served int
	// AuthSource names the source whose credentials were rejected.
	AuthSource string
}

// RequiresReauth is true when the only configured source rejected the
// stored credentials and nothing could be served in its place.
func (r Result) RequiresReauth() bool {
	return r.Configured == 1 && r.Failed == 1 && r.Status.AuthRequired && len(r.Status.FromCache) == 0
}

// Unavailable is true when calendar sources were expected but none of them
// produced data, so busy time is unknown.
func (r Result) Unavailable() bool {
	return r.Served == 0 && r.Status.Degraded
}

type snapshot struct {
	Start  time.Time              `json:"start"`
	End    time.Time              `json:"end"`
	Events []models.CalendarEvent `json:"events"`
}

func cacheKey(user *models.User, source string) string {
	return fmt.Sprintf("calendar:%s:%s", user.ID, source)
}

// Providers returns the configured sources for the user. Warnings describe
// sources that could not be set up.
func (a *Adapter) Providers(ctx context.Context, user *models.User, loc *time.Location) ([]CredentialProvider, []string) {
	if a.providersFor != nil {
		return a.providersFor(ctx, user, loc)
	}

	var providers []CredentialProvider
	var warnings []string

	if a.google != nil && a.creds != nil {
		cred, err := a.creds.FindCalendarCredential(ctx, user.ID)
		switch {
		case err != nil:
			log.Printf("calendar: loading credentials for user %s: %v", user.ID, err)
			warnings = append(warnings, "google calendar credentials could not be loaded")
		case cred != nil:
			providers = append(providers, a.google.Provider(cred, a.creds, loc))
		}
	}
	if len(user.Preferences.ICalURLs) > 0 {
		providers = append(providers, NewICalURLProvider(user.Preferences.ICalURLs, a.client, loc))
	}
	return providers, warnings
}

// Fetch reads every configured source for [start, end). It never fails: a
// source that errors is served from cache when possible and dropped
// otherwise, and the status says what happened.
func (a *Adapter) Fetch(ctx context.Context, user *models.User, loc *time.Location, start, end time.Time) Result {
	providers, warnings := a.Providers(ctx, user, loc)
	res := Result{
		Events:     []models.CalendarEvent{},
		Status:     models.CalendarStatus{Sources: []string{}, Warnings: warnings},
		Configured: len(providers),
	}
	if len(warnings) > 0 {
		res.Status.Degraded = true
	}

	for _, p := range providers {
		events, err := a.fetchOne(ctx, p, start, end)
		if err == nil {
			res.Events = append(res.Events, events...)
			res.Status.Sources = append(res.Status.Sources, p.Source())
			res.Served++
			a.store(ctx, user, p.Source(), start, end, events)
			continue
		}

		res.Failed++
		log.Printf("calendar: source %s failed for user %s: %v", p.Source(), user.ID, err)

		var authErr *AuthError
		if errors.As(err, &authErr) {
			res.Status.AuthRequired = true
			res.AuthSource = p.Source()
			res.Status.Warnings = append(res.Status.Warnings, authErr.Message)
		} else {
			res.Status.Warnings = append(res.Status.Warnings, fmt.Sprintf("%s calendar is unavailable", p.Source()))
		}

		if cached, ok := a.load(ctx, user, p.Source(), start, end); ok {
			res.Events = append(res.Events, cached...)
			res.Status.Sources = append(res.Status.Sources, p.Source())
			res.Status.FromCache = append(res.Status.FromCache, p.Source())
			res.Served++
			continue
		}
		res.Status.Degraded = true
	}

	if len(res.Status.Sources) == 0 {
		res.Status.Sources = []string{models.SourceNone}
	}
	res.Busy = FromEvents(res.Events, loc)
	return res
}

// BusyIntervals is Fetch reduced to merged busy time.
func (a *Adapter) BusyIntervals(ctx context.Context, user *models.User, loc *time.Location, start, end time.Time) ([]BusyInterval, models.CalendarStatus) {
	res := a.Fetch(ctx, user, loc, start, end)
	return res.Busy, res.Status
}

// ValidateICalURL fetches and parses a feed under the adapter timeout.
func (a *Adapter) ValidateICalURL(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	_, err := FetchICal(ctx, a.client, url)
	return err
}

// EventCreator adds study sessions to a user's calendar.
type EventCreator interface {
	CreateEvent(ctx context.Context, session *models.StudySession) (string, error)
}

// EventCreator returns the user's Google provider, or nil when the user has
// not connected Google Calendar.
func (a *Adapter) EventCreator(ctx context.Context, user *models.User, loc *time.Location) (EventCreator, error) {
	if a.google == nil || a.creds == nil {
		return nil, nil
	}
	cred, err := a.creds.FindCalendarCredential(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if cred == nil {
		return nil, nil
	}
	return a.google.Provider(cred, a.creds, loc), nil
}

func (a *Adapter) fetchOne(ctx context.Context, p CredentialProvider, start, end time.Time) ([]models.CalendarEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	events, err := p.Events(ctx, start, end)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, &ExternalServiceError{Source: p.Source(), Err: fmt.Errorf("timed out after %s", a.timeout)}
		}
		return nil, err
	}
	return events, nil
}

func (a *Adapter) store(ctx context.Context, user *models.User, source string, start, end time.Time, events []models.CalendarEvent) {
	if a.cache == nil {
		return
	}
	data, err := json.Marshal(snapshot{Start: start, End: end, Events: events})
	if err != nil {
		return
	}
	if err := a.cache.Set(ctx, cacheKey(user, source), data, a.cacheTTL); err != nil {
		log.Printf("calendar: caching %s events for user %s: %v", source, user.ID, err)
	}
}

func (a *Adapter) load(ctx context.Context, user *models.User, source string, start, end time.Time) ([]models.CalendarEvent, bool) {
	if a.cache == nil {
		return nil, false
	}
	data, err := a.cache.Get(ctx, cacheKey(user, source))
	if err != nil {
		return nil, false
	}
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, false
	}
	// The snapshot only vouches for the window it was taken over.
	if !snap.Start.Before(end) || !snap.End.After(start) {
		return nil, false
	}
	return inWindow(snap.Events, start, end), true
}
