package calendar

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"studystreak-backend/internal/models"
)

type stubProvider struct {
	source string
	events []models.CalendarEvent
	err    error
	delay  time.Duration
}

func (s *stubProvider) Source() string { return s.source }

func (s *stubProvider) Events(ctx context.Context, start, end time.Time) ([]models.CalendarEvent, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.events, s.err
}

type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	v, ok := c.data[key]
	if !ok {
		return nil, errors.New("miss")
	}
	return v, nil
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	c.data[key] = value
	return nil
}

func newTestAdapter(cache Cache, providers ...CredentialProvider) *Adapter {
	a := NewAdapter(nil, nil, cache, AdapterConfig{Timeout: 50 * time.Millisecond})
	a.providersFor = func(ctx context.Context, user *models.User, loc *time.Location) ([]CredentialProvider, []string) {
		return providers, nil
	}
	return a
}

var (
	testUser  = &models.User{ID: uuid.New()}
	weekStart = at(2, 0, 0)
	weekEnd   = at(9, 0, 0)
	lecture   = models.CalendarEvent{Title: "Lecture", Start: at(2, 9, 0), End: at(2, 10, 0)}
)

func TestAdapter_NoSources(t *testing.T) {
	res := newTestAdapter(newMemoryCache()).Fetch(context.Background(), testUser, time.UTC, weekStart, weekEnd)
	if res.Status.Degraded || len(res.Busy) != 0 {
		t.Fatalf("expected clean preference-only result, got %+v", res.Status)
	}
	if len(res.Status.Sources) != 1 || res.Status.Sources[0] != models.SourceNone {
		t.Fatalf("expected source none, got %v", res.Status.Sources)
	}
}

func TestAdapter_SuccessCachesThenFallsBack(t *testing.T) {
	cache := newMemoryCache()
	good := &stubProvider{source: models.SourceGoogle, events: []models.CalendarEvent{lecture}}

	res := newTestAdapter(cache, good).Fetch(context.Background(), testUser, time.UTC, weekStart, weekEnd)
	if res.Status.Degraded || len(res.Busy) != 1 {
		t.Fatalf("expected one busy interval, got %+v", res)
	}

	failing := &stubProvider{source: models.SourceGoogle, err: &AuthError{Source: models.SourceGoogle, Message: "expired"}}
	res = newTestAdapter(cache, failing).Fetch(context.Background(), testUser, time.UTC, weekStart, weekEnd)
	if res.Status.Degraded {
		t.Fatalf("expected cached data to avoid degradation")
	}
	if !res.Status.AuthRequired {
		t.Fatalf("expected auth_required to be reported")
	}
	if len(res.Status.FromCache) != 1 || len(res.Busy) != 1 {
		t.Fatalf("expected cached busy interval, got %+v", res)
	}
	if res.Served != 1 || res.Unavailable() {
		t.Fatalf("expected the cached source to count as served, got %+v", res)
	}
	if res.RequiresReauth() {
		t.Fatalf("expected cached data to avoid a reauth error")
	}
}

func TestAdapter_AuthFailureWithoutCache(t *testing.T) {
	failing := &stubProvider{source: models.SourceGoogle, err: &AuthError{Source: models.SourceGoogle, Message: "expired"}}
	res := newTestAdapter(newMemoryCache(), failing).Fetch(context.Background(), testUser, time.UTC, weekStart, weekEnd)

	if !res.Status.Degraded || !res.Status.AuthRequired {
		t.Fatalf("expected degraded auth failure, got %+v", res.Status)
	}
	if res.Status.Sources[0] != models.SourceNone {
		t.Fatalf("expected preference-only fallback, got %v", res.Status.Sources)
	}
	if !res.RequiresReauth() {
		t.Fatalf("expected reauth for the only configured source")
	}
	if res.AuthSource != models.SourceGoogle {
		t.Fatalf("expected rejected source google, got %q", res.AuthSource)
	}
	if !res.Unavailable() {
		t.Fatalf("expected calendar data to be unavailable")
	}
}

func TestAdapter_PartialFailureKeepsOtherSource(t *testing.T) {
	good := &stubProvider{source: models.SourceICal, events: []models.CalendarEvent{lecture}}
	bad := &stubProvider{source: models.SourceGoogle, err: &AuthError{Source: models.SourceGoogle, Message: "expired"}}

	res := newTestAdapter(newMemoryCache(), bad, good).Fetch(context.Background(), testUser, time.UTC, weekStart, weekEnd)
	if !res.Status.Degraded || len(res.Busy) != 1 {
		t.Fatalf("expected degraded result with ical data, got %+v", res)
	}
	if res.RequiresReauth() {
		t.Fatalf("expected no reauth error while another source works")
	}
	if res.Unavailable() || res.Served != 1 {
		t.Fatalf("expected the ical source to be served, got %+v", res)
	}
	if res.AuthSource != models.SourceGoogle {
		t.Fatalf("expected rejected source google, got %q", res.AuthSource)
	}
	if len(res.Status.Sources) != 1 || res.Status.Sources[0] != models.SourceICal {
		t.Fatalf("expected ical as the only served source, got %v", res.Status.Sources)
	}
}

func TestAdapter_TimeoutIsBounded(t *testing.T) {
	slow := &stubProvider{source: models.SourceICal, delay: time.Second}

	begin := time.Now()
	res := newTestAdapter(newMemoryCache(), slow).Fetch(context.Background(), testUser, time.UTC, weekStart, weekEnd)
	if elapsed := time.Since(begin); elapsed > 500*time.Millisecond {
		t.Fatalf("expected fetch to return near the timeout, took %v", elapsed)
	}
	if !res.Status.Degraded || res.Status.AuthRequired {
		t.Fatalf("expected degraded non-auth status, got %+v", res.Status)
	}
}

func TestAdapter_CacheWindowMustOverlap(t *testing.T) {
	cache := newMemoryCache()
	good := &stubProvider{source: models.SourceICal, events: []models.CalendarEvent{lecture}}
	newTestAdapter(cache, good).Fetch(context.Background(), testUser, time.UTC, weekStart, weekEnd)

	bad := &stubProvider{source: models.SourceICal, err: errors.New("boom")}
	res := newTestAdapter(cache, bad).Fetch(context.Background(), testUser, time.UTC, at(20, 0, 0), at(27, 0, 0))
	if len(res.Status.FromCache) != 0 || !res.Status.Degraded {
		t.Fatalf("expected a snapshot of another window to be ignored, got %+v", res.Status)
	}
}
