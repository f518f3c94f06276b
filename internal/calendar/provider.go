package calendar

import (
	"context"
	"time"

	"studystreak-backend/internal/models"
)

// CredentialProvider is one source of calendar events for a user.
type CredentialProvider interface {
	Source() string
	Events(ctx context.Context, start, end time.Time) ([]models.CalendarEvent, error)
}

// NoneProvider is used when a user has no calendar connected.
type NoneProvider struct{}

func (NoneProvider) Source() string { return models.SourceNone }

func (NoneProvider) Events(ctx context.Context, start, end time.Time) ([]models.CalendarEvent, error) {
	return nil, nil
}

// inWindow keeps events overlapping [start, end).
func inWindow(events []models.CalendarEvent, start, end time.Time) []models.CalendarEvent {
	out := make([]models.CalendarEvent, 0, len(events))
	for _, ev := range events {
		evEnd := ev.End
		if evEnd.IsZero() || !evEnd.After(ev.Start) {
			evEnd = ev.Start
			if ev.AllDay {
				evEnd = ev.Start.AddDate(0, 0, 1)
			}
		}
		if ev.Start.Before(end) && evEnd.After(start) {
			out = append(out, ev)
		}
	}
	return out
}
