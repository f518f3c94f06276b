package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SourceGoogle = "google"
	SourceICal   = "ical"
	SourceNone   = "none"
)

// CalendarEvent is an event from any calendar source, already normalized.
type CalendarEvent struct {
	ID          string    `json:"id,omitempty"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	AllDay      bool      `json:"all_day"`
	Source      string    `json:"source"`
}

// Slot is a proposed study time that fits the user's windows and calendar.
type Slot struct {
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	AvailableUntil  time.Time `json:"available_until"`
	DurationMinutes int       `json:"duration_minutes"`
	ConfidenceScore float64   `json:"confidence_score"`
	Subject         string    `json:"subject,omitempty"`
}

// CalendarStatus reports how calendar data for a request was obtained.
type CalendarStatus struct {
	Sources      []string `json:"sources"`
	Degraded     bool     `json:"degraded"`
	AuthRequired bool     `json:"auth_required"`
	FromCache    []string `json:"from_cache,omitempty"`
	Warnings     []string `json:"warnings,omitempty"`
}

type CalendarCredential struct {
	UserID       uuid.UUID `json:"user_id"`
	Provider     string    `json:"provider"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenType    string    `json:"-"`
	Expiry       time.Time `json:"expiry"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type CalendarAuthRequest struct {
	Type    string `json:"type" validate:"required,oneof=google ical"`
	ICalURL string `json:"ical_url" validate:"required_if=Type ical,omitempty,url"`
}

type CalendarEventsResponse struct {
	Events []CalendarEvent `json:"events"`
	Status CalendarStatus  `json:"status"`
}

type RecommendRequest struct {
	UserID          string      `json:"user_id" validate:"required,uuid"`
	DurationMinutes int         `json:"duration_minutes" validate:"omitempty,min=15,max=720"`
	DaysAhead       int         `json:"days_ahead" validate:"omitempty,min=1,max=30"`
	Limit           int         `json:"limit" validate:"omitempty,min=1,max=50"`
	Preferences     Preferences `json:"preferences"`
}

type RecommendResponse struct {
	Slots  []Slot         `json:"slots"`
	Status CalendarStatus `json:"status"`
}
