package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	SessionScheduled = "scheduled"
	SessionCompleted = "completed"
	SessionCancelled = "cancelled"
)

type StudySession struct {
	ID              uuid.UUID  `json:"id"`
	UserID          uuid.UUID  `json:"user_id"`
	GroupID         *uuid.UUID `json:"group_id,omitempty"`
	Title           string     `json:"title"`
	Subject         string     `json:"subject"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	Notes           string     `json:"notes"`
	StartTime       time.Time  `json:"start_time"`
	EndTime         time.Time  `json:"end_time"`
	DurationMinutes int        `json:"duration_minutes"`
	Status          string     `json:"status"`
	Completed       bool       `json:"completed"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
	CalendarEventID *string    `json:"calendar_event_id,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

type CreateStudySessionRequest struct {
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"required,gtfield=StartTime"`
	Subject         string    `json:"subject" validate:"required,max=100"`
	Title           string    `json:"title" validate:"max=200"`
	Description     string    `json:"description" validate:"max=2000"`
	DurationMinutes int       `json:"duration_minutes" validate:"omitempty,min=1,max=1440"`
	Location        string    `json:"location" validate:"max=200"`
	Notes           string    `json:"notes" validate:"max=2000"`
	GroupID         string    `json:"group_id" validate:"omitempty,uuid"`
	AddToCalendar   bool      `json:"add_to_calendar"`
}

type SuggestSessionsRequest struct {
	WorkDescription string `json:"work_description" validate:"required,max=2000"`
}

// StudySuggestion is a proposed session derived from a description of work.
type StudySuggestion struct {
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMinutes int       `json:"duration_minutes"`
	Subject         string    `json:"subject"`
	Type            string    `json:"type"`
	ConfidenceScore float64   `json:"confidence_score"`
}
