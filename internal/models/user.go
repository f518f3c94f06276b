package models

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Preferences  Preferences `json:"preferences"`
	CreatedAt    time.Time   `json:"created_at"`
}

// Location resolves the user's timezone, falling back when unset or unknown.
func (u *User) Location(fallback *time.Location) *time.Location {
	if u.Preferences.Timezone == "" {
		return fallback
	}
	loc, err := time.LoadLocation(u.Preferences.Timezone)
	if err != nil {
		return fallback
	}
	return loc
}

// PreferredWindow is a recurring weekly study window. Weekday follows
// time.Weekday (0 = Sunday); Start and End are "HH:MM" wall-clock times.
type PreferredWindow struct {
	Weekday int    `json:"weekday" validate:"min=0,max=6"`
	Start   string `json:"start" validate:"required"`
	End     string `json:"end" validate:"required"`
}

type Preferences struct {
	PreferredWindows       []PreferredWindow  `json:"preferred_windows,omitempty" validate:"omitempty,dive"`
	SessionDurationMinutes int                `json:"session_duration_minutes,omitempty" validate:"omitempty,min=15,max=720"`
	PreferredStudyHours    []int              `json:"preferred_study_hours,omitempty" validate:"omitempty,dive,min=0,max=23"`
	PreferredDays          []int              `json:"preferred_days,omitempty" validate:"omitempty,dive,min=0,max=6"`
	TimeOfDayWeights       map[string]float64 `json:"time_of_day_weights,omitempty"`
	Subjects               []string           `json:"subjects,omitempty"`
	ICalURLs               []string           `json:"ical_urls,omitempty" validate:"omitempty,dive,url"`
	Timezone               string             `json:"timezone,omitempty" validate:"omitempty,timezone"`
}

// Merge returns p with every field that is set in override replaced.
func (p Preferences) Merge(override Preferences) Preferences {
	merged := p
	if len(override.PreferredWindows) > 0 {
		merged.PreferredWindows = override.PreferredWindows
	}
	if override.SessionDurationMinutes > 0 {
		merged.SessionDurationMinutes = override.SessionDurationMinutes
	}
	if len(override.PreferredStudyHours) > 0 {
		merged.PreferredStudyHours = override.PreferredStudyHours
	}
	if len(override.PreferredDays) > 0 {
		merged.PreferredDays = override.PreferredDays
	}
	if len(override.TimeOfDayWeights) > 0 {
		merged.TimeOfDayWeights = override.TimeOfDayWeights
	}
	if len(override.Subjects) > 0 {
		merged.Subjects = override.Subjects
	}
	if len(override.ICalURLs) > 0 {
		merged.ICalURLs = override.ICalURLs
	}
	if override.Timezone != "" {
		merged.Timezone = override.Timezone
	}
	return merged
}

type CreateUserRequest struct {
	Username    string      `json:"username" validate:"required,min=3,max=32"`
	Email       string      `json:"email" validate:"required,email"`
	Password    string      `json:"password" validate:"required,min=8,max=128"`
	Preferences Preferences `json:"preferences"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// PublicProfile is what other users see.
type PublicProfile struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) Public() PublicProfile {
	return PublicProfile{ID: u.ID, Username: u.Username, CreatedAt: u.CreatedAt}
}
