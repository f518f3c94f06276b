package services

import (
	"time"

	"studystreak-backend/internal/calendar"
	"studystreak-backend/internal/models"
)

// ScheduleConfig bounds slot proposal.
type ScheduleConfig struct {
	HorizonDays int
	MaxSlots    int
}

func (c ScheduleConfig) withDefaults() ScheduleConfig {
	if c.HorizonDays <= 0 {
		c.HorizonDays = calendar.DefaultHorizonDays
	}
	if c.MaxSlots <= 0 {
		c.MaxSlots = calendar.DefaultSlotLimit
	}
	return c
}

// proposal turns preferences and busy time into a slot request. Windows that
// do not parse fall back to the defaults.
func proposal(prefs models.Preferences, now time.Time, loc *time.Location, busy []calendar.BusyInterval, durationMinutes, days, limit int) calendar.ProposalRequest {
	windows, err := calendar.ParseWindows(prefs.PreferredWindows)
	if err != nil {
		windows = nil
	}
	if durationMinutes <= 0 {
		durationMinutes = prefs.SessionDurationMinutes
	}
	return calendar.ProposalRequest{
		Now:           now,
		Location:      loc,
		Windows:       windows,
		Busy:          busy,
		Duration:      time.Duration(durationMinutes) * time.Minute,
		HorizonDays:   days,
		Limit:         limit,
		PreferredDays: prefs.PreferredDays,
		Weights:       prefs.TimeOfDayWeights,
		Subjects:      prefs.Subjects,
	}
}

// horizon is the [start, end) range slot proposal looks at.
func horizon(now time.Time, loc *time.Location, days int) (time.Time, time.Time) {
	local := now.In(loc)
	y, m, d := local.Date()
	return local, time.Date(y, m, d+days, 0, 0, 0, 0, loc)
}
