package calendar

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"studystreak-backend/internal/models"
)

const (
	DefaultSessionMinutes = 120
	DefaultHorizonDays    = 7
	DefaultSlotLimit      = 10
)

var (
	defaultSubjects      = []string{"General Study", "Math", "Science", "Literature"}
	defaultPreferredDays = []int{1, 2, 3, 4, 5}
	defaultWeights       = map[string]float64{"morning": 0.8, "midday": 0.6, "afternoon": 0.7, "evening": 0.5}
)

// Window is a recurring daily study window, in minutes after midnight.
type Window struct {
	Weekday  time.Weekday
	StartMin int
	EndMin   int
}

// DefaultWindows covers weekday mornings, afternoons and evenings.
func DefaultWindows() []Window {
	var windows []Window
	for d := time.Monday; d <= time.Friday; d++ {
		windows = append(windows,
			Window{Weekday: d, StartMin: 9 * 60, EndMin: 12 * 60},
			Window{Weekday: d, StartMin: 14 * 60, EndMin: 17 * 60},
			Window{Weekday: d, StartMin: 19 * 60, EndMin: 22 * 60},
		)
	}
	return windows
}

// ParseWindows converts stored preference windows. A window whose end is not
// after its start is rejected.
func ParseWindows(prefs []models.PreferredWindow) ([]Window, error) {
	windows := make([]Window, 0, len(prefs))
	for i, p := range prefs {
		if p.Weekday < 0 || p.Weekday > 6 {
			return nil, fmt.Errorf("window %d: weekday %d out of range", i, p.Weekday)
		}
		start, err := parseClock(p.Start)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		end, err := parseClock(p.End)
		if err != nil {
			return nil, fmt.Errorf("window %d: %w", i, err)
		}
		if end <= start {
			return nil, fmt.Errorf("window %d: end %s is not after start %s", i, p.End, p.Start)
		}
		windows = append(windows, Window{Weekday: time.Weekday(p.Weekday), StartMin: start, EndMin: end})
	}
	return windows, nil
}

// parseClock reads "HH:MM". "24:00" is accepted as end of day.
func parseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(s, ":")
	if !ok {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	h, err := strconv.Atoi(hh)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	m, err := strconv.Atoi(mm)
	if err != nil || m < 0 || m > 59 || h < 0 || h > 24 || (h == 24 && m != 0) {
		return 0, fmt.Errorf("invalid time %q", s)
	}
	return h*60 + m, nil
}

// ProposalRequest holds everything slot proposal needs. Zero values fall back
// to defaults.
type ProposalRequest struct {
	Now           time.Time
	Location      *time.Location
	Windows       []Window
	Busy          []BusyInterval
	Duration      time.Duration
	HorizonDays   int
	Limit         int
	PreferredDays []int
	Weights       map[string]float64
	Subjects      []string
}

// ProposeSlots scans the preferred windows of each day in the horizon,
// removes busy time and returns up to Limit slots of Duration, soonest first.
// A slot never overlaps a busy interval and never leaves its window.
func ProposeSlots(req ProposalRequest) []models.Slot {
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	if req.Duration <= 0 {
		req.Duration = DefaultSessionMinutes * time.Minute
	}
	if req.HorizonDays <= 0 {
		req.HorizonDays = DefaultHorizonDays
	}
	if req.Limit <= 0 {
		req.Limit = DefaultSlotLimit
	}
	if len(req.Windows) == 0 {
		req.Windows = DefaultWindows()
	}

	now := req.Now.In(loc)
	busy := Normalize(req.Busy, loc)
	y, m, d := now.Date()

	slots := []models.Slot{}
	for offset := 0; offset < req.HorizonDays && len(slots) < req.Limit; offset++ {
		day := time.Date(y, m, d+offset, 0, 0, 0, 0, loc)
		for _, window := range dayWindows(req.Windows, day, now) {
			for _, piece := range subtract(window, busy) {
				if piece.Duration() < req.Duration {
					continue
				}
				slots = append(slots, models.Slot{
					Start:           piece.Start,
					End:             piece.Start.Add(req.Duration),
					AvailableUntil:  piece.End,
					DurationMinutes: int(req.Duration / time.Minute),
					ConfidenceScore: confidence(piece.Start, req.PreferredDays, req.Weights),
					Subject:         suggestSubject(piece.Start, req.Subjects),
				})
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool { return slots[i].Start.Before(slots[j].Start) })
	if len(slots) > req.Limit {
		slots = slots[:req.Limit]
	}
	return slots
}

// dayWindows materializes the windows for one day, clipped to start no
// earlier than now and merged where they overlap.
func dayWindows(windows []Window, day, now time.Time) []BusyInterval {
	y, m, d := day.Date()
	loc := day.Location()
	var out []BusyInterval
	for _, w := range windows {
		if w.Weekday != day.Weekday() {
			continue
		}
		start := time.Date(y, m, d, 0, w.StartMin, 0, 0, loc)
		end := time.Date(y, m, d, 0, w.EndMin, 0, 0, loc)
		if start.Before(now) {
			start = now
		}
		if end.After(start) {
			out = append(out, BusyInterval{Start: start, End: end})
		}
	}
	return Normalize(out, loc)
}

func confidence(t time.Time, preferredDays []int, weights map[string]float64) float64 {
	if len(preferredDays) == 0 {
		preferredDays = defaultPreferredDays
	}
	score := weight(timeOfDay(t.Hour()), weights)
	for _, d := range preferredDays {
		if time.Weekday(d) == t.Weekday() {
			score += 0.2
			break
		}
	}
	return math.Min(1.0, math.Round(score*100)/100)
}

func timeOfDay(hour int) string {
	switch {
	case hour >= 6 && hour <= 9:
		return "morning"
	case hour >= 10 && hour <= 14:
		return "midday"
	case hour >= 15 && hour <= 18:
		return "afternoon"
	default:
		return "evening"
	}
}

func weight(part string, weights map[string]float64) float64 {
	if w, ok := weights[part]; ok {
		return w
	}
	return defaultWeights[part]
}

// suggestSubject rotates through subjects by weekday, Monday first.
func suggestSubject(t time.Time, subjects []string) string {
	if len(subjects) == 0 {
		subjects = defaultSubjects
	}
	idx := (int(t.Weekday()) + 6) % 7
	return subjects[idx%len(subjects)]
}
