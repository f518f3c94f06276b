package calendar

import (
	"sort"
	"time"

	"studystreak-backend/internal/models"
)

// BusyInterval is a half-open range [Start, End) during which the user is
// unavailable.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the two half-open intervals share any instant.
func (b BusyInterval) Overlaps(o BusyInterval) bool {
	return b.Start.Before(o.End) && o.Start.Before(b.End)
}

func (b BusyInterval) Duration() time.Duration {
	return b.End.Sub(b.Start)
}

// Normalize drops empty intervals, converts to loc, sorts by start and merges
// intervals that overlap or touch.
func Normalize(intervals []BusyInterval, loc *time.Location) []BusyInterval {
	out := make([]BusyInterval, 0, len(intervals))
	for _, iv := range intervals {
		if !iv.End.After(iv.Start) {
			continue
		}
		out = append(out, BusyInterval{Start: iv.Start.In(loc), End: iv.End.In(loc)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })

	merged := out[:0]
	for _, iv := range out {
		if n := len(merged); n > 0 && !iv.Start.After(merged[n-1].End) {
			if iv.End.After(merged[n-1].End) {
				merged[n-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	return merged
}

// FromEvents converts events into busy intervals in loc. All-day events
// cover whole calendar days in loc.
func FromEvents(events []models.CalendarEvent, loc *time.Location) []BusyInterval {
	intervals := make([]BusyInterval, 0, len(events))
	for _, ev := range events {
		if ev.AllDay {
			intervals = append(intervals, allDay(ev.Start, ev.End, loc))
			continue
		}
		intervals = append(intervals, BusyInterval{Start: ev.Start, End: ev.End})
	}
	return Normalize(intervals, loc)
}

// allDay spans from the start day's midnight to the midnight after the last
// day. The end of an all-day event is exclusive, as in iCal and Google.
func allDay(start, end time.Time, loc *time.Location) BusyInterval {
	sy, sm, sd := start.Date()
	from := time.Date(sy, sm, sd, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 0, 1)
	if !end.IsZero() {
		ey, em, ed := end.Date()
		if e := time.Date(ey, em, ed, 0, 0, 0, 0, loc); e.After(from) {
			to = e
		}
	}
	return BusyInterval{Start: from, End: to}
}

// subtract removes the (sorted, merged) busy intervals from window.
func subtract(window BusyInterval, busy []BusyInterval) []BusyInterval {
	free := []BusyInterval{}
	cursor := window.Start
	for _, b := range busy {
		if !b.End.After(cursor) {
			continue
		}
		if !b.Start.Before(window.End) {
			break
		}
		if b.Start.After(cursor) {
			free = append(free, BusyInterval{Start: cursor, End: b.Start})
		}
		cursor = b.End
		if !cursor.Before(window.End) {
			return free
		}
	}
	if cursor.Before(window.End) {
		free = append(free, BusyInterval{Start: cursor, End: window.End})
	}
	return free
}
