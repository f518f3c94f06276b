package calendar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"studystreak-backend/internal/models"
)

const maxICalBytes = 5 << 20

// maxOccurrences bounds how many instances one recurring event may add to a
// single window.
const maxOccurrences = 500

const (
	icalUTCFormat   = "20060102T150405Z"
	icalLocalFormat = "20060102T150405"
	icalDateFormat  = "20060102"
)

const (
	propDuration = ics.ComponentProperty("DURATION")
	propRRule    = ics.ComponentProperty("RRULE")
	propExDate   = "EXDATE"
)

// ICalURLProvider reads events from published iCal feeds.
type ICalURLProvider struct {
	urls     []string
	client   *http.Client
	location *time.Location
}

func NewICalURLProvider(urls []string, client *http.Client, loc *time.Location) *ICalURLProvider {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &ICalURLProvider{urls: urls, client: client, location: loc}
}

func (p *ICalURLProvider) Source() string { return models.SourceICal }

// Events fetches every feed. Any failing feed fails the source.
func (p *ICalURLProvider) Events(ctx context.Context, start, end time.Time) ([]models.CalendarEvent, error) {
	all := []models.CalendarEvent{}
	for _, u := range p.urls {
		cal, err := FetchICal(ctx, p.client, u)
		if err != nil {
			return nil, err
		}
		all = append(all, EventsBetween(cal, p.location, start, end)...)
	}
	return all, nil
}

// FetchICal downloads and parses one feed.
func FetchICal(ctx context.Context, client *http.Client, rawURL string) (*ics.Calendar, error) {
	u, err := parseFeedURL(rawURL)
	if err != nil {
		return nil, &ExternalServiceError{Source: models.SourceICal, Err: fmt.Errorf("invalid url: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &ExternalServiceError{Source: models.SourceICal, Err: fmt.Errorf("invalid url: %w", err)}
	}
	req.Header.Set("Accept", "text/calendar")

	resp, err := client.Do(req)
	if err != nil {
		return nil, &ExternalServiceError{Source: models.SourceICal, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &ExternalServiceError{Source: models.SourceICal, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	cal, err := ics.ParseCalendar(io.LimitReader(resp.Body, maxICalBytes))
	if err != nil {
		return nil, &ExternalServiceError{Source: models.SourceICal, Err: fmt.Errorf("unparseable calendar: %w", err)}
	}
	return cal, nil
}

// ParseEvents converts VEVENTs as written, without expanding recurrences.
// Floating times are read in loc; events without a usable DTSTART are
// skipped.
func ParseEvents(cal *ics.Calendar, loc *time.Location) []models.CalendarEvent {
	if loc == nil {
		loc = time.UTC
	}
	var events []models.CalendarEvent
	for _, ev := range cal.Events() {
		if event, ok := parseEvent(ev, loc); ok {
			events = append(events, event)
		}
	}
	return events
}

// EventsBetween returns the events overlapping [start, end), with RRULE
// recurrences expanded into their occurrences and EXDATEs removed. An
// unreadable RRULE leaves only the first occurrence.
func EventsBetween(cal *ics.Calendar, loc *time.Location, start, end time.Time) []models.CalendarEvent {
	if loc == nil {
		loc = time.UTC
	}
	var events []models.CalendarEvent
	for _, ev := range cal.Events() {
		base, ok := parseEvent(ev, loc)
		if !ok {
			continue
		}
		rule := ev.GetProperty(propRRule)
		if rule == nil {
			events = append(events, base)
			continue
		}
		occurrences, err := expand(base, rule.Value, exDates(ev, loc), start, end)
		if err != nil {
			events = append(events, base)
			continue
		}
		events = append(events, occurrences...)
	}
	return inWindow(events, start, end)
}

func parseEvent(ev *ics.VEvent, loc *time.Location) (models.CalendarEvent, bool) {
	start, allDay, err := propTime(ev.GetProperty(ics.ComponentPropertyDtStart), loc)
	if err != nil {
		return models.CalendarEvent{}, false
	}
	end, _, err := propTime(ev.GetProperty(ics.ComponentPropertyDtEnd), loc)
	if err != nil {
		end = eventEnd(ev, start, allDay)
	}
	return models.CalendarEvent{
		ID:          ev.Id(),
		Title:       propValue(ev.GetProperty(ics.ComponentPropertySummary)),
		Description: propValue(ev.GetProperty(ics.ComponentPropertyDescription)),
		Start:       start,
		End:         end,
		AllDay:      allDay,
		Source:      models.SourceICal,
	}, true
}

// eventEnd applies DURATION when DTEND is absent. Without either, an
// all-day event lasts one day and a timed event is an instant.
func eventEnd(ev *ics.VEvent, start time.Time, allDay bool) time.Time {
	if p := ev.GetProperty(propDuration); p != nil {
		if d, err := parseDuration(p.Value); err == nil {
			return d.after(start)
		}
	}
	if allDay {
		return start.AddDate(0, 0, 1)
	}
	return start
}

// expand lists the occurrences of base overlapping [start, end).
func expand(base models.CalendarEvent, ruleValue string, excluded []time.Time, start, end time.Time) ([]models.CalendarEvent, error) {
	opt, err := rrule.StrToROption(ruleValue)
	if err != nil {
		return nil, err
	}
	opt.Dtstart = base.Start
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, err
	}
	set := rrule.Set{}
	set.RRule(r)
	for _, t := range excluded {
		set.ExDate(t)
	}

	length := base.End.Sub(base.Start)
	times := set.Between(start.Add(-length), end, true)
	if len(times) > maxOccurrences {
		times = times[:maxOccurrences]
	}

	out := make([]models.CalendarEvent, 0, len(times))
	for _, t := range times {
		occ := base
		occ.Start = t.In(base.Start.Location())
		if base.AllDay {
			occ.End = occ.Start.AddDate(0, 0, int(length.Round(24*time.Hour)/(24*time.Hour)))
		} else {
			occ.End = occ.Start.Add(length)
		}
		if !t.Equal(base.Start) {
			occ.ID = base.ID + "@" + t.UTC().Format(icalUTCFormat)
		}
		out = append(out, occ)
	}
	return out, nil
}

func exDates(ev *ics.VEvent, loc *time.Location) []time.Time {
	var out []time.Time
	for i := range ev.Properties {
		p := &ev.Properties[i]
		if p.IANAToken != propExDate {
			continue
		}
		for _, v := range strings.Split(p.Value, ",") {
			if t, _, err := parseICalTime(v, p.ICalParameters, loc); err == nil {
				out = append(out, t)
			}
		}
	}
	return out
}

func propValue(p *ics.IANAProperty) string {
	if p == nil {
		return ""
	}
	return p.Value
}

func propTime(p *ics.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	if p == nil {
		return time.Time{}, false, errors.New("missing property")
	}
	return parseICalTime(p.Value, p.ICalParameters, loc)
}

func parseICalTime(raw string, params map[string][]string, loc *time.Location) (time.Time, bool, error) {
	val := strings.TrimSpace(raw)

	propLoc := loc
	if tzid, ok := params[string(ics.ParameterTzid)]; ok && len(tzid) > 0 {
		if l, err := time.LoadLocation(tzid[0]); err == nil {
			propLoc = l
		}
	}

	switch {
	case len(val) == len(icalDateFormat):
		t, err := time.ParseInLocation(icalDateFormat, val, loc)
		return t, true, err
	case strings.HasSuffix(val, "Z"):
		t, err := time.Parse(icalUTCFormat, val)
		return t, false, err
	default:
		t, err := time.ParseInLocation(icalLocalFormat, val, propLoc)
		return t, false, err
	}
}

// icalDuration is an RFC 5545 DURATION. Days are nominal and follow the
// wall clock across DST changes.
type icalDuration struct {
	days  int
	clock time.Duration
}

func (d icalDuration) after(t time.Time) time.Time {
	return t.AddDate(0, 0, d.days).Add(d.clock)
}

// parseDuration reads values such as "PT1H30M", "P1D", "P2W" or "P1DT12H".
// Negative durations are rejected since they cannot end an event.
func parseDuration(raw string) (icalDuration, error) {
	s := strings.TrimPrefix(strings.TrimSpace(raw), "+")
	if strings.HasPrefix(s, "-") || !strings.HasPrefix(s, "P") {
		return icalDuration{}, fmt.Errorf("invalid duration %q", raw)
	}

	var d icalDuration
	inTime, parts := false, 0
	num := ""
	for _, ch := range s[1:] {
		switch {
		case ch >= '0' && ch <= '9':
			num += string(ch)
			continue
		case ch == 'T' && !inTime && num == "":
			inTime = true
			continue
		}
		n, err := strconv.Atoi(num)
		if err != nil {
			return icalDuration{}, fmt.Errorf("invalid duration %q", raw)
		}
		switch {
		case ch == 'W' && !inTime:
			d.days += 7 * n
		case ch == 'D' && !inTime:
			d.days += n
		case ch == 'H' && inTime:
			d.clock += time.Duration(n) * time.Hour
		case ch == 'M' && inTime:
			d.clock += time.Duration(n) * time.Minute
		case ch == 'S' && inTime:
			d.clock += time.Duration(n) * time.Second
		default:
			return icalDuration{}, fmt.Errorf("invalid duration %q", raw)
		}
		num = ""
		parts++
	}
	if num != "" || parts == 0 {
		return icalDuration{}, fmt.Errorf("invalid duration %q", raw)
	}
	return d, nil
}
