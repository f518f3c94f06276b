package calendar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ics "github.com/arran4/golang-ical"
)

const sampleICS = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:lecture-1\r\n" +
	"SUMMARY:Lecture\r\n" +
	"DTSTART:20260302T090000Z\r\n" +
	"DTEND:20260302T103000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:holiday-1\r\n" +
	"SUMMARY:Holiday\r\n" +
	"DTSTART;VALUE=DATE:20260304\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:floating-1\r\n" +
	"SUMMARY:Gym\r\n" +
	"DTSTART:20260303T180000\r\n" +
	"DTEND:20260303T190000\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:later-1\r\n" +
	"SUMMARY:Next month\r\n" +
	"DTSTART:20260420T090000Z\r\n" +
	"DTEND:20260420T100000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestParseEvents(t *testing.T) {
	cal, err := ics.ParseCalendar(strings.NewReader(sampleICS))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	loc := time.FixedZone("UTC+2", 2*3600)
	events := ParseEvents(cal, loc)
	if len(events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(events))
	}

	lecture := events[0]
	if lecture.Title != "Lecture" || !lecture.Start.Equal(at(2, 9, 0)) || !lecture.End.Equal(at(2, 10, 30)) {
		t.Fatalf("unexpected lecture %+v", lecture)
	}

	holiday := events[1]
	if !holiday.AllDay || holiday.End.Sub(holiday.Start) != 24*time.Hour {
		t.Fatalf("expected one all-day event, got %+v", holiday)
	}

	gym := events[2]
	if !gym.Start.Equal(time.Date(2026, 3, 3, 18, 0, 0, 0, loc)) {
		t.Fatalf("expected floating time in the user location, got %v", gym.Start)
	}
}

func TestICalURLProvider_FetchesAndFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/calendar")
		w.Write([]byte(sampleICS))
	}))
	defer srv.Close()

	p := NewICalURLProvider([]string{srv.URL}, srv.Client(), time.UTC)
	events, err := p.Events(context.Background(), at(2, 0, 0), at(9, 0, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected 3 events inside the week, got %d", len(events))
	}
}

func TestICalURLProvider_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"not found", func(w http.ResponseWriter, r *http.Request) { http.NotFound(w, r) }},
		{"garbage", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("<html>not a calendar</html>")) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			p := NewICalURLProvider([]string{srv.URL}, srv.Client(), time.UTC)
			_, err := p.Events(context.Background(), at(2, 0, 0), at(9, 0, 0))
			var extErr *ExternalServiceError
			if !errors.As(err, &extErr) {
				t.Fatalf("expected ExternalServiceError, got %v", err)
			}
		})
	}
}

func parseICS(t *testing.T, events ...string) *ics.Calendar {
	t.Helper()
	doc := "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\n" +
		strings.Join(events, "") + "END:VCALENDAR\r\n"
	cal, err := ics.ParseCalendar(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return cal
}

func vevent(lines ...string) string {
	return "BEGIN:VEVENT\r\n" + strings.Join(lines, "\r\n") + "\r\nEND:VEVENT\r\n"
}

func TestParseEvents_Duration(t *testing.T) {
	cal := parseICS(t,
		vevent("UID:seminar", "DTSTART:20260302T090000Z", "DURATION:PT3H"),
		vevent("UID:retreat", "DTSTART;VALUE=DATE:20260305", "DURATION:P2D"),
	)
	events := ParseEvents(cal, time.UTC)
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if !events[0].End.Equal(at(2, 12, 0)) {
		t.Fatalf("expected seminar to end at 12:00, got %v", events[0].End)
	}
	if !events[1].End.Equal(at(7, 0, 0)) {
		t.Fatalf("expected two-day retreat, got %v", events[1].End)
	}

	busy := FromEvents(events, time.UTC)
	slots := ProposeSlots(ProposalRequest{
		Now:         at(2, 8, 0),
		Location:    time.UTC,
		HorizonDays: 1,
		Duration:    time.Hour,
		Limit:       10,
		Busy:        busy,
		Windows:     []Window{{Weekday: time.Monday, StartMin: 9 * 60, EndMin: 13 * 60}},
	})
	for _, s := range slots {
		if s.Start.Before(at(2, 12, 0)) {
			t.Fatalf("slot %v-%v overlaps the seminar", s.Start, s.End)
		}
	}
	if len(slots) != 1 || !slots[0].Start.Equal(at(2, 12, 0)) {
		t.Fatalf("expected one slot at 12:00, got %+v", slots)
	}
}

func TestEventsBetween_ExpandsRecurrence(t *testing.T) {
	cal := parseICS(t,
		vevent("UID:weekly-lecture", "SUMMARY:Lecture",
			"DTSTART:20260202T090000Z", "DTEND:20260202T110000Z",
			"RRULE:FREQ=WEEKLY;BYDAY=MO",
			"EXDATE:20260309T090000Z"),
		vevent("UID:once", "DTSTART:20260303T140000Z", "DTEND:20260303T150000Z"),
	)

	events := EventsBetween(cal, time.UTC, at(1, 0, 0), at(22, 0, 0))
	var mondays []time.Time
	for _, ev := range events {
		if strings.HasPrefix(ev.ID, "weekly-lecture") {
			mondays = append(mondays, ev.Start)
			if ev.End.Sub(ev.Start) != 2*time.Hour {
				t.Fatalf("occurrence keeps the event length, got %v", ev.End.Sub(ev.Start))
			}
		}
	}
	want := []time.Time{at(2, 9, 0), at(16, 9, 0)}
	if len(mondays) != len(want) {
		t.Fatalf("expected occurrences %v, got %v", want, mondays)
	}
	for i := range want {
		if !mondays[i].Equal(want[i]) {
			t.Fatalf("expected occurrences %v, got %v", want, mondays)
		}
	}
	if len(events) != 3 {
		t.Fatalf("expected the single event alongside 2 occurrences, got %d", len(events))
	}
}

func TestEventsBetween_BadRuleKeepsFirstOccurrence(t *testing.T) {
	cal := parseICS(t, vevent("UID:odd", "DTSTART:20260302T090000Z", "DTEND:20260302T100000Z", "RRULE:FREQ=SOMETIMES"))
	events := EventsBetween(cal, time.UTC, at(1, 0, 0), at(9, 0, 0))
	if len(events) != 1 || !events[0].Start.Equal(at(2, 9, 0)) {
		t.Fatalf("expected the event as written, got %+v", events)
	}
}

func TestParseDuration(t *testing.T) {
	start := at(2, 9, 0)
	tests := []struct {
		raw  string
		want time.Time
		ok   bool
	}{
		{"PT3H", at(2, 12, 0), true},
		{"PT1H30M", at(2, 10, 30), true},
		{"PT45S", start.Add(45 * time.Second), true},
		{"P1D", at(3, 9, 0), true},
		{"P1W", at(9, 9, 0), true},
		{"+P1DT2H", at(3, 11, 0), true},
		{"-PT1H", time.Time{}, false},
		{"PT", time.Time{}, false},
		{"P1H", time.Time{}, false},
		{"PT5", time.Time{}, false},
		{"1H", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			d, err := parseDuration(tt.raw)
			if (err == nil) != tt.ok {
				t.Fatalf("parseDuration(%q) error = %v, want ok=%v", tt.raw, err, tt.ok)
			}
			if tt.ok && !d.after(start).Equal(tt.want) {
				t.Fatalf("expected end %v, got %v", tt.want, d.after(start))
			}
		})
	}
}
