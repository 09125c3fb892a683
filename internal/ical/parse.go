// Package ical fetches external calendar feeds and normalizes their events
// into per-day task candidates.
package ical

import (
	"bytes"
	"fmt"
	"log/slog"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// UntitledTask is the display name used for events without a summary.
const UntitledTask = "Untitled Task"

// CalendarEvent is a normalized VEVENT from a feed. Other component types
// are discarded during parsing. Start is always set; End is never before
// Start (a missing or inverted DTEND is clamped to Start).
type CalendarEvent struct {
	Title       string
	Start       time.Time
	End         time.Time
	Description string
	Location    string
	Categories  []string
	UID         string
}

// ParseEvents parses an ICS payload into normalized calendar events.
//
// Events without a usable DTSTART are dropped. Events that ended before the
// UTC midnight of now are dropped as no longer relevant; the per-day filter
// applied after expansion handles past days of events that straddle today.
func ParseEvents(body []byte, now time.Time) ([]CalendarEvent, error) {
	cal, err := ics.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ical: parse calendar: %w", err)
	}

	todayMidnight := DayStart(now)

	events := make([]CalendarEvent, 0)
	for _, ve := range cal.Events() {
		ev, ok := parseVEvent(ve)
		if !ok {
			continue
		}
		// End is already normalized to >= Start, so it stands in for
		// "end or start, whichever is available".
		if ev.End.Before(todayMidnight) {
			continue
		}
		events = append(events, ev)
	}

	slog.Debug("ical: parsed feed", slog.Int("events", len(events)))
	return events, nil
}

func parseVEvent(ve *ics.VEvent) (CalendarEvent, bool) {
	var ev CalendarEvent

	start, err := ve.GetStartAt()
	if err != nil || start.IsZero() {
		return ev, false
	}
	ev.Start = start

	end, err := ve.GetEndAt()
	if err != nil || end.Before(start) {
		end = start
	}
	ev.End = end

	ev.Title = UntitledTask
	if p := ve.GetProperty(ics.ComponentPropertySummary); p != nil && p.Value != "" {
		ev.Title = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertyDescription); p != nil {
		ev.Description = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertyLocation); p != nil {
		ev.Location = p.Value
	}
	if p := ve.GetProperty(ics.ComponentPropertyUniqueId); p != nil {
		ev.UID = p.Value
	}
	for _, p := range ve.GetProperties(ics.ComponentPropertyCategories) {
		for _, c := range strings.Split(p.Value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				ev.Categories = append(ev.Categories, c)
			}
		}
	}

	return ev, true
}

// DayStart returns the UTC midnight of the day containing t.
func DayStart(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
