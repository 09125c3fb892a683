package ical

import (
	"reflect"
	"testing"
	"time"
)

func utc(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func dueDates(cands []TaskCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.DueDate
	}
	return out
}

func TestExpandMultiDayEvent(t *testing.T) {
	ev := CalendarEvent{
		Title: "Essay",
		Start: utc(2025, 3, 10, 9, 0),
		End:   utc(2025, 3, 12, 9, 0),
	}
	got := dueDates(Expand(ev))
	want := []string{"2025-03-10", "2025-03-11", "2025-03-12"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("due dates = %v, want %v", got, want)
	}
}

func TestExpandSingleDay(t *testing.T) {
	ev := CalendarEvent{
		Title: "Quiz",
		Start: utc(2025, 3, 10, 9, 0),
		End:   utc(2025, 3, 10, 10, 0),
	}
	got := dueDates(Expand(ev))
	want := []string{"2025-03-10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("due dates = %v, want %v", got, want)
	}
}

func TestExpandEndBeforeStartClamped(t *testing.T) {
	ev := CalendarEvent{
		Title: "Broken",
		Start: utc(2025, 3, 10, 9, 0),
		End:   utc(2025, 3, 8, 9, 0),
	}
	got := dueDates(Expand(ev))
	want := []string{"2025-03-10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("due dates = %v, want %v", got, want)
	}
}

func TestExpandMidnightBoundary(t *testing.T) {
	// Ending exactly at a midnight excludes that day.
	ev := CalendarEvent{
		Start: utc(2025, 3, 10, 0, 0),
		End:   utc(2025, 3, 12, 0, 0),
	}
	got := dueDates(Expand(ev))
	want := []string{"2025-03-10", "2025-03-11"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("due dates = %v, want %v", got, want)
	}

	// Ending one minute past the midnight includes it.
	ev.End = utc(2025, 3, 12, 0, 1)
	got = dueDates(Expand(ev))
	want = []string{"2025-03-10", "2025-03-11", "2025-03-12"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("due dates = %v, want %v", got, want)
	}
}

func TestExpandZeroDurationOnBoundaryEmitsOneDay(t *testing.T) {
	at := utc(2025, 3, 10, 0, 0)
	ev := CalendarEvent{Start: at, End: at}
	got := dueDates(Expand(ev))
	want := []string{"2025-03-10"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("due dates = %v, want %v", got, want)
	}
}

func TestExpandCappedAtMaxSpanDays(t *testing.T) {
	ev := CalendarEvent{
		Start: utc(2025, 1, 1, 0, 0),
		End:   utc(2030, 1, 1, 0, 0),
	}
	got := Expand(ev)
	if len(got) != MaxSpanDays {
		t.Errorf("len = %d, want %d", len(got), MaxSpanDays)
	}
}

func TestExpandMissingStart(t *testing.T) {
	if got := Expand(CalendarEvent{End: utc(2025, 3, 10, 9, 0)}); len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}

func TestExpandIsIdempotent(t *testing.T) {
	ev := CalendarEvent{
		Title:      "Essay",
		Start:      utc(2025, 3, 10, 9, 0),
		End:        utc(2025, 3, 12, 9, 0),
		Categories: []string{"Homework"},
		UID:        "ev-1",
	}
	if !reflect.DeepEqual(Expand(ev), Expand(ev)) {
		t.Error("two expansions of the same event differ")
	}
}

func TestFilterPast(t *testing.T) {
	cands := []TaskCandidate{
		{DueDate: "2025-03-09"},
		{DueDate: "2025-03-10"},
		{DueDate: "2025-03-11"},
	}
	got := dueDates(FilterPast(cands, utc(2025, 3, 10, 15, 30)))
	want := []string{"2025-03-10", "2025-03-11"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("due dates = %v, want %v", got, want)
	}
}

func TestExpandCarriesEventFields(t *testing.T) {
	ev := CalendarEvent{
		Title:       "Lab report",
		Start:       utc(2025, 3, 10, 9, 0),
		End:         utc(2025, 3, 10, 10, 0),
		Description: "write up",
		Location:    "B12",
		Categories:  []string{"Science"},
		UID:         "ev-9",
	}
	got := Expand(ev)
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	c := got[0]
	if c.TaskName != "Lab report" || c.Description != "write up" ||
		c.Location != "B12" || c.UID != "ev-9" || len(c.Categories) != 1 {
		t.Errorf("candidate = %+v", c)
	}
}
