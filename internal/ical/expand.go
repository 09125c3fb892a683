package ical

import "time"

// MaxSpanDays caps the number of days a single event may expand into,
// protecting against malformed feeds with absurd spans.
const MaxSpanDays = 365

const dayLayout = "2006-01-02"

// TaskCandidate is one prospective task produced by expanding a calendar
// event: one per day the event covers.
type TaskCandidate struct {
	TaskName    string   `json:"taskName"`
	DueDate     string   `json:"dueDate"` // YYYY-MM-DD, UTC calendar day
	Description string   `json:"description"`
	Location    string   `json:"location"`
	Categories  []string `json:"categories"`
	UID         string   `json:"uid"`
}

// Expand produces one TaskCandidate per UTC calendar day the event spans.
//
// A day d (taken at its UTC midnight) is included when d < End, so an event
// ending exactly at a midnight does not cover that day, while an event
// ending any time after it does. Expansion is capped at MaxSpanDays. If no
// day satisfies the loop condition (zero-duration events on a day boundary),
// the event's own start day is emitted so every event yields at least one
// candidate. An event with a zero Start yields nothing; the parser never
// produces one, but expansion must not rely on that.
func Expand(ev CalendarEvent) []TaskCandidate {
	if ev.Start.IsZero() {
		return nil
	}

	end := ev.End
	if end.Before(ev.Start) {
		end = ev.Start
	}

	var out []TaskCandidate
	day := DayStart(ev.Start)
	for i := 0; day.Before(end) && i < MaxSpanDays; i++ {
		out = append(out, candidateFor(ev, day))
		day = day.AddDate(0, 0, 1)
	}

	if len(out) == 0 {
		out = append(out, candidateFor(ev, DayStart(ev.Start)))
	}
	return out
}

// FilterPast drops candidates whose due date falls strictly before the day
// containing now. Multi-day events straddling today expand into leading days
// the feed-level relevance filter could not see.
func FilterPast(cands []TaskCandidate, now time.Time) []TaskCandidate {
	today := DayStart(now).Format(dayLayout)
	out := cands[:0]
	for _, c := range cands {
		if c.DueDate >= today {
			out = append(out, c)
		}
	}
	return out
}

func candidateFor(ev CalendarEvent, day time.Time) TaskCandidate {
	cats := ev.Categories
	if cats == nil {
		cats = []string{}
	}
	return TaskCandidate{
		TaskName:    ev.Title,
		DueDate:     day.Format(dayLayout),
		Description: ev.Description,
		Location:    ev.Location,
		Categories:  cats,
		UID:         ev.UID,
	}
}
