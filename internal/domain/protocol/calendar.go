package protocol

import (
	"fmt"
	"time"
)

// CalendarEvent is a projected milestone shaped for a calendar view.  All
// events are all-day; Category is the structured tag colour mapping keys on.
type CalendarEvent struct {
	ProtocolID string    `json:"protocolId"`
	Title      string    `json:"title"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	AllDay     bool      `json:"allDay"`
	Category   Category  `json:"category"`
	Label      string    `json:"label"`
	Color      string    `json:"color"`
}

// EventTitle renders the stable calendar title: `"<name>" - <step>`.
func EventTitle(name string, c Category) string {
	return fmt.Sprintf(`"%s" - %s`, name, c.Step())
}

// ToCalendarEvents builds one calendar event per projected milestone of a.
func (e *Engine) ToCalendarEvents(a Anchor) []CalendarEvent {
	milestones := e.Project(a)
	if len(milestones) == 0 {
		return nil
	}
	out := make([]CalendarEvent, 0, len(milestones))
	for _, m := range milestones {
		out = append(out, CalendarEvent{
			ProtocolID: a.ProtocolID,
			Title:      EventTitle(a.Name, m.Category),
			Start:      m.Start,
			End:        m.End,
			AllDay:     true,
			Category:   m.Category,
			Label:      m.Label,
			Color:      m.Category.Color(),
		})
	}
	return out
}

// FilterEvents keeps the events overlapping the calendar days from through
// to, both inclusive.  to covers its whole day in its own location, so an
// IATF window starting at 08:00 on the last day is kept.  A zero from or to
// leaves that side open.
func FilterEvents(events []CalendarEvent, from, to time.Time) []CalendarEvent {
	var until time.Time
	if !to.IsZero() {
		until = StartOfDay(to, to.Location()).AddDate(0, 0, 1)
	}
	out := make([]CalendarEvent, 0, len(events))
	for _, ev := range events {
		if !from.IsZero() && ev.End.Before(from) {
			continue
		}
		if !until.IsZero() && !ev.Start.Before(until) {
			continue
		}
		out = append(out, ev)
	}
	return out
}
