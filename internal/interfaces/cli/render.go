package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/reprotrack/iatfmon/internal/application/monitoring"
	"github.com/reprotrack/iatfmon/internal/domain/protocol"
)

// ─────────────────────────────────────────────────────────────────────────────
// Formatting helpers
// ─────────────────────────────────────────────────────────────────────────────

const dateTimeLayout = "2006-01-02 15:04"

func isMidnight(t time.Time) bool {
	return t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0
}

func formatInstant(t time.Time) string {
	if isMidnight(t) {
		return t.Format(protocol.DateLayout)
	}
	return t.Format(dateTimeLayout)
}

// formatSpan prints a single day once and a range as "a .. b".
func formatSpan(start, end time.Time) string {
	if start.Equal(end) {
		return formatInstant(start)
	}
	return formatInstant(start) + " .. " + formatInstant(end)
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

// ─────────────────────────────────────────────────────────────────────────────
// timeline
// ─────────────────────────────────────────────────────────────────────────────

type timelineResult struct {
	*monitoring.TimelineView
}

func (r timelineResult) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%s)\n", r.Name, r.ProtocolID)
	if r.StartDate.IsZero() {
		sb.WriteString("  not started: no milestones\n")
		return strings.TrimRight(sb.String(), "\n")
	}
	fmt.Fprintf(&sb, "  start:   %s\n", r.StartDate.Format(protocol.DateLayout))
	if r.ImplantRemovalDate != nil {
		fmt.Fprintf(&sb, "  removal: %s\n", formatInstant(*r.ImplantRemovalDate))
	}
	for _, m := range r.Milestones {
		marker := " "
		if m.IsNear {
			marker = "!"
		}
		fmt.Fprintf(&sb, "%s %-9s %-26s %-11s %s\n", marker, m.Category.Step(), formatSpan(m.Start, m.End), m.Status, m.Label)
	}
	if r.Next != nil {
		fmt.Fprintf(&sb, "  next: %s on %s\n", r.Next.Category.Step(), formatInstant(r.Next.Start))
	}
	fmt.Fprintf(&sb, "  needs attention: %s", yesNo(r.IsNear))
	return sb.String()
}

func (r timelineResult) TableHeaders() []string {
	return []string{"STEP", "START", "END", "STATUS", "NEAR", "LABEL"}
}

func (r timelineResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Milestones))
	for _, m := range r.Milestones {
		rows = append(rows, []string{
			m.Category.Step(),
			formatInstant(m.Start),
			formatInstant(m.End),
			string(m.Status),
			yesNo(m.IsNear),
			m.Label,
		})
	}
	return rows
}

// ─────────────────────────────────────────────────────────────────────────────
// summary
// ─────────────────────────────────────────────────────────────────────────────

type summaryResult struct {
	Dashboard *monitoring.DashboardView `json:"dashboard"`
	Badge     *monitoring.BadgeView     `json:"badge"`
}

func (r summaryResult) String() string {
	s := r.Dashboard.Summary
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d protocols, %d need attention, %d with notifications enabled\n",
		s.Total, s.NearbyCount, s.NotificationsEnabled)
	if r.Badge.HasNotifications {
		fmt.Fprintf(&sb, "badge: %d\n", r.Badge.Count)
	} else {
		sb.WriteString("badge: none\n")
	}
	for _, a := range r.Dashboard.Attention {
		fmt.Fprintf(&sb, "! %s (%s): %s %s\n", a.Name, a.ProtocolID, a.Next.Category.Step(), formatSpan(a.Next.Start, a.Next.End))
	}
	for _, x := range r.Dashboard.Excluded {
		fmt.Fprintf(&sb, "excluded %s: %s\n", x.ProtocolID, x.Reason)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (r summaryResult) TableHeaders() []string {
	return []string{"PROTOCOL", "NAME", "NEXT", "WHEN", "NEAR"}
}

func (r summaryResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Dashboard.Attention))
	for _, a := range r.Dashboard.Attention {
		steps := make([]string, 0, len(a.NearMilestones))
		for _, m := range a.NearMilestones {
			steps = append(steps, m.Category.Step())
		}
		rows = append(rows, []string{
			a.ProtocolID,
			a.Name,
			a.Next.Category.Step(),
			formatSpan(a.Next.Start, a.Next.End),
			strings.Join(steps, ", "),
		})
	}
	return rows
}

// ─────────────────────────────────────────────────────────────────────────────
// calendar
// ─────────────────────────────────────────────────────────────────────────────

type calendarResult struct {
	*monitoring.CalendarView
}

func (r calendarResult) String() string {
	if len(r.Events) == 0 {
		return "no events"
	}
	var sb strings.Builder
	for _, ev := range r.Events {
		fmt.Fprintf(&sb, "%-26s %s\n", formatSpan(ev.Start, ev.End), ev.Title)
	}
	sb.WriteString(strconv.Itoa(r.TotalCount))
	sb.WriteString(" events")
	return sb.String()
}

func (r calendarResult) TableHeaders() []string {
	return []string{"START", "END", "PROTOCOL", "TITLE", "COLOR"}
}

func (r calendarResult) TableRows() [][]string {
	rows := make([][]string, 0, len(r.Events))
	for _, ev := range r.Events {
		rows = append(rows, []string{
			formatInstant(ev.Start),
			formatInstant(ev.End),
			ev.ProtocolID,
			ev.Title,
			ev.Color,
		})
	}
	return rows
}
