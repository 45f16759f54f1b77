package protocol

import (
	"time"
)

// ProjectedMilestone is one schedule entry placed on the calendar for a
// specific protocol.  Start never follows End.
type ProjectedMilestone struct {
	ProtocolID  string    `json:"protocolId"`
	Label       string    `json:"label"`
	Category    Category  `json:"category"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	FromRemoval bool      `json:"fromRemoval"`
}

// Project places every schedule milestone for a on the calendar, in schedule
// order.  An anchor without a start date yields no milestones.
//
// Day offsets use calendar-day arithmetic (AddDate), so a daylight-saving
// transition never shifts a milestone off midnight.  Removal-relative
// milestones use elapsed hours from the removal instant when it is known and
// otherwise follow the engine's RemovalFallback.
//
// Project is referentially transparent: identical anchors always produce
// deeply equal results, and the returned slice is owned by the caller.
func (e *Engine) Project(a Anchor) []ProjectedMilestone {
	if !a.HasStart() {
		return nil
	}
	if e.cache == nil {
		return e.project(a)
	}

	key := e.cacheKey(a)
	if cached, ok := e.cache.Get(key); ok {
		return cloneMilestones(cached)
	}
	out := e.project(a)
	e.cache.Add(key, cloneMilestones(out))
	return out
}

// ProjectRecord parses rec in loc and projects it.  It fails with
// CodeInvalidAnchor when a date is malformed.
func (e *Engine) ProjectRecord(rec Record, loc *time.Location) ([]ProjectedMilestone, error) {
	a, err := ParseRecord(rec, loc)
	if err != nil {
		return nil, err
	}
	return e.Project(a), nil
}

func (e *Engine) project(a Anchor) []ProjectedMilestone {
	out := make([]ProjectedMilestone, 0, len(e.schedule))
	for _, def := range e.schedule {
		m := ProjectedMilestone{
			ProtocolID: a.ProtocolID,
			Label:      def.Label,
			Category:   def.Category,
		}

		switch {
		case def.RemovalRelative && a.HasRemoval():
			removal := *a.ImplantRemovalDate
			m.Start = removal.Add(time.Duration(def.HoursAfterRemovalStart) * time.Hour)
			m.End = removal.Add(time.Duration(def.HoursAfterRemovalEnd) * time.Hour)
			m.FromRemoval = true
		case def.RemovalRelative && e.fallback == FallbackSkip:
			continue
		default:
			m.Start = a.StartDate.AddDate(0, 0, def.DayOffsetStart)
			m.End = a.StartDate.AddDate(0, 0, def.DayOffsetEnd)
		}

		out = append(out, m)
	}
	return out
}

func cloneMilestones(in []ProjectedMilestone) []ProjectedMilestone {
	if in == nil {
		return nil
	}
	out := make([]ProjectedMilestone, len(in))
	copy(out, in)
	return out
}
