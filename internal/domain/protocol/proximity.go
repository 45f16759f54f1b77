package protocol

import (
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Status enumeration
// ─────────────────────────────────────────────────────────────────────────────

// Status places a milestone relative to now and the proximity window.
type Status string

const (
	// StatusElapsed: the milestone ended before now.
	StatusElapsed Status = "elapsed"

	// StatusInProgress: now lies within [Start, End].
	StatusInProgress Status = "in_progress"

	// StatusImminent: the milestone starts after now but within the window.
	StatusImminent Status = "imminent"

	// StatusScheduled: the milestone starts beyond the window.
	StatusScheduled Status = "scheduled"
)

// NeedsAttention reports whether the status counts as "near".
func (s Status) NeedsAttention() bool {
	return s == StatusInProgress || s == StatusImminent
}

// ProximityResult is the evaluation of one projected milestone at one instant.
type ProximityResult struct {
	ProtocolID string    `json:"protocolId"`
	Label      string    `json:"label"`
	Category   Category  `json:"category"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     Status    `json:"status"`
	IsNear     bool      `json:"isNear"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Pure proximity rules
// ─────────────────────────────────────────────────────────────────────────────

// IsNear reports whether m needs attention at now.  It is true when any of:
//
//	(a) now <= Start and Start is at most windowDays days after now
//	(b) now <= End   and End   is at most windowDays days after now
//	(c) Start <= now <= End
//
// A milestone that already ended is never near; one starting more than
// windowDays days after now is never near.  The window is measured in
// calendar days from now.
func IsNear(m ProjectedMilestone, now time.Time, windowDays int) bool {
	horizon := now.AddDate(0, 0, windowDays)

	startsSoon := !now.After(m.Start) && !m.Start.After(horizon)
	endsSoon := !now.After(m.End) && !m.End.After(horizon)
	inProgress := !now.Before(m.Start) && !now.After(m.End)

	return startsSoon || endsSoon || inProgress
}

// Classify returns the Status of m at now.  Classify(m, now, w).NeedsAttention()
// always equals IsNear(m, now, w).
func Classify(m ProjectedMilestone, now time.Time, windowDays int) Status {
	switch {
	case now.Before(m.Start):
		if m.Start.After(now.AddDate(0, 0, windowDays)) {
			return StatusScheduled
		}
		return StatusImminent
	case !now.After(m.End):
		return StatusInProgress
	default:
		return StatusElapsed
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Engine-level evaluation
// ─────────────────────────────────────────────────────────────────────────────

// IsNear applies the package IsNear rule with the engine window.
func (e *Engine) IsNear(m ProjectedMilestone, now time.Time) bool {
	return IsNear(m, now, e.windowDays)
}

// EvaluateMilestones projects a and classifies every milestone at now.
func (e *Engine) EvaluateMilestones(a Anchor, now time.Time) []ProximityResult {
	milestones := e.Project(a)
	if len(milestones) == 0 {
		return nil
	}
	out := make([]ProximityResult, 0, len(milestones))
	for _, m := range milestones {
		status := Classify(m, now, e.windowDays)
		out = append(out, ProximityResult{
			ProtocolID: m.ProtocolID,
			Label:      m.Label,
			Category:   m.Category,
			Start:      m.Start,
			End:        m.End,
			Status:     status,
			IsNear:     IsNear(m, now, e.windowDays),
		})
	}
	return out
}

// EvaluateProtocol reports whether any milestone of a is near at now.  A
// protocol without a start date is never near.
func (e *Engine) EvaluateProtocol(a Anchor, now time.Time) bool {
	for _, m := range e.Project(a) {
		if IsNear(m, now, e.windowDays) {
			return true
		}
	}
	return false
}

// CountNearbyProtocols counts the anchors for which EvaluateProtocol is true.
func (e *Engine) CountNearbyProtocols(anchors []Anchor, now time.Time) int {
	n := 0
	for _, a := range anchors {
		if e.EvaluateProtocol(a, now) {
			n++
		}
	}
	return n
}

// NextMilestone returns the earliest-starting milestone of a that has not
// elapsed at now.  Ties keep schedule order.  The boolean is false when every
// milestone has elapsed or a has no start date.
func (e *Engine) NextMilestone(a Anchor, now time.Time) (ProjectedMilestone, bool) {
	var (
		next  ProjectedMilestone
		found bool
	)
	for _, m := range e.Project(a) {
		if now.After(m.End) {
			continue
		}
		if !found || m.Start.Before(next.Start) {
			next, found = m, true
		}
	}
	return next, found
}
