package monitoring

import (
	"time"

	"github.com/reprotrack/iatfmon/internal/domain/protocol"
)

// ---------------------------------------------------------------------------
// Monitoring DTOs
// ---------------------------------------------------------------------------

// ExcludedRecord is a protocol left out of a run because its anchor dates
// could not be parsed.
type ExcludedRecord struct {
	ProtocolID string `json:"protocolId"`
	Name       string `json:"name,omitempty"`
	Reason     string `json:"reason"`
}

// ProtocolAttention lists the milestones of one protocol that need attention.
type ProtocolAttention struct {
	ProtocolID     string                      `json:"protocolId"`
	Name           string                      `json:"name"`
	StartDate      time.Time                   `json:"startDate"`
	Next           protocol.ProjectedMilestone `json:"next"`
	NearMilestones []protocol.ProximityResult  `json:"nearMilestones"`
}

// DashboardView backs the dashboard "upcoming events" panel.
type DashboardView struct {
	RunID     string              `json:"runId"`
	Now       time.Time           `json:"now"`
	Summary   protocol.Summary    `json:"summary"`
	Attention []ProtocolAttention `json:"attention"`
	Excluded  []ExcludedRecord    `json:"excluded,omitempty"`
}

// BadgeView backs the header notification badge.
type BadgeView struct {
	RunID            string `json:"runId"`
	HasNotifications bool   `json:"hasNotifications"`
	Count            int    `json:"count"`
}

// CalendarView is the monitoring calendar for a date range.
type CalendarView struct {
	RunID      string                    `json:"runId"`
	From       time.Time                 `json:"from,omitempty"`
	To         time.Time                 `json:"to,omitempty"`
	Events     []protocol.CalendarEvent  `json:"events"`
	TotalCount int                       `json:"totalCount"`
	ByCategory map[protocol.Category]int `json:"byCategory"`
	Excluded   []ExcludedRecord          `json:"excluded,omitempty"`
}

// TimelineView is the full milestone timeline of one protocol.
type TimelineView struct {
	RunID              string                       `json:"runId"`
	ProtocolID         string                       `json:"protocolId"`
	Name               string                       `json:"name"`
	StartDate          time.Time                    `json:"startDate"`
	ImplantRemovalDate *time.Time                   `json:"implantRemovalDate,omitempty"`
	Milestones         []protocol.ProximityResult   `json:"milestones"`
	Next               *protocol.ProjectedMilestone `json:"next,omitempty"`
	IsNear             bool                         `json:"isNear"`
}
