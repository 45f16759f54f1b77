package protocol

import "time"

// Summary is the single reduction behind both the header badge and the
// dashboard "upcoming events" KPI.
type Summary struct {
	Total                int  `json:"total"`
	NearbyCount          int  `json:"nearbyCount"`
	HasAny               bool `json:"hasAny"`
	NotificationsEnabled int  `json:"notificationsEnabled"`
}

// Summarize reduces anchors to their attention summary at now.  NearbyCount
// is exactly CountNearbyProtocols; HasAny is NearbyCount > 0.
func (e *Engine) Summarize(anchors []Anchor, now time.Time) Summary {
	s := Summary{
		Total:       len(anchors),
		NearbyCount: e.CountNearbyProtocols(anchors, now),
	}
	s.HasAny = s.NearbyCount > 0
	for _, a := range anchors {
		if a.NotificationsEnabled {
			s.NotificationsEnabled++
		}
	}
	return s
}
