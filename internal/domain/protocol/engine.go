package protocol

import (
	"fmt"
	"time"

	"github.com/reprotrack/iatfmon/pkg/errors"
)

// DefaultWindowDays is the proximity window: a milestone starting or ending
// within this many days of now, or in progress, needs attention.
const DefaultWindowDays = 3

// ─────────────────────────────────────────────────────────────────────────────
// RemovalFallback policy
// ─────────────────────────────────────────────────────────────────────────────

// RemovalFallback selects what a removal-relative milestone does when the
// protocol has no implant-removal date.
type RemovalFallback string

const (
	// FallbackDayOffset projects the milestone from its day offsets relative
	// to the start date (IATF on days 10–11).  This is the default.
	FallbackDayOffset RemovalFallback = "day_offset"

	// FallbackSkip omits the milestone until the removal date is recorded.
	FallbackSkip RemovalFallback = "skip"
)

// ParseRemovalFallback converts a configuration string into a policy.  The
// empty string selects FallbackDayOffset.
func ParseRemovalFallback(s string) (RemovalFallback, error) {
	switch RemovalFallback(s) {
	case "", FallbackDayOffset:
		return FallbackDayOffset, nil
	case FallbackSkip:
		return FallbackSkip, nil
	default:
		return "", errors.InvalidParam("unknown removal fallback policy").
			WithDetail(fmt.Sprintf("value=%q expected=day_offset|skip", s))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// ProjectionCache
// ─────────────────────────────────────────────────────────────────────────────

// ProjectionCache stores projected timelines keyed by every projection
// input.  Implementations must be safe for concurrent use.  The engine
// copies slices on the way in and out, so a cache never observes or hands
// out shared backing arrays.
type ProjectionCache interface {
	Get(key string) ([]ProjectedMilestone, bool)
	Add(key string, milestones []ProjectedMilestone)
}

// ─────────────────────────────────────────────────────────────────────────────
// Engine
// ─────────────────────────────────────────────────────────────────────────────

// Engine binds a schedule, a proximity window and a removal fallback policy.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	schedule    Schedule
	windowDays  int
	fallback    RemovalFallback
	cache       ProjectionCache
	fingerprint string
}

// Option configures an Engine.
type Option func(*Engine)

// WithWindowDays sets the proximity window in days.
func WithWindowDays(days int) Option {
	return func(e *Engine) {
		e.windowDays = days
	}
}

// WithSchedule replaces the canonical schedule.
func WithSchedule(s Schedule) Option {
	return func(e *Engine) {
		e.schedule = s.Clone()
	}
}

// WithRemovalFallback sets the policy for a missing implant-removal date.
func WithRemovalFallback(f RemovalFallback) Option {
	return func(e *Engine) {
		e.fallback = f
	}
}

// WithProjectionCache enables caching of projected timelines.
func WithProjectionCache(c ProjectionCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// NewEngine builds an Engine with the canonical schedule, a 3-day window and
// the day-offset fallback, then applies opts.
func NewEngine(opts ...Option) (*Engine, error) {
	e := &Engine{
		schedule:   DefaultSchedule(),
		windowDays: DefaultWindowDays,
		fallback:   FallbackDayOffset,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.schedule.Validate(); err != nil {
		return nil, err
	}
	if e.windowDays < 0 {
		return nil, errors.InvalidParam("window days must be >= 0").
			WithDetail(fmt.Sprintf("window_days=%d", e.windowDays))
	}
	if _, err := ParseRemovalFallback(string(e.fallback)); err != nil {
		return nil, err
	}
	e.fingerprint = fmt.Sprintf("%s|%s", e.fallback, e.schedule.fingerprint())
	return e, nil
}

// WindowDays returns the configured proximity window.
func (e *Engine) WindowDays() int { return e.windowDays }

// Fallback returns the configured removal fallback policy.
func (e *Engine) Fallback() RemovalFallback { return e.fallback }

// Schedule returns a copy of the engine schedule.
func (e *Engine) Schedule() Schedule { return e.schedule.Clone() }

// cacheKey identifies one projection: the schedule and policy fingerprint
// plus every anchor field that reaches a ProjectedMilestone.
func (e *Engine) cacheKey(a Anchor) string {
	removal := "-"
	if a.HasRemoval() {
		removal = a.ImplantRemovalDate.Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("%s|%s|%s|%s", e.fingerprint, a.ProtocolID, a.StartDate.Format(time.RFC3339Nano), removal)
}
