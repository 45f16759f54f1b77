// Package protocol holds the IATF protocol timeline engine: the fixed
// milestone schedule, the projection of that schedule onto calendar dates,
// the proximity rules that flag milestones needing attention, and the
// reductions consumed by the dashboard, the notification badge and the
// monitoring calendar.
//
// Every operation is a pure function of its explicit inputs.  The current
// instant is always passed in by the caller; nothing in this package reads
// the wall clock.
package protocol

import (
	"fmt"

	"github.com/reprotrack/iatfmon/pkg/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Category enumeration
// ─────────────────────────────────────────────────────────────────────────────

// Category is the structured identity of a milestone.  Presentation layers
// key colours and legends on it instead of inspecting event titles.
type Category string

const (
	// CategoryDay0 is the intravaginal device placement with estradiol benzoate.
	CategoryDay0 Category = "day_0"

	// CategoryDay7to8 is the prostaglandin (PGF2α) dose, plus eCG when used.
	CategoryDay7to8 Category = "day_7_8"

	// CategoryDay9to10 is the device removal with a new estradiol dose.
	CategoryDay9to10 Category = "day_9_10"

	// CategoryIATF is the fixed-time artificial insemination itself.
	CategoryIATF Category = "iatf"
)

var categorySteps = map[Category]string{
	CategoryDay0:     "Dia 0",
	CategoryDay7to8:  "Dia 7/8",
	CategoryDay9to10: "Dia 9/10",
	CategoryIATF:     "IATF",
}

var categoryColors = map[Category]string{
	CategoryDay0:     "#fcd34d",
	CategoryDay7to8:  "#60a5fa",
	CategoryDay9to10: "#86efac",
	CategoryIATF:     "#fca5a5",
}

// IsValid reports whether c is one of the known categories.
func (c Category) IsValid() bool {
	_, ok := categorySteps[c]
	return ok
}

// Step returns the short step tag shown in calendar titles ("Dia 0",
// "Dia 7/8", "Dia 9/10", "IATF").  Consumers that used to pattern-match on
// titles see the same substrings.
func (c Category) Step() string {
	if s, ok := categorySteps[c]; ok {
		return s
	}
	return string(c)
}

// Color returns the calendar colour assigned to the category, or an empty
// string for unknown categories.
func (c Category) Color() string {
	return categoryColors[c]
}

// ─────────────────────────────────────────────────────────────────────────────
// MilestoneDefinition
// ─────────────────────────────────────────────────────────────────────────────

// MilestoneDefinition is one entry of the static protocol schedule.
//
// A day-offset milestone spans [start+DayOffsetStart, start+DayOffsetEnd] in
// calendar days.  A removal-relative milestone spans
// [removal+HoursAfterRemovalStart, removal+HoursAfterRemovalEnd] in elapsed
// hours when the implant-removal date is known; without it the day offsets
// are the documented fallback.
type MilestoneDefinition struct {
	Category Category `json:"category" yaml:"category"`
	Label    string   `json:"label" yaml:"label"`

	DayOffsetStart int `json:"dayOffsetStart" yaml:"day_offset_start"`
	DayOffsetEnd   int `json:"dayOffsetEnd" yaml:"day_offset_end"`

	RemovalRelative        bool `json:"removalRelative" yaml:"removal_relative"`
	HoursAfterRemovalStart int  `json:"hoursAfterRemovalStart,omitempty" yaml:"hours_after_removal_start"`
	HoursAfterRemovalEnd   int  `json:"hoursAfterRemovalEnd,omitempty" yaml:"hours_after_removal_end"`
}

// Validate checks the offsets of a single definition.
func (d MilestoneDefinition) Validate() error {
	if !d.Category.IsValid() {
		return errors.New(errors.CodeInvalidSchedule, "unknown milestone category").
			WithDetail(fmt.Sprintf("category=%q", d.Category))
	}
	if d.Label == "" {
		return errors.New(errors.CodeInvalidSchedule, "milestone label must not be empty").
			WithDetail(fmt.Sprintf("category=%s", d.Category))
	}
	if d.DayOffsetStart < 0 || d.DayOffsetEnd < d.DayOffsetStart {
		return errors.New(errors.CodeInvalidSchedule, "day offsets must satisfy 0 <= start <= end").
			WithDetail(fmt.Sprintf("category=%s start=%d end=%d", d.Category, d.DayOffsetStart, d.DayOffsetEnd))
	}
	if d.RemovalRelative && (d.HoursAfterRemovalStart < 0 || d.HoursAfterRemovalEnd < d.HoursAfterRemovalStart) {
		return errors.New(errors.CodeInvalidSchedule, "removal hour offsets must satisfy 0 <= start <= end").
			WithDetail(fmt.Sprintf("category=%s start=%dh end=%dh", d.Category, d.HoursAfterRemovalStart, d.HoursAfterRemovalEnd))
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Schedule
// ─────────────────────────────────────────────────────────────────────────────

// Schedule is the ordered master list of milestone definitions.  Order is
// significant for display only.
type Schedule []MilestoneDefinition

// DefaultSchedule returns a fresh copy of the canonical IATF schedule:
//
//  1. device + estradiol placement, day 0
//  2. prostaglandin (± eCG), days 7–8
//  3. device removal + estradiol, days 9–10
//  4. insemination, days 10–11, or 48–56 h after implant removal when known
func DefaultSchedule() Schedule {
	return Schedule{
		{
			Category:       CategoryDay0,
			Label:          "Colocação do dispositivo + Estradiol",
			DayOffsetStart: 0,
			DayOffsetEnd:   0,
		},
		{
			Category:       CategoryDay7to8,
			Label:          "Prostaglandina (PGF2α) + eCG (se utilizado)",
			DayOffsetStart: 7,
			DayOffsetEnd:   8,
		},
		{
			Category:       CategoryDay9to10,
			Label:          "Retirada do dispositivo + Nova dose de Estradiol",
			DayOffsetStart: 9,
			DayOffsetEnd:   10,
		},
		{
			Category:               CategoryIATF,
			Label:                  "IATF",
			DayOffsetStart:         10,
			DayOffsetEnd:           11,
			RemovalRelative:        true,
			HoursAfterRemovalStart: 48,
			HoursAfterRemovalEnd:   56,
		},
	}
}

// Validate checks every definition and that no category appears twice.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return errors.New(errors.CodeInvalidSchedule, "schedule must contain at least one milestone")
	}
	seen := make(map[Category]struct{}, len(s))
	for _, d := range s {
		if err := d.Validate(); err != nil {
			return err
		}
		if _, dup := seen[d.Category]; dup {
			return errors.New(errors.CodeInvalidSchedule, "duplicate milestone category").
				WithDetail(fmt.Sprintf("category=%s", d.Category))
		}
		seen[d.Category] = struct{}{}
	}
	return nil
}

// Clone returns an independent copy of the schedule.
func (s Schedule) Clone() Schedule {
	out := make(Schedule, len(s))
	copy(out, s)
	return out
}

// fingerprint renders every field that reaches a ProjectedMilestone, so a
// projection cache shared by engines never mixes schedules.
func (s Schedule) fingerprint() string {
	b := make([]byte, 0, len(s)*24)
	for _, d := range s {
		b = fmt.Appendf(b, "%s:%q:%d-%d", d.Category, d.Label, d.DayOffsetStart, d.DayOffsetEnd)
		if d.RemovalRelative {
			b = fmt.Appendf(b, "/r%d-%d", d.HoursAfterRemovalStart, d.HoursAfterRemovalEnd)
		}
		b = append(b, ';')
	}
	return string(b)
}
