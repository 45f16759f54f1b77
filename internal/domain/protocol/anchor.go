package protocol

import (
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/reprotrack/iatfmon/pkg/errors"
)

// DateLayout is the calendar-date layout used on the wire and in output.
const DateLayout = "2006-01-02"

// localDateTimeLayout is the zone-less form produced by HTML datetime-local
// inputs; it is interpreted in the engine location.
const localDateTimeLayout = "2006-01-02T15:04:05"

// ─────────────────────────────────────────────────────────────────────────────
// Record — raw wire shape from the protocol store
// ─────────────────────────────────────────────────────────────────────────────

// Animal is an animal enrolled in a protocol.  The engine carries it through
// untouched.
type Animal struct {
	ID        string `json:"id" yaml:"id"`
	TagNumber string `json:"tagNumber,omitempty" yaml:"tagNumber,omitempty"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	Breed     string `json:"breed,omitempty" yaml:"breed,omitempty"`
}

// animalFields breaks the UnmarshalJSON/UnmarshalYAML recursion.
type animalFields Animal

// UnmarshalJSON accepts either an animal object or a bare animal id.
func (a *Animal) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		*a = Animal{ID: id}
		return nil
	}
	var f animalFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*a = Animal(f)
	return nil
}

// UnmarshalYAML accepts either an animal mapping or a bare animal id.
func (a *Animal) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		*a = Animal{ID: value.Value}
		return nil
	}
	var f animalFields
	if err := value.Decode(&f); err != nil {
		return err
	}
	*a = Animal(f)
	return nil
}

// Record is a protocol as exported by the storage collaborator.  Dates are
// kept as strings until ParseRecord validates them at the boundary.
type Record struct {
	ID                 string   `json:"id" yaml:"id"`
	Name               string   `json:"name" yaml:"name"`
	StartDate          string   `json:"startDate,omitempty" yaml:"startDate,omitempty"`
	ImplantRemovalDate string   `json:"implantRemovalDate,omitempty" yaml:"implantRemovalDate,omitempty"`
	Notifications      bool     `json:"notifications" yaml:"notifications"`
	Hormones           string   `json:"hormones,omitempty" yaml:"hormones,omitempty"`
	Bull               string   `json:"bull,omitempty" yaml:"bull,omitempty"`
	Animals            []Animal `json:"animals,omitempty" yaml:"animals,omitempty"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Anchor — validated engine input
// ─────────────────────────────────────────────────────────────────────────────

// Anchor is the minimal, validated input to the engine.
//
// StartDate is midnight of the device-placement day in the engine location;
// a zero StartDate means the protocol has not started and yields no
// milestones.  ImplantRemovalDate is nil when unknown.
type Anchor struct {
	ProtocolID           string     `json:"protocolId"`
	Name                 string     `json:"name"`
	StartDate            time.Time  `json:"startDate"`
	ImplantRemovalDate   *time.Time `json:"implantRemovalDate,omitempty"`
	NotificationsEnabled bool       `json:"notificationsEnabled"`

	// RemovalDateError is set when implantRemovalDate was present but
	// malformed.  The anchor then behaves as if the removal date is unknown.
	RemovalDateError error `json:"-"`
}

// HasStart reports whether the anchor carries a start date.
func (a Anchor) HasStart() bool {
	return !a.StartDate.IsZero()
}

// HasRemoval reports whether the implant-removal date is known.
func (a Anchor) HasRemoval() bool {
	return a.ImplantRemovalDate != nil && !a.ImplantRemovalDate.IsZero()
}

// ParseRecord validates rec and converts it into an Anchor in loc.
//
// An empty startDate is not an error: the anchor simply has no start.  A
// startDate that is present but not a well-formed date fails with
// CodeInvalidAnchor.  A malformed implantRemovalDate does not fail the
// record: it is dropped, the CodeInvalidAnchor error is kept in
// RemovalDateError, and projection applies the removal fallback.  A nil loc
// means UTC.
func ParseRecord(rec Record, loc *time.Location) (Anchor, error) {
	if loc == nil {
		loc = time.UTC
	}
	a := Anchor{
		ProtocolID:           rec.ID,
		Name:                 rec.Name,
		NotificationsEnabled: rec.Notifications,
	}

	if raw := strings.TrimSpace(rec.StartDate); raw != "" {
		start, err := ParseDate(raw, loc)
		if err != nil {
			return Anchor{}, errors.InvalidAnchor("startDate is not a well-formed date").
				WithDetail(fmt.Sprintf("protocol=%s value=%q", rec.ID, raw)).
				WithCause(err)
		}
		a.StartDate = start
	}

	if raw := strings.TrimSpace(rec.ImplantRemovalDate); raw != "" {
		removal, err := ParseInstant(raw, loc)
		if err != nil {
			a.RemovalDateError = errors.InvalidAnchor("implantRemovalDate is not a well-formed date").
				WithDetail(fmt.Sprintf("protocol=%s value=%q", rec.ID, raw)).
				WithCause(err)
		} else {
			a.ImplantRemovalDate = &removal
		}
	}

	return a, nil
}

// ParseDate parses s as a calendar date and returns midnight of that day in
// loc.  Full timestamps are accepted and reduced to their calendar day as
// seen from loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	t, err := ParseInstant(s, loc)
	if err != nil {
		return time.Time{}, err
	}
	return StartOfDay(t, loc), nil
}

// ParseInstant parses s as either a calendar date (midnight in loc), an
// RFC 3339 timestamp, or a zone-less local date-time interpreted in loc.
// The result is expressed in loc.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	t, err := time.ParseInLocation(localDateTimeLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("unsupported date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

// StartOfDay returns midnight of t's calendar day in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
