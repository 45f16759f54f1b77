// Package monitoring is the calling layer of the timeline engine: it loads
// protocol records from a source, converts them into anchors, and builds the
// dashboard, badge, calendar and timeline views from one engine.
package monitoring

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/reprotrack/iatfmon/internal/domain/protocol"
	"github.com/reprotrack/iatfmon/internal/infrastructure/monitoring/logging"
	prom "github.com/reprotrack/iatfmon/internal/infrastructure/monitoring/prometheus"
	"github.com/reprotrack/iatfmon/pkg/errors"
)

// ProtocolSource is the read port to the protocol store.
type ProtocolSource interface {
	ListProtocols(ctx context.Context) ([]protocol.Record, error)
}

// Service defines the monitoring operations.  now is always supplied by the
// caller; the service never reads the wall clock for domain decisions.
type Service interface {
	// Dashboard summarises every protocol and lists those needing attention.
	Dashboard(ctx context.Context, now time.Time) (*DashboardView, error)

	// Badge reports whether any protocol needs attention.  It uses the same
	// summary as Dashboard, so the two never disagree.
	Badge(ctx context.Context, now time.Time) (*BadgeView, error)

	// Calendar returns every projected event overlapping the calendar days
	// from through to, both inclusive.  A zero bound leaves that side open.
	Calendar(ctx context.Context, from, to time.Time) (*CalendarView, error)

	// Timeline returns the classified milestones of one protocol.
	Timeline(ctx context.Context, protocolID string, now time.Time) (*TimelineView, error)
}

// ServiceConfig tunes the service.
type ServiceConfig struct {
	// Location is where record dates are interpreted.  Defaults to UTC.
	Location *time.Location
}

type serviceImpl struct {
	engine  *protocol.Engine
	source  ProtocolSource
	metrics *prom.AppMetrics
	logger  logging.Logger
	loc     *time.Location
}

// NewService wires a Service.  metrics and logger may be nil.
func NewService(
	engine *protocol.Engine,
	source ProtocolSource,
	metrics *prom.AppMetrics,
	logger logging.Logger,
	cfg ServiceConfig,
) Service {
	if metrics == nil {
		metrics = prom.NewNopAppMetrics()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	return &serviceImpl{
		engine:  engine,
		source:  source,
		metrics: metrics,
		logger:  logger.Named("monitoring"),
		loc:     loc,
	}
}

// run carries the per-invocation id and logger.
type run struct {
	id     string
	op     string
	logger logging.Logger
	timer  *prom.Timer
}

func (s *serviceImpl) begin(op string) *run {
	id := uuid.NewString()
	return &run{
		id:     id,
		op:     op,
		logger: s.logger.With(logging.RunID(id), logging.String("operation", op)),
		timer:  prom.NewTimer(nil),
	}
}

func (s *serviceImpl) finish(r *run, err error) {
	took := r.timer.ObserveDuration()
	prom.RecordEvaluation(s.metrics, r.op, took, err)
	if err != nil {
		code := errors.GetCode(err)
		r.logger.Error("monitoring run failed",
			logging.Err(err),
			logging.String("code", code.String()),
			logging.String("module", errors.ModuleForCode(code)),
			logging.String("reason", errors.DefaultMessageForCode(code)),
		)
		return
	}
	r.logger.Debug("monitoring run finished", logging.Duration("took", took))
}

// Dashboard implements Service.
func (s *serviceImpl) Dashboard(ctx context.Context, now time.Time) (view *DashboardView, err error) {
	r := s.begin(prom.OpDashboard)
	defer func() { s.finish(r, err) }()

	anchors, excluded, err := s.loadAnchors(ctx, r)
	if err != nil {
		return nil, err
	}

	summary := s.engine.Summarize(anchors, now)
	prom.RecordSummary(s.metrics, summary.Total, summary.NearbyCount, now)

	attention := make([]ProtocolAttention, 0, summary.NearbyCount)
	for _, a := range anchors {
		if !s.engine.EvaluateProtocol(a, now) {
			continue
		}
		item := ProtocolAttention{
			ProtocolID: a.ProtocolID,
			Name:       a.Name,
			StartDate:  a.StartDate,
		}
		for _, res := range s.engine.EvaluateMilestones(a, now) {
			if res.IsNear {
				item.NearMilestones = append(item.NearMilestones, res)
			}
		}
		item.Next, _ = s.engine.NextMilestone(a, now)
		attention = append(attention, item)
	}
	sort.SliceStable(attention, func(i, j int) bool {
		if !attention[i].Next.Start.Equal(attention[j].Next.Start) {
			return attention[i].Next.Start.Before(attention[j].Next.Start)
		}
		return attention[i].ProtocolID < attention[j].ProtocolID
	})

	r.logger.Info("dashboard evaluated",
		logging.Int("protocols", summary.Total),
		logging.Int("nearby", summary.NearbyCount),
		logging.Int("excluded", len(excluded)),
	)
	return &DashboardView{
		RunID:     r.id,
		Now:       now,
		Summary:   summary,
		Attention: attention,
		Excluded:  excluded,
	}, nil
}

// Badge implements Service.
func (s *serviceImpl) Badge(ctx context.Context, now time.Time) (view *BadgeView, err error) {
	r := s.begin(prom.OpBadge)
	defer func() { s.finish(r, err) }()

	anchors, _, err := s.loadAnchors(ctx, r)
	if err != nil {
		return nil, err
	}
	summary := s.engine.Summarize(anchors, now)
	prom.RecordSummary(s.metrics, summary.Total, summary.NearbyCount, now)

	return &BadgeView{
		RunID:            r.id,
		HasNotifications: summary.HasAny,
		Count:            summary.NearbyCount,
	}, nil
}

// Calendar implements Service.
func (s *serviceImpl) Calendar(ctx context.Context, from, to time.Time) (view *CalendarView, err error) {
	r := s.begin(prom.OpCalendar)
	defer func() { s.finish(r, err) }()

	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, errors.InvalidParam("calendar range ends before it starts").
			WithDetail(fmt.Sprintf("from=%s to=%s", from.Format(protocol.DateLayout), to.Format(protocol.DateLayout)))
	}

	anchors, excluded, err := s.loadAnchors(ctx, r)
	if err != nil {
		return nil, err
	}

	var events []protocol.CalendarEvent
	for _, a := range anchors {
		events = append(events, protocol.FilterEvents(s.engine.ToCalendarEvents(a), from, to)...)
	}
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].Start.Equal(events[j].Start) {
			return events[i].Start.Before(events[j].Start)
		}
		return events[i].ProtocolID < events[j].ProtocolID
	})

	byCategory := make(map[protocol.Category]int)
	for _, ev := range events {
		byCategory[ev.Category]++
	}
	if events == nil {
		events = []protocol.CalendarEvent{}
	}

	return &CalendarView{
		RunID:      r.id,
		From:       from,
		To:         to,
		Events:     events,
		TotalCount: len(events),
		ByCategory: byCategory,
		Excluded:   excluded,
	}, nil
}

// Timeline implements Service.
func (s *serviceImpl) Timeline(ctx context.Context, protocolID string, now time.Time) (view *TimelineView, err error) {
	r := s.begin(prom.OpTimeline)
	defer func() { s.finish(r, err) }()

	records, err := s.listRecords(ctx)
	if err != nil {
		return nil, err
	}

	for _, rec := range records {
		if rec.ID != protocolID {
			continue
		}
		a, err := s.parseRecord(r, rec)
		if err != nil {
			return nil, err
		}

		v := &TimelineView{
			RunID:              r.id,
			ProtocolID:         a.ProtocolID,
			Name:               a.Name,
			StartDate:          a.StartDate,
			ImplantRemovalDate: a.ImplantRemovalDate,
			Milestones:         s.engine.EvaluateMilestones(a, now),
			IsNear:             s.engine.EvaluateProtocol(a, now),
		}
		if v.Milestones == nil {
			v.Milestones = []protocol.ProximityResult{}
		}
		if next, ok := s.engine.NextMilestone(a, now); ok {
			v.Next = &next
		}
		return v, nil
	}

	return nil, errors.New(errors.CodeProtocolNotFound, "protocol not found").
		WithDetail("protocol=" + protocolID)
}

// ─────────────────────────────────────────────────────────────────────────────
// Loading
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) listRecords(ctx context.Context) ([]protocol.Record, error) {
	records, err := s.source.ListProtocols(ctx)
	if err == nil {
		return records, nil
	}

	code := errors.CodeSourceUnavailable
	if errors.IsCode(err, errors.CodeSourceParse) {
		code = errors.CodeSourceParse
	}
	prom.RecordSourceError(s.metrics, code.String())
	return nil, errors.Wrap(err, code, "failed to load protocols")
}

// loadAnchors parses every record.  Malformed records are excluded, logged
// and counted; they never fail the run.
func (s *serviceImpl) loadAnchors(ctx context.Context, r *run) ([]protocol.Anchor, []ExcludedRecord, error) {
	records, err := s.listRecords(ctx)
	if err != nil {
		return nil, nil, err
	}

	anchors := make([]protocol.Anchor, 0, len(records))
	var excluded []ExcludedRecord
	for _, rec := range records {
		a, err := s.parseRecord(r, rec)
		if err != nil {
			r.logger.Warn("protocol excluded: invalid anchor", logging.ProtocolID(rec.ID), logging.Err(err))
			excluded = append(excluded, ExcludedRecord{ProtocolID: rec.ID, Name: rec.Name, Reason: err.Error()})
			continue
		}
		anchors = append(anchors, a)
	}
	return anchors, excluded, nil
}

// parseRecord parses rec and counts malformed anchor fields.  A malformed
// removal date is logged and dropped; the record is kept.
func (s *serviceImpl) parseRecord(r *run, rec protocol.Record) (protocol.Anchor, error) {
	a, err := protocol.ParseRecord(rec, s.loc)
	if err != nil {
		prom.RecordInvalidAnchor(s.metrics, r.op, prom.FieldStartDate)
		return protocol.Anchor{}, err
	}
	if a.RemovalDateError != nil {
		r.logger.Warn("implant removal date ignored: invalid anchor",
			logging.ProtocolID(a.ProtocolID), logging.Err(a.RemovalDateError))
		prom.RecordInvalidAnchor(s.metrics, r.op, prom.FieldImplantRemovalDate)
	}
	s.noteFallback(r, a)
	return a, nil
}

// noteFallback records when the IATF window is derived from day offsets
// because the implant-removal date is unknown.
func (s *serviceImpl) noteFallback(r *run, a protocol.Anchor) {
	if !a.HasStart() || a.HasRemoval() {
		return
	}
	r.logger.Debug("removal date unknown; applying fallback",
		logging.ProtocolID(a.ProtocolID),
		logging.String("fallback", string(s.engine.Fallback())),
	)
}
