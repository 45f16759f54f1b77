package monitoring

import (
	"context"
	"strings"
	"testing"
	"time"

	prometheus "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/reprotrack/iatfmon/internal/domain/protocol"
	"github.com/reprotrack/iatfmon/internal/infrastructure/monitoring/logging"
	prom "github.com/reprotrack/iatfmon/internal/infrastructure/monitoring/prometheus"
	"github.com/reprotrack/iatfmon/internal/testutil"
	"github.com/reprotrack/iatfmon/pkg/errors"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var fixtureRecords = []protocol.Record{
	{ID: "p1", Name: "Lote A", StartDate: "2024-01-01", Notifications: true},
	{ID: "p2", Name: "Lote B", StartDate: "2023-06-01"},
	{ID: "p3", Name: "Lote C", StartDate: "2024-02-31"},
	{ID: "p4", Name: "Lote D", StartDate: "2024-01-03", ImplantRemovalDate: "2024-01-12T08:00:00Z", Notifications: true},
	{ID: "p5", Name: "Rascunho"},
}

type fixture struct {
	svc       Service
	source    *testutil.MockProtocolSource
	logger    *testutil.MockLogger
	collector prom.MetricsCollector
}

func newFixture(t *testing.T, records []protocol.Record, err error) *fixture {
	t.Helper()
	engine, e := protocol.NewEngine()
	require.NoError(t, e)

	source := &testutil.MockProtocolSource{}
	source.On("ListProtocols", mock.Anything).Return(records, err)

	collector, e := prom.NewMetricsCollector(prom.CollectorConfig{Namespace: "iatfmon"}, logging.NewNopLogger())
	require.NoError(t, e)

	logger := testutil.NewMockLogger()
	return &fixture{
		svc:       NewService(engine, source, prom.NewAppMetrics(collector), logger, ServiceConfig{}),
		source:    source,
		logger:    logger,
		collector: collector,
	}
}

func TestDashboard(t *testing.T) {
	f := newFixture(t, fixtureRecords, nil)

	view, err := f.svc.Dashboard(context.Background(), day(2024, 1, 11))
	require.NoError(t, err)

	assert.NotEmpty(t, view.RunID)
	assert.Equal(t, protocol.Summary{Total: 4, NearbyCount: 2, HasAny: true, NotificationsEnabled: 2}, view.Summary)

	require.Len(t, view.Attention, 2)
	assert.Equal(t, "p1", view.Attention[0].ProtocolID)
	assert.Equal(t, protocol.CategoryDay9to10, view.Attention[0].Next.Category)
	assert.Equal(t, "p4", view.Attention[1].ProtocolID)
	for _, a := range view.Attention {
		assert.NotEmpty(t, a.NearMilestones)
		for _, m := range a.NearMilestones {
			assert.True(t, m.IsNear)
		}
	}

	require.Len(t, view.Excluded, 1)
	assert.Equal(t, "p3", view.Excluded[0].ProtocolID)
	assert.Contains(t, view.Excluded[0].Reason, "PROTO_001")
	f.source.AssertExpectations(t)
}

func TestDashboard_LogsAndCountsExclusions(t *testing.T) {
	f := newFixture(t, fixtureRecords, nil)

	view, err := f.svc.Dashboard(context.Background(), day(2024, 1, 11))
	require.NoError(t, err)

	warns := f.logger.Filter("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "protocol excluded: invalid anchor", warns[0].Message)
	id, _ := warns[0].Field("protocol_id")
	assert.Equal(t, "p3", id)
	run, _ := warns[0].Field("run_id")
	assert.Equal(t, view.RunID, run)

	expected := `
# HELP iatfmon_invalid_anchor_total Malformed protocol anchor dates by operation and field.
# TYPE iatfmon_invalid_anchor_total counter
iatfmon_invalid_anchor_total{field="startDate",operation="dashboard"} 1
# HELP iatfmon_nearby_protocols Protocols with at least one milestone needing attention.
# TYPE iatfmon_nearby_protocols gauge
iatfmon_nearby_protocols 2
`
	require.NoError(t, prometheus.GatherAndCompare(f.collector.Gatherer(), strings.NewReader(expected),
		"iatfmon_invalid_anchor_total", "iatfmon_nearby_protocols"))
}

func TestDashboard_LogsRemovalFallback(t *testing.T) {
	f := newFixture(t, fixtureRecords, nil)
	_, err := f.svc.Dashboard(context.Background(), day(2024, 1, 11))
	require.NoError(t, err)

	var ids []interface{}
	for _, m := range f.logger.Filter("debug") {
		if m.Message != "removal date unknown; applying fallback" {
			continue
		}
		id, _ := m.Field("protocol_id")
		ids = append(ids, id)
		fb, _ := m.Field("fallback")
		assert.Equal(t, "day_offset", fb)
	}
	assert.ElementsMatch(t, []interface{}{"p1", "p2"}, ids)
}

func TestBadgeMatchesDashboard(t *testing.T) {
	f := newFixture(t, fixtureRecords, nil)
	ctx := context.Background()

	for d := 0; d < 30; d++ {
		now := day(2023, 12, 25).AddDate(0, 0, d)
		dash, err := f.svc.Dashboard(ctx, now)
		require.NoError(t, err)
		badge, err := f.svc.Badge(ctx, now)
		require.NoError(t, err)

		assert.Equal(t, dash.Summary.NearbyCount, badge.Count, now)
		assert.Equal(t, dash.Summary.HasAny, badge.HasNotifications, now)
		assert.Len(t, dash.Attention, badge.Count, now)
	}
}

func TestBadge_NothingNear(t *testing.T) {
	f := newFixture(t, fixtureRecords, nil)
	badge, err := f.svc.Badge(context.Background(), day(2024, 6, 1))
	require.NoError(t, err)
	assert.False(t, badge.HasNotifications)
	assert.Zero(t, badge.Count)
}

func TestSourceErrors(t *testing.T) {
	ctx := context.Background()

	f := newFixture(t, nil, errors.New(errors.CodeSourceParse, "bad export"))
	_, err := f.svc.Dashboard(ctx, day(2024, 1, 1))
	assert.Equal(t, errors.CodeSourceParse, errors.GetCode(err))

	f = newFixture(t, nil, context.DeadlineExceeded)
	_, err = f.svc.Badge(ctx, day(2024, 1, 1))
	assert.Equal(t, errors.CodeSourceUnavailable, errors.GetCode(err))
	errs := f.logger.Filter("error")
	require.Len(t, errs, 1)
	assert.Equal(t, "monitoring run failed", errs[0].Message)
	module, _ := errs[0].Field("module")
	assert.Equal(t, "SRC", module)
	reason, _ := errs[0].Field("reason")
	assert.Equal(t, "protocol source unavailable", reason)

	count, e := prometheus.GatherAndCount(f.collector.Gatherer(), "iatfmon_source_errors_total")
	require.NoError(t, e)
	assert.Equal(t, 1, count)
}

func TestCalendar(t *testing.T) {
	f := newFixture(t, fixtureRecords, nil)

	view, err := f.svc.Calendar(context.Background(), day(2024, 1, 9), day(2024, 1, 10))
	require.NoError(t, err)

	// p1: Dia 7/8 (01-08..09), Dia 9/10 (01-10..11); p4: Dia 7/8 (01-10..11).
	require.Equal(t, 3, view.TotalCount)
	assert.Equal(t, `"Lote A" - Dia 7/8`, view.Events[0].Title)
	assert.Equal(t, "p1", view.Events[1].ProtocolID)
	assert.Equal(t, "p4", view.Events[2].ProtocolID)
	assert.Equal(t, map[protocol.Category]int{
		protocol.CategoryDay7to8:  2,
		protocol.CategoryDay9to10: 1,
	}, view.ByCategory)
	assert.Len(t, view.Excluded, 1)

	for i := 1; i < len(view.Events); i++ {
		assert.False(t, view.Events[i].Start.Before(view.Events[i-1].Start))
	}
}

func TestCalendar_LastDayIncludesRemovalAnchoredIATF(t *testing.T) {
	f := newFixture(t, fixtureRecords, nil)

	view, err := f.svc.Calendar(context.Background(), day(2024, 1, 14), day(2024, 1, 14))
	require.NoError(t, err)

	require.Equal(t, 1, view.TotalCount)
	ev := view.Events[0]
	assert.Equal(t, "p4", ev.ProtocolID)
	assert.Equal(t, protocol.CategoryIATF, ev.Category)
	assert.Equal(t, time.Date(2024, 1, 14, 8, 0, 0, 0, time.UTC), ev.Start.UTC())
	assert.Equal(t, time.Date(2024, 1, 14, 16, 0, 0, 0, time.UTC), ev.End.UTC())
}

func TestCalendar_OpenRangeAndValidation(t *testing.T) {
	f := newFixture(t, fixtureRecords, nil)
	ctx := context.Background()

	all, err := f.svc.Calendar(ctx, time.Time{}, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, 12, all.TotalCount, "three dated protocols, four events each")

	_, err = f.svc.Calendar(ctx, day(2024, 2, 1), day(2024, 1, 1))
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	empty, err := f.svc.Calendar(ctx, day(2030, 1, 1), time.Time{})
	require.NoError(t, err)
	assert.NotNil(t, empty.Events)
	assert.Zero(t, empty.TotalCount)
}

func TestMalformedRemovalDateKeepsProtocol(t *testing.T) {
	records := []protocol.Record{
		{ID: "p6", Name: "Lote F", StartDate: "2024-01-01", ImplantRemovalDate: "10/01/2024"},
	}
	f := newFixture(t, records, nil)
	ctx := context.Background()

	badge, err := f.svc.Badge(ctx, day(2024, 1, 8))
	require.NoError(t, err)
	assert.True(t, badge.HasNotifications)
	assert.Equal(t, 1, badge.Count)

	warns := f.logger.Filter("warn")
	require.Len(t, warns, 1)
	assert.Equal(t, "implant removal date ignored: invalid anchor", warns[0].Message)
	id, _ := warns[0].Field("protocol_id")
	assert.Equal(t, "p6", id)

	expected := `
# HELP iatfmon_invalid_anchor_total Malformed protocol anchor dates by operation and field.
# TYPE iatfmon_invalid_anchor_total counter
iatfmon_invalid_anchor_total{field="implantRemovalDate",operation="badge"} 1
`
	require.NoError(t, prometheus.GatherAndCompare(f.collector.Gatherer(), strings.NewReader(expected),
		"iatfmon_invalid_anchor_total"))

	view, err := f.svc.Timeline(ctx, "p6", day(2024, 1, 8))
	require.NoError(t, err)
	assert.Nil(t, view.ImplantRemovalDate)
	require.Len(t, view.Milestones, 4)
	assert.Equal(t, protocol.StatusInProgress, view.Milestones[1].Status)
	assert.Equal(t, day(2024, 1, 11), view.Milestones[3].Start)
}

func TestTimeline(t *testing.T) {
	f := newFixture(t, fixtureRecords, nil)

	view, err := f.svc.Timeline(context.Background(), "p4", day(2024, 1, 11))
	require.NoError(t, err)

	assert.Equal(t, "Lote D", view.Name)
	require.NotNil(t, view.ImplantRemovalDate)
	require.Len(t, view.Milestones, 4)
	iatf := view.Milestones[3]
	assert.Equal(t, protocol.CategoryIATF, iatf.Category)
	assert.Equal(t, time.Date(2024, 1, 14, 8, 0, 0, 0, time.UTC), iatf.Start)
	assert.Equal(t, time.Date(2024, 1, 14, 16, 0, 0, 0, time.UTC), iatf.End)
	assert.True(t, view.IsNear)
	require.NotNil(t, view.Next)
	assert.Equal(t, protocol.CategoryDay7to8, view.Next.Category)
}

func TestTimeline_Errors(t *testing.T) {
	f := newFixture(t, fixtureRecords, nil)
	ctx := context.Background()

	_, err := f.svc.Timeline(ctx, "missing", day(2024, 1, 1))
	assert.True(t, errors.IsNotFound(err))

	_, err = f.svc.Timeline(ctx, "p3", day(2024, 1, 1))
	assert.True(t, errors.IsCode(err, errors.CodeInvalidAnchor))

	draft, err := f.svc.Timeline(ctx, "p5", day(2024, 1, 1))
	require.NoError(t, err)
	assert.Empty(t, draft.Milestones)
	assert.Nil(t, draft.Next)
	assert.False(t, draft.IsNear)
}

func TestServiceConfig_Location(t *testing.T) {
	brt := time.FixedZone("BRT", -3*3600)
	engine, err := protocol.NewEngine()
	require.NoError(t, err)

	source := &testutil.MockProtocolSource{}
	source.On("ListProtocols", mock.Anything).Return([]protocol.Record{
		{ID: "p1", Name: "Lote A", StartDate: "2024-01-01T23:30:00-03:00"},
	}, nil)

	svc := NewService(engine, source, nil, nil, ServiceConfig{Location: brt})
	view, err := svc.Timeline(context.Background(), "p1", time.Date(2024, 1, 1, 12, 0, 0, 0, brt))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, brt), view.StartDate)
}
