package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reprotrack/iatfmon/pkg/errors"
)

func TestNewEngine_Defaults(t *testing.T) {
	e := newTestEngine(t)
	assert.Equal(t, DefaultWindowDays, e.WindowDays())
	assert.Equal(t, FallbackDayOffset, e.Fallback())
	assert.Equal(t, DefaultSchedule(), e.Schedule())
}

func TestNewEngine_Validation(t *testing.T) {
	_, err := NewEngine(WithWindowDays(-1))
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = NewEngine(WithRemovalFallback("guess"))
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))

	_, err = NewEngine(WithSchedule(Schedule{}))
	assert.True(t, errors.IsCode(err, errors.CodeInvalidSchedule))
}

func TestWithSchedule_Copies(t *testing.T) {
	s := DefaultSchedule()
	e := newTestEngine(t, WithSchedule(s))

	s[0].Label = "changed"
	assert.NotEqual(t, "changed", e.Schedule()[0].Label)

	got := e.Schedule()
	got[1].Label = "changed too"
	assert.NotEqual(t, "changed too", e.Schedule()[1].Label)
}

func TestParseRemovalFallback(t *testing.T) {
	f, err := ParseRemovalFallback("")
	require.NoError(t, err)
	assert.Equal(t, FallbackDayOffset, f)

	f, err = ParseRemovalFallback("skip")
	require.NoError(t, err)
	assert.Equal(t, FallbackSkip, f)

	_, err = ParseRemovalFallback("nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `value="nope"`)
}

func TestCacheKey_DistinguishesPolicy(t *testing.T) {
	a := anchorAt("p1", date(2024, 1, 1))
	offset := newTestEngine(t)
	skip := newTestEngine(t, WithRemovalFallback(FallbackSkip))
	assert.NotEqual(t, offset.cacheKey(a), skip.cacheKey(a))
}

func TestSharedCache_KeepsLabelsPerSchedule(t *testing.T) {
	cache := newMapCache()
	relabelled := DefaultSchedule()
	relabelled[0].Label = "Dia 0: implante"

	std := newTestEngine(t, WithProjectionCache(cache))
	custom := newTestEngine(t, WithProjectionCache(cache), WithSchedule(relabelled))

	a := anchorAt("p1", date(2024, 1, 1))
	assert.NotEqual(t, std.cacheKey(a), custom.cacheKey(a))
	assert.Equal(t, DefaultSchedule()[0].Label, std.Project(a)[0].Label)
	assert.Equal(t, "Dia 0: implante", custom.Project(a)[0].Label)
}
