package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reprotrack/iatfmon/pkg/errors"
)

func TestDefaultSchedule_Canonical(t *testing.T) {
	s := DefaultSchedule()
	require.Len(t, s, 4)
	require.NoError(t, s.Validate())

	assert.Equal(t, CategoryDay0, s[0].Category)
	assert.Equal(t, [2]int{0, 0}, [2]int{s[0].DayOffsetStart, s[0].DayOffsetEnd})

	assert.Equal(t, CategoryDay7to8, s[1].Category)
	assert.Equal(t, [2]int{7, 8}, [2]int{s[1].DayOffsetStart, s[1].DayOffsetEnd})

	assert.Equal(t, CategoryDay9to10, s[2].Category)
	assert.Equal(t, [2]int{9, 10}, [2]int{s[2].DayOffsetStart, s[2].DayOffsetEnd})

	assert.Equal(t, CategoryIATF, s[3].Category)
	assert.True(t, s[3].RemovalRelative)
	assert.Equal(t, [2]int{10, 11}, [2]int{s[3].DayOffsetStart, s[3].DayOffsetEnd})
	assert.Equal(t, [2]int{48, 56}, [2]int{s[3].HoursAfterRemovalStart, s[3].HoursAfterRemovalEnd})
}

func TestDefaultSchedule_ReturnsFreshCopy(t *testing.T) {
	s := DefaultSchedule()
	s[0].Label = "mutated"
	assert.NotEqual(t, "mutated", DefaultSchedule()[0].Label)
}

func TestCategory_StepAndColor(t *testing.T) {
	tests := []struct {
		cat   Category
		step  string
		color string
	}{
		{CategoryDay0, "Dia 0", "#fcd34d"},
		{CategoryDay7to8, "Dia 7/8", "#60a5fa"},
		{CategoryDay9to10, "Dia 9/10", "#86efac"},
		{CategoryIATF, "IATF", "#fca5a5"},
	}
	for _, tt := range tests {
		assert.True(t, tt.cat.IsValid())
		assert.Equal(t, tt.step, tt.cat.Step())
		assert.Equal(t, tt.color, tt.cat.Color())
	}

	unknown := Category("day_99")
	assert.False(t, unknown.IsValid())
	assert.Equal(t, "day_99", unknown.Step())
	assert.Empty(t, unknown.Color())
}

func TestSchedule_Validate_Rejects(t *testing.T) {
	base := DefaultSchedule()

	tests := []struct {
		name   string
		mutate func(Schedule) Schedule
	}{
		{"empty", func(Schedule) Schedule { return Schedule{} }},
		{"unknown category", func(s Schedule) Schedule { s[0].Category = "x"; return s }},
		{"empty label", func(s Schedule) Schedule { s[1].Label = ""; return s }},
		{"negative offset", func(s Schedule) Schedule { s[1].DayOffsetStart = -1; return s }},
		{"end before start", func(s Schedule) Schedule { s[2].DayOffsetEnd = 8; return s }},
		{"removal hours inverted", func(s Schedule) Schedule { s[3].HoursAfterRemovalEnd = 40; return s }},
		{"duplicate category", func(s Schedule) Schedule { s[1].Category = CategoryDay0; return s }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.mutate(base.Clone()).Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.CodeInvalidSchedule))
		})
	}
}
