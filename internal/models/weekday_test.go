package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func TestParseWeekdayNormalisesCase(t *testing.T) {
	for _, raw := range []string{"monday", "Monday", "MONDAY", "  monday  "} {
		day, err := ParseWeekday(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, WeekdayMonday, day)
	}
}

func TestParseWeekdayRejectsSunday(t *testing.T) {
	_, err := ParseWeekday("SUNDAY")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidDay.Code, appErrors.FromError(err).Code)
}

func TestParseWeekdayRejectsUnknown(t *testing.T) {
	for _, raw := range []string{"", "FUNDAY", "MON"} {
		_, err := ParseWeekday(raw)
		require.Error(t, err, raw)
	}
}

func TestWeekdayOrder(t *testing.T) {
	days := Weekdays()
	require.Len(t, days, 6)
	for i, day := range days {
		assert.True(t, day.Valid())
		assert.Equal(t, i+1, day.Order())
	}
	assert.False(t, Weekday("SUNDAY").Valid())
}
