package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

func buildSession(t *testing.T, id, day, start, end, roomID, teacherID string) models.Session {
	t.Helper()
	weekday, err := models.ParseWeekday(day)
	require.NoError(t, err)
	interval, err := models.ParseTimeInterval(start, end)
	require.NoError(t, err)
	return models.Session{
		ID:        id,
		Weekday:   weekday,
		StartTime: interval.Start,
		EndTime:   interval.End,
		SubjectID: "math",
		TeacherID: teacherID,
		RoomID:    roomID,
	}
}

func TestConflictCheckerDetectsRoomOverlap(t *testing.T) {
	checker := NewConflictChecker()
	existing := []models.Session{buildSession(t, "s1", "monday", "08:00", "10:00", "r1", "t1")}
	candidate := buildSession(t, "s2", "monday", "09:00", "11:00", "r1", "t2")

	err := checker.Check(candidate, existing, ConflictDimensionRoom)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)

	var conflictErr *models.SessionConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, ConflictDimensionRoom, conflictErr.Type)
	assert.Equal(t, "s1", conflictErr.Conflict.SessionID)
}

func TestConflictCheckerAllowsBackToBackSessions(t *testing.T) {
	checker := NewConflictChecker()
	existing := []models.Session{buildSession(t, "s1", "monday", "08:00", "10:00", "r1", "t1")}
	candidate := buildSession(t, "s2", "monday", "10:00", "12:00", "r1", "t2")

	assert.NoError(t, checker.Check(candidate, existing, ConflictDimensionRoom))
}

func TestConflictCheckerIgnoresOtherDays(t *testing.T) {
	checker := NewConflictChecker()
	existing := []models.Session{buildSession(t, "s1", "monday", "08:00", "10:00", "r1", "t1")}
	candidate := buildSession(t, "s2", "tuesday", "08:00", "10:00", "r1", "t2")

	assert.NoError(t, checker.Check(candidate, existing, ConflictDimensionRoom))
}

func TestConflictCheckerSkipsSameID(t *testing.T) {
	checker := NewConflictChecker()
	existing := []models.Session{buildSession(t, "s1", "monday", "08:00", "10:00", "r1", "t1")}

	// Updating a session must not collide with its own stored slot.
	candidate := buildSession(t, "s1", "monday", "08:30", "09:30", "r1", "t1")
	assert.NoError(t, checker.Check(candidate, existing, ConflictDimensionRoom))
}

func TestConflictCheckerRejectsInvalidDay(t *testing.T) {
	checker := NewConflictChecker()
	candidate := buildSession(t, "s1", "monday", "08:00", "10:00", "r1", "t1")
	candidate.Weekday = models.Weekday("SUNDAY")

	err := checker.Check(candidate, nil, ConflictDimensionRoom)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidDay.Code, appErrors.FromError(err).Code)
}

func TestConflictCheckerRejectsInvalidInterval(t *testing.T) {
	checker := NewConflictChecker()
	candidate := buildSession(t, "s1", "monday", "08:00", "10:00", "r1", "t1")
	candidate.EndTime = candidate.StartTime

	err := checker.Check(candidate, nil, ConflictDimensionRoom)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInterval.Code, appErrors.FromError(err).Code)
}

func TestConflictCheckerTeacherDimension(t *testing.T) {
	checker := NewConflictChecker()
	load := []models.Session{buildSession(t, "s1", "friday", "13:00", "15:00", "r2", "t2")}
	candidate := buildSession(t, "s9", "friday", "14:00", "16:00", "r1", "t2")

	err := checker.Check(candidate, load, ConflictDimensionTeacher)
	require.Error(t, err)

	var conflictErr *models.SessionConflictError
	require.True(t, errors.As(err, &conflictErr))
	assert.Equal(t, ConflictDimensionTeacher, conflictErr.Type)
}
