package service

import (
	"fmt"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Conflict dimensions reported to callers.
const (
	ConflictDimensionRoom    = "ROOM"
	ConflictDimensionTeacher = "TEACHER"
)

// ConflictChecker decides whether a candidate session may join an existing
// set. It is stateless and performs no I/O; the caller picks the dimension by
// picking the set: a room's sessions for room exclusivity, a teacher's
// sessions for teacher availability.
type ConflictChecker struct{}

// NewConflictChecker constructs a checker.
func NewConflictChecker() *ConflictChecker {
	return &ConflictChecker{}
}

// Check validates the candidate's weekday and interval, then scans the
// existing set for a same-day overlap. The entry sharing the candidate's id
// is skipped so updates do not collide with themselves. Intervals touching
// only at a boundary instant do not conflict.
func (c *ConflictChecker) Check(candidate models.Session, existing []models.Session, dimension string) error {
	if !candidate.Weekday.Valid() {
		return appErrors.Clone(appErrors.ErrInvalidDay, fmt.Sprintf("invalid day: %s", candidate.Weekday))
	}
	if !candidate.StartTime.Before(candidate.EndTime) {
		return appErrors.Clone(appErrors.ErrInvalidInterval, fmt.Sprintf("interval start %s must precede end %s", candidate.StartTime, candidate.EndTime))
	}

	for _, item := range existing {
		if item.ID == candidate.ID {
			continue
		}
		if item.Weekday != candidate.Weekday {
			continue
		}
		if candidate.Interval().Overlaps(item.Interval()) {
			return wrapConflict(dimension, item)
		}
	}
	return nil
}

func wrapConflict(dimension string, existing models.Session) error {
	conflict := models.SessionConflict{
		SessionID: existing.ID,
		Weekday:   existing.Weekday,
		StartTime: existing.StartTime,
		EndTime:   existing.EndTime,
		SubjectID: existing.SubjectID,
		TeacherID: existing.TeacherID,
		RoomID:    existing.RoomID,
		Dimension: dimension,
	}
	message := fmt.Sprintf("overlaps session %s on %s %s", existing.ID, existing.Weekday, existing.Interval())
	domainErr := &models.SessionConflictError{Type: dimension, Message: message, Conflict: conflict}
	return appErrors.Wrap(domainErr, appErrors.ErrScheduleConflict.Code, appErrors.ErrScheduleConflict.Status, fmt.Sprintf("schedule conflict: %s", message))
}
