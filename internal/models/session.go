package models

import "time"

// Session is one scheduled occurrence of a subject taught by a teacher in a
// room on a weekday within a time interval. Subject, teacher, and room are
// opaque keys owned by other services.
type Session struct {
	ID        string    `db:"id" json:"id"`
	Weekday   Weekday   `db:"weekday" json:"weekday"`
	StartTime TimeOfDay `db:"start_time" json:"start_time"`
	EndTime   TimeOfDay `db:"end_time" json:"end_time"`
	SubjectID string    `db:"subject_id" json:"subject_id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	RoomID    string    `db:"room_id" json:"room_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Interval returns the session's time span.
func (s Session) Interval() TimeInterval {
	return TimeInterval{Start: s.StartTime, End: s.EndTime}
}

// SessionFilter describes query params for listing sessions.
type SessionFilter struct {
	Weekday   string
	RoomID    string
	TeacherID string
	SubjectID string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// SessionConflict describes an existing session that causes a conflict.
type SessionConflict struct {
	SessionID string    `json:"session_id"`
	Weekday   Weekday   `json:"weekday"`
	StartTime TimeOfDay `json:"start_time"`
	EndTime   TimeOfDay `json:"end_time"`
	SubjectID string    `json:"subject_id"`
	TeacherID string    `json:"teacher_id"`
	RoomID    string    `json:"room_id"`
	Dimension string    `json:"dimension"`
}

// SessionConflictError is returned when a session collides with an existing one.
type SessionConflictError struct {
	Type     string          `json:"type"`
	Message  string          `json:"message"`
	Conflict SessionConflict `json:"conflict"`
}

// Error implements the error interface for conflict errors.
func (e *SessionConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return e.Message
}
