package models

import "time"

// SubstituteStatus represents lifecycle phases of a substitution.
type SubstituteStatus string

const (
	SubstituteStatusActive  SubstituteStatus = "ACTIVE"
	SubstituteStatusEnded   SubstituteStatus = "ENDED"
	SubstituteStatusExpired SubstituteStatus = "EXPIRED"
)

// SubstituteRecord captures a temporary reassignment of one teacher's full
// session set to another teacher. ENDED and EXPIRED are terminal; at most one
// ACTIVE record may exist per original teacher.
type SubstituteRecord struct {
	ID                  string           `db:"id" json:"id"`
	OriginalTeacherID   string           `db:"original_teacher_id" json:"original_teacher_id"`
	SubstituteTeacherID string           `db:"substitute_teacher_id" json:"substitute_teacher_id"`
	StartAt             time.Time        `db:"start_at" json:"start_at"`
	EndAt               time.Time        `db:"end_at" json:"end_at"`
	Status              SubstituteStatus `db:"status" json:"status"`
	CreatedAt           time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time        `db:"updated_at" json:"updated_at"`
}

// Terminal reports whether the record can no longer transition.
func (r SubstituteRecord) Terminal() bool {
	return r.Status == SubstituteStatusEnded || r.Status == SubstituteStatusExpired
}
