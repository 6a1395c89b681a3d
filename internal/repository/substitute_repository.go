package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

const substituteColumns = "id, original_teacher_id, substitute_teacher_id, start_at, end_at, status, created_at, updated_at"

// SubstituteRepository persists substitute records and the transfer manifest
// tying each substitution to the session ids it moved.
type SubstituteRepository struct {
	db *sqlx.DB
}

// NewSubstituteRepository creates a new substitute repository.
func NewSubstituteRepository(db *sqlx.DB) *SubstituteRepository {
	return &SubstituteRepository{db: db}
}

// FindByID loads a substitute record by id.
func (r *SubstituteRepository) FindByID(ctx context.Context, id string) (*models.SubstituteRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM substitutes WHERE id = $1", substituteColumns)
	var record models.SubstituteRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindActiveByTeacher loads the ACTIVE record for an original teacher.
// Returns sql.ErrNoRows when the teacher is not under substitution.
func (r *SubstituteRepository) FindActiveByTeacher(ctx context.Context, originalTeacherID string) (*models.SubstituteRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM substitutes WHERE original_teacher_id = $1 AND status = $2", substituteColumns)
	var record models.SubstituteRecord
	if err := r.db.GetContext(ctx, &record, query, originalTeacherID, models.SubstituteStatusActive); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByStatus returns records in a lifecycle state, oldest first.
func (r *SubstituteRepository) ListByStatus(ctx context.Context, status models.SubstituteStatus) ([]models.SubstituteRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM substitutes WHERE status = $1 ORDER BY created_at ASC", substituteColumns)
	var records []models.SubstituteRecord
	if err := r.db.SelectContext(ctx, &records, query, status); err != nil {
		return nil, fmt.Errorf("list substitutes by status: %w", err)
	}
	return records, nil
}

// ListByTeacher returns every record ever created for an original teacher.
func (r *SubstituteRepository) ListByTeacher(ctx context.Context, originalTeacherID string) ([]models.SubstituteRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM substitutes WHERE original_teacher_id = $1 ORDER BY created_at ASC", substituteColumns)
	var records []models.SubstituteRecord
	if err := r.db.SelectContext(ctx, &records, query, originalTeacherID); err != nil {
		return nil, fmt.Errorf("list substitutes by teacher: %w", err)
	}
	return records, nil
}

// List returns all substitute records, oldest first.
func (r *SubstituteRepository) List(ctx context.Context) ([]models.SubstituteRecord, error) {
	query := fmt.Sprintf("SELECT %s FROM substitutes ORDER BY created_at ASC", substituteColumns)
	var records []models.SubstituteRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("list substitutes: %w", err)
	}
	return records, nil
}

// ListTransferredSessionIDs returns the manifest of session ids a
// substitution moved, in the order they were recorded.
func (r *SubstituteRepository) ListTransferredSessionIDs(ctx context.Context, substituteID string) ([]string, error) {
	const query = `SELECT session_id FROM substitute_sessions WHERE substitute_id = $1 ORDER BY position ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, substituteID); err != nil {
		return nil, fmt.Errorf("list transferred session ids: %w", err)
	}
	return ids, nil
}

// CreateWithTransfer inserts the record, reassigns the listed sessions to the
// substitute teacher, and writes the transfer manifest, all in one
// transaction so a substitution never exists without its transfer.
func (r *SubstituteRepository) CreateWithTransfer(ctx context.Context, record *models.SubstituteRecord, sessionIDs []string) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	record.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin substitute transfer: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertRecord = `INSERT INTO substitutes (id, original_teacher_id, substitute_teacher_id, start_at, end_at, status, created_at, updated_at) VALUES (:id, :original_teacher_id, :substitute_teacher_id, :start_at, :end_at, :status, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertRecord, record); err != nil {
		return fmt.Errorf("insert substitute: %w", err)
	}

	if len(sessionIDs) > 0 {
		if _, err = tx.ExecContext(ctx, `UPDATE sessions SET teacher_id = $1, updated_at = $2 WHERE id = ANY($3)`, record.SubstituteTeacherID, now, pq.Array(sessionIDs)); err != nil {
			return fmt.Errorf("reassign sessions to substitute: %w", err)
		}
		for i, sessionID := range sessionIDs {
			if _, err = tx.ExecContext(ctx, `INSERT INTO substitute_sessions (substitute_id, session_id, position) VALUES ($1, $2, $3)`, record.ID, sessionID, i); err != nil {
				return fmt.Errorf("record transferred session: %w", err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit substitute transfer: %w", err)
	}
	return nil
}

// CloseWithRestore flips an ACTIVE record to a terminal status and hands the
// manifest sessions still owned by the substitute back to the original
// teacher in the same transaction. The status guard keeps the close
// idempotent under concurrent sweeps.
func (r *SubstituteRepository) CloseWithRestore(ctx context.Context, record *models.SubstituteRecord, status models.SubstituteStatus, sessionIDs []string) error {
	now := time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin substitute close: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var res sql.Result
	res, err = tx.ExecContext(ctx, `UPDATE substitutes SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`, status, now, record.ID, models.SubstituteStatusActive)
	if err != nil {
		return fmt.Errorf("close substitute: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close substitute rows: %w", err)
	}
	if affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if len(sessionIDs) > 0 {
		if _, err = tx.ExecContext(ctx, `UPDATE sessions SET teacher_id = $1, updated_at = $2 WHERE id = ANY($3) AND teacher_id = $4`, record.OriginalTeacherID, now, pq.Array(sessionIDs), record.SubstituteTeacherID); err != nil {
			return fmt.Errorf("restore sessions to original teacher: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit substitute close: %w", err)
	}

	record.Status = status
	record.UpdatedAt = now
	return nil
}
