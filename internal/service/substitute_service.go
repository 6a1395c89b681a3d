package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// Clock abstracts "now" so expiry decisions are deterministic in tests.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// SystemClock returns the wall clock.
func SystemClock() Clock { return systemClock{} }

type substituteRepository interface {
	FindByID(ctx context.Context, id string) (*models.SubstituteRecord, error)
	FindActiveByTeacher(ctx context.Context, originalTeacherID string) (*models.SubstituteRecord, error)
	ListByStatus(ctx context.Context, status models.SubstituteStatus) ([]models.SubstituteRecord, error)
	ListByTeacher(ctx context.Context, originalTeacherID string) ([]models.SubstituteRecord, error)
	List(ctx context.Context) ([]models.SubstituteRecord, error)
	ListTransferredSessionIDs(ctx context.Context, substituteID string) ([]string, error)
	CreateWithTransfer(ctx context.Context, record *models.SubstituteRecord, sessionIDs []string) error
	CloseWithRestore(ctx context.Context, record *models.SubstituteRecord, status models.SubstituteStatus, sessionIDs []string) error
}

type substituteSessionStore interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Session, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Session, error)
}

// CreateSubstituteRequest starts a substitution for a teacher.
type CreateSubstituteRequest struct {
	OriginalTeacherID   string    `json:"original_teacher_id" validate:"required"`
	SubstituteTeacherID string    `json:"substitute_teacher_id" validate:"required,nefield=OriginalTeacherID"`
	StartAt             time.Time `json:"start_at" validate:"required"`
	EndAt               time.Time `json:"end_at" validate:"required"`
}

// SubstituteService tracks teacher replacements and moves session ownership
// with them. Transfer and restore are two-phase: every affected session is
// validated before any of them is mutated.
type SubstituteService struct {
	repo      substituteRepository
	sessions  substituteSessionStore
	checker   *ConflictChecker
	cache     *CacheService
	clock     Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubstituteService instantiates SubstituteService. Cache may be nil.
func NewSubstituteService(repo substituteRepository, sessions substituteSessionStore, checker *ConflictChecker, cache *CacheService, clock Clock, validate *validator.Validate, logger *zap.Logger) *SubstituteService {
	if checker == nil {
		checker = NewConflictChecker()
	}
	if clock == nil {
		clock = SystemClock()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubstituteService{repo: repo, sessions: sessions, checker: checker, cache: cache, clock: clock, validator: validate, logger: logger}
}

// CreateSubstitute activates a substitution and transfers the original
// teacher's whole session set to the substitute in the same operation. Any
// conflict against the substitute's existing load aborts the whole transfer
// with no session changing owner.
func (s *SubstituteService) CreateSubstitute(ctx context.Context, req CreateSubstituteRequest) (*models.SubstituteRecord, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitute payload")
	}
	if req.EndAt.Before(req.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start_at must not be after end_at")
	}

	if _, err := s.repo.FindActiveByTeacher(ctx, req.OriginalTeacherID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrDuplicateActiveSubstitute, "teacher "+req.OriginalTeacherID+" already has an active substitute")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active substitutes")
	}

	moved, err := s.sessions.ListByTeacher(ctx, req.OriginalTeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load original teacher sessions")
	}
	load, err := s.sessions.ListByTeacher(ctx, req.SubstituteTeacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitute teacher sessions")
	}

	// Phase one: validate every moved session against the substitute's own
	// timetable before anything is written.
	for _, session := range moved {
		candidate := session
		candidate.TeacherID = req.SubstituteTeacherID
		if err := s.checker.Check(candidate, load, ConflictDimensionTeacher); err != nil {
			return nil, err
		}
	}

	record := &models.SubstituteRecord{
		OriginalTeacherID:   req.OriginalTeacherID,
		SubstituteTeacherID: req.SubstituteTeacherID,
		StartAt:             req.StartAt.UTC(),
		EndAt:               req.EndAt.UTC(),
		Status:              models.SubstituteStatusActive,
	}
	if err := s.repo.CreateWithTransfer(ctx, record, sessionIDs(moved)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create substitute")
	}

	s.invalidateRooms(ctx, moved)
	s.logger.Info("substitution started",
		zap.String("substitute_id", record.ID),
		zap.String("original_teacher_id", record.OriginalTeacherID),
		zap.String("substitute_teacher_id", record.SubstituteTeacherID),
		zap.Int("sessions_transferred", len(moved)),
	)
	return record, nil
}

// EndSubstitution terminates an ACTIVE substitution early and restores the
// transferred sessions to the original teacher.
func (s *SubstituteService) EndSubstitution(ctx context.Context, id string) (*models.SubstituteRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitute record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitute")
	}
	if record.Status != models.SubstituteStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "substitute record is "+string(record.Status))
	}
	if err := s.close(ctx, record, models.SubstituteStatusEnded); err != nil {
		return nil, err
	}
	return record, nil
}

// ProcessExpiredSubstitutes sweeps ACTIVE records whose validity window has
// passed, expiring each and restoring its sessions. Running it again without
// time advancing is a no-op.
func (s *SubstituteService) ProcessExpiredSubstitutes(ctx context.Context) ([]models.SubstituteRecord, error) {
	active, err := s.repo.ListByStatus(ctx, models.SubstituteStatusActive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active substitutes")
	}

	now := s.clock.Now()
	var expired []models.SubstituteRecord
	for i := range active {
		record := active[i]
		if !record.EndAt.Before(now) {
			continue
		}
		if err := s.close(ctx, &record, models.SubstituteStatusExpired); err != nil {
			s.logger.Warn("failed to expire substitute", zap.String("substitute_id", record.ID), zap.Error(err))
			continue
		}
		expired = append(expired, record)
	}
	if len(expired) > 0 {
		s.logger.Info("expired substitutes processed", zap.Int("count", len(expired)))
	}
	return expired, nil
}

// HasActiveSubstitute reports whether a teacher is currently substituted.
func (s *SubstituteService) HasActiveSubstitute(ctx context.Context, teacherID string) (bool, error) {
	if _, err := s.repo.FindActiveByTeacher(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check active substitutes")
	}
	return true, nil
}

// GetActiveSubstituteForTeacher returns the ACTIVE record tracking a teacher.
func (s *SubstituteService) GetActiveSubstituteForTeacher(ctx context.Context, teacherID string) (*models.SubstituteRecord, error) {
	record, err := s.repo.FindActiveByTeacher(ctx, teacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no active substitute for teacher "+teacherID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load active substitute")
	}
	return record, nil
}

// Get loads one substitute record.
func (s *SubstituteService) Get(ctx context.Context, id string) (*models.SubstituteRecord, error) {
	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "substitute record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitute")
	}
	return record, nil
}

// ListActive returns every ACTIVE record.
func (s *SubstituteService) ListActive(ctx context.Context) ([]models.SubstituteRecord, error) {
	records, err := s.repo.ListByStatus(ctx, models.SubstituteStatusActive)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list active substitutes")
	}
	return records, nil
}

// List returns every record regardless of status.
func (s *SubstituteService) List(ctx context.Context) ([]models.SubstituteRecord, error) {
	records, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list substitutes")
	}
	return records, nil
}

// ListForTeacher returns the substitution history of an original teacher.
func (s *SubstituteService) ListForTeacher(ctx context.Context, teacherID string) ([]models.SubstituteRecord, error) {
	records, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher substitutes")
	}
	return records, nil
}

// close flips the record to a terminal status and restores the manifest
// sessions still owned by the substitute. Sessions the substitute held
// before the transfer are never reclaimed.
func (s *SubstituteService) close(ctx context.Context, record *models.SubstituteRecord, status models.SubstituteStatus) error {
	manifest, err := s.repo.ListTransferredSessionIDs(ctx, record.ID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transfer manifest")
	}
	transferred, err := s.sessions.ListByIDs(ctx, manifest)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transferred sessions")
	}

	var restorable []models.Session
	for _, session := range transferred {
		if session.TeacherID == record.SubstituteTeacherID {
			restorable = append(restorable, session)
		}
	}

	load, err := s.sessions.ListByTeacher(ctx, record.OriginalTeacherID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load original teacher sessions")
	}

	for _, session := range restorable {
		candidate := session
		candidate.TeacherID = record.OriginalTeacherID
		if err := s.checker.Check(candidate, load, ConflictDimensionTeacher); err != nil {
			return err
		}
	}

	if err := s.repo.CloseWithRestore(ctx, record, status, sessionIDs(restorable)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrInvalidState, "substitute record is no longer active")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close substitute")
	}

	s.invalidateRooms(ctx, restorable)
	s.logger.Info("substitution closed",
		zap.String("substitute_id", record.ID),
		zap.String("status", string(status)),
		zap.Int("sessions_restored", len(restorable)),
	)
	return nil
}

func (s *SubstituteService) invalidateRooms(ctx context.Context, sessions []models.Session) {
	if s.cache == nil || len(sessions) == 0 {
		return
	}
	seen := make(map[string]struct{}, len(sessions))
	var keys []string
	for _, session := range sessions {
		if _, ok := seen[session.RoomID]; ok {
			continue
		}
		seen[session.RoomID] = struct{}{}
		keys = append(keys, roomTimetableKey(session.RoomID))
	}
	s.cache.Invalidate(ctx, keys...)
}

func sessionIDs(sessions []models.Session) []string {
	ids := make([]string, 0, len(sessions))
	for _, session := range sessions {
		ids = append(ids, session.ID)
	}
	return ids
}
