package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type sessionRepository interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error)
	FindByID(ctx context.Context, id string) (*models.Session, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.Session, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Session, error)
	ListByWeekday(ctx context.Context, weekday models.Weekday) ([]models.Session, error)
	ListBySubject(ctx context.Context, subjectID string) ([]models.Session, error)
	Create(ctx context.Context, session *models.Session) error
	Update(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

// CreateSessionRequest describes payload for creating a session.
type CreateSessionRequest struct {
	Weekday   string `json:"weekday" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	RoomID    string `json:"room_id" validate:"required"`
}

// UpdateSessionRequest updates an existing session.
type UpdateSessionRequest struct {
	Weekday   string `json:"weekday" validate:"required"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
	SubjectID string `json:"subject_id" validate:"required"`
	TeacherID string `json:"teacher_id" validate:"required"`
	RoomID    string `json:"room_id" validate:"required"`
}

// SessionService admits sessions into the timetable while keeping rooms
// exclusive per weekday and time interval.
type SessionService struct {
	repo      sessionRepository
	checker   *ConflictChecker
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService instantiates SessionService. Cache may be nil.
func NewSessionService(repo sessionRepository, checker *ConflictChecker, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if checker == nil {
		checker = NewConflictChecker()
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{repo: repo, checker: checker, cache: cache, validator: validate, logger: logger}
}

func roomTimetableKey(roomID string) string {
	return "timetable:room:" + roomID
}

// List returns sessions with pagination metadata.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, *models.Pagination, error) {
	sessions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return sessions, pagination, nil
}

// Get loads a single session.
func (s *SessionService) Get(ctx context.Context, id string) (*models.Session, error) {
	session, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

// ListByRoom returns a room's sessions, served from cache when warm.
func (s *SessionService) ListByRoom(ctx context.Context, roomID string) ([]models.Session, error) {
	key := roomTimetableKey(roomID)
	var cached []models.Session
	if s.cache.GetJSON(ctx, key, &cached) {
		return cached, nil
	}
	sessions, err := s.repo.ListByRoom(ctx, roomID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list room sessions")
	}
	s.cache.SetJSON(ctx, key, sessions)
	return sessions, nil
}

// ListByTeacher returns a teacher's sessions.
func (s *SessionService) ListByTeacher(ctx context.Context, teacherID string) ([]models.Session, error) {
	sessions, err := s.repo.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teacher sessions")
	}
	return sessions, nil
}

// ListByWeekday returns the sessions held on one teaching day.
func (s *SessionService) ListByWeekday(ctx context.Context, rawDay string) ([]models.Session, error) {
	day, err := models.ParseWeekday(rawDay)
	if err != nil {
		return nil, err
	}
	sessions, err := s.repo.ListByWeekday(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekday sessions")
	}
	return sessions, nil
}

// ListBySubject returns the sessions teaching one subject.
func (s *SessionService) ListBySubject(ctx context.Context, subjectID string) ([]models.Session, error) {
	sessions, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list subject sessions")
	}
	return sessions, nil
}

// Create inserts a new session after validation and room conflict detection.
func (s *SessionService) Create(ctx context.Context, req CreateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	session, err := s.buildSession("", req.Weekday, req.StartTime, req.EndTime, req.SubjectID, req.TeacherID, req.RoomID)
	if err != nil {
		return nil, err
	}

	if err := s.ensureRoomFree(ctx, *session); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create session")
	}
	s.cache.Invalidate(ctx, roomTimetableKey(session.RoomID))
	return session, nil
}

// Update modifies an existing session, re-running conflict detection with the
// session's own prior slot excluded.
func (s *SessionService) Update(ctx context.Context, id string, req UpdateSessionRequest) (*models.Session, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	updated, err := s.buildSession(existing.ID, req.Weekday, req.StartTime, req.EndTime, req.SubjectID, req.TeacherID, req.RoomID)
	if err != nil {
		return nil, err
	}
	updated.CreatedAt = existing.CreatedAt

	if err := s.ensureRoomFree(ctx, *updated); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, updated); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	s.cache.Invalidate(ctx, roomTimetableKey(existing.RoomID), roomTimetableKey(updated.RoomID))
	return updated, nil
}

// Delete removes a session.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete session")
	}
	s.cache.Invalidate(ctx, roomTimetableKey(existing.RoomID))
	return nil
}

func (s *SessionService) buildSession(id, rawDay, rawStart, rawEnd, subjectID, teacherID, roomID string) (*models.Session, error) {
	day, err := models.ParseWeekday(rawDay)
	if err != nil {
		return nil, err
	}
	interval, err := models.ParseTimeInterval(rawStart, rawEnd)
	if err != nil {
		return nil, err
	}
	return &models.Session{
		ID:        id,
		Weekday:   day,
		StartTime: interval.Start,
		EndTime:   interval.End,
		SubjectID: subjectID,
		TeacherID: teacherID,
		RoomID:    roomID,
	}, nil
}

func (s *SessionService) ensureRoomFree(ctx context.Context, candidate models.Session) error {
	existing, err := s.repo.ListByRoom(ctx, candidate.RoomID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room sessions")
	}
	return s.checker.Check(candidate, existing, ConflictDimensionRoom)
}
