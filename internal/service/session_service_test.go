package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type mockSessionRepo struct {
	items      map[string]*models.Session
	listResult []models.Session
	listTotal  int
	listErr    error
	deleted    []string
}

func (m *mockSessionRepo) List(ctx context.Context, filter models.SessionFilter) ([]models.Session, int, error) {
	if m.listErr != nil {
		return nil, 0, m.listErr
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*models.Session, error) {
	if session, ok := m.items[id]; ok {
		cp := *session
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) ListByRoom(ctx context.Context, roomID string) ([]models.Session, error) {
	var result []models.Session
	for _, session := range m.items {
		if session.RoomID == roomID {
			result = append(result, *session)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) ListByTeacher(ctx context.Context, teacherID string) ([]models.Session, error) {
	var result []models.Session
	for _, session := range m.items {
		if session.TeacherID == teacherID {
			result = append(result, *session)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) ListByWeekday(ctx context.Context, weekday models.Weekday) ([]models.Session, error) {
	var result []models.Session
	for _, session := range m.items {
		if session.Weekday == weekday {
			result = append(result, *session)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) ListBySubject(ctx context.Context, subjectID string) ([]models.Session, error) {
	var result []models.Session
	for _, session := range m.items {
		if session.SubjectID == subjectID {
			result = append(result, *session)
		}
	}
	return result, nil
}

func (m *mockSessionRepo) Create(ctx context.Context, session *models.Session) error {
	if m.items == nil {
		m.items = make(map[string]*models.Session)
	}
	if session.ID == "" {
		session.ID = "generated"
	}
	now := time.Now()
	session.CreatedAt = now
	session.UpdatedAt = now
	cp := *session
	m.items[session.ID] = &cp
	return nil
}

func (m *mockSessionRepo) Update(ctx context.Context, session *models.Session) error {
	if m.items == nil {
		m.items = make(map[string]*models.Session)
	}
	session.UpdatedAt = time.Now()
	cp := *session
	m.items[session.ID] = &cp
	return nil
}

func (m *mockSessionRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func newSessionService(repo *mockSessionRepo) *SessionService {
	return NewSessionService(repo, NewConflictChecker(), nil, validator.New(), zap.NewNop())
}

func TestSessionServiceCreate(t *testing.T) {
	repo := &mockSessionRepo{}
	service := newSessionService(repo)

	session, err := service.Create(context.Background(), CreateSessionRequest{
		Weekday:   "monday",
		StartTime: "08:00",
		EndTime:   "10:00",
		SubjectID: "math",
		TeacherID: "t1",
		RoomID:    "r1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.WeekdayMonday, session.Weekday)
	assert.Equal(t, "08:00", session.StartTime.String())
	assert.Len(t, repo.items, 1)
}

func TestSessionServiceCreateRoomConflict(t *testing.T) {
	existing := buildSession(t, "s1", "monday", "08:00", "10:00", "r1", "t1")
	repo := &mockSessionRepo{items: map[string]*models.Session{"s1": &existing}}
	service := newSessionService(repo)

	_, err := service.Create(context.Background(), CreateSessionRequest{
		Weekday:   "monday",
		StartTime: "09:00",
		EndTime:   "11:00",
		SubjectID: "physics",
		TeacherID: "t2",
		RoomID:    "r1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrScheduleConflict.Code, appErrors.FromError(err).Code)
	assert.Len(t, repo.items, 1)
}

func TestSessionServiceCreateBackToBackAllowed(t *testing.T) {
	existing := buildSession(t, "s1", "monday", "08:00", "10:00", "r1", "t1")
	repo := &mockSessionRepo{items: map[string]*models.Session{"s1": &existing}}
	service := newSessionService(repo)

	_, err := service.Create(context.Background(), CreateSessionRequest{
		Weekday:   "monday",
		StartTime: "10:00",
		EndTime:   "12:00",
		SubjectID: "physics",
		TeacherID: "t2",
		RoomID:    "r1",
	})
	require.NoError(t, err)
	assert.Len(t, repo.items, 2)
}

func TestSessionServiceCreateInvalidDay(t *testing.T) {
	service := newSessionService(&mockSessionRepo{})

	_, err := service.Create(context.Background(), CreateSessionRequest{
		Weekday:   "sunday",
		StartTime: "08:00",
		EndTime:   "10:00",
		SubjectID: "math",
		TeacherID: "t1",
		RoomID:    "r1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidDay.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceCreateInvalidTime(t *testing.T) {
	service := newSessionService(&mockSessionRepo{})

	_, err := service.Create(context.Background(), CreateSessionRequest{
		Weekday:   "monday",
		StartTime: "8:00",
		EndTime:   "10:00",
		SubjectID: "math",
		TeacherID: "t1",
		RoomID:    "r1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidTimeFormat.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceCreateInvertedInterval(t *testing.T) {
	service := newSessionService(&mockSessionRepo{})

	_, err := service.Create(context.Background(), CreateSessionRequest{
		Weekday:   "monday",
		StartTime: "10:00",
		EndTime:   "08:00",
		SubjectID: "math",
		TeacherID: "t1",
		RoomID:    "r1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidInterval.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceUpdateKeepsOwnSlot(t *testing.T) {
	existing := buildSession(t, "s1", "monday", "08:00", "10:00", "r1", "t1")
	repo := &mockSessionRepo{items: map[string]*models.Session{"s1": &existing}}
	service := newSessionService(repo)

	updated, err := service.Update(context.Background(), "s1", UpdateSessionRequest{
		Weekday:   "monday",
		StartTime: "08:30",
		EndTime:   "09:30",
		SubjectID: "math",
		TeacherID: "t1",
		RoomID:    "r1",
	})
	require.NoError(t, err)
	assert.Equal(t, "08:30", updated.StartTime.String())
}

func TestSessionServiceUpdateNotFound(t *testing.T) {
	service := newSessionService(&mockSessionRepo{})

	_, err := service.Update(context.Background(), "missing", UpdateSessionRequest{
		Weekday:   "monday",
		StartTime: "08:00",
		EndTime:   "10:00",
		SubjectID: "math",
		TeacherID: "t1",
		RoomID:    "r1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceDelete(t *testing.T) {
	existing := buildSession(t, "s1", "monday", "08:00", "10:00", "r1", "t1")
	repo := &mockSessionRepo{items: map[string]*models.Session{"s1": &existing}}
	service := newSessionService(repo)

	require.NoError(t, service.Delete(context.Background(), "s1"))
	assert.Equal(t, []string{"s1"}, repo.deleted)

	err := service.Delete(context.Background(), "s1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceListByWeekday(t *testing.T) {
	monday := buildSession(t, "s1", "monday", "08:00", "10:00", "r1", "t1")
	friday := buildSession(t, "s2", "friday", "08:00", "10:00", "r1", "t1")
	repo := &mockSessionRepo{items: map[string]*models.Session{"s1": &monday, "s2": &friday}}
	service := newSessionService(repo)

	sessions, err := service.ListByWeekday(context.Background(), "Monday")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, "s1", sessions[0].ID)

	_, err = service.ListByWeekday(context.Background(), "sunday")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidDay.Code, appErrors.FromError(err).Code)
}

func TestSessionServiceListPagination(t *testing.T) {
	repo := &mockSessionRepo{listResult: []models.Session{}, listTotal: 42}
	service := newSessionService(repo)

	_, pagination, err := service.List(context.Background(), models.SessionFilter{Page: 0, PageSize: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 42, pagination.TotalCount)
}
