package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func newSessionRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func sessionRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "weekday", "start_time", "end_time", "subject_id", "teacher_id", "room_id", "created_at", "updated_at"}).
		AddRow("s1", "MONDAY", "08:00", "10:00", "math", "t1", "r1", time.Now(), time.Now())
}

func TestSessionRepositoryList(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, weekday, start_time, end_time, subject_id, teacher_id, room_id, created_at, updated_at FROM sessions WHERE 1=1 ORDER BY created_at ASC LIMIT 20 OFFSET 0")).
		WillReturnRows(sessionRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions WHERE 1=1")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	list, total, err := repo.List(context.Background(), models.SessionFilter{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, models.WeekdayMonday, list[0].Weekday)
	assert.Equal(t, "08:00", list[0].StartTime.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListFiltered(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, weekday, start_time, end_time, subject_id, teacher_id, room_id, created_at, updated_at FROM sessions WHERE 1=1 AND weekday = $1 AND room_id = $2 ORDER BY start_time ASC LIMIT 10 OFFSET 10")).
		WithArgs("MONDAY", "r1").
		WillReturnRows(sessionRows())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sessions WHERE 1=1 AND weekday = $1 AND room_id = $2")).
		WithArgs("MONDAY", "r1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	_, total, err := repo.List(context.Background(), models.SessionFilter{
		Weekday:  "MONDAY",
		RoomID:   "r1",
		Page:     2,
		PageSize: 10,
		SortBy:   "start_time",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, weekday, start_time, end_time, subject_id, teacher_id, room_id, created_at, updated_at FROM sessions WHERE id = $1")).
		WithArgs("s1").
		WillReturnRows(sessionRows())

	session, err := repo.FindByID(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "s1", session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, weekday, start_time, end_time, subject_id, teacher_id, room_id, created_at, updated_at FROM sessions WHERE id = $1")).
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListByRoom(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, weekday, start_time, end_time, subject_id, teacher_id, room_id, created_at, updated_at FROM sessions WHERE room_id = $1 ORDER BY created_at ASC")).
		WithArgs("r1").
		WillReturnRows(sessionRows())

	sessions, err := repo.ListByRoom(context.Background(), "r1")
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListByIDs(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, weekday, start_time, end_time, subject_id, teacher_id, room_id, created_at, updated_at FROM sessions WHERE id = ANY($1) ORDER BY created_at ASC")).
		WithArgs(pq.Array([]string{"s1", "s2"})).
		WillReturnRows(sessionRows())

	sessions, err := repo.ListByIDs(context.Background(), []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Len(t, sessions, 1)
	assert.NoError(t, mock.ExpectationsWereMet())

	empty, err := repo.ListByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}

func TestSessionRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(sqlmock.AnyArg(), "MONDAY", "08:00", "10:00", "math", "t1", "r1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	start, _ := models.ParseTimeOfDay("08:00")
	end, _ := models.ParseTimeOfDay("10:00")
	session := &models.Session{
		Weekday:   models.WeekdayMonday,
		StartTime: start,
		EndTime:   end,
		SubjectID: "math",
		TeacherID: "t1",
		RoomID:    "r1",
	}
	require.NoError(t, repo.Create(context.Background(), session))
	assert.NotEmpty(t, session.ID)
	assert.False(t, session.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateAndDelete(t *testing.T) {
	db, mock, cleanup := newSessionRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("UPDATE sessions SET weekday").
		WithArgs("TUESDAY", "09:00", "11:00", "math", "t1", "r2", sqlmock.AnyArg(), "s1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	start, _ := models.ParseTimeOfDay("09:00")
	end, _ := models.ParseTimeOfDay("11:00")
	session := &models.Session{
		ID:        "s1",
		Weekday:   models.WeekdayTuesday,
		StartTime: start,
		EndTime:   end,
		SubjectID: "math",
		TeacherID: "t1",
		RoomID:    "r2",
	}
	require.NoError(t, repo.Update(context.Background(), session))

	mock.ExpectExec("DELETE FROM sessions").
		WithArgs("s1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), "s1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
