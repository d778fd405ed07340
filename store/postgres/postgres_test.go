package postgres

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/casualjim/swekit/store"
	"github.com/go-openapi/strfmt"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestMigrate(t *testing.T) {
	db, mock := setupMockDB(t)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS attempts").WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, Migrate(context.Background(), db))
	assert.NoError(t, mock.ExpectationsWereMet())

	db, mock = setupMockDB(t)
	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))
	err := Migrate(context.Background(), db)
	require.ErrorContains(t, err, "migrate: permission denied")
}

func TestSaveAttempt(t *testing.T) {
	t.Run("inserts the attempt", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)
		created := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)

		mock.ExpectExec("INSERT INTO attempts").
			WithArgs("temp", "astropy__astropy-12907", "ws-1", "PASS", "diff", "", int64(2500), created).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := s.SaveAttempt(context.Background(), store.Attempt{
			RunID:       "temp",
			InstanceID:  "astropy__astropy-12907",
			WorkspaceID: "ws-1",
			Status:      "PASS",
			Patch:       "diff",
			Duration:    2500 * time.Millisecond,
			CreatedAt:   strfmt.DateTime(created),
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("fills in the timestamp", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)

		mock.ExpectExec("INSERT INTO attempts").
			WithArgs("temp", "i-1", "ws-2", "FAIL", "", "workspace gone", int64(0), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(2, 1))

		err := s.SaveAttempt(context.Background(), store.Attempt{
			RunID: "temp", InstanceID: "i-1", WorkspaceID: "ws-2", Status: "FAIL", Error: "workspace gone",
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		db, mock := setupMockDB(t)
		s := New(db)

		mock.ExpectExec("INSERT INTO attempts").WillReturnError(sql.ErrConnDone)

		err := s.SaveAttempt(context.Background(), store.Attempt{InstanceID: "i-1", WorkspaceID: "ws-1"})
		require.ErrorIs(t, err, sql.ErrConnDone)
		assert.Contains(t, err.Error(), "save attempt i-1/ws-1")
	})
}

func TestSaveSelection(t *testing.T) {
	db, mock := setupMockDB(t)
	s := New(db)

	mock.ExpectExec("INSERT INTO selections").
		WithArgs("temp", "astropy__astropy-12907", "diff", 2, true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := s.SaveSelection(context.Background(), store.Selection{
		RunID:       "temp",
		InstanceID:  "astropy__astropy-12907",
		Patch:       "diff",
		ChosenIndex: 2,
		Fallback:    true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	mock.ExpectClose()
	require.NoError(t, s.Close())
}
