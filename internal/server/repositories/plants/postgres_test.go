package plants

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

var plantColumns = []string{"id", "code", "name", "location", "is_active", "created_at"}

func TestList(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	ts := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(plantColumns).
		AddRow("p-1", "ABC", "Assembly", "Riga", true, ts).
		AddRow("p-2", "XYZ", "Packaging", "", false, ts)
	mock.ExpectQuery(`(?s)^SELECT\s+id,\s*code,\s*name,\s*location,\s*is_active,\s*created_at\s+FROM\s+plants\s+ORDER\s+BY\s+code\s*$`).
		WillReturnRows(rows)

	got, err := repo.List(context.Background())
	require.NoError(t, err)

	want := []*models.Plant{
		{ID: "p-1", Code: "ABC", Name: "Assembly", Location: "Riga", IsActive: true, CreatedAt: ts},
		{ID: "p-2", Code: "XYZ", Name: "Packaging", CreatedAt: ts},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("List mismatch (-want +got):\n%s", diff)
	}
}

func TestList_ScanError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id"}).AddRow("p-1")
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+plants`).WillReturnRows(rows)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db error")
}

func TestList_RowsError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows(plantColumns).
		AddRow("p-1", "ABC", "Assembly", "", true, time.Now()).
		RowError(0, errors.New("broken pipe"))
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+plants`).WillReturnRows(rows)

	_, err := repo.List(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken pipe")
}

func TestGetByID(t *testing.T) {
	q := `(?s)^SELECT\s+id,\s*code,\s*name,\s*location,\s*is_active,\s*created_at\s+FROM\s+plants\s+WHERE\s+id\s*=\s*\$1\s*$`
	const id = "6f1c2a9e-4b7d-4c1e-9a55-0d2f3b8e7c10"

	t.Run("found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs(id).
			WillReturnRows(sqlmock.NewRows(plantColumns).AddRow(id, "ABC", "Assembly", "", true, time.Now()))

		got, err := repo.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "ABC", got.Code)
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs(id).WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), id)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("malformed id never reaches the database", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		_, err := repo.GetByID(context.Background(), "plant-1")
		assert.ErrorIs(t, err, common.ErrorNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("id rejected by postgres uuid parser", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		urn := "urn:uuid:" + id
		mock.ExpectQuery(q).WithArgs(urn).
			WillReturnError(&pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "` + urn + `"`})

		_, err := repo.GetByID(context.Background(), urn)
		assert.ErrorIs(t, err, common.ErrorNotFound)
	})

	t.Run("other db failure", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WithArgs(id).WillReturnError(errors.New("conn reset"))

		_, err := repo.GetByID(context.Background(), id)
		require.Error(t, err)
		assert.NotErrorIs(t, err, common.ErrorNotFound)
		assert.Contains(t, err.Error(), "db error")
	})
}

func TestCreate(t *testing.T) {
	q := `(?s)^INSERT\s+INTO\s+plants\s*\(code,\s*name,\s*location,\s*is_active\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4\)\s*RETURNING\s+id,\s*created_at\s*$`

	t.Run("success", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		ts := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery(q).WithArgs("ABC", "Assembly", "Riga", true).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("p-1", ts))

		got, err := repo.Create(context.Background(), &models.Plant{Code: "ABC", Name: "Assembly", Location: "Riga", IsActive: true})
		require.NoError(t, err)
		assert.Equal(t, "p-1", got.ID)
		assert.Equal(t, ts, got.CreatedAt)
	})

	t.Run("duplicate code", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WillReturnError(&pgconn.PgError{Code: "23505", Message: "duplicate key value"})

		_, err := repo.Create(context.Background(), &models.Plant{Code: "ABC", Name: "Assembly"})
		assert.ErrorIs(t, err, common.ErrorAlreadyExists)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock, db := newRepoWithMock(t)
		defer db.Close()

		mock.ExpectQuery(q).WillReturnError(errors.New("db down"))

		_, err := repo.Create(context.Background(), &models.Plant{Code: "ABC", Name: "Assembly"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "db error")
	})
}
