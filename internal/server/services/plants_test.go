package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/repomanager"
)

func newPlantService(t *testing.T) (*PlantService, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return NewPlantService(db, &repomanager.PostgresRepositoryManager{}, newResolver()), mock, db
}

func TestPlantService_List(t *testing.T) {
	svc, mock, db := newPlantService(t)
	defer db.Close()

	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+plants`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name", "location", "is_active", "created_at"}).
			AddRow("p-1", "RIX", "Riga works", "", true, time.Now()))

	got, err := svc.List(context.Background(), "writer")
	require.NoError(t, err)
	require.Len(t, got, 1)

	_, err = svc.List(context.Background(), "reader")
	assert.ErrorIs(t, err, common.ErrPermissionDenied)
}

func TestPlantService_Create(t *testing.T) {
	svc, mock, db := newPlantService(t)
	defer db.Close()

	_, err := svc.Create(context.Background(), "writer", &models.Plant{Code: "RIX", Name: "Riga"})
	assert.ErrorIs(t, err, common.ErrPermissionDenied)

	_, err = svc.Create(context.Background(), "admin", &models.Plant{Code: "  ", Name: "Riga"})
	assert.ErrorIs(t, err, common.ErrValidation)

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+plants`).
		WithArgs("RIX", "Riga", "", true).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow("p-1", time.Now()))

	got, err := svc.Create(context.Background(), "admin", &models.Plant{Code: " RIX ", Name: "Riga", IsActive: true})
	require.NoError(t, err)
	assert.Equal(t, "p-1", got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
