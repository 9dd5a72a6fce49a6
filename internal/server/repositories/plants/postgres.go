package plants

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/dbx"
	"github.com/dmitrijs2005/plantops/internal/server/models"
)

const (
	uniqueViolation           = "23505"
	invalidTextRepresentation = "22P02"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) List(ctx context.Context) ([]*models.Plant, error) {
	query :=
		`SELECT id, code, name, location, is_active, created_at FROM plants
		 ORDER BY code
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Plant
	for rows.Next() {
		p := &models.Plant{}
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Location, &p.IsActive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// GetByID returns common.ErrorNotFound for ids that are not UUIDs, since no
// row can carry one.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Plant, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("%w: plant %q", common.ErrorNotFound, id)
	}

	query :=
		`SELECT id, code, name, location, is_active, created_at FROM plants
		 WHERE id = $1
		 `

	p := &models.Plant{}
	err := r.db.QueryRowContext(ctx, query, id).
		Scan(&p.ID, &p.Code, &p.Name, &p.Location, &p.IsActive, &p.CreatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == invalidTextRepresentation {
			return nil, fmt.Errorf("%w: plant %q", common.ErrorNotFound, id)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return p, nil
}

func (r *PostgresRepository) Create(ctx context.Context, plant *models.Plant) (*models.Plant, error) {
	query :=
		`INSERT INTO plants (code, name, location, is_active)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		plant.Code, plant.Name, plant.Location, plant.IsActive).Scan(&plant.ID, &plant.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return plant, nil
}
