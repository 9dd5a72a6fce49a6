package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/repomanager"
)

type PlantService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	authz       Authorizer
}

func NewPlantService(db *sql.DB, m repomanager.RepositoryManager, authz Authorizer) *PlantService {
	return &PlantService{db: db, repomanager: m, authz: authz}
}

func (s *PlantService) List(ctx context.Context, uid string) ([]*models.Plant, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModulePlants, models.PermRead); err != nil {
		return nil, err
	}
	return s.repomanager.Plants(s.db).List(ctx)
}

func (s *PlantService) Create(ctx context.Context, uid string, p *models.Plant) (*models.Plant, error) {
	if err := s.authz.Authorize(ctx, uid, models.ModulePlants, models.PermWrite); err != nil {
		return nil, err
	}

	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	if p.Code == "" {
		return nil, invalid("code", "required")
	}
	if p.Name == "" {
		return nil, invalid("name", "required")
	}

	return s.repomanager.Plants(s.db).Create(ctx, p)
}

// GetByID looks a plant up without an authorization check. It backs the
// plant reference validation on task masters.
func (s *PlantService) GetByID(ctx context.Context, id string) (*models.Plant, error) {
	return s.repomanager.Plants(s.db).GetByID(ctx, id)
}
