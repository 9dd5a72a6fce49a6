package services

import (
	"context"
	"time"

	"github.com/dmitrijs2005/plantops/internal/clock"
	"github.com/dmitrijs2005/plantops/internal/server/generator"
	"github.com/dmitrijs2005/plantops/internal/server/models"
)

// Generator runs one generation pass.
type Generator interface {
	Generate(ctx context.Context, now time.Time) (generator.Result, error)
}

type GenerationService struct {
	authz     Authorizer
	generator Generator
	clock     clock.Clock
}

func NewGenerationService(authz Authorizer, g Generator, c clock.Clock) *GenerationService {
	if c == nil {
		c = clock.Real{}
	}
	return &GenerationService{authz: authz, generator: g, clock: c}
}

// Run triggers a generation pass on behalf of uid. Only admins and managers
// may do this.
func (s *GenerationService) Run(ctx context.Context, uid string) (generator.Result, error) {
	if err := s.authz.RequireRole(ctx, uid, models.RoleAdmin, models.RoleManager); err != nil {
		return generator.Result{}, err
	}
	return s.generator.Generate(ctx, s.clock.Now())
}
