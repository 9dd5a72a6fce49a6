// Package generator expands active task masters into task instances.
//
// A run evaluates every active master independently: eligibility, due-date
// computation, a duplicate guard for the current day, creation, and the
// lastGenerated bookkeeping. A failing master is counted and logged, and the
// run moves on. Only failing to list the masters aborts the run.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/logging"
	"github.com/dmitrijs2005/plantops/internal/server/lock"
	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/dmitrijs2005/plantops/internal/timex"
)

// TemplateStore is the part of the task master store the generator needs.
type TemplateStore interface {
	ListActive(ctx context.Context) ([]*models.TaskMaster, error)
	UpdateLastGenerated(ctx context.Context, id string, at time.Time) error
}

// InstanceStore is the part of the task instance store the generator needs.
// FindByTemplateAndDateRange returns nil, nil when nothing matches. Create
// returns common.ErrorAlreadyExists when storage rejects a same-day duplicate.
type InstanceStore interface {
	FindByTemplateAndDateRange(ctx context.Context, templateID string, start, end time.Time) (*models.TaskInstance, error)
	Create(ctx context.Context, inst *models.TaskInstance) (*models.TaskInstance, error)
}

// Result is the outcome of one run.
type Result struct {
	Generated int `json:"generatedCount"`
	Errors    int `json:"errorCount"`
}

type Options struct {
	// Location defines calendar days. Defaults to UTC.
	Location *time.Location
	// StepTimeout bounds the work done for one master. Zero means no bound.
	StepTimeout time.Duration
	// LockTTL is how long a per-master lock survives a crashed run.
	LockTTL time.Duration
}

type Generator struct {
	templates TemplateStore
	instances InstanceStore
	locker    lock.Locker
	logger    logging.Logger
	opts      Options
}

func New(templates TemplateStore, instances InstanceStore, locker lock.Locker, logger logging.Logger, opts Options) *Generator {
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if opts.LockTTL <= 0 {
		opts.LockTTL = 30 * time.Second
	}
	if logger == nil {
		logger = logging.Nop{}
	}
	return &Generator{
		templates: templates,
		instances: instances,
		locker:    locker,
		logger:    logger.With("module", "generator"),
		opts:      opts,
	}
}

// Generate runs one generation pass as of now.
func (g *Generator) Generate(ctx context.Context, now time.Time) (Result, error) {
	var res Result

	masters, err := g.templates.ListActive(ctx)
	if err != nil {
		return res, fmt.Errorf("%w: list active task masters: %w", common.ErrStoreUnavailable, err)
	}

	today := timex.StartOfDay(now.In(g.opts.Location))

	for _, m := range masters {
		if err := ctx.Err(); err != nil {
			g.logger.Warn(ctx, "generation interrupted", "generated", res.Generated, "errors", res.Errors)
			return res, err
		}

		created, err := g.generateOne(ctx, m, now, today)
		if err != nil {
			res.Errors++
			g.logger.Error(ctx, "task generation failed", "template_id", m.ID, "error", err)
			continue
		}
		if created {
			res.Generated++
		}
	}

	g.logger.Info(ctx, "generation finished", "templates", len(masters), "generated", res.Generated, "errors", res.Errors)
	return res, nil
}

func (g *Generator) eligible(m *models.TaskMaster, today time.Time) bool {
	if !m.IsActive {
		return false
	}
	if timex.BeforeDay(today, m.StartDate.In(today.Location())) {
		return false
	}
	return ShouldGenerate(m, today)
}

func (g *Generator) generateOne(ctx context.Context, m *models.TaskMaster, now, today time.Time) (bool, error) {
	if !g.eligible(m, today) {
		return false, nil
	}

	stepErr := func(err error) error {
		return fmt.Errorf("%w: task master %s: %w", common.ErrGenerationStep, m.ID, err)
	}

	if g.opts.StepTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.StepTimeout)
		defer cancel()
	}

	unlock, err := g.locker.TryLock(ctx, "task-generation:"+m.ID, g.opts.LockTTL)
	if err != nil {
		if errors.Is(err, common.ErrLockNotAcquired) {
			g.logger.Debug(ctx, "task master locked by another run", "template_id", m.ID)
			return false, nil
		}
		return false, stepErr(err)
	}
	defer func() {
		if err := unlock(context.WithoutCancel(ctx)); err != nil {
			g.logger.Warn(ctx, "releasing generation lock failed", "template_id", m.ID, "error", err)
		}
	}()

	scheduled := today
	due := DueDate(m, today)

	existing, err := g.instances.FindByTemplateAndDateRange(ctx, m.ID, timex.StartOfDay(today), timex.EndOfDay(today))
	if err != nil {
		return false, stepErr(err)
	}
	if existing != nil {
		return false, nil
	}

	inst := models.NewInstanceFromMaster(m, scheduled, due, common.SystemActor)
	if _, err := g.instances.Create(ctx, inst); err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return false, nil
		}
		return false, stepErr(err)
	}

	if err := g.templates.UpdateLastGenerated(ctx, m.ID, now); err != nil {
		return false, stepErr(err)
	}

	g.logger.Debug(ctx, "task instance generated", "template_id", m.ID, "scheduled", timex.DayKey(scheduled))
	return true, nil
}
