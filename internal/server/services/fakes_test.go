package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/server/authz"
	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/dmitrijs2005/plantops/internal/server/repositories/taskmasters"
)

type userMap map[string]*models.User

func (m userMap) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	u, ok := m[uid]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func newResolver() *authz.Resolver {
	return authz.NewResolver(userMap{
		"admin": {UID: "admin", Role: models.RoleAdmin, IsActive: true},
		"manager": {UID: "manager", Role: models.RoleManager, IsActive: true, ModulePermissions: models.ModulePermissions{
			models.ModuleTasks: models.NewPermissionSet(models.PermRead, models.PermWrite),
		}},
		"writer": {UID: "writer", Role: models.RoleEmployee, IsActive: true, ModulePermissions: models.ModulePermissions{
			models.ModuleTasks:  models.NewPermissionSet(models.PermRead, models.PermWrite),
			models.ModulePlants: models.NewPermissionSet(models.PermRead),
		}},
		"reader": {UID: "reader", Role: models.RoleEmployee, IsActive: true, ModulePermissions: models.ModulePermissions{
			models.ModuleTasks: models.NewPermissionSet(models.PermRead),
		}},
		"tasksadmin": {UID: "tasksadmin", Role: models.RoleEmployee, IsActive: true, ModulePermissions: models.ModulePermissions{
			models.ModuleTasks: models.NewPermissionSet(models.PermAdmin),
		}},
	})
}

type fakePlants map[string]*models.Plant

func (f fakePlants) GetByID(ctx context.Context, id string) (*models.Plant, error) {
	p, ok := f[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return p, nil
}

type fakeTemplates struct {
	mu    sync.Mutex
	items map[string]*models.TaskMaster
	seq   int
}

func newFakeTemplates(ms ...*models.TaskMaster) *fakeTemplates {
	f := &fakeTemplates{items: map[string]*models.TaskMaster{}}
	for _, m := range ms {
		f.items[m.ID] = m
	}
	return f
}

func (f *fakeTemplates) Create(ctx context.Context, m *models.TaskMaster) (*models.TaskMaster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	m.ID = fmt.Sprintf("tm-%d", f.seq)
	cp := *m
	f.items[m.ID] = &cp
	return m, nil
}

func (f *fakeTemplates) GetByID(ctx context.Context, id string) (*models.TaskMaster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *m
	return &cp, nil
}

func (f *fakeTemplates) Update(ctx context.Context, m *models.TaskMaster) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	old, ok := f.items[m.ID]
	if !ok {
		return common.ErrorNotFound
	}
	cp := *m
	cp.LastGenerated = old.LastGenerated
	f.items[m.ID] = &cp
	return nil
}

func (f *fakeTemplates) List(ctx context.Context, filter taskmasters.ListFilter) ([]*models.TaskMaster, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.TaskMaster
	for _, m := range f.items {
		if filter.PlantID != "" && m.PlantID != filter.PlantID {
			continue
		}
		if filter.ActiveOnly && !m.IsActive {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeTemplates) ListActive(ctx context.Context) ([]*models.TaskMaster, error) {
	return f.List(ctx, taskmasters.ListFilter{ActiveOnly: true})
}

func (f *fakeTemplates) UpdateLastGenerated(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	m.LastGenerated = &at
	return nil
}

type fakeInstances struct {
	mu    sync.Mutex
	items map[string]*models.TaskInstance
	seq   int
}

func newFakeInstances(is ...*models.TaskInstance) *fakeInstances {
	f := &fakeInstances{items: map[string]*models.TaskInstance{}}
	for _, i := range is {
		f.items[i.ID] = i
	}
	return f
}

func (f *fakeInstances) Create(ctx context.Context, inst *models.TaskInstance) (*models.TaskInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.items {
		if i.TaskMasterID == inst.TaskMasterID && i.ScheduledDate.Equal(inst.ScheduledDate) {
			return nil, common.ErrorAlreadyExists
		}
	}
	f.seq++
	inst.ID = fmt.Sprintf("ti-%d", f.seq)
	cp := *inst
	f.items[inst.ID] = &cp
	return inst, nil
}

func (f *fakeInstances) GetByID(ctx context.Context, id string) (*models.TaskInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.items[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *i
	return &cp, nil
}

func (f *fakeInstances) FindByTemplateAndDateRange(ctx context.Context, templateID string, start, end time.Time) (*models.TaskInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, i := range f.items {
		if i.TaskMasterID == templateID && !i.ScheduledDate.Before(start) && !i.ScheduledDate.After(end) {
			return i, nil
		}
	}
	return nil, nil
}

func (f *fakeInstances) ListByMaster(ctx context.Context, templateID string) ([]*models.TaskInstance, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*models.TaskInstance
	for _, i := range f.items {
		if i.TaskMasterID == templateID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (f *fakeInstances) UpdateStatus(ctx context.Context, inst *models.TaskInstance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.items[inst.ID]; !ok {
		return common.ErrorNotFound
	}
	cp := *inst
	f.items[inst.ID] = &cp
	return nil
}

func (f *fakeInstances) AddAttachment(ctx context.Context, id, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	i, ok := f.items[id]
	if !ok {
		return common.ErrorNotFound
	}
	i.Attachments = append(i.Attachments, key)
	return nil
}
