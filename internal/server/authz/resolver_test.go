package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/dmitrijs2005/plantops/internal/common"
	"github.com/dmitrijs2005/plantops/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeUsers struct {
	users map[string]*models.User
	err   error
	calls int
}

func (f *fakeUsers) GetByUID(ctx context.Context, uid string) (*models.User, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[uid]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

var allModules = []models.Module{
	models.ModuleTasks, models.ModuleEmployees, models.ModuleProduction,
	models.ModuleMaintenance, models.ModulePlants, models.ModuleUsers,
}

var allPerms = []models.Permission{models.PermRead, models.PermWrite, models.PermDelete, models.PermAdmin}

func TestAuthorize_AdminRoleAlwaysAllowed(t *testing.T) {
	users := &fakeUsers{users: map[string]*models.User{
		"boss": {UID: "boss", Role: models.RoleAdmin},
		"boss-with-junk": {UID: "boss-with-junk", Role: models.RoleAdmin, ModulePermissions: models.ModulePermissions{
			models.ModuleTasks: models.NewPermissionSet(models.PermRead),
		}},
	}}
	r := NewResolver(users)

	for _, uid := range []string{"boss", "boss-with-junk"} {
		for _, m := range allModules {
			for _, p := range allPerms {
				assert.NoError(t, r.Authorize(context.Background(), uid, m, p), "%s %s %s", uid, m, p)
			}
		}
	}
}

func TestAuthorize_NonAdmin(t *testing.T) {
	users := &fakeUsers{users: map[string]*models.User{
		"emp": {UID: "emp", Role: models.RoleEmployee, ModulePermissions: models.ModulePermissions{
			models.ModuleTasks:       models.NewPermissionSet(models.PermRead, models.PermWrite),
			models.ModuleMaintenance: models.NewPermissionSet(models.PermAdmin),
		}},
		"mgr": {UID: "mgr", Role: models.RoleManager},
	}}
	r := NewResolver(users)
	ctx := context.Background()

	tests := []struct {
		uid    string
		module models.Module
		perm   models.Permission
		allow  bool
	}{
		{"emp", models.ModuleTasks, models.PermRead, true},
		{"emp", models.ModuleTasks, models.PermWrite, true},
		{"emp", models.ModuleTasks, models.PermDelete, false},
		{"emp", models.ModuleTasks, models.PermAdmin, false},
		{"emp", models.ModuleMaintenance, models.PermDelete, true},
		{"emp", models.ModuleMaintenance, models.PermRead, true},
		{"emp", models.ModulePlants, models.PermRead, false},
		{"mgr", models.ModuleTasks, models.PermRead, false},
	}

	for _, tt := range tests {
		err := r.Authorize(ctx, tt.uid, tt.module, tt.perm)
		if tt.allow {
			assert.NoError(t, err, "%s %s %s", tt.uid, tt.module, tt.perm)
			continue
		}
		require.Error(t, err)
		assert.True(t, errors.Is(err, common.ErrPermissionDenied))
		assert.False(t, errors.Is(err, common.ErrPrincipalNotProvisioned))

		var denied *PermissionDeniedError
		require.True(t, errors.As(err, &denied))
		assert.Equal(t, tt.module, denied.Module)
		assert.Equal(t, tt.perm, denied.Permission)
	}
}

func TestAuthorize_UnprovisionedPrincipal(t *testing.T) {
	r := NewResolver(&fakeUsers{users: map[string]*models.User{}})

	err := r.Authorize(context.Background(), "ghost", models.ModuleTasks, models.PermRead)
	require.Error(t, err)
	assert.True(t, errors.Is(err, common.ErrPrincipalNotProvisioned))
	assert.False(t, errors.Is(err, common.ErrPermissionDenied))
	assert.False(t, errors.Is(err, common.ErrorNotFound))
}

func TestAuthorize_LookupFailurePropagates(t *testing.T) {
	boom := errors.New("db down")
	r := NewResolver(&fakeUsers{err: boom})

	err := r.Authorize(context.Background(), "x", models.ModuleTasks, models.PermRead)
	require.ErrorIs(t, err, boom)
	assert.False(t, errors.Is(err, common.ErrPermissionDenied))
}

func TestAuthorize_EmptyUID(t *testing.T) {
	users := &fakeUsers{}
	r := NewResolver(users)

	err := r.Authorize(context.Background(), "", models.ModuleTasks, models.PermRead)
	require.ErrorIs(t, err, common.ErrorUnauthorized)
	assert.Zero(t, users.calls)
}

func TestAuthorize_ReReadsEveryCall(t *testing.T) {
	emp := &models.User{UID: "emp", Role: models.RoleEmployee, ModulePermissions: models.ModulePermissions{}}
	users := &fakeUsers{users: map[string]*models.User{"emp": emp}}
	r := NewResolver(users)
	ctx := context.Background()

	require.Error(t, r.Authorize(ctx, "emp", models.ModuleTasks, models.PermWrite))

	emp.ModulePermissions[models.ModuleTasks] = models.NewPermissionSet(models.PermWrite)
	require.NoError(t, r.Authorize(ctx, "emp", models.ModuleTasks, models.PermWrite))
	assert.Equal(t, 2, users.calls)
}

func TestRequireRole(t *testing.T) {
	users := &fakeUsers{users: map[string]*models.User{
		"boss": {UID: "boss", Role: models.RoleAdmin},
		"mgr":  {UID: "mgr", Role: models.RoleManager},
		"modadmin": {UID: "modadmin", Role: models.RoleEmployee, ModulePermissions: models.ModulePermissions{
			models.ModuleTasks: models.NewPermissionSet(models.PermAdmin),
		}},
	}}
	r := NewResolver(users)
	ctx := context.Background()

	assert.NoError(t, r.RequireRole(ctx, "boss", models.RoleAdmin))
	assert.NoError(t, r.RequireRole(ctx, "mgr", models.RoleAdmin, models.RoleManager))

	err := r.RequireRole(ctx, "mgr", models.RoleAdmin)
	require.ErrorIs(t, err, common.ErrRoleRequired)
	var rr *RoleRequiredError
	require.True(t, errors.As(err, &rr))
	assert.Equal(t, models.RoleManager, rr.Actual)

	err = r.RequireRole(ctx, "modadmin", models.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrRoleRequired, "module admin grants do not satisfy role checks")

	err = r.RequireRole(ctx, "ghost", models.RoleAdmin)
	assert.ErrorIs(t, err, common.ErrPrincipalNotProvisioned)
}
