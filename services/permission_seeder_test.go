package services

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"acl-center/config"
	"acl-center/database"
	"acl-center/enums"
	"acl-center/models"
	"acl-center/repositories"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.Open(config.Config{DatabaseDriver: "sqlite", DatabaseURL: ":memory:"}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type stack struct {
	repo   repositories.RolePermissionRepository
	users  repositories.UserRepository
	roles  *RolePermissionService
	acl    *ACLSyncService
	cache  *countingCache
	seeder func(cfg config.SeedConfig) *PermissionSeeder
}

func newStack(t *testing.T) *stack {
	db := setupTestDB(t)
	s := &stack{
		repo:  repositories.NewRolePermissionRepository(db),
		users: repositories.NewUserRepository(db),
		cache: &countingCache{},
	}
	s.roles = NewRolePermissionService(s.repo, s.cache)
	s.acl = NewACLSyncService(s.repo, s.cache, zap.NewNop())
	s.seeder = func(cfg config.SeedConfig) *PermissionSeeder {
		return NewPermissionSeeder(s.roles, s.acl, s.users, cfg, zap.NewNop())
	}
	return s
}

func TestSeederBringsStoreToDeclaredState(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	cfg := config.SeedConfig{AdminUsername: "admin", AdminPassword: "secret", AdminEmail: "admin@example.com"}
	var out bytes.Buffer

	require.NoError(t, s.seeder(cfg).Run(ctx, &out))

	for step := 1; step <= 6; step++ {
		assert.Contains(t, out.String(), fmt.Sprintf("[ + ] Step %d ", step))
	}

	for _, role := range enums.Roles() {
		got, err := s.repo.PersistedPermissions(ctx, role)
		require.NoError(t, err)
		assert.ElementsMatch(t, role.PermissionNames(), got, role)
	}

	admin, err := s.users.FindByUsername(ctx, "admin")
	require.NoError(t, err)
	perms, err := s.users.PermissionNames(ctx, admin.ID)
	require.NoError(t, err)
	assert.Contains(t, perms, string(enums.SeePanel))

	// Running the seeder again neither duplicates the admin nor fails.
	require.NoError(t, s.seeder(cfg).Run(ctx, nil))
	_, total, err := s.users.FindAll(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSeederSkipAdmin(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	require.NoError(t, s.seeder(config.SeedConfig{SkipAdmin: true}).Run(ctx, nil))

	_, total, err := s.users.FindAll(ctx, 1, 10)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestSyncIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	require.NoError(t, s.roles.SeedPermissions(ctx))
	require.NoError(t, s.roles.SeedRoles(ctx))
	require.NoError(t, s.repo.Grant(ctx, enums.Premium, []string{"manage_users"}))

	for _, opts := range []SyncOptions{{}, {Sync: true}} {
		_, err := s.acl.Sync(ctx, opts, nil)
		require.NoError(t, err)

		var out bytes.Buffer
		report, err := s.acl.Sync(ctx, opts, &out)
		require.NoError(t, err)

		if opts.Sync {
			assert.False(t, report.Changed(), "second full sync has no diff")
			assert.Equal(t, "admin's permissions not changed\npremium's permissions not changed\n", out.String())
		} else {
			// The additive run leaves the extra grant in place, so premium still differs.
			assert.Equal(t, ActionUnchanged, report.Roles[0].Action)
			assert.Equal(t, ActionKept, report.Roles[1].Action)
		}
	}
}

func TestSyncBeforeSeedingFails(t *testing.T) {
	s := newStack(t)

	_, err := s.acl.Sync(context.Background(), SyncOptions{}, nil)
	assert.ErrorIs(t, err, repositories.ErrUnknownRole)
}

func TestRolePermissionServiceAssignments(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)
	require.NoError(t, s.roles.SeedPermissions(ctx))
	require.NoError(t, s.roles.SeedRoles(ctx))

	user := &models.User{Username: "editor", Password: "x", Email: "editor@example.com"}
	require.NoError(t, s.users.Create(ctx, user))

	require.NoError(t, s.roles.AssignAdminPermission(ctx, user))
	perms, err := s.users.PermissionNames(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"see_panel"}, perms)

	require.NoError(t, s.roles.SyncAdminRolePermissions(ctx))
	require.NoError(t, s.roles.AssignAdminRole(ctx, user))
	perms, err = s.users.PermissionNames(ctx, user.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, enums.Values(enums.Permissions()), perms)
	assert.Equal(t, 3, s.cache.forgets)
}
