package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"acl-center/config"
	"acl-center/models"
	"acl-center/repositories"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// PermissionSeeder brings an empty or outdated database to the declared
// role/permission state and prepares the admin account.
type PermissionSeeder struct {
	roles  *RolePermissionService
	acl    *ACLSyncService
	users  repositories.UserRepository
	cfg    config.SeedConfig
	logger *zap.Logger
}

func NewPermissionSeeder(roles *RolePermissionService, acl *ACLSyncService, users repositories.UserRepository, cfg config.SeedConfig, logger *zap.Logger) *PermissionSeeder {
	return &PermissionSeeder{roles: roles, acl: acl, users: users, cfg: cfg, logger: logger.Named("seeder")}
}

func (s *PermissionSeeder) Run(ctx context.Context, out io.Writer) error {
	if out == nil {
		out = io.Discard
	}

	fmt.Fprintln(out, "[ + ] Step 1 permission cache reset.")
	s.roles.ForgetCachedPermissions()

	fmt.Fprintln(out, "[ + ] Step 2 permissions seeding.")
	if err := s.roles.SeedPermissions(ctx); err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}

	fmt.Fprintln(out, "[ + ] Step 3 roles seeding.")
	if err := s.roles.SeedRoles(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}

	fmt.Fprintln(out, "[ + ] Step 4 admin preparing.")
	if err := s.prepareAdmin(ctx, out); err != nil {
		return fmt.Errorf("prepare admin: %w", err)
	}

	fmt.Fprintln(out, "[ + ] Step 5 roles and permissions syncing.")
	if _, err := s.acl.Sync(ctx, SyncOptions{Sync: true}, out); err != nil {
		return fmt.Errorf("sync roles: %w", err)
	}

	fmt.Fprintln(out, "[ + ] Step 6 finish seeder.")
	return nil
}

func (s *PermissionSeeder) prepareAdmin(ctx context.Context, out io.Writer) error {
	if s.cfg.SkipAdmin {
		return nil
	}

	if err := s.roles.SyncAdminRolePermissions(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "permissions assigned to admin role.")

	admin, err := s.users.FindByUsername(ctx, s.cfg.AdminUsername)
	if errors.Is(err, repositories.ErrUserNotFound) {
		admin, err = s.createAdmin(ctx)
	}
	if err != nil {
		return err
	}
	fmt.Fprintln(out, "admin user ok.")

	if err := s.roles.AssignAdminRole(ctx, admin); err != nil {
		return err
	}
	fmt.Fprintln(out, "role and permissions assigned to admin user.")
	s.logger.Info("admin user prepared", zap.Uint("user_id", admin.ID), zap.String("username", admin.Username))
	return nil
}

func (s *PermissionSeeder) createAdmin(ctx context.Context) (*models.User, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(s.cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash admin password: %w", err)
	}
	admin := &models.User{
		Username: s.cfg.AdminUsername,
		Password: string(hashed),
		Email:    s.cfg.AdminEmail,
		Nickname: "admin",
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return nil, err
	}
	return admin, nil
}
