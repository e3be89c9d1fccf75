package services

import (
	"context"

	"acl-center/enums"
	"acl-center/models"
	"acl-center/repositories"
)

type RolePermissionService struct {
	repo  repositories.RolePermissionRepository
	cache PermissionCache
}

func NewRolePermissionService(repo repositories.RolePermissionRepository, cache PermissionCache) *RolePermissionService {
	return &RolePermissionService{repo: repo, cache: cache}
}

func (s *RolePermissionService) ForgetCachedPermissions() {
	if s.cache != nil {
		s.cache.Forget()
	}
}

// SeedPermissions creates every declared permission that is not stored yet.
func (s *RolePermissionService) SeedPermissions(ctx context.Context) error {
	for _, p := range enums.Permissions() {
		if err := s.repo.EnsurePermission(ctx, string(p)); err != nil {
			return err
		}
	}
	return nil
}

// SeedRoles creates every declared role that is not stored yet.
func (s *RolePermissionService) SeedRoles(ctx context.Context) error {
	for _, r := range enums.Roles() {
		if err := s.repo.EnsureRole(ctx, string(r)); err != nil {
			return err
		}
	}
	return nil
}

// SyncAdminRolePermissions gives the admin role every known permission.
func (s *RolePermissionService) SyncAdminRolePermissions(ctx context.Context) error {
	if err := s.repo.Replace(ctx, enums.Admin, enums.Values(enums.Permissions())); err != nil {
		return err
	}
	s.ForgetCachedPermissions()
	return nil
}

func (s *RolePermissionService) AssignAdminRole(ctx context.Context, user *models.User) error {
	if err := s.repo.AssignRole(ctx, user.ID, enums.Admin); err != nil {
		return err
	}
	s.ForgetCachedPermissions()
	return nil
}

// AssignAdminPermission grants panel access directly, without a role.
func (s *RolePermissionService) AssignAdminPermission(ctx context.Context, user *models.User) error {
	if err := s.repo.GivePermission(ctx, user.ID, enums.SeePanel); err != nil {
		return err
	}
	s.ForgetCachedPermissions()
	return nil
}
