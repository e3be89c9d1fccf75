package repositories

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"acl-center/enums"
	"acl-center/models"

	"gorm.io/gorm"
)

// RolePermissionRepository is the authorization store as seen by the ACL sync.
// Declared permissions come from code, persisted ones from the role_permissions table.
type RolePermissionRepository interface {
	DeclaredPermissions(role enums.UserRole) []string
	PersistedPermissions(ctx context.Context, role enums.UserRole) ([]string, error)
	// Grant adds names to the role, keeping whatever it already has.
	Grant(ctx context.Context, role enums.UserRole, names []string) error
	// Replace makes names the exact permission set of the role.
	Replace(ctx context.Context, role enums.UserRole, names []string) error

	EnsurePermission(ctx context.Context, name string) error
	EnsureRole(ctx context.Context, name string) error

	AssignRole(ctx context.Context, userID uint, role enums.UserRole) error
	GivePermission(ctx context.Context, userID uint, permission enums.UserPermission) error
}

type rolePermissionRepository struct {
	db *gorm.DB
}

var _ RolePermissionRepository = (*rolePermissionRepository)(nil)

func NewRolePermissionRepository(db *gorm.DB) RolePermissionRepository {
	return &rolePermissionRepository{db: db}
}

func (r *rolePermissionRepository) DeclaredPermissions(role enums.UserRole) []string {
	return role.PermissionNames()
}

func (r *rolePermissionRepository) PersistedPermissions(ctx context.Context, role enums.UserRole) ([]string, error) {
	found, err := findRole(r.db.WithContext(ctx).Preload("Permissions"), role)
	if err != nil {
		return nil, storeError(fmt.Sprintf("load permissions of role %q", role), err)
	}
	return found.PermissionNames(), nil
}

func (r *rolePermissionRepository) Grant(ctx context.Context, role enums.UserRole, names []string) error {
	if len(names) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findRole(tx, role)
		if err != nil {
			return err
		}
		perms, err := findPermissions(tx, names)
		if err != nil {
			return err
		}
		return tx.Model(found).Association("Permissions").Append(perms)
	})
	return storeError(fmt.Sprintf("grant permissions to role %q", role), err)
}

func (r *rolePermissionRepository) Replace(ctx context.Context, role enums.UserRole, names []string) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		found, err := findRole(tx, role)
		if err != nil {
			return err
		}
		if len(names) == 0 {
			return tx.Model(found).Association("Permissions").Clear()
		}
		perms, err := findPermissions(tx, names)
		if err != nil {
			return err
		}
		return tx.Model(found).Association("Permissions").Replace(perms)
	})
	return storeError(fmt.Sprintf("sync permissions of role %q", role), err)
}

func (r *rolePermissionRepository) EnsurePermission(ctx context.Context, name string) error {
	err := r.db.WithContext(ctx).
		Where(models.Permission{Name: name}).
		FirstOrCreate(&models.Permission{}).Error
	return storeError(fmt.Sprintf("seed permission %q", name), err)
}

func (r *rolePermissionRepository) EnsureRole(ctx context.Context, name string) error {
	err := r.db.WithContext(ctx).
		Where(models.Role{Name: name}).
		FirstOrCreate(&models.Role{}).Error
	return storeError(fmt.Sprintf("seed role %q", name), err)
}

func (r *rolePermissionRepository) AssignRole(ctx context.Context, userID uint, role enums.UserRole) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}
		found, err := findRole(tx, role)
		if err != nil {
			return err
		}
		return tx.Model(user).Association("Roles").Append(found)
	})
	return storeError(fmt.Sprintf("assign role %q to user %d", role, userID), err)
}

func (r *rolePermissionRepository) GivePermission(ctx context.Context, userID uint, permission enums.UserPermission) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := findUser(tx, userID)
		if err != nil {
			return err
		}
		perms, err := findPermissions(tx, []string{string(permission)})
		if err != nil {
			return err
		}
		return tx.Model(user).Association("Permissions").Append(perms)
	})
	return storeError(fmt.Sprintf("give permission %q to user %d", permission, userID), err)
}

func findRole(db *gorm.DB, role enums.UserRole) (*models.Role, error) {
	var found models.Role
	err := db.Where("name = ?", string(role)).First(&found).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q has not been seeded", ErrUnknownRole, role)
	}
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// findPermissions loads every named permission or fails with ErrUnknownPermission
// naming the rows that are missing.
func findPermissions(db *gorm.DB, names []string) ([]models.Permission, error) {
	var perms []models.Permission
	if err := db.Where("name IN ?", names).Find(&perms).Error; err != nil {
		return nil, err
	}

	found := make(map[string]struct{}, len(perms))
	for _, p := range perms {
		found[p.Name] = struct{}{}
	}
	var missing []string
	for _, name := range names {
		if _, ok := found[name]; !ok && !slices.Contains(missing, name) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %v has not been seeded", ErrUnknownPermission, missing)
	}
	return perms, nil
}

func findUser(db *gorm.DB, id uint) (*models.User, error) {
	var user models.User
	err := db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}
