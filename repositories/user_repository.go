package repositories

import (
	"context"
	"errors"
	"fmt"

	"acl-center/models"

	"gorm.io/gorm"
)

// UserRepository interface defines User-related database operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByID(ctx context.Context, id uint) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindAll(ctx context.Context, page int, pageSize int) ([]models.User, int64, error)
	// PermissionNames returns the union of role and direct permissions of a user.
	PermissionNames(ctx context.Context, id uint) ([]string, error)
}

// userRepository implements the UserRepository interface
type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return storeError("create user", r.db.WithContext(ctx).Create(user).Error)
}

// FindByID finds a User with its roles and direct permissions loaded.
func (r *userRepository) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).
		Preload("Roles.Permissions").
		Preload("Permissions").
		First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %d", ErrUserNotFound, id)
	}
	if err != nil {
		return nil, storeError(fmt.Sprintf("find user %d", id), err)
	}
	return &user, nil
}

func (r *userRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Preload("Roles").Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrUserNotFound, username)
	}
	if err != nil {
		return nil, storeError(fmt.Sprintf("find user %q", username), err)
	}
	return &user, nil
}

// FindAll Pagination find all Users
func (r *userRepository) FindAll(ctx context.Context, page int, pageSize int) ([]models.User, int64, error) {
	offset := (page - 1) * pageSize
	var users []models.User
	var total int64

	db := r.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, storeError("count users", err)
	}

	result := db.Preload("Roles").Order("id").Offset(offset).Limit(pageSize).Find(&users)
	if result.Error != nil {
		return nil, 0, storeError("list users", result.Error)
	}

	return users, total, nil
}

func (r *userRepository) PermissionNames(ctx context.Context, id uint) ([]string, error) {
	user, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	var names []string
	add := func(p models.Permission) {
		if _, ok := seen[p.Name]; !ok {
			seen[p.Name] = struct{}{}
			names = append(names, p.Name)
		}
	}
	for _, role := range user.Roles {
		for _, p := range role.Permissions {
			add(p)
		}
	}
	for _, p := range user.Permissions {
		add(p)
	}
	return names, nil
}
