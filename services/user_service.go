package services

import (
	"context"

	"acl-center/models"
	"acl-center/repositories"
)

// The UserService interface defines the read side of user administration.
// Access control happens in the HTTP filters.
type UserService interface {
	GetUserByID(ctx context.Context, userID uint) (*models.User, []string, error)
	ListUsers(ctx context.Context, page int, pageSize int) ([]models.User, int64, error)
}

type userService struct {
	repo repositories.UserRepository
}

var _ UserService = (*userService)(nil)

func NewUserService(repo repositories.UserRepository) UserService {
	return &userService{repo: repo}
}

// GetUserByID returns the user together with its effective permission names.
func (s *userService) GetUserByID(ctx context.Context, userID uint) (*models.User, []string, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	perms, err := s.repo.PermissionNames(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return user, perms, nil
}

func (s *userService) ListUsers(ctx context.Context, page int, pageSize int) ([]models.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}
	return s.repo.FindAll(ctx, page, pageSize)
}
