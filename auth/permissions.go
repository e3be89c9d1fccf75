package auth

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"acl-center/enums"
	"acl-center/repositories"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type permissionSet map[string]struct{}

// PermissionChecker answers "does user X hold permission Y" from the role and
// direct grants of the user. Resolved sets are cached per user until Forget or
// until ttl has passed, whichever comes first. Syncs run by another process
// only become visible here once the ttl expires.
type PermissionChecker struct {
	users repositories.UserRepository
	cache *expirable.LRU[uint, permissionSet]

	// generation is bumped by Forget. A set loaded across a Forget is not cached.
	mu         sync.Mutex
	generation uint64
}

func NewPermissionChecker(users repositories.UserRepository, cacheSize int, ttl time.Duration) (*PermissionChecker, error) {
	if cacheSize <= 0 {
		return nil, fmt.Errorf("create permission cache: size must be positive, got %d", cacheSize)
	}
	if ttl <= 0 {
		return nil, errors.New("create permission cache: ttl must be positive")
	}
	return &PermissionChecker{
		users: users,
		cache: expirable.NewLRU[uint, permissionSet](cacheSize, nil, ttl),
	}, nil
}

// UserHasPermissions checks if the user has all required permissions
func (c *PermissionChecker) UserHasPermissions(ctx context.Context, userID uint, required ...enums.UserPermission) (bool, error) {
	if len(required) == 0 {
		return true, nil
	}

	granted, ok := c.cache.Get(userID)
	if !ok {
		var err error
		if granted, err = c.load(ctx, userID); err != nil {
			return false, err
		}
	}

	for _, p := range required {
		if _, ok := granted[string(p)]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (c *PermissionChecker) load(ctx context.Context, userID uint) (permissionSet, error) {
	c.mu.Lock()
	gen := c.generation
	c.mu.Unlock()

	names, err := c.users.PermissionNames(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("resolve permissions of user %d: %w", userID, err)
	}
	granted := make(permissionSet, len(names))
	for _, name := range names {
		granted[name] = struct{}{}
	}

	c.mu.Lock()
	if gen == c.generation {
		c.cache.Add(userID, granted)
	}
	c.mu.Unlock()
	return granted, nil
}

// CanAccessPanel reports whether the user may use the admin API at all.
func (c *PermissionChecker) CanAccessPanel(ctx context.Context, userID uint) (bool, error) {
	return c.UserHasPermissions(ctx, userID, enums.SeePanel)
}

// Forget drops every cached permission set. Called after role permissions change.
func (c *PermissionChecker) Forget() {
	c.mu.Lock()
	c.generation++
	c.cache.Purge()
	c.mu.Unlock()
}
