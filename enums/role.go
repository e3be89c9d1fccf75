package enums

import "fmt"

// UserRole is a role name as stored in the roles table.
type UserRole string

const (
	Admin   UserRole = "admin"
	Premium UserRole = "premium"
)

// Roles returns every declared role in declaration order.
func Roles() []UserRole {
	return []UserRole{Admin, Premium}
}

func ParseRole(name string) (UserRole, error) {
	switch r := UserRole(name); r {
	case Admin, Premium:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, name)
}

func (r UserRole) Name() string {
	switch r {
	case Admin:
		return "Admin"
	case Premium:
		return "Premium"
	}
	return ""
}

func (r UserRole) String() string {
	return string(r)
}

// Permissions is the desired permission set of r. Persisted role rows are
// reconciled against it by the ACL sync.
func (r UserRole) Permissions() []UserPermission {
	switch r {
	case Admin:
		return Permissions()
	case Premium:
		return []UserPermission{Upload}
	}
	return nil
}

func (r UserRole) PermissionNames() []string {
	return Values(r.Permissions())
}

// RateLimit is the number of requests per minute granted to r.
func (r UserRole) RateLimit() int {
	switch r {
	case Admin:
		return 100
	case Premium:
		return 1000
	}
	return 0
}
