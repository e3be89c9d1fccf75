package models

import "gorm.io/gorm"

type User struct {
	gorm.Model
	Username    string `gorm:"unique;not null"`
	Password    string `gorm:"not null" json:"-"` // Don't expose password hash
	Email       string `gorm:"unique"`
	Nickname    string
	Roles       []Role       `gorm:"many2many:user_roles;"`
	Permissions []Permission `gorm:"many2many:user_permissions;"` // Direct grants, on top of role permissions
}

// All lists every model managed by the migrator.
func All() []any {
	return []any{&Permission{}, &Role{}, &User{}}
}
