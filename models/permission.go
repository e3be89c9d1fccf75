package models

import "gorm.io/gorm"

// Permission is a persisted permission definition, e.g. "see_panel" or "edit_ads".
type Permission struct {
	gorm.Model
	Name  string `gorm:"unique;not null;size:125"`
	Roles []Role `gorm:"many2many:role_permissions;"` // Many-to-Many relationship back to Role
}
