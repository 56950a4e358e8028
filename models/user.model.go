package models

import (
	"time"

	"gorm.io/gorm"
)

// Roles understood by the permission middleware.
const (
	RoleUser      = "USER"
	RoleManager   = "MANAGER"
	RoleCertifier = "CERTIFIER"
	RoleAdmin     = "ADMIN"
)

type User struct {
	gorm.Model
	Name      string     `gorm:"default:''"`
	Email     string     `gorm:"unique;not null"`
	Role      string     `gorm:"default:'USER'"` // USER, MANAGER, CERTIFIER, ADMIN
	Password  string     `gorm:"not null"`
	IssuerID  *uint      `gorm:"index"` // issuer membership for MANAGER/CERTIFIER
	LastLogin *time.Time `gorm:"default:NULL"`
	IsDeleted bool       `gorm:"default:false"`
}
