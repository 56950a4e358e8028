package models

import (
	"gorm.io/gorm"
)

// Issuer is the institution that owns degrees and degree types.
type Issuer struct {
	gorm.Model
	Name         string `json:"name" gorm:"unique;not null"`
	Address      string `json:"address" gorm:"default:''"`
	ContactEmail string `json:"contact_email" gorm:"default:''"`
	IsDeleted    bool   `gorm:"default:false"`
}
