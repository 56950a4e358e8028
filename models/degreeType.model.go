package models

import (
	"gorm.io/gorm"
)

// DegreeType classifies degrees within a single issuer.
type DegreeType struct {
	gorm.Model
	Title     string `json:"title" gorm:"not null"`
	IssuerID  uint   `json:"issuer_id" gorm:"index;not null"`
	IsDeleted bool   `gorm:"default:false"`
}
