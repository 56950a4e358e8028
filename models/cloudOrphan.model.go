package models

import (
	"gorm.io/gorm"
)

// CloudOrphan records a remote object name that is no longer referenced by
// any degree. Rows are written whenever a cloud reference is overwritten or a
// best-effort delete fails, and removed by the sweeper once the delete goes
// through.
type CloudOrphan struct {
	gorm.Model
	CloudName string `gorm:"unique;not null"`
	Attempts  int    `gorm:"default:0"`
	LastError string `gorm:"default:''"`
}
