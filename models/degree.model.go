package models

import (
	"time"

	"gorm.io/gorm"
)

// Degree status values. A degree is never created APPROVED; approval always
// goes through the status update flow so the signature gets attached.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// ValidStatus reports whether s is one of the three degree statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusApproved || s == StatusRejected
}

// Degree is the central entity: one issued degree record.
//
// DigitalSignature is set if and only if Status is APPROVED. Any content edit
// resets the status to PENDING and clears the signature before persisting, so
// a stored signature always covers the row as it was at approval time.
type Degree struct {
	gorm.Model
	RecipientName string     `json:"recipient_name" gorm:"not null"`
	DateOfBirth   *time.Time `json:"date_of_birth" gorm:"not null"`
	PlaceOfBirth  string     `json:"place_of_birth" gorm:"default:''"`

	Level        string `json:"level" gorm:"default:''"`
	DegreeTypeID uint   `json:"degree_type_id" gorm:"index;not null"`

	IssueDate      *time.Time `json:"issue_date" gorm:"not null"`
	SerialNumber   string     `json:"serial_number" gorm:"unique;not null"`
	RegistryNumber string     `json:"registry_number" gorm:"unique;not null"`
	PlaceOfIssue   string     `json:"place_of_issue" gorm:"default:''"`
	SignerName     string     `json:"signer_name" gorm:"default:''"`

	FileAttachment string `json:"file_attachment" gorm:"default:''"` // local file path
	CloudFile      string `json:"cloud_file" gorm:"default:''"`      // remote object name

	IssuerID uint `json:"issuer_id" gorm:"index;not null"`

	Status           string  `json:"status" gorm:"default:'PENDING'"`
	DigitalSignature *string `json:"digital_signature"`
	SignerEmail      *string `json:"signer_email"`

	IsDeleted bool `gorm:"default:false"`
}
