package signature

import (
	"dms/models"
	"encoding/json"
	"strconv"
	"time"
)

// SignableFields is the exact field set covered by a degree's digital
// signature. It is a value type on purpose: the engine signs this snapshot,
// never the live gorm entity.
type SignableFields struct {
	RecipientName  string
	DateOfBirth    *time.Time
	PlaceOfBirth   string
	Level          string
	DegreeTypeID   string
	IssueDate      *time.Time
	SerialNumber   string
	RegistryNumber string
	PlaceOfIssue   string
	SignerName     string
	FileAttachment string
	CloudFile      string
	IssuerID       string
	Status         string
	CreatedAt      *time.Time
	SignerEmail    string
}

// SignableFromDegree snapshots the signable fields of a degree.
func SignableFromDegree(d *models.Degree) SignableFields {
	var createdAt *time.Time
	if !d.CreatedAt.IsZero() {
		t := d.CreatedAt
		createdAt = &t
	}
	signerEmail := ""
	if d.SignerEmail != nil {
		signerEmail = *d.SignerEmail
	}
	return SignableFields{
		RecipientName:  d.RecipientName,
		DateOfBirth:    d.DateOfBirth,
		PlaceOfBirth:   d.PlaceOfBirth,
		Level:          d.Level,
		DegreeTypeID:   strconv.FormatUint(uint64(d.DegreeTypeID), 10),
		IssueDate:      d.IssueDate,
		SerialNumber:   d.SerialNumber,
		RegistryNumber: d.RegistryNumber,
		PlaceOfIssue:   d.PlaceOfIssue,
		SignerName:     d.SignerName,
		FileAttachment: d.FileAttachment,
		CloudFile:      d.CloudFile,
		IssuerID:       strconv.FormatUint(uint64(d.IssuerID), 10),
		Status:         d.Status,
		CreatedAt:      createdAt,
		SignerEmail:    signerEmail,
	}
}

// Canonicalize turns the signable field set into a stable byte sequence.
// Keys are emitted in lexicographic order, so identical field values always
// produce byte-identical output. Nil dates serialize to JSON null.
func Canonicalize(f SignableFields) ([]byte, error) {
	payload := map[string]interface{}{
		"cloudFile":      f.CloudFile,
		"createdAt":      isoOrNil(f.CreatedAt),
		"dateOfBirth":    isoOrNil(f.DateOfBirth),
		"degreeTypeId":   f.DegreeTypeID,
		"fileAttachment": f.FileAttachment,
		"issueDate":      isoOrNil(f.IssueDate),
		"issuerId":       f.IssuerID,
		"level":          f.Level,
		"placeOfBirth":   f.PlaceOfBirth,
		"placeOfIssue":   f.PlaceOfIssue,
		"recipientName":  f.RecipientName,
		"registryNumber": f.RegistryNumber,
		"serialNumber":   f.SerialNumber,
		"signerEmail":    f.SignerEmail,
		"signerName":     f.SignerName,
		"status":         f.Status,
	}
	// encoding/json sorts map keys, which gives the stable ordering.
	return json.Marshal(payload)
}

func isoOrNil(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
