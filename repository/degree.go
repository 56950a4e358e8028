package repository

import (
	"dms/models"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	// ErrNotFound means no matching non-deleted degree exists.
	ErrNotFound = errors.New("repository: degree not found")
	// ErrDuplicateKey means the serial or registry number collides with
	// another degree (either column, either value).
	ErrDuplicateKey = errors.New("repository: serial or registry number already in use")
	// ErrMissingField means a required degree field is empty.
	ErrMissingField = errors.New("repository: missing required field")
)

// DegreeRepository is the persistence boundary for degrees. It enforces
// serial/registry uniqueness and required-field presence before any write.
type DegreeRepository struct {
	db *gorm.DB
}

func NewDegreeRepository(db *gorm.DB) *DegreeRepository {
	return &DegreeRepository{db: db}
}

// FindByID loads a non-deleted degree by id.
func (r *DegreeRepository) FindByID(id uint) (*models.Degree, error) {
	var degree models.Degree
	err := r.db.Where("id = ? AND is_deleted = ?", id, false).First(&degree).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &degree, nil
}

// FindBySerialOrRegistry returns the first degree whose serial or registry
// number matches either of the given values, excluding excludeID. Matching is
// cross-field on purpose: a new serial number must not equal any existing
// registry number and vice versa.
func (r *DegreeRepository) FindBySerialOrRegistry(serial, registry string, excludeID uint) (*models.Degree, error) {
	var degree models.Degree
	err := r.db.
		Where("(serial_number IN (?, ?) OR registry_number IN (?, ?)) AND id <> ? AND is_deleted = ?",
			serial, registry, serial, registry, excludeID, false).
		First(&degree).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &degree, nil
}

// Save validates and persists a degree, creating it when new.
func (r *DegreeRepository) Save(degree *models.Degree) error {
	if err := r.validate(degree); err != nil {
		return err
	}
	if _, err := r.FindBySerialOrRegistry(degree.SerialNumber, degree.RegistryNumber, degree.ID); err == nil {
		return ErrDuplicateKey
	} else if !errors.Is(err, ErrNotFound) {
		return err
	}
	return r.db.Save(degree).Error
}

// Delete soft-deletes a degree.
func (r *DegreeRepository) Delete(degree *models.Degree) error {
	degree.IsDeleted = true
	return r.db.Save(degree).Error
}

func (r *DegreeRepository) validate(degree *models.Degree) error {
	missing := []string{}
	if strings.TrimSpace(degree.RecipientName) == "" {
		missing = append(missing, "recipient_name")
	}
	if degree.DateOfBirth == nil {
		missing = append(missing, "date_of_birth")
	}
	if degree.DegreeTypeID == 0 {
		missing = append(missing, "degree_type_id")
	}
	if degree.IssueDate == nil {
		missing = append(missing, "issue_date")
	}
	if strings.TrimSpace(degree.SerialNumber) == "" {
		missing = append(missing, "serial_number")
	}
	if strings.TrimSpace(degree.RegistryNumber) == "" {
		missing = append(missing, "registry_number")
	}
	if degree.IssuerID == 0 {
		missing = append(missing, "issuer_id")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}
