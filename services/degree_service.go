package services

import (
	"dms/models"
	"dms/repository"
	"dms/signature"
	"dms/storage"
	"errors"
	"fmt"
	"log"
	"os"
	"time"

	"gorm.io/gorm"
)

// DegreeService owns the degree lifecycle: creation, content edits, the
// status state machine with its signing side effects, and verification.
type DegreeService struct {
	db     *gorm.DB
	repo   *repository.DegreeRepository
	engine *signature.Engine
	cloud  storage.CloudStorage
}

func NewDegreeService(db *gorm.DB, engine *signature.Engine, cloud storage.CloudStorage) *DegreeService {
	return &DegreeService{
		db:     db,
		repo:   repository.NewDegreeRepository(db),
		engine: engine,
		cloud:  cloud,
	}
}

// Repo exposes the repository for callers that only read.
func (s *DegreeService) Repo() *repository.DegreeRepository {
	return s.repo
}

// DegreeInput carries the writable content fields of a degree.
type DegreeInput struct {
	RecipientName  string
	DateOfBirth    *time.Time
	PlaceOfBirth   string
	Level          string
	DegreeTypeID   uint
	IssueDate      *time.Time
	SerialNumber   string
	RegistryNumber string
	PlaceOfIssue   string
	SignerName     string
}

// VerifyResult is the outcome of a signature verification request. A missing
// or mismatched signature is a normal false, never an error.
type VerifyResult struct {
	IsValid bool   `json:"isValid"`
	Message string `json:"-"`
}

const (
	MsgSignatureValid   = "Digital signature is valid"
	MsgSignatureInvalid = "Digital signature is invalid"
	MsgNoSignature      = "No digital signature found"
)

func (s *DegreeService) loadUser(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.Where("id = ? AND is_deleted = ?", id, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, id)
		}
		return nil, err
	}
	return &user, nil
}

// canTransition reports whether the user may change the degree's status:
// admins always, certifiers only within their own issuer.
func canTransition(user *models.User, degree *models.Degree) bool {
	if user.Role == models.RoleAdmin {
		return true
	}
	return user.Role == models.RoleCertifier &&
		user.IssuerID != nil && *user.IssuerID == degree.IssuerID
}

// canManage reports whether the user may edit degree content: admins always,
// managers only within their own issuer.
func canManage(user *models.User, issuerID uint) bool {
	if user.Role == models.RoleAdmin {
		return true
	}
	return user.Role == models.RoleManager &&
		user.IssuerID != nil && *user.IssuerID == issuerID
}

// CreateDegree creates a new degree in PENDING status. The requested issuer
// must match the acting manager's issuer, and the degree type must belong to
// that issuer.
func (s *DegreeService) CreateDegree(actingUserID uint, issuerID uint, input DegreeInput) (*models.Degree, error) {
	user, err := s.loadUser(actingUserID)
	if err != nil {
		return nil, err
	}
	if !canManage(user, issuerID) {
		return nil, ErrPermission
	}
	if err := s.checkDegreeType(input.DegreeTypeID, issuerID); err != nil {
		return nil, err
	}

	degree := &models.Degree{
		RecipientName:  input.RecipientName,
		DateOfBirth:    input.DateOfBirth,
		PlaceOfBirth:   input.PlaceOfBirth,
		Level:          input.Level,
		DegreeTypeID:   input.DegreeTypeID,
		IssueDate:      input.IssueDate,
		SerialNumber:   input.SerialNumber,
		RegistryNumber: input.RegistryNumber,
		PlaceOfIssue:   input.PlaceOfIssue,
		SignerName:     input.SignerName,
		IssuerID:       issuerID,
		Status:         models.StatusPending,
	}
	if err := s.repo.Save(degree); err != nil {
		return nil, err
	}
	return degree, nil
}

// UpdateStatus runs one step of the status state machine. Approval signs the
// canonical payload and records the approver; leaving APPROVED clears the
// signature and drops any cloud copy.
func (s *DegreeService) UpdateStatus(degreeID uint, newStatus string, actingUserID uint) (*models.Degree, error) {
	if !models.ValidStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, newStatus)
	}
	user, err := s.loadUser(actingUserID)
	if err != nil {
		return nil, err
	}
	degree, err := s.repo.FindByID(degreeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: degree %d", ErrNotFound, degreeID)
		}
		return nil, err
	}
	if !canTransition(user, degree) {
		return nil, ErrPermission
	}

	wasApproved := degree.Status == models.StatusApproved
	degree.Status = newStatus

	switch {
	case newStatus == models.StatusApproved:
		// Sign the row exactly as it will be persisted, approver included.
		degree.SignerEmail = &user.Email
		degree.DigitalSignature = nil
		payload, err := signature.Canonicalize(signature.SignableFromDegree(degree))
		if err != nil {
			return nil, err
		}
		token, err := s.engine.Sign(payload)
		if err != nil {
			return nil, err
		}
		degree.DigitalSignature = &token

	case wasApproved:
		s.clearTrustState(degree)
	}

	if err := s.repo.Save(degree); err != nil {
		return nil, err
	}
	return degree, nil
}

// EditContent applies a content edit. Whatever the degree's status was, the
// edit forces it back to PENDING and clears the signature, so a stored
// signature can never cover stale content.
func (s *DegreeService) EditContent(degreeID uint, actingUserID uint, input DegreeInput) (*models.Degree, error) {
	user, err := s.loadUser(actingUserID)
	if err != nil {
		return nil, err
	}
	degree, err := s.repo.FindByID(degreeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: degree %d", ErrNotFound, degreeID)
		}
		return nil, err
	}
	if !canManage(user, degree.IssuerID) {
		return nil, ErrPermission
	}
	if err := s.checkDegreeType(input.DegreeTypeID, degree.IssuerID); err != nil {
		return nil, err
	}

	wasApproved := degree.Status == models.StatusApproved

	degree.RecipientName = input.RecipientName
	degree.DateOfBirth = input.DateOfBirth
	degree.PlaceOfBirth = input.PlaceOfBirth
	degree.Level = input.Level
	degree.DegreeTypeID = input.DegreeTypeID
	degree.IssueDate = input.IssueDate
	degree.SerialNumber = input.SerialNumber
	degree.RegistryNumber = input.RegistryNumber
	degree.PlaceOfIssue = input.PlaceOfIssue
	degree.SignerName = input.SignerName

	degree.Status = models.StatusPending
	if wasApproved {
		s.clearTrustState(degree)
	} else {
		degree.DigitalSignature = nil
		degree.SignerEmail = nil
	}

	if err := s.repo.Save(degree); err != nil {
		return nil, err
	}
	return degree, nil
}

// SetAttachment replaces the degree's local file reference. The file path is
// part of the signed field set, so the swap counts as a content edit: status
// drops back to PENDING and the trust state is cleared.
func (s *DegreeService) SetAttachment(degreeID uint, actingUserID uint, path string) (*models.Degree, error) {
	user, err := s.loadUser(actingUserID)
	if err != nil {
		return nil, err
	}
	degree, err := s.repo.FindByID(degreeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: degree %d", ErrNotFound, degreeID)
		}
		return nil, err
	}
	if !canManage(user, degree.IssuerID) {
		return nil, ErrPermission
	}

	if degree.FileAttachment != "" && degree.FileAttachment != path {
		if outcome := removeLocalFile(degree.FileAttachment); !outcome.Ok() {
			log.Printf("degree %d: %s", degree.ID, outcome)
		}
	}

	wasApproved := degree.Status == models.StatusApproved
	degree.FileAttachment = path
	degree.Status = models.StatusPending
	if wasApproved {
		s.clearTrustState(degree)
	} else {
		degree.DigitalSignature = nil
		degree.SignerEmail = nil
	}

	if err := s.repo.Save(degree); err != nil {
		return nil, err
	}
	return degree, nil
}

// VerifySignature recomputes the canonical payload from the current row and
// checks it against the stored signature.
func (s *DegreeService) VerifySignature(degreeID uint) (VerifyResult, error) {
	degree, err := s.repo.FindByID(degreeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return VerifyResult{}, fmt.Errorf("%w: degree %d", ErrNotFound, degreeID)
		}
		return VerifyResult{}, err
	}
	if degree.DigitalSignature == nil {
		return VerifyResult{IsValid: false, Message: MsgNoSignature}, nil
	}
	payload, err := signature.Canonicalize(signature.SignableFromDegree(degree))
	if err != nil {
		return VerifyResult{}, err
	}
	valid, err := s.engine.Verify(payload, *degree.DigitalSignature)
	if err != nil {
		return VerifyResult{}, err
	}
	if valid {
		return VerifyResult{IsValid: true, Message: MsgSignatureValid}, nil
	}
	return VerifyResult{IsValid: false, Message: MsgSignatureInvalid}, nil
}

// DeleteDegree soft-deletes a degree and best-effort removes its local and
// cloud files. Cleanup failures are logged, never fatal to the deletion.
func (s *DegreeService) DeleteDegree(degreeID uint, actingUserID uint) error {
	user, err := s.loadUser(actingUserID)
	if err != nil {
		return err
	}
	degree, err := s.repo.FindByID(degreeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: degree %d", ErrNotFound, degreeID)
		}
		return err
	}
	if !canManage(user, degree.IssuerID) {
		return ErrPermission
	}

	if degree.FileAttachment != "" {
		if outcome := removeLocalFile(degree.FileAttachment); !outcome.Ok() {
			log.Printf("degree %d: %s", degree.ID, outcome)
		}
	}
	if degree.CloudFile != "" {
		if outcome := s.dropCloudObject(degree.CloudFile); !outcome.Ok() {
			log.Printf("degree %d: %s", degree.ID, outcome)
		}
	}
	return s.repo.Delete(degree)
}

// clearTrustState removes everything that vouched for the approved content:
// signature, approver identity, and the cloud copy.
func (s *DegreeService) clearTrustState(degree *models.Degree) {
	degree.DigitalSignature = nil
	degree.SignerEmail = nil
	if degree.CloudFile != "" {
		if outcome := s.dropCloudObject(degree.CloudFile); !outcome.Ok() {
			log.Printf("degree %d: %s", degree.ID, outcome)
		}
		degree.CloudFile = ""
	}
}

// dropCloudObject deletes a cloud object best-effort. On failure the name is
// recorded as an orphan so the sweeper can retry.
func (s *DegreeService) dropCloudObject(name string) CleanupOutcome {
	if err := s.cloud.Delete(name); err != nil {
		recordOrphan(s.db, name, err)
		return CleanupOutcome{Target: name, Err: err}
	}
	return CleanupOutcome{Target: name}
}

func (s *DegreeService) checkDegreeType(degreeTypeID, issuerID uint) error {
	var dt models.DegreeType
	err := s.db.Where("id = ? AND is_deleted = ?", degreeTypeID, false).First(&dt).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%w: degree type %d", ErrNotFound, degreeTypeID)
		}
		return err
	}
	if dt.IssuerID != issuerID {
		return fmt.Errorf("%w: degree type %d does not belong to issuer %d", ErrValidation, degreeTypeID, issuerID)
	}
	return nil
}

// FindApprovedBySerial is the public lookup: approved degrees only.
func (s *DegreeService) FindApprovedBySerial(serial string) (*models.Degree, error) {
	var degree models.Degree
	err := s.db.Where("serial_number = ? AND status = ? AND is_deleted = ?",
		serial, models.StatusApproved, false).First(&degree).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: serial %s", ErrNotFound, serial)
		}
		return nil, err
	}
	return &degree, nil
}

// SearchApproved looks an approved degree up by identity fields plus serial,
// backing the QR verification page.
func (s *DegreeService) SearchApproved(recipientName string, dateOfBirth time.Time, serial string) (*models.Degree, error) {
	degree, err := s.FindApprovedBySerial(serial)
	if err != nil {
		return nil, err
	}
	if degree.RecipientName != recipientName ||
		degree.DateOfBirth == nil || !degree.DateOfBirth.Equal(dateOfBirth) {
		return nil, fmt.Errorf("%w: no approved degree matches", ErrNotFound)
	}
	return degree, nil
}

// CleanupOutcome reports a best-effort cleanup step. Callers log failures and
// carry on; the primary operation never rolls back because of cleanup.
type CleanupOutcome struct {
	Target string
	Err    error
}

func (o CleanupOutcome) Ok() bool { return o.Err == nil }

func (o CleanupOutcome) String() string {
	if o.Err == nil {
		return fmt.Sprintf("cleaned up %s", o.Target)
	}
	return fmt.Sprintf("cleanup of %s failed: %v", o.Target, o.Err)
}

func removeLocalFile(path string) CleanupOutcome {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return CleanupOutcome{Target: path, Err: err}
	}
	return CleanupOutcome{Target: path}
}

func recordOrphan(db *gorm.DB, name string, cause error) {
	var orphan models.CloudOrphan
	err := db.Where("cloud_name = ?", name).First(&orphan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		orphan = models.CloudOrphan{CloudName: name, Attempts: 1, LastError: cause.Error()}
		err = db.Create(&orphan).Error
	} else if err == nil {
		orphan.Attempts++
		orphan.LastError = cause.Error()
		err = db.Save(&orphan).Error
	}
	if err != nil {
		log.Printf("Failed to record cloud orphan %s: %v", name, err)
	}
}
