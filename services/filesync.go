package services

import (
	"dms/models"
	"dms/repository"
	"dms/storage"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var errRefOverwritten = errors.New("cloud reference overwritten")

// FileSync coordinates a degree's local attachment with its cloud copy. Every
// operation requires the degree to be APPROVED and the acting user to be a
// manager or admin of the degree's issuer.
type FileSync struct {
	db        *gorm.DB
	repo      *repository.DegreeRepository
	cloud     storage.CloudStorage
	uploadDir string
}

func NewFileSync(db *gorm.DB, cloud storage.CloudStorage, uploadDir string) *FileSync {
	return &FileSync{
		db:        db,
		repo:      repository.NewDegreeRepository(db),
		cloud:     cloud,
		uploadDir: uploadDir,
	}
}

func (fs *FileSync) authorize(degreeID, actingUserID uint) (*models.Degree, error) {
	var user models.User
	if err := fs.db.Where("id = ? AND is_deleted = ?", actingUserID, false).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, actingUserID)
		}
		return nil, err
	}
	degree, err := fs.repo.FindByID(degreeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: degree %d", ErrNotFound, degreeID)
		}
		return nil, err
	}
	if !canManage(&user, degree.IssuerID) {
		return nil, ErrPermission
	}
	if degree.Status != models.StatusApproved {
		return nil, ErrNotApproved
	}
	return degree, nil
}

// UploadToCloud pushes the degree's local file to cloud storage. The record
// is updated only after the upload confirms success, so a failed transfer
// leaves no partial state.
func (fs *FileSync) UploadToCloud(degreeID, actingUserID uint) (*models.Degree, error) {
	degree, err := fs.authorize(degreeID, actingUserID)
	if err != nil {
		return nil, err
	}
	if degree.FileAttachment == "" {
		return nil, fmt.Errorf("%w: degree %d has no attachment", ErrFileNotFound, degreeID)
	}
	if _, err := os.Stat(degree.FileAttachment); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, degree.FileAttachment)
	}

	name := cloudObjectName(degree.FileAttachment)
	ref, err := fs.cloud.Put(degree.FileAttachment, name)
	if err != nil {
		return nil, err
	}
	// No content addressing: a repeated upload leaves the old object behind
	// under its old name. Track it so the sweeper can delete it.
	if degree.CloudFile != "" && degree.CloudFile != ref {
		recordOrphan(fs.db, degree.CloudFile, errRefOverwritten)
	}
	degree.CloudFile = ref
	if err := fs.repo.Save(degree); err != nil {
		return nil, err
	}
	return degree, nil
}

// SyncFromCloud heals the local/cloud pairing in whichever direction applies:
// a cloud copy wins and replaces the local file; with only a local file
// present it is uploaded instead.
func (fs *FileSync) SyncFromCloud(degreeID, actingUserID uint) (*models.Degree, error) {
	degree, err := fs.authorize(degreeID, actingUserID)
	if err != nil {
		return nil, err
	}

	switch {
	case degree.CloudFile != "":
		if degree.FileAttachment != "" {
			if outcome := removeLocalFile(degree.FileAttachment); !outcome.Ok() {
				log.Printf("degree %d: %s", degree.ID, outcome)
			}
		}
		dest := filepath.Join(fs.uploadDir, degree.CloudFile)
		if err := os.MkdirAll(fs.uploadDir, 0755); err != nil {
			return nil, err
		}
		if err := fs.cloud.Get(degree.CloudFile, dest); err != nil {
			return nil, err
		}
		degree.FileAttachment = dest
		if err := fs.repo.Save(degree); err != nil {
			return nil, err
		}
		return degree, nil

	case degree.FileAttachment != "":
		if _, err := os.Stat(degree.FileAttachment); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, degree.FileAttachment)
		}
		ref, err := fs.cloud.Put(degree.FileAttachment, cloudObjectName(degree.FileAttachment))
		if err != nil {
			return nil, err
		}
		degree.CloudFile = ref
		if err := fs.repo.Save(degree); err != nil {
			return nil, err
		}
		return degree, nil

	default:
		return nil, ErrNothingToSync
	}
}

// Reupload replaces the cloud copy with the current local file. The delete
// completes before the upload starts so no object lingers under the old name.
func (fs *FileSync) Reupload(degreeID, actingUserID uint) (*models.Degree, error) {
	degree, err := fs.authorize(degreeID, actingUserID)
	if err != nil {
		return nil, err
	}
	if degree.FileAttachment == "" {
		return nil, fmt.Errorf("%w: degree %d has no attachment", ErrFileNotFound, degreeID)
	}
	if _, err := os.Stat(degree.FileAttachment); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, degree.FileAttachment)
	}

	if degree.CloudFile != "" {
		if err := fs.cloud.Delete(degree.CloudFile); err != nil {
			recordOrphan(fs.db, degree.CloudFile, err)
			log.Printf("degree %d: cleanup of %s failed: %v", degree.ID, degree.CloudFile, err)
		}
		degree.CloudFile = ""
	}

	ref, err := fs.cloud.Put(degree.FileAttachment, cloudObjectName(degree.FileAttachment))
	if err != nil {
		// The old copy is already gone; persist the cleared reference so the
		// record does not point at a deleted object.
		if saveErr := fs.repo.Save(degree); saveErr != nil {
			log.Printf("degree %d: failed to persist cleared cloud ref: %v", degree.ID, saveErr)
		}
		return nil, err
	}
	degree.CloudFile = ref
	if err := fs.repo.Save(degree); err != nil {
		return nil, err
	}
	return degree, nil
}

// cloudObjectName generates a fresh object name keeping the local extension.
func cloudObjectName(localPath string) string {
	return uuid.New().String() + filepath.Ext(localPath)
}
