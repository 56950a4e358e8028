package services

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"dms/models"
	"dms/repository"
	"dms/signature"
	"dms/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixtures struct {
	db    *gorm.DB
	svc   *DegreeService
	cloud *storage.MemoryStorage

	issuer      models.Issuer
	otherIssuer models.Issuer
	degreeType  models.DegreeType

	admin          models.User
	certifier      models.User
	otherCertifier models.User
	manager        models.User
	plainUser      models.User
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Issuer{},
		&models.DegreeType{},
		&models.Degree{},
		&models.CloudOrphan{},
	))
	return db
}

func setup(t *testing.T) *fixtures {
	t.Helper()
	db := openTestDB(t)

	engine, err := signature.Generate()
	require.NoError(t, err)

	cloud := storage.NewMemoryStorage()

	f := &fixtures{
		db:    db,
		svc:   NewDegreeService(db, engine, cloud),
		cloud: cloud,
	}

	f.issuer = models.Issuer{Name: "Springfield University", ContactEmail: "registry@su.example.com"}
	require.NoError(t, db.Create(&f.issuer).Error)
	f.otherIssuer = models.Issuer{Name: "Shelbyville College"}
	require.NoError(t, db.Create(&f.otherIssuer).Error)

	f.degreeType = models.DegreeType{Title: "Bachelor of Science", IssuerID: f.issuer.ID}
	require.NoError(t, db.Create(&f.degreeType).Error)

	f.admin = models.User{Name: "Admin", Email: "admin@example.com", Role: models.RoleAdmin, Password: "x"}
	f.certifier = models.User{Name: "Certifier", Email: "certifier@su.example.com", Role: models.RoleCertifier, Password: "x", IssuerID: &f.issuer.ID}
	f.otherCertifier = models.User{Name: "Outsider", Email: "certifier@sc.example.com", Role: models.RoleCertifier, Password: "x", IssuerID: &f.otherIssuer.ID}
	f.manager = models.User{Name: "Manager", Email: "manager@su.example.com", Role: models.RoleManager, Password: "x", IssuerID: &f.issuer.ID}
	f.plainUser = models.User{Name: "User", Email: "user@example.com", Role: models.RoleUser, Password: "x"}
	for _, u := range []*models.User{&f.admin, &f.certifier, &f.otherCertifier, &f.manager, &f.plainUser} {
		require.NoError(t, db.Create(u).Error)
	}

	return f
}

func (f *fixtures) degreeInput(serial, registry string) DegreeInput {
	dob := time.Date(1990, 5, 10, 0, 0, 0, 0, time.UTC)
	issued := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	return DegreeInput{
		RecipientName:  "Jane Roe",
		DateOfBirth:    &dob,
		PlaceOfBirth:   "Springfield",
		Level:          "Excellent",
		DegreeTypeID:   f.degreeType.ID,
		IssueDate:      &issued,
		SerialNumber:   serial,
		RegistryNumber: registry,
		PlaceOfIssue:   "Springfield",
		SignerName:     "Dean Smith",
	}
}

func (f *fixtures) createDegree(t *testing.T, serial, registry string) *models.Degree {
	t.Helper()
	degree, err := f.svc.CreateDegree(f.manager.ID, f.issuer.ID, f.degreeInput(serial, registry))
	require.NoError(t, err)
	return degree
}

func TestCreateDegreeStartsPending(t *testing.T) {
	f := setup(t)

	degree := f.createDegree(t, "A123", "R456")

	assert.Equal(t, models.StatusPending, degree.Status)
	assert.Nil(t, degree.DigitalSignature)
	assert.Nil(t, degree.SignerEmail)
}

func TestCreateDegreePermissions(t *testing.T) {
	f := setup(t)

	_, err := f.svc.CreateDegree(f.plainUser.ID, f.issuer.ID, f.degreeInput("A1", "R1"))
	assert.ErrorIs(t, err, ErrPermission)

	// A manager cannot create degrees for a foreign issuer.
	_, err = f.svc.CreateDegree(f.manager.ID, f.otherIssuer.ID, f.degreeInput("A1", "R1"))
	assert.ErrorIs(t, err, ErrPermission)

	_, err = f.svc.CreateDegree(9999, f.issuer.ID, f.degreeInput("A1", "R1"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDegreeRejectsForeignDegreeType(t *testing.T) {
	f := setup(t)

	foreignType := models.DegreeType{Title: "Diploma", IssuerID: f.otherIssuer.ID}
	require.NoError(t, f.db.Create(&foreignType).Error)

	input := f.degreeInput("A1", "R1")
	input.DegreeTypeID = foreignType.ID
	_, err := f.svc.CreateDegree(f.admin.ID, f.issuer.ID, input)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApproveAttachesSignature(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	updated, err := f.svc.UpdateStatus(degree.ID, models.StatusApproved, f.certifier.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, updated.Status)
	require.NotNil(t, updated.DigitalSignature)
	require.NotNil(t, updated.SignerEmail)
	assert.Equal(t, f.certifier.Email, *updated.SignerEmail)

	result, err := f.svc.VerifySignature(degree.ID)
	require.NoError(t, err)
	assert.True(t, result.IsValid)
	assert.Equal(t, MsgSignatureValid, result.Message)
}

func TestUpdateStatusPermissions(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	_, err := f.svc.UpdateStatus(degree.ID, models.StatusApproved, f.otherCertifier.ID)
	assert.ErrorIs(t, err, ErrPermission)

	_, err = f.svc.UpdateStatus(degree.ID, models.StatusApproved, f.manager.ID)
	assert.ErrorIs(t, err, ErrPermission)

	_, err = f.svc.UpdateStatus(degree.ID, "SIGNED", f.certifier.ID)
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.svc.UpdateStatus(9999, models.StatusApproved, f.certifier.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.UpdateStatus(degree.ID, models.StatusApproved, 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeApprovalClearsTrustState(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	_, err := f.svc.UpdateStatus(degree.ID, models.StatusApproved, f.certifier.ID)
	require.NoError(t, err)

	// Simulate a cloud copy attached while approved.
	require.NoError(t, f.db.Model(&models.Degree{}).Where("id = ?", degree.ID).
		Update("cloud_file", "obj-1.pdf").Error)
	f.cloud.Put(writeTempFile(t, "content"), "obj-1.pdf")
	require.True(t, f.cloud.Has("obj-1.pdf"))

	updated, err := f.svc.UpdateStatus(degree.ID, models.StatusRejected, f.certifier.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, updated.Status)
	assert.Nil(t, updated.DigitalSignature)
	assert.Nil(t, updated.SignerEmail)
	assert.Empty(t, updated.CloudFile)
	assert.False(t, f.cloud.Has("obj-1.pdf"))
	assert.Contains(t, f.cloud.Deletes, "obj-1.pdf")
}

func TestDeApprovalRecordsOrphanOnDeleteFailure(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	_, err := f.svc.UpdateStatus(degree.ID, models.StatusApproved, f.certifier.ID)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Degree{}).Where("id = ?", degree.ID).
		Update("cloud_file", "obj-1.pdf").Error)

	f.cloud.FailDelete = storage.ErrDeleteFailed

	// The status change still completes; the failure is recorded.
	updated, err := f.svc.UpdateStatus(degree.ID, models.StatusPending, f.certifier.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.CloudFile)

	var orphan models.CloudOrphan
	require.NoError(t, f.db.Where("cloud_name = ?", "obj-1.pdf").First(&orphan).Error)
	assert.Equal(t, 1, orphan.Attempts)
}

func TestEditContentForcesPending(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	_, err := f.svc.UpdateStatus(degree.ID, models.StatusApproved, f.certifier.ID)
	require.NoError(t, err)

	input := f.degreeInput("A123", "R456")
	input.RecipientName = "Janet Roe"
	updated, err := f.svc.EditContent(degree.ID, f.manager.ID, input)
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Nil(t, updated.DigitalSignature)
	assert.Nil(t, updated.SignerEmail)

	result, err := f.svc.VerifySignature(degree.ID)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, MsgNoSignature, result.Message)
}

func TestEditContentDuplicateSerial(t *testing.T) {
	f := setup(t)
	f.createDegree(t, "A123", "R456")
	second := f.createDegree(t, "A124", "R457")

	// Taking over another degree's registry number as a serial collides.
	input := f.degreeInput("R456", "R457")
	_, err := f.svc.EditContent(second.ID, f.manager.ID, input)
	assert.ErrorIs(t, err, repository.ErrDuplicateKey)
}

func TestVerifySignatureTamperDetection(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	_, err := f.svc.UpdateStatus(degree.ID, models.StatusApproved, f.certifier.ID)
	require.NoError(t, err)

	// Mutate a signable column behind the service's back.
	require.NoError(t, f.db.Model(&models.Degree{}).Where("id = ?", degree.ID).
		Update("recipient_name", "Someone Else").Error)

	result, err := f.svc.VerifySignature(degree.ID)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, MsgSignatureInvalid, result.Message)
}

func TestVerifySignatureUnsigned(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	result, err := f.svc.VerifySignature(degree.ID)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, MsgNoSignature, result.Message)

	_, err = f.svc.VerifySignature(9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

// TestEndToEndLifecycle walks the full create → approve → verify → edit →
// verify scenario.
func TestEndToEndLifecycle(t *testing.T) {
	f := setup(t)

	degree := f.createDegree(t, "A123", "R456")
	assert.Equal(t, models.StatusPending, degree.Status)
	assert.Nil(t, degree.DigitalSignature)

	approved, err := f.svc.UpdateStatus(degree.ID, models.StatusApproved, f.certifier.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.NotNil(t, approved.DigitalSignature)

	result, err := f.svc.VerifySignature(degree.ID)
	require.NoError(t, err)
	assert.True(t, result.IsValid)

	input := f.degreeInput("A123", "R456")
	input.RecipientName = "Janet Roe"
	edited, err := f.svc.EditContent(degree.ID, f.manager.ID, input)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, edited.Status)
	assert.Nil(t, edited.DigitalSignature)

	result, err = f.svc.VerifySignature(degree.ID)
	require.NoError(t, err)
	assert.False(t, result.IsValid)
	assert.Equal(t, MsgNoSignature, result.Message)
}

// TestSignatureInvariantProperty drives random transitions and edits and
// checks after every step that a signature exists exactly when the degree is
// approved.
func TestSignatureInvariantProperty(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	rng := rand.New(rand.NewSource(42))
	statuses := []string{models.StatusPending, models.StatusApproved, models.StatusRejected}

	for i := 0; i < 100; i++ {
		if rng.Intn(4) == 0 {
			input := f.degreeInput("A123", "R456")
			input.RecipientName = fmt.Sprintf("Jane Roe %d", i)
			_, err := f.svc.EditContent(degree.ID, f.manager.ID, input)
			require.NoError(t, err)
		} else {
			_, err := f.svc.UpdateStatus(degree.ID, statuses[rng.Intn(len(statuses))], f.certifier.ID)
			require.NoError(t, err)
		}

		current, err := f.svc.Repo().FindByID(degree.ID)
		require.NoError(t, err)
		if current.Status == models.StatusApproved {
			assert.NotNil(t, current.DigitalSignature, "approved degree must carry a signature (step %d)", i)
			assert.NotNil(t, current.SignerEmail)
		} else {
			assert.Nil(t, current.DigitalSignature, "non-approved degree must not carry a signature (step %d)", i)
			assert.Nil(t, current.SignerEmail)
		}
	}
}

// TestUpdateStatusLastWriterWins documents the accepted race: no locking
// protects the read-modify-write window, so a stale save overwrites a
// concurrent approval.
func TestUpdateStatusLastWriterWins(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	stale, err := f.svc.Repo().FindByID(degree.ID)
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(degree.ID, models.StatusApproved, f.certifier.ID)
	require.NoError(t, err)

	// The stale copy wins the write race and silently drops the approval.
	require.NoError(t, f.svc.Repo().Save(stale))

	current, err := f.svc.Repo().FindByID(degree.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, current.Status)
	assert.Nil(t, current.DigitalSignature)
}

func TestSetAttachmentResetsApproval(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	_, err := f.svc.UpdateStatus(degree.ID, models.StatusApproved, f.certifier.ID)
	require.NoError(t, err)

	path := writeTempFile(t, "scan")
	updated, err := f.svc.SetAttachment(degree.ID, f.manager.ID, path)
	require.NoError(t, err)

	assert.Equal(t, path, updated.FileAttachment)
	assert.Equal(t, models.StatusPending, updated.Status)
	assert.Nil(t, updated.DigitalSignature)
}

func TestDeleteDegreeCleansUpFiles(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	path := writeTempFile(t, "scan")
	_, err := f.svc.SetAttachment(degree.ID, f.manager.ID, path)
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&models.Degree{}).Where("id = ?", degree.ID).
		Update("cloud_file", "obj-9.pdf").Error)
	f.cloud.Put(path, "obj-9.pdf")

	require.NoError(t, f.svc.DeleteDegree(degree.ID, f.manager.ID))

	_, err = f.svc.Repo().FindByID(degree.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NoFileExists(t, path)
	assert.False(t, f.cloud.Has("obj-9.pdf"))
}

func TestPublicLookup(t *testing.T) {
	f := setup(t)
	degree := f.createDegree(t, "A123", "R456")

	// Pending degrees are invisible to the public.
	_, err := f.svc.FindApprovedBySerial("A123")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.svc.UpdateStatus(degree.ID, models.StatusApproved, f.certifier.ID)
	require.NoError(t, err)

	found, err := f.svc.FindApprovedBySerial("A123")
	require.NoError(t, err)
	assert.Equal(t, degree.ID, found.ID)

	dob := time.Date(1990, 5, 10, 0, 0, 0, 0, time.UTC)
	found, err = f.svc.SearchApproved("Jane Roe", dob, "A123")
	require.NoError(t, err)
	assert.Equal(t, degree.ID, found.ID)

	_, err = f.svc.SearchApproved("John Doe", dob, "A123")
	assert.ErrorIs(t, err, ErrNotFound)
}
