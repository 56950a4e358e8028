package degreeController

import (
	"dms/database"
	"dms/middleware"
	"dms/models"
	"dms/repository"
	"dms/services"
	"dms/storage"
	"dms/utils"
	"errors"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
)

var (
	svc       *services.DegreeService
	fileSync  *services.FileSync
	uploadDir string
)

// Init wires the controllers to the services built at startup.
func Init(degreeService *services.DegreeService, fs *services.FileSync, dir string) {
	svc = degreeService
	fileSync = fs
	uploadDir = dir
}

// respondServiceError maps the service error taxonomy onto HTTP codes.
func respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound), errors.Is(err, repository.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusNotFound, 1, err.Error(), nil)
	case errors.Is(err, services.ErrPermission):
		return middleware.JsonResponse(c, fiber.StatusForbidden, 1, err.Error(), nil)
	case errors.Is(err, services.ErrValidation),
		errors.Is(err, services.ErrFileNotFound),
		errors.Is(err, services.ErrNothingToSync),
		errors.Is(err, services.ErrNotApproved),
		errors.Is(err, repository.ErrDuplicateKey),
		errors.Is(err, repository.ErrMissingField):
		return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, err.Error(), nil)
	case errors.Is(err, storage.ErrUploadFailed),
		errors.Is(err, storage.ErrDownloadFailed),
		errors.Is(err, storage.ErrDeleteFailed),
		errors.Is(err, storage.ErrNotFound):
		return middleware.JsonResponse(c, fiber.StatusBadGateway, 1, err.Error(), nil)
	default:
		log.Printf("Unexpected error: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Internal server error!", nil)
	}
}

type degreeBody struct {
	RecipientName  string `json:"recipient_name"`
	DateOfBirth    string `json:"date_of_birth"`
	PlaceOfBirth   string `json:"place_of_birth"`
	Level          string `json:"level"`
	DegreeTypeID   uint   `json:"degree_type_id"`
	IssueDate      string `json:"issue_date"`
	SerialNumber   string `json:"serial_number"`
	RegistryNumber string `json:"registry_number"`
	PlaceOfIssue   string `json:"place_of_issue"`
	SignerName     string `json:"signer_name"`
	IssuerID       uint   `json:"issuer_id"`
}

func parseDate(value string) *time.Time {
	t, err := now.Parse(value)
	if err != nil {
		return nil
	}
	return &t
}

func toInput(body *degreeBody) services.DegreeInput {
	return services.DegreeInput{
		RecipientName:  body.RecipientName,
		DateOfBirth:    parseDate(body.DateOfBirth),
		PlaceOfBirth:   body.PlaceOfBirth,
		Level:          body.Level,
		DegreeTypeID:   body.DegreeTypeID,
		IssueDate:      parseDate(body.IssueDate),
		SerialNumber:   body.SerialNumber,
		RegistryNumber: body.RegistryNumber,
		PlaceOfIssue:   body.PlaceOfIssue,
		SignerName:     body.SignerName,
	}
}

// CreateDegree creates a new degree in PENDING status.
func CreateDegree(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, 1, "Unauthorized!", nil)
	}

	reqData := new(degreeBody)
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
	}

	degree, err := svc.CreateDegree(userID, reqData.IssuerID, toInput(reqData))
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusCreated, 0, "Degree created successfully.", degree)
}

// UpdateDegree applies a content edit, forcing the degree back to PENDING.
func UpdateDegree(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, 1, "Unauthorized!", nil)
	}
	degreeID := c.Locals("degreeID").(uint)

	reqData := new(degreeBody)
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
	}

	degree, err := svc.EditContent(degreeID, userID, toInput(reqData))
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, "Degree updated successfully.", degree)
}

// DeleteDegree soft-deletes a degree with best-effort file cleanup.
func DeleteDegree(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, 1, "Unauthorized!", nil)
	}
	degreeID := c.Locals("degreeID").(uint)

	if err := svc.DeleteDegree(degreeID, userID); err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, "Degree deleted successfully.", nil)
}

// GetDegree fetches a single degree.
func GetDegree(c *fiber.Ctx) error {
	degreeID := c.Locals("degreeID").(uint)

	degree, err := svc.Repo().FindByID(degreeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, "Degree fetched successfully.", degree)
}

// ListDegrees lists degrees with pagination. Non-admin staff only see their
// own issuer's degrees.
func ListDegrees(c *fiber.Ctx) error {
	user, ok := c.Locals("user").(*models.User)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, 1, "Unauthorized!", nil)
	}

	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 20)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	db := database.Database.Db.Where("is_deleted = false")
	if user.Role != models.RoleAdmin && user.IssuerID != nil {
		db = db.Where("issuer_id = ?", *user.IssuerID)
	}

	var total int64
	db.Model(&models.Degree{}).Count(&total)

	var degrees []models.Degree
	if err := db.Order("created_at desc").
		Offset((page - 1) * limit).Limit(limit).
		Find(&degrees).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Failed to fetch degrees!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, 0, "Degrees fetched successfully.", fiber.Map{
		"degrees": degrees,
		"total":   total,
		"page":    page,
		"limit":   limit,
	})
}

// UploadAttachment stores an uploaded file as the degree's local attachment.
func UploadAttachment(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, 1, "Unauthorized!", nil)
	}
	degreeID := c.Locals("degreeID").(uint)

	file, err := c.FormFile("file")
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Attachment file is required!", nil)
	}

	path, err := utils.SaveUploadedFile(file, uploadDir)
	if err != nil {
		log.Printf("Error saving uploaded file: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Failed to save attachment!", nil)
	}

	degree, err := svc.SetAttachment(degreeID, userID, path)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, "Attachment uploaded successfully.", degree)
}

// UpdateStatus runs a status transition; approval attaches the signature.
func UpdateStatus(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, 1, "Unauthorized!", nil)
	}
	degreeID := c.Locals("degreeID").(uint)
	newStatus := c.Locals("newStatus").(string)

	degree, err := svc.UpdateStatus(degreeID, newStatus, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	if degree.Status == models.StatusApproved && degree.SignerEmail != nil {
		notifyIssuer(degree)
	}

	return middleware.JsonResponse(c, fiber.StatusOK, 0, "Status updated successfully.", degree)
}

// notifyIssuer emails the issuer contact about an approval, best-effort.
func notifyIssuer(degree *models.Degree) {
	var issuer models.Issuer
	if err := database.Database.Db.Where("id = ? AND is_deleted = false", degree.IssuerID).First(&issuer).Error; err != nil {
		return
	}
	if issuer.ContactEmail == "" {
		return
	}
	go func(email, name, serial, approver string) {
		if err := utils.SendApprovalEmail(email, name, serial, approver); err != nil {
			log.Printf("Approval email to %s failed: %v", email, err)
		}
	}(issuer.ContactEmail, degree.RecipientName, degree.SerialNumber, *degree.SignerEmail)
}

// VerifySignature re-checks the stored signature against the current row.
func VerifySignature(c *fiber.Ctx) error {
	degreeID := c.Locals("degreeID").(uint)

	result, err := svc.VerifySignature(degreeID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, result.Message, fiber.Map{
		"isValid": result.IsValid,
	})
}

// CloudUpload pushes the local attachment to cloud storage.
func CloudUpload(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, 1, "Unauthorized!", nil)
	}
	degreeID := c.Locals("degreeID").(uint)

	degree, err := fileSync.UploadToCloud(degreeID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, "File uploaded to cloud storage.", degree)
}

// CloudSync heals the local/cloud file pairing in whichever direction applies.
func CloudSync(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, 1, "Unauthorized!", nil)
	}
	degreeID := c.Locals("degreeID").(uint)

	degree, err := fileSync.SyncFromCloud(degreeID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, "File synced successfully.", degree)
}

// CloudReupload replaces the cloud copy with the current local file.
func CloudReupload(c *fiber.Ctx) error {
	userID, ok := c.Locals("userId").(uint)
	if !ok {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, 1, "Unauthorized!", nil)
	}
	degreeID := c.Locals("degreeID").(uint)

	degree, err := fileSync.Reupload(degreeID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, "File re-uploaded successfully.", degree)
}
