package lookupController

import (
	"dms/middleware"
	"dms/models"
	"dms/services"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
)

var svc *services.DegreeService

// Init wires the public lookup controllers to the degree service.
func Init(degreeService *services.DegreeService) {
	svc = degreeService
}

// publicView strips internal fields from a degree before exposure.
func publicView(degree *models.Degree) fiber.Map {
	return fiber.Map{
		"recipient_name":  degree.RecipientName,
		"date_of_birth":   degree.DateOfBirth,
		"place_of_birth":  degree.PlaceOfBirth,
		"level":           degree.Level,
		"degree_type_id":  degree.DegreeTypeID,
		"issue_date":      degree.IssueDate,
		"serial_number":   degree.SerialNumber,
		"registry_number": degree.RegistryNumber,
		"place_of_issue":  degree.PlaceOfIssue,
		"signer_name":     degree.SignerName,
		"status":          degree.Status,
	}
}

// BySerial is the public lookup by serial number; approved degrees only.
func BySerial(c *fiber.Ctx) error {
	serial := c.Params("serial")
	if serial == "" {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Serial number is required!", nil)
	}

	degree, err := svc.FindApprovedBySerial(serial)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, 1, "No approved degree found for this serial number!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Failed to look up degree!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, "Degree found.", publicView(degree))
}

// Search is the public lookup by identity fields plus serial number, backing
// the QR verification page.
func Search(c *fiber.Ctx) error {
	reqData := new(struct {
		RecipientName string `json:"recipient_name"`
		DateOfBirth   string `json:"date_of_birth"`
		SerialNumber  string `json:"serial_number"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
	}

	dob, err := now.Parse(reqData.DateOfBirth)
	if err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid date of birth!", nil)
	}

	degree, err := svc.SearchApproved(reqData.RecipientName, dob, reqData.SerialNumber)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return middleware.JsonResponse(c, fiber.StatusNotFound, 1, "No approved degree matches these details!", nil)
		}
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Failed to look up degree!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, "Degree found.", publicView(degree))
}
