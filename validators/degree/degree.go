package degreeValidator

import (
	"dms/middleware"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/now"
)

// isValidDate accepts the flexible formats understood by jinzhu/now
// ("2006-01-02", RFC3339 and friends).
func isValidDate(value string) bool {
	_, err := now.Parse(value)
	return err == nil
}

// DegreeID validates the :id path parameter and stores it in locals.
func DegreeID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid degree id!", nil)
		}
		c.Locals("degreeID", uint(id))
		return c.Next()
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

func validateDegreeBody(reqData *degreeBody, requireIssuer bool) map[string]string {
	errors := make(map[string]string)

	if strings.TrimSpace(reqData.RecipientName) == "" {
		errors["recipient_name"] = "Recipient name is required!"
	}
	if reqData.DateOfBirth == "" {
		errors["date_of_birth"] = "Date of birth is required!"
	} else if !isValidDate(reqData.DateOfBirth) {
		errors["date_of_birth"] = "Invalid date of birth!"
	}
	if reqData.DegreeTypeID < 1 {
		errors["degree_type_id"] = "Degree type is required!"
	}
	if reqData.IssueDate == "" {
		errors["issue_date"] = "Issue date is required!"
	} else if !isValidDate(reqData.IssueDate) {
		errors["issue_date"] = "Invalid issue date!"
	}
	if strings.TrimSpace(reqData.SerialNumber) == "" {
		errors["serial_number"] = "Serial number is required!"
	}
	if strings.TrimSpace(reqData.RegistryNumber) == "" {
		errors["registry_number"] = "Registry number is required!"
	}
	if requireIssuer && reqData.IssuerID < 1 {
		errors["issuer_id"] = "Issuer is required!"
	}
	return errors
}

// CreateDegree validates the degree creation body.
func CreateDegree() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(degreeBody)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
		}

		errors := validateDegreeBody(reqData, true)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		return c.Next()
	}
}

// UpdateDegree validates a content edit body. The issuer is never editable.
func UpdateDegree() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid degree id!", nil)
		}

		reqData := new(degreeBody)
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
		}

		errors := validateDegreeBody(reqData, false)
		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("degreeID", uint(id))
		return c.Next()
	}
}

// UpdateStatus validates the status transition body.
func UpdateStatus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid degree id!", nil)
		}

		reqData := new(struct {
			Status string `json:"status"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		status := strings.ToUpper(strings.TrimSpace(reqData.Status))
		if status != "PENDING" && status != "APPROVED" && status != "REJECTED" {
			errors["status"] = "Status must be PENDING, APPROVED or REJECTED!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}

		c.Locals("degreeID", uint(id))
		c.Locals("newStatus", status)
		return c.Next()
	}
}

// PublicSearch validates the identity-field lookup body.
func PublicSearch() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			RecipientName string `json:"recipient_name"`
			DateOfBirth   string `json:"date_of_birth"`
			SerialNumber  string `json:"serial_number"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.RecipientName) == "" {
			errors["recipient_name"] = "Recipient name is required!"
		}
		if reqData.DateOfBirth == "" || !isValidDate(reqData.DateOfBirth) {
			errors["date_of_birth"] = "Invalid date of birth!"
		}
		if strings.TrimSpace(reqData.SerialNumber) == "" {
			errors["serial_number"] = "Serial number is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		return c.Next()
	}
}
