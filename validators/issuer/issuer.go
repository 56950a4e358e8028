package issuerValidator

import (
	"dms/middleware"
	"strings"

	"github.com/gofiber/fiber/v2"
)

// CreateIssuer validates the issuer creation body.
func CreateIssuer() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Name         string `json:"name"`
			Address      string `json:"address"`
			ContactEmail string `json:"contact_email"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if len(strings.TrimSpace(reqData.Name)) < 3 {
			errors["name"] = "Name must be at least 3 characters long!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		return c.Next()
	}
}

// CreateDegreeType validates the degree type creation body.
func CreateDegreeType() fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqData := new(struct {
			Title    string `json:"title"`
			IssuerID uint   `json:"issuer_id"`
		})
		if err := c.BodyParser(reqData); err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
		}

		errors := make(map[string]string)

		if strings.TrimSpace(reqData.Title) == "" {
			errors["title"] = "Title is required!"
		}
		if reqData.IssuerID < 1 {
			errors["issuer_id"] = "Issuer is required!"
		}

		if len(errors) > 0 {
			return middleware.ValidationErrorResponse(c, errors)
		}
		return c.Next()
	}
}
