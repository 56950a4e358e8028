package issuerController

import (
	"dms/database"
	"dms/middleware"
	"dms/models"
	"strconv"

	"github.com/gofiber/fiber/v2"
)

// CreateIssuer creates a new issuer (admin only).
func CreateIssuer(c *fiber.Ctx) error {
	reqData := new(struct {
		Name         string `json:"name"`
		Address      string `json:"address"`
		ContactEmail string `json:"contact_email"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
	}

	db := database.Database.Db

	if err := db.Where("name = ? AND is_deleted = false", reqData.Name).First(&models.Issuer{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, 1, "Issuer name already exists!", nil)
	}

	issuer := models.Issuer{
		Name:         reqData.Name,
		Address:      reqData.Address,
		ContactEmail: reqData.ContactEmail,
	}
	if err := db.Create(&issuer).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Failed to create issuer!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, 0, "Issuer created successfully.", issuer)
}

// ListIssuers lists all non-deleted issuers.
func ListIssuers(c *fiber.Ctx) error {
	var issuers []models.Issuer
	if err := database.Database.Db.Where("is_deleted = false").Order("name asc").Find(&issuers).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Failed to fetch issuers!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, "Issuers fetched successfully.", issuers)
}

// CreateDegreeType creates a degree type under an issuer (admin only).
func CreateDegreeType(c *fiber.Ctx) error {
	reqData := new(struct {
		Title    string `json:"title"`
		IssuerID uint   `json:"issuer_id"`
	})
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
	}

	db := database.Database.Db

	if err := db.Where("id = ? AND is_deleted = false", reqData.IssuerID).First(&models.Issuer{}).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusNotFound, 1, "Issuer not found!", nil)
	}

	degreeType := models.DegreeType{
		Title:    reqData.Title,
		IssuerID: reqData.IssuerID,
	}
	if err := db.Create(&degreeType).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Failed to create degree type!", nil)
	}

	return middleware.JsonResponse(c, fiber.StatusCreated, 0, "Degree type created successfully.", degreeType)
}

// ListDegreeTypes lists degree types, optionally filtered by issuer.
func ListDegreeTypes(c *fiber.Ctx) error {
	db := database.Database.Db.Where("is_deleted = false")

	if issuerParam := c.Query("issuer_id"); issuerParam != "" {
		issuerID, err := strconv.Atoi(issuerParam)
		if err != nil || issuerID < 1 {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid issuer id!", nil)
		}
		db = db.Where("issuer_id = ?", issuerID)
	}

	var degreeTypes []models.DegreeType
	if err := db.Order("title asc").Find(&degreeTypes).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Failed to fetch degree types!", nil)
	}
	return middleware.JsonResponse(c, fiber.StatusOK, 0, "Degree types fetched successfully.", degreeTypes)
}
