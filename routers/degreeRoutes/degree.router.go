package degreeRoutes

import (
	degreeController "dms/controllers/degree"
	"dms/middleware"
	"dms/models"
	degreeValidator "dms/validators/degree"

	"github.com/gofiber/fiber/v2"
)

// SetupDegreeRoutes sets up all authenticated degree routes
func SetupDegreeRoutes(app *fiber.App) {
	degreeGroup := app.Group("/degree")

	manage := middleware.RequireRole(models.RoleManager, models.RoleAdmin)
	certify := middleware.RequireRole(models.RoleCertifier, models.RoleAdmin)
	staff := middleware.RequireRole(models.RoleManager, models.RoleCertifier, models.RoleAdmin)

	// Degree CRUD (managers)
	degreeGroup.Post("/create", middleware.JWTMiddleware, manage, degreeValidator.CreateDegree(), degreeController.CreateDegree)
	degreeGroup.Get("/list", middleware.JWTMiddleware, staff, degreeController.ListDegrees)
	degreeGroup.Get("/:id", middleware.JWTMiddleware, staff, degreeValidator.DegreeID(), degreeController.GetDegree)
	degreeGroup.Put("/:id", middleware.JWTMiddleware, manage, degreeValidator.UpdateDegree(), degreeController.UpdateDegree)
	degreeGroup.Delete("/:id", middleware.JWTMiddleware, manage, degreeValidator.DegreeID(), degreeController.DeleteDegree)

	// Attachment handling (managers)
	degreeGroup.Post("/:id/attachment", middleware.JWTMiddleware, manage, degreeValidator.DegreeID(), degreeController.UploadAttachment)
	degreeGroup.Post("/:id/cloud/upload", middleware.JWTMiddleware, manage, degreeValidator.DegreeID(), degreeController.CloudUpload)
	degreeGroup.Post("/:id/cloud/sync", middleware.JWTMiddleware, manage, degreeValidator.DegreeID(), degreeController.CloudSync)
	degreeGroup.Post("/:id/cloud/reupload", middleware.JWTMiddleware, manage, degreeValidator.DegreeID(), degreeController.CloudReupload)

	// Status transitions and verification (certifiers)
	degreeGroup.Put("/:id/status", middleware.JWTMiddleware, certify, degreeValidator.UpdateStatus(), degreeController.UpdateStatus)
	degreeGroup.Get("/:id/verify", middleware.JWTMiddleware, staff, degreeValidator.DegreeID(), degreeController.VerifySignature)
}
