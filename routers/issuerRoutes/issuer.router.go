package issuerRoutes

import (
	issuerController "dms/controllers/issuer"
	"dms/middleware"
	"dms/models"
	issuerValidator "dms/validators/issuer"

	"github.com/gofiber/fiber/v2"
)

// SetupIssuerRoutes sets up issuer and degree type routes
func SetupIssuerRoutes(app *fiber.App) {
	issuerGroup := app.Group("/issuer")

	issuerGroup.Post("/create", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin), issuerValidator.CreateIssuer(), issuerController.CreateIssuer)
	issuerGroup.Get("/list", middleware.JWTMiddleware, issuerController.ListIssuers)

	typeGroup := app.Group("/degree-type")

	typeGroup.Post("/create", middleware.JWTMiddleware, middleware.RequireRole(models.RoleAdmin), issuerValidator.CreateDegreeType(), issuerController.CreateDegreeType)
	typeGroup.Get("/list", middleware.JWTMiddleware, issuerController.ListDegreeTypes)
}
