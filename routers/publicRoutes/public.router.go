package publicRoutes

import (
	lookupController "dms/controllers/lookup"
	degreeValidator "dms/validators/degree"

	"github.com/gofiber/fiber/v2"
)

// SetupPublicRoutes sets up unauthenticated degree lookup routes
func SetupPublicRoutes(app *fiber.App) {
	publicGroup := app.Group("/public")

	publicGroup.Get("/degree/:serial", lookupController.BySerial)
	publicGroup.Post("/degree/search", degreeValidator.PublicSearch(), lookupController.Search)
}
