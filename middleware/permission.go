package middleware

import (
	"dms/database"
	"dms/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// RequireRole returns a middleware that lets the request through only when
// the authenticated user holds one of the given roles. Issuer-level checks
// stay in the services, which know which degree is being touched.
func RequireRole(roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Get user ID from context (set by the auth middleware)
		userID, ok := c.Locals("userId").(uint)
		if !ok {
			return JsonResponse(c, fiber.StatusUnauthorized, 1, "Unauthorized: User ID not found", nil)
		}

		var user models.User
		err := database.Database.Db.Where("id = ? AND is_deleted = false", userID).First(&user).Error
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return JsonResponse(c, fiber.StatusUnauthorized, 1, "User not found!", nil)
			}
			// Other DB error
			return JsonResponse(c, fiber.StatusInternalServerError, 1, "Server error while checking permissions!", nil)
		}

		for _, role := range roles {
			if user.Role == role {
				c.Locals("user", &user)
				return c.Next()
			}
		}
		return JsonResponse(c, fiber.StatusForbidden, 1, "You do not have permission to access this resource!", nil)
	}
}
