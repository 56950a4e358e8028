package authController

import (
	"dms/config"
	"dms/database"
	"dms/middleware"
	"dms/models"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

func Register(c *fiber.Ctx) error {
	reqData := new(struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
		IssuerID *uint  `json:"issuer_id"`
	})

	// Parse Request Body
	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
	}

	db := database.Database.Db

	// Check if email already exists
	if err := db.Where("email = ?", reqData.Email).First(&models.User{}).Error; err == nil {
		return middleware.JsonResponse(c, fiber.StatusConflict, 1, "Email is already registered!", nil)
	}

	role := reqData.Role
	if role == "" {
		role = models.RoleUser
	}

	// Manager and certifier accounts must point at a real issuer
	if reqData.IssuerID != nil {
		if err := db.Where("id = ? AND is_deleted = false", *reqData.IssuerID).First(&models.Issuer{}).Error; err != nil {
			return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Issuer not found!", nil)
		}
	}

	// Hash Password
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reqData.Password), config.AppConfig.SaltRound)
	if err != nil {
		log.Printf("Error hashing password: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Failed to process your request!", nil)
	}

	newUser := models.User{
		Name:     reqData.Name,
		Email:    reqData.Email,
		Role:     role,
		Password: string(hashedPassword),
		IssuerID: reqData.IssuerID,
	}

	// Create User
	if err := db.Create(&newUser).Error; err != nil {
		log.Printf("Error saving user to database: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Failed to register user!", nil)
	}

	// Clean Response
	newUser.Password = ""

	return middleware.JsonResponse(c, fiber.StatusCreated, 0, "User registered successfully.", newUser)
}

func Login(c *fiber.Ctx) error {
	reqData := new(struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	})

	if err := c.BodyParser(reqData); err != nil {
		return middleware.JsonResponse(c, fiber.StatusBadRequest, 1, "Invalid request body!", nil)
	}

	db := database.Database.Db

	var user models.User
	if err := db.Where("email = ? AND is_deleted = false", reqData.Email).First(&user).Error; err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, 1, "Invalid email or password!", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(reqData.Password)); err != nil {
		return middleware.JsonResponse(c, fiber.StatusUnauthorized, 1, "Invalid email or password!", nil)
	}

	token, err := middleware.GenerateJWT(user.ID, user.Name, user.Role, user.Email)
	if err != nil {
		log.Printf("Error generating JWT: %v", err)
		return middleware.JsonResponse(c, fiber.StatusInternalServerError, 1, "Failed to process your request!", nil)
	}

	nowTime := time.Now()
	user.LastLogin = &nowTime
	db.Save(&user)

	user.Password = ""

	return middleware.JsonResponse(c, fiber.StatusOK, 0, "Login successful.", fiber.Map{
		"token": token,
		"user":  user,
	})
}
