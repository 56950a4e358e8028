package main

import (
	"dms/config"
	degreeController "dms/controllers/degree"
	lookupController "dms/controllers/lookup"
	"dms/database"
	authRoutes "dms/routers/authRoutes"
	degreeRoutes "dms/routers/degreeRoutes"
	issuerRoutes "dms/routers/issuerRoutes"
	publicRoutes "dms/routers/publicRoutes"
	"dms/services"
	"dms/signature"
	"dms/storage"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

func main() {
	config.LoadConfig()
	database.ConnectDb()

	// The key pair lives on disk: regenerating it per process would
	// invalidate every previously issued signature.
	engine, err := signature.LoadOrCreate(config.AppConfig.SigningKeyPath)
	if err != nil {
		log.Fatalf("Failed to initialize signature engine: %v", err)
	}

	cloud := storage.NewHTTPStorage(
		config.AppConfig.CloudApiURL,
		config.AppConfig.CloudApiKey,
		config.AppConfig.CloudBucket,
	)

	db := database.Database.Db
	degreeService := services.NewDegreeService(db, engine, cloud)
	fileSync := services.NewFileSync(db, cloud, config.AppConfig.UploadDir)

	degreeController.Init(degreeService, fileSync, config.AppConfig.UploadDir)
	lookupController.Init(degreeService)

	sweeper, err := services.StartOrphanSweeper(db, cloud, config.AppConfig.OrphanSweepSpec)
	if err != nil {
		log.Fatalf("Failed to start orphan sweeper: %v", err)
	}
	defer sweeper.Stop()

	app := fiber.New()

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE",        // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	// Serve static files from the public folder
	app.Static("/", "./public")

	authRoutes.SetupAuthRoutes(app)
	issuerRoutes.SetupIssuerRoutes(app)
	degreeRoutes.SetupDegreeRoutes(app)
	publicRoutes.SetupPublicRoutes(app)

	log.Printf("Server is running on port %s", config.AppConfig.Port)
	log.Fatal(app.Listen(":" + config.AppConfig.Port))
}
