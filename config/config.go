package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port      string
	DBName    string
	JWTKey    string
	SaltRound int

	UploadDir      string // local degree attachment directory
	SigningKeyPath string // PEM key pair location for the signature engine

	CloudApiURL string // remote file service base URL
	CloudApiKey string
	CloudBucket string

	EmailSender string
	Password    string // SMTP Password

	OrphanSweepSpec string // cron spec for the cloud orphan sweeper
}

// AppConfig is a global variable to access configuration
var AppConfig *Config

// LoadConfig initializes configuration from environment variables or defaults
func LoadConfig() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found. Using system environment variables.")
	}

	// Initialize AppConfig with values from environment variables
	AppConfig = &Config{
		Port:      getEnv("PORT", "3000"),
		DBName:    getEnv("DB_NAME", "degrees.db"),
		JWTKey:    getEnv("JWT_SECRET_KEY", "defaultSecret"),
		SaltRound: getEnvInt("SALT_ROUND", 10),

		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		SigningKeyPath: getEnv("SIGNING_KEY_PATH", "keys/signing.pem"),

		CloudApiURL: getEnv("CLOUD_API_URL", "https://files.cloud.example.com/v1/"),
		CloudApiKey: getEnv("CLOUD_API_KEY", "defaultSecret"),
		CloudBucket: getEnv("CLOUD_BUCKET", "degree-files"),

		EmailSender: getEnv("EMAIL_SENDER", "defaultSecret"),
		Password:    getEnv("PASSWORD", "defaultSecret"),

		OrphanSweepSpec: getEnv("ORPHAN_SWEEP_SPEC", "@hourly"),
	}

	// Validate critical configuration
	if AppConfig.JWTKey == "defaultSecret" {
		log.Println("Warning: Using default JWT_SECRET_KEY. Update it in your environment.")
	}
	if AppConfig.CloudApiKey == "defaultSecret" {
		log.Println("Warning: Using default CLOUD_API_KEY. Cloud uploads will be rejected.")
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt retrieves an environment variable as an integer or returns the default integer value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("Error converting environment variable %s to int: %v", key, err)
		return defaultValue
	}
	return intValue
}
