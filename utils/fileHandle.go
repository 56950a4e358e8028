package utils

import (
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SaveUploadedFile stores an uploaded attachment under destDir with a
// generated name and returns its path.
func SaveUploadedFile(file *multipart.FileHeader, destDir string) (string, error) {
	// Open the uploaded file
	src, err := file.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	// Create destination directory if it doesn't exist
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", err
	}

	// Timestamp plus a short uuid so two uploads in the same second don't collide
	ext := filepath.Ext(file.Filename)
	newFilename := time.Now().Format("20060102150405") + "_" + strings.Split(uuid.New().String(), "-")[0] + ext
	filePath := filepath.Join(destDir, newFilename)

	// Create destination file
	dst, err := os.Create(filePath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// Copy the file content
	if _, err := io.Copy(dst, src); err != nil {
		return "", err
	}

	return filePath, nil
}

func GetFileURL(filePath string) string {
	if filePath == "" {
		return ""
	}
	// Adjust this based on your actual file serving setup
	return "/uploads/" + filepath.Base(filePath)
}
