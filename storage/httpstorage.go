package storage

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-resty/resty/v2"
)

// HTTPStorage talks to the remote file service over its REST API.
type HTTPStorage struct {
	client *resty.Client
	bucket string
}

// NewHTTPStorage builds a cloud storage client for the given base URL and
// bucket. The API key is sent as a bearer token on every request.
func NewHTTPStorage(baseURL, apiKey, bucket string) *HTTPStorage {
	client := resty.New().
		SetBaseURL(baseURL).
		SetAuthToken(apiKey).
		SetTimeout(60 * time.Second)
	return &HTTPStorage{client: client, bucket: bucket}
}

type putResponse struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Put uploads the file at localPath under the given object name.
func (s *HTTPStorage) Put(localPath, name string) (string, error) {
	if _, err := os.Stat(localPath); err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}

	var result putResponse
	resp, err := s.client.R().
		SetFile("file", localPath).
		SetFormData(map[string]string{"name": name}).
		SetResult(&result).
		Post(fmt.Sprintf("buckets/%s/objects", s.bucket))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return "", fmt.Errorf("%w: status %d: %s", ErrUploadFailed, resp.StatusCode(), resp.String())
	}
	if result.Name != "" {
		return result.Name, nil
	}
	return name, nil
}

// Get downloads cloudRef into destPath.
func (s *HTTPStorage) Get(cloudRef, destPath string) error {
	resp, err := s.client.R().
		SetOutput(destPath).
		Get(fmt.Sprintf("buckets/%s/objects/%s", s.bucket, cloudRef))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return fmt.Errorf("%w: %s", ErrNotFound, cloudRef)
	}
	if resp.StatusCode() != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrDownloadFailed, resp.StatusCode())
	}
	return nil
}

// Delete removes cloudRef from the bucket. Deleting an absent object is not
// an error, which keeps retries idempotent.
func (s *HTTPStorage) Delete(cloudRef string) error {
	resp, err := s.client.R().
		Delete(fmt.Sprintf("buckets/%s/objects/%s", s.bucket, cloudRef))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeleteFailed, err)
	}
	if resp.StatusCode() != http.StatusOK &&
		resp.StatusCode() != http.StatusNoContent &&
		resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("%w: status %d", ErrDeleteFailed, resp.StatusCode())
	}
	return nil
}

var _ CloudStorage = (*HTTPStorage)(nil)
