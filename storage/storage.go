package storage

import "errors"

// Errors surfaced by cloud storage adapters.
var (
	ErrUploadFailed   = errors.New("storage: cloud upload failed")
	ErrDownloadFailed = errors.New("storage: cloud download failed")
	ErrDeleteFailed   = errors.New("storage: cloud delete failed")
	ErrNotFound       = errors.New("storage: cloud object not found")
)

// CloudStorage is the remote file service boundary. Put uploads a local file
// under the given object name and returns the stored reference; Get downloads
// an object to destPath; Delete removes an object.
type CloudStorage interface {
	Put(localPath, name string) (string, error)
	Get(cloudRef, destPath string) error
	Delete(cloudRef string) error
}
