package storage

import (
	"fmt"
	"os"
	"sync"
)

// MemoryStorage keeps objects in memory. Used by tests and local development
// when no remote file service is configured.
type MemoryStorage struct {
	mu      sync.Mutex
	objects map[string][]byte

	// Call log, inspected by tests.
	Puts    []string
	Gets    []string
	Deletes []string

	// FailPut / FailDelete force the next matching call to fail.
	FailPut    error
	FailDelete error
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte)}
}

func (s *MemoryStorage) Put(localPath, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailPut != nil {
		return "", s.FailPut
	}
	data, err := os.ReadFile(localPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	s.objects[name] = data
	s.Puts = append(s.Puts, name)
	return name, nil
}

func (s *MemoryStorage) Get(cloudRef, destPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[cloudRef]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, cloudRef)
	}
	s.Gets = append(s.Gets, cloudRef)
	return os.WriteFile(destPath, data, 0644)
}

func (s *MemoryStorage) Delete(cloudRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailDelete != nil {
		return s.FailDelete
	}
	delete(s.objects, cloudRef)
	s.Deletes = append(s.Deletes, cloudRef)
	return nil
}

// Has reports whether an object is currently stored.
func (s *MemoryStorage) Has(cloudRef string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[cloudRef]
	return ok
}

var _ CloudStorage = (*MemoryStorage)(nil)
