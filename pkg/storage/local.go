package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

var (
	// ErrInvalidPath is returned for names escaping the storage root.
	ErrInvalidPath = errors.New("invalid storage path")
	// ErrTooLarge is returned when a stream exceeds the allowed size.
	ErrTooLarge = errors.New("file exceeds size limit")
)

// LocalStorage keeps generated files and uploads under a root directory.
type LocalStorage struct {
	root string
}

// NewLocalStorage creates root when missing.
func NewLocalStorage(root string) (*LocalStorage, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &LocalStorage{root: root}, nil
}

// Save writes data to name, relative to the root.
func (s *LocalStorage) Save(name string, data []byte) (string, error) {
	path, err := s.prepare(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write file: %w", err)
	}
	return name, nil
}

// SaveLimited copies r into name and aborts once more than maxBytes were read.
func (s *LocalStorage) SaveLimited(name string, r io.Reader, maxBytes int64) (string, error) {
	path, err := s.prepare(name)
	if err != nil {
		return "", err
	}
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create file: %w", err)
	}

	written, err := io.Copy(file, io.LimitReader(r, maxBytes+1))
	closeErr := file.Close()
	if err == nil && written > maxBytes {
		err = ErrTooLarge
	}
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		if errors.Is(err, ErrTooLarge) {
			return "", err
		}
		return "", fmt.Errorf("write stream: %w", err)
	}
	return name, nil
}

// Open returns a read-only handle for the stored file.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	return file, nil
}

// Delete removes a stored file if present.
func (s *LocalStorage) Delete(name string) error {
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete file: %w", err)
	}
	return nil
}

// CleanupOlderThan removes files last modified before now-ttl and returns their relative names.
func (s *LocalStorage) CleanupOlderThan(ttl time.Duration) ([]string, error) {
	cutoff := time.Now().Add(-ttl)
	var deleted []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().After(cutoff) {
			return nil
		}
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return err
		}
		rel, relErr := filepath.Rel(s.root, path)
		if relErr != nil {
			rel = path
		}
		deleted = append(deleted, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cleanup storage: %w", err)
	}
	return deleted, nil
}

// Root returns the storage root directory.
func (s *LocalStorage) Root() string {
	return s.root
}

func (s *LocalStorage) prepare(name string) (string, error) {
	path, err := s.resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("prepare directory: %w", err)
	}
	return path, nil
}

func (s *LocalStorage) resolve(name string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(name))
	if name == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", ErrInvalidPath
	}
	return filepath.Join(s.root, clean), nil
}
