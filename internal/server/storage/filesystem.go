package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrFileNotFound    = errors.New("file not found in storage")
	ErrInvalidFilename = errors.New("invalid storage filename")
)

// Store defines the interface for blob storage backends.
// This allows swapping filesystem for S3 or other backends later.
type Store interface {
	Save(filename string, data io.Reader) (int64, error)
	GetPath(filename string) (string, error)
	Delete(filename string) error
	EnsureDir() error
}

// FileSystemStore keeps blobs as individual files in a single directory,
// keyed by their generated filename.
type FileSystemStore struct {
	basePath string
}

// NewFileSystemStore creates a new filesystem storage backend.
func NewFileSystemStore(basePath string) *FileSystemStore {
	return &FileSystemStore{basePath: basePath}
}

// EnsureDir creates the storage directory if it doesn't exist.
func (fs *FileSystemStore) EnsureDir() error {
	if err := os.MkdirAll(fs.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", fs.basePath, err)
	}
	return nil
}

// Save writes data from a reader to a file under the storage directory.
// Returns the number of bytes written.
func (fs *FileSystemStore) Save(filename string, data io.Reader) (int64, error) {
	filePath, err := fs.filePath(filename)
	if err != nil {
		return 0, err
	}

	file, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	n, err := io.Copy(file, data)
	if err != nil {
		// Clean up partial file on error
		os.Remove(filePath)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return n, nil
}

// GetPath returns the absolute path to a stored blob.
// Returns ErrFileNotFound if the blob does not exist on disk.
func (fs *FileSystemStore) GetPath(filename string) (string, error) {
	filePath, err := fs.filePath(filename)
	if err != nil {
		return "", err
	}

	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return "", ErrFileNotFound
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	return filePath, nil
}

// Delete removes a stored blob. Deleting a blob that is already gone is not
// an error.
func (fs *FileSystemStore) Delete(filename string) error {
	filePath, err := fs.filePath(filename)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", filePath, err)
	}
	return nil
}

// filePath resolves a filename inside the storage directory. Filenames arrive
// from URL parameters, so anything that could escape the directory is
// rejected before touching the filesystem.
func (fs *FileSystemStore) filePath(filename string) (string, error) {
	if filename == "" || filename == "." || filename == ".." ||
		strings.ContainsAny(filename, `/\`) {
		return "", ErrInvalidFilename
	}
	return filepath.Join(fs.basePath, filename), nil
}
