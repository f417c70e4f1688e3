package helpers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// ErrEmptyFile is returned when a data file exists but holds no bytes.
var ErrEmptyFile = errors.New("data file is empty")

// FileExists checks if a file exists and is not a directory
func FileExists(filename string, logger *zap.SugaredLogger) bool {
	info, err := os.Stat(filename)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warnf("Error checking file %s for existence: %s", filename, err)
		}
		return false
	}

	return !info.IsDir()
}

// WithMappedFile memory maps the file read-only and hands the bytes to fn.
// The mapping is released when fn returns, so fn must not retain data.
func WithMappedFile(filePath string, fn func(data []byte) error) error {
	file, err := os.Open(filePath)
	if err != nil {
		return err
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to get file stats: %w", err)
	}
	fileSize := int(stat.Size())
	if fileSize == 0 {
		return ErrEmptyFile
	}

	data, err := unix.Mmap(int(file.Fd()), 0, fileSize, syscall.PROT_READ, syscall.MAP_SHARED)
	if err != nil {
		return fmt.Errorf("failed to memory map file: %w", err)
	}
	defer unix.Munmap(data)

	return fn(data)
}

// WriteFileAtomic writes data to a temp file in the target directory and
// renames it over filePath.
func WriteFileAtomic(filePath string, data []byte, perm os.FileMode) error {
	tempFile, err := os.CreateTemp(filepath.Dir(filePath), filepath.Base(filePath)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempFilePath := tempFile.Name()

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		os.Remove(tempFilePath)
		return fmt.Errorf("failed to write to temp file: %w", err)
	}

	if err := tempFile.Sync(); err != nil {
		tempFile.Close()
		os.Remove(tempFilePath)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	// Close the file before renaming
	if err := tempFile.Close(); err != nil {
		os.Remove(tempFilePath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Chmod(tempFilePath, perm); err != nil {
		os.Remove(tempFilePath)
		return fmt.Errorf("failed to set file permissions: %w", err)
	}

	// Atomically replace the old file with the new one
	if err := os.Rename(tempFilePath, filePath); err != nil {
		os.Remove(tempFilePath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	return nil
}

// EncodeExtJSON renders doc as indented relaxed MongoDB Extended JSON.
func EncodeExtJSON(doc interface{}) ([]byte, error) {
	data, err := bson.MarshalExtJSONIndent(doc, false, false, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("error encoding extended JSON: %w", err)
	}
	return data, nil
}

// DecodeExtJSON parses relaxed or canonical Extended JSON into out.
func DecodeExtJSON(data []byte, out interface{}) error {
	if err := bson.UnmarshalExtJSON(data, false, out); err != nil {
		return fmt.Errorf("error decoding extended JSON: %w", err)
	}
	return nil
}
