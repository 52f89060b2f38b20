package errorutil

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// FileError represents a file operation error with additional context
type FileError struct {
	Operation  string // The operation that failed (e.g., "read", "write", "create")
	Path       string // The file path that was being accessed
	Underlying error  // The underlying error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s operation failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *FileError) Unwrap() error {
	return e.Underlying
}

// NewFileError creates a new FileError
func NewFileError(operation, path string, err error) *FileError {
	return &FileError{
		Operation:  operation,
		Path:       path,
		Underlying: err,
	}
}

// LogFileError logs a file error with structured context at debug level
func LogFileError(logger *slog.Logger, fileErr *FileError) *FileError {
	if logger == nil {
		return fileErr
	}

	logger.Debug("File operation failed",
		slog.String("operation", fileErr.Operation),
		slog.String("file_path", fileErr.Path),
		slog.String("error", fileErr.Underlying.Error()),
		slog.String("error_type", fileErrorType(fileErr.Underlying)))
	return fileErr
}

// fileErrorType returns a short classification used in log attributes
func fileErrorType(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, fs.ErrNotExist):
		return "file_not_found"
	case errors.Is(err, fs.ErrPermission):
		return "permission_denied"
	case errors.Is(err, fs.ErrExist):
		return "file_exists"
	}

	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return "path_error_" + pathErr.Op
	}
	return "generic_file_error"
}

// WriteFileAtomic creates the parent directory, writes data to a temporary
// file and renames it into place.
func WriteFileAtomic(logger *slog.Logger, path string, data []byte, perm os.FileMode) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return LogFileError(logger, NewFileError("create_dir", dir, err))
		}
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, perm); err != nil {
		return LogFileError(logger, NewFileError("write_temp", tempPath, err))
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return LogFileError(logger, NewFileError("move", path, err))
	}

	if logger != nil {
		logger.Debug("File written successfully",
			slog.String("file_path", path),
			slog.Int("bytes_written", len(data)))
	}
	return nil
}
