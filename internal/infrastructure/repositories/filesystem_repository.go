package repositories

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"agreements/internal/domain/entities"
)

// FileSystemRepository gives batch mode access to local files
type FileSystemRepository struct{}

// NewFileSystemRepository creates a filesystem repository
func NewFileSystemRepository() *FileSystemRepository {
	return &FileSystemRepository{}
}

// FileExists reports whether path exists
func (r *FileSystemRepository) FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// IsDirectory reports whether path is an existing directory
func (r *FileSystemRepository) IsDirectory(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// CreateDirectory creates path and any missing parents
func (r *FileSystemRepository) CreateDirectory(path string) error {
	return os.MkdirAll(path, 0o755)
}

// ListSupportedFiles returns the PDF and JPEG files in directory and all
// subdirectories, sorted. Unreadable entries are skipped.
func (r *FileSystemRepository) ListSupportedFiles(directory string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(directory, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if entities.IsSupportedFile(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ReadFile reads a whole file
func (r *FileSystemRepository) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFile writes data through a temporary file in the same directory and
// renames it into place, so a failed write never leaves a partial file.
func (r *FileSystemRepository) WriteFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".agreements-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
