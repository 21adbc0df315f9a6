package safe

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultMaxFileSize is the default maximum file size for safe file operations (4MB).
// Interface catalogs exported from a full registry are a few hundred KB.
const DefaultMaxFileSize = 4 << 20

// ReadFileOptions configures the behavior of ReadFile.
type ReadFileOptions struct {
	// MaxSize is the maximum allowed file size in bytes. Zero means DefaultMaxFileSize.
	MaxSize int64
	// AllowSymlinks allows reading through symlinks. Default is false.
	AllowSymlinks bool
}

// ReadFile reads a configuration or catalog file with validations.
// It rejects symlinks by default, validates file size, and ensures only
// regular files are read.
func ReadFile(path string, opts *ReadFileOptions) ([]byte, error) {
	if opts == nil {
		opts = &ReadFileOptions{}
	}
	maxSize := opts.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxFileSize
	}

	cleanPath := filepath.Clean(path)

	info, err := os.Lstat(cleanPath)
	if err != nil {
		return nil, err
	}

	if info.Mode()&os.ModeSymlink != 0 {
		if !opts.AllowSymlinks {
			return nil, fmt.Errorf("file %q is a symlink, which is not allowed", path)
		}
		info, err = os.Stat(cleanPath)
		if err != nil {
			return nil, err
		}
	}

	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("path %q is not a regular file", path)
	}

	if info.Size() > maxSize {
		return nil, fmt.Errorf("file exceeds maximum allowed size of %d bytes", maxSize)
	}

	return os.ReadFile(cleanPath)
}
