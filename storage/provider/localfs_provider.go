package provider

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// LocalFSProvider local filesystem storage provider implementation
type LocalFSProvider struct {
	basePath    string
	prefix      string
	createDirs  bool
	permissions fs.FileMode
}

// NewLocalFSProvider creates a new local filesystem storage provider
func NewLocalFSProvider(config *ProviderConfig) (*LocalFSProvider, error) {
	if config.Type != ProviderTypeLocalFS {
		return nil, fmt.Errorf("invalid provider type: %s, expected: %s", config.Type, ProviderTypeLocalFS)
	}

	basePath := ""
	createDirs := true
	permissions := fs.FileMode(0755)

	if config.LocalFS != nil {
		basePath = config.LocalFS.BasePath
		createDirs = config.LocalFS.CreateDirs
		if config.LocalFS.Permissions != "" {
			if perm, err := parseFileMode(config.LocalFS.Permissions); err == nil {
				permissions = perm
			}
		}
	}

	if basePath == "" {
		basePath = "./adapter-data" // default path
	}

	// Ensure base path exists
	if createDirs {
		if err := os.MkdirAll(basePath, permissions); err != nil {
			return nil, fmt.Errorf("failed to create base directory %s: %w", basePath, err)
		}
	}

	return &LocalFSProvider{
		basePath:    basePath,
		prefix:      config.Prefix,
		createDirs:  createDirs,
		permissions: permissions,
	}, nil
}

// parseFileMode parses file permission string like "0755"
func parseFileMode(perm string) (fs.FileMode, error) {
	if strings.HasPrefix(perm, "0") && len(perm) > 1 {
		mode, err := strconv.ParseUint(perm, 8, 32)
		if err != nil {
			return 0755, fmt.Errorf("invalid octal format: %s", perm)
		}
		return fs.FileMode(mode), nil
	}
	return 0755, fmt.Errorf("unsupported permission format: %s", perm)
}

// buildPath builds the complete path with prefix
func (l *LocalFSProvider) buildPath(path string) string {
	if l.prefix != "" {
		prefix := strings.TrimSuffix(l.prefix, string(filepath.Separator))
		path = strings.TrimPrefix(path, string(filepath.Separator))
		path = prefix + string(filepath.Separator) + path
	}
	return filepath.Join(l.basePath, path)
}

// Upload implements ObjectStorageProvider interface
func (l *LocalFSProvider) Upload(ctx context.Context, path string, data io.Reader) error {
	fullPath := l.buildPath(path)

	dir := filepath.Dir(fullPath)
	if l.createDirs {
		if err := os.MkdirAll(dir, l.permissions); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file %s: %w", fullPath, err)
	}
	defer file.Close()

	if _, err := io.Copy(file, data); err != nil {
		return fmt.Errorf("failed to write data to file %s: %w", fullPath, err)
	}

	return nil
}

// Download implements ObjectStorageProvider interface
func (l *LocalFSProvider) Download(ctx context.Context, path string) (io.ReadCloser, error) {
	fullPath := l.buildPath(path)

	file, err := os.Open(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to open file %s: %w", fullPath, err)
	}

	return file, nil
}

// Delete implements ObjectStorageProvider interface
func (l *LocalFSProvider) Delete(ctx context.Context, path string) error {
	fullPath := l.buildPath(path)

	if err := os.Remove(fullPath); err != nil {
		if os.IsNotExist(err) {
			return nil // File not existing is considered successful deletion
		}
		return fmt.Errorf("failed to delete file %s: %w", fullPath, err)
	}

	return nil
}

// Exists implements ObjectStorageProvider interface
func (l *LocalFSProvider) Exists(ctx context.Context, path string) (bool, error) {
	fullPath := l.buildPath(path)

	_, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file existence %s: %w", fullPath, err)
	}

	return true, nil
}
