package provider

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalFSProvider(t *testing.T) {
	tests := []struct {
		name    string
		config  *ProviderConfig
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config with default values",
			config: &ProviderConfig{
				Type: ProviderTypeLocalFS,
			},
			wantErr: false,
		},
		{
			name: "valid config with custom base path",
			config: &ProviderConfig{
				Type: ProviderTypeLocalFS,
				LocalFS: &LocalFSConfig{
					BasePath:   "./snapshot-data",
					CreateDirs: true,
				},
			},
			wantErr: false,
		},
		{
			name: "valid config with custom permissions",
			config: &ProviderConfig{
				Type: ProviderTypeLocalFS,
				LocalFS: &LocalFSConfig{
					BasePath:    "./snapshot-data",
					CreateDirs:  true,
					Permissions: "0755",
				},
			},
			wantErr: false,
		},
		{
			name: "invalid provider type",
			config: &ProviderConfig{
				Type: ProviderTypeS3,
			},
			wantErr: true,
			errMsg:  "invalid provider type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tempDir := t.TempDir()
			if tt.config.LocalFS != nil {
				tt.config.LocalFS.BasePath = filepath.Join(tempDir, tt.config.LocalFS.BasePath)
			} else if !tt.wantErr {
				tt.config.LocalFS = &LocalFSConfig{
					BasePath: filepath.Join(tempDir, "adapter-data"),
				}
			}

			provider, err := NewLocalFSProvider(tt.config)

			if tt.wantErr {
				assert.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				assert.Nil(t, provider)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, provider)
				assert.Equal(t, tt.config.LocalFS.BasePath, provider.basePath)
			}
		})
	}
}

func TestLocalFSProvider_Upload_Download(t *testing.T) {
	tempDir := t.TempDir()

	config := &ProviderConfig{
		Type: ProviderTypeLocalFS,
		LocalFS: &LocalFSConfig{
			BasePath:   tempDir,
			CreateDirs: true,
		},
	}

	provider, err := NewLocalFSProvider(config)
	require.NoError(t, err)

	ctx := context.Background()

	tests := []struct {
		name    string
		path    string
		content string
	}{
		{
			name:    "upload and download simple file",
			path:    "snapshots/home/latest.json",
			content: `{"version":1}`,
		},
		{
			name:    "upload and download nested path",
			path:    "deep/nested/path/state.json",
			content: `{"value": 12345.6, "date": "2026-08-25"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := strings.NewReader(tt.content)
			err := provider.Upload(ctx, tt.path, reader)
			assert.NoError(t, err)

			downloadReader, err := provider.Download(ctx, tt.path)
			assert.NoError(t, err)
			assert.NotNil(t, downloadReader)

			downloadedContent, err := io.ReadAll(downloadReader)
			assert.NoError(t, err)
			downloadReader.Close()

			assert.Equal(t, tt.content, string(downloadedContent))

			fullPath := filepath.Join(tempDir, tt.path)
			_, err = os.Stat(fullPath)
			assert.NoError(t, err)
		})
	}
}

func TestLocalFSProvider_UploadOverwrites(t *testing.T) {
	tempDir := t.TempDir()

	provider, err := NewLocalFSProvider(&ProviderConfig{
		Type: ProviderTypeLocalFS,
		LocalFS: &LocalFSConfig{
			BasePath:   tempDir,
			CreateDirs: true,
		},
	})
	require.NoError(t, err)

	ctx := context.Background()
	path := "snapshots/home/latest.json"

	err = provider.Upload(ctx, path, strings.NewReader("old state"))
	require.NoError(t, err)
	err = provider.Upload(ctx, path, strings.NewReader("new state"))
	require.NoError(t, err)

	reader, err := provider.Download(ctx, path)
	require.NoError(t, err)
	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	reader.Close()

	assert.Equal(t, "new state", string(content))
}

func TestLocalFSProvider_WithPrefix(t *testing.T) {
	tempDir := t.TempDir()

	config := &ProviderConfig{
		Type:   ProviderTypeLocalFS,
		Prefix: "adapter/state",
		LocalFS: &LocalFSConfig{
			BasePath:   tempDir,
			CreateDirs: true,
		},
	}

	provider, err := NewLocalFSProvider(config)
	require.NoError(t, err)

	ctx := context.Background()
	testPath := "latest.json"
	testContent := "test content with prefix"

	reader := strings.NewReader(testContent)
	err = provider.Upload(ctx, testPath, reader)
	assert.NoError(t, err)

	expectedPath := filepath.Join(tempDir, "adapter", "state", testPath)
	_, err = os.Stat(expectedPath)
	assert.NoError(t, err)

	downloadReader, err := provider.Download(ctx, testPath)
	assert.NoError(t, err)
	downloadedContent, err := io.ReadAll(downloadReader)
	assert.NoError(t, err)
	downloadReader.Close()
	assert.Equal(t, testContent, string(downloadedContent))
}

func TestLocalFSProvider_Exists(t *testing.T) {
	tempDir := t.TempDir()

	config := &ProviderConfig{
		Type: ProviderTypeLocalFS,
		LocalFS: &LocalFSConfig{
			BasePath:   tempDir,
			CreateDirs: true,
		},
	}

	provider, err := NewLocalFSProvider(config)
	require.NoError(t, err)

	ctx := context.Background()

	exists, err := provider.Exists(ctx, "non-existent.json")
	assert.NoError(t, err)
	assert.False(t, exists)

	testPath := "exists-test.json"
	reader := strings.NewReader("test content")
	err = provider.Upload(ctx, testPath, reader)
	assert.NoError(t, err)

	exists, err = provider.Exists(ctx, testPath)
	assert.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalFSProvider_Delete(t *testing.T) {
	tempDir := t.TempDir()

	config := &ProviderConfig{
		Type: ProviderTypeLocalFS,
		LocalFS: &LocalFSConfig{
			BasePath:   tempDir,
			CreateDirs: true,
		},
	}

	provider, err := NewLocalFSProvider(config)
	require.NoError(t, err)

	ctx := context.Background()

	testPath := "delete-test.json"
	reader := strings.NewReader("test content for deletion")
	err = provider.Upload(ctx, testPath, reader)
	assert.NoError(t, err)

	exists, err := provider.Exists(ctx, testPath)
	assert.NoError(t, err)
	assert.True(t, exists)

	err = provider.Delete(ctx, testPath)
	assert.NoError(t, err)

	exists, err = provider.Exists(ctx, testPath)
	assert.NoError(t, err)
	assert.False(t, exists)

	// Deleting a non-existent file is not an error
	err = provider.Delete(ctx, "non-existent.json")
	assert.NoError(t, err)
}

func TestLocalFSProvider_Download_NonExistentFile(t *testing.T) {
	tempDir := t.TempDir()

	config := &ProviderConfig{
		Type: ProviderTypeLocalFS,
		LocalFS: &LocalFSConfig{
			BasePath:   tempDir,
			CreateDirs: true,
		},
	}

	provider, err := NewLocalFSProvider(config)
	require.NoError(t, err)

	ctx := context.Background()

	_, err = provider.Download(ctx, "non-existent.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestParseFileMode(t *testing.T) {
	tests := []struct {
		name     string
		perm     string
		expected os.FileMode
		wantErr  bool
	}{
		{
			name:     "valid octal permission",
			perm:     "0755",
			expected: 0755,
			wantErr:  false,
		},
		{
			name:     "valid octal permission 644",
			perm:     "0644",
			expected: 0644,
			wantErr:  false,
		},
		{
			name:    "missing leading zero",
			perm:    "755",
			wantErr: true,
		},
		{
			name:    "invalid octal format",
			perm:    "0abc",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := parseFileMode(tt.perm)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}
		})
	}
}

func TestLocalFSProvider_BuildPath(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name     string
		prefix   string
		path     string
		expected string
	}{
		{
			name:     "no prefix",
			prefix:   "",
			path:     "latest.json",
			expected: filepath.Join(tempDir, "latest.json"),
		},
		{
			name:     "with prefix",
			prefix:   "state",
			path:     "latest.json",
			expected: filepath.Join(tempDir, "state", "latest.json"),
		},
		{
			name:     "prefix with trailing separator",
			prefix:   "state/",
			path:     "latest.json",
			expected: filepath.Join(tempDir, "state", "latest.json"),
		},
		{
			name:     "path with leading separator",
			prefix:   "state",
			path:     "/latest.json",
			expected: filepath.Join(tempDir, "state", "latest.json"),
		},
		{
			name:     "nested path",
			prefix:   "adapter/state",
			path:     "snapshots/home/latest.json",
			expected: filepath.Join(tempDir, "adapter", "state", "snapshots", "home", "latest.json"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := &ProviderConfig{
				Type:   ProviderTypeLocalFS,
				Prefix: tt.prefix,
				LocalFS: &LocalFSConfig{
					BasePath: tempDir,
				},
			}

			provider, err := NewLocalFSProvider(config)
			require.NoError(t, err)

			result := provider.buildPath(tt.path)
			assert.Equal(t, tt.expected, result)
		})
	}
}
