package storage

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngHeader = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func TestNewLocalStorage(t *testing.T) {
	tests := []struct {
		name      string
		baseDir   string
		wantError bool
	}{
		{
			name:    "valid base directory",
			baseDir: t.TempDir(),
		},
		{
			name:    "creates non-existent directory",
			baseDir: filepath.Join(t.TempDir(), "screenshots"),
		},
		{
			name:      "empty base directory",
			baseDir:   "",
			wantError: true,
		},
		{
			name:      "dot as base directory",
			baseDir:   ".",
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage, err := NewLocalStorage(tt.baseDir)
			if tt.wantError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, storage)

			info, err := os.Stat(tt.baseDir)
			require.NoError(t, err)
			assert.True(t, info.IsDir())
		})
	}
}

func TestLocalStorage_Upload(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	storage, err := NewLocalStorage(baseDir)
	require.NoError(t, err)

	tests := []struct {
		name      string
		path      string
		wantError bool
	}{
		{name: "step screenshot", path: "login_step_1.png"},
		{name: "failure screenshot", path: "login_step_2_FAILED.png"},
		{name: "nested path", path: "runs/login_ERROR.png"},
		{name: "empty path", path: "", wantError: true},
		{name: "path traversal attempt", path: "../outside.png", wantError: true},
		{name: "absolute path", path: "/etc/passwd", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := storage.Upload(ctx, tt.path, bytes.NewReader(pngHeader), ContentTypePNG)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)

			content, err := os.ReadFile(filepath.Join(baseDir, tt.path))
			require.NoError(t, err)
			assert.Equal(t, pngHeader, content)
		})
	}
}

func TestLocalStorage_Download(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, storage.Upload(ctx, "shot.png", bytes.NewReader(pngHeader), ContentTypePNG))

	t.Run("download existing file", func(t *testing.T) {
		reader, err := storage.Download(ctx, "shot.png")
		require.NoError(t, err)
		defer reader.Close()

		content, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, pngHeader, content)
	})

	t.Run("download non-existent file", func(t *testing.T) {
		_, err := storage.Download(ctx, "missing.png")
		assert.ErrorIs(t, err, ErrFileNotFound)
	})

	t.Run("path traversal attempt", func(t *testing.T) {
		_, err := storage.Download(ctx, "../outside.png")
		assert.ErrorIs(t, err, ErrInvalidPath)
	})
}

func TestLocalStorage_Exists(t *testing.T) {
	ctx := context.Background()
	storage, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, storage.Upload(ctx, "present.png", bytes.NewReader(pngHeader), ContentTypePNG))

	exists, err := storage.Exists(ctx, "present.png")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = storage.Exists(ctx, "absent.png")
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = storage.Exists(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestLocalStorage_GetURL(t *testing.T) {
	ctx := context.Background()
	baseDir := t.TempDir()
	storage, err := NewLocalStorage(baseDir)
	require.NoError(t, err)
	require.NoError(t, storage.Upload(ctx, "login_step_3.png", bytes.NewReader(pngHeader), ContentTypePNG))

	url, err := storage.GetURL(ctx, "login_step_3.png")
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(filepath.Join(baseDir, "login_step_3.png")), url)

	_, err = storage.GetURL(ctx, "missing.png")
	assert.ErrorIs(t, err, ErrFileNotFound)
}

func TestLocalStorage_RelativeBaseDir(t *testing.T) {
	ctx := context.Background()
	chdir(t, t.TempDir())

	storage, err := NewLocalStorage("screenshots")
	require.NoError(t, err)
	require.NoError(t, storage.Upload(ctx, "smoke_ERROR.png", bytes.NewReader(pngHeader), ContentTypePNG))

	url, err := storage.GetURL(ctx, "smoke_ERROR.png")
	require.NoError(t, err)
	assert.Equal(t, "screenshots/smoke_ERROR.png", url)
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name      string
		path      string
		want      string
		wantError bool
	}{
		{name: "simple file", path: "a.png", want: "a.png"},
		{name: "nested file", path: "runs/a.png", want: "runs/a.png"},
		{name: "cleans inner dots", path: "runs/../a.png", want: "a.png"},
		{name: "dotted file name is allowed", path: "..a.png", want: "..a.png"},
		{name: "empty", path: "", wantError: true},
		{name: "parent", path: "..", wantError: true},
		{name: "escapes base", path: "../a.png", wantError: true},
		{name: "absolute", path: "/tmp/a.png", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := validatePath(tt.path)
			if tt.wantError {
				assert.ErrorIs(t, err, ErrInvalidPath)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// chdir changes the working directory for the duration of the test
// (equivalent to testing.T.Chdir, which needs Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}
