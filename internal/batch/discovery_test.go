package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func touch(t *testing.T, path string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))
	return path
}

func TestDiscoverImageFiles_EmptyArgs(t *testing.T) {
	files, err := discoverImageFiles(nil, false, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestDiscoverImageFiles_Directory(t *testing.T) {
	dir := t.TempDir()
	png := touch(t, filepath.Join(dir, "image.png"))
	jpg := touch(t, filepath.Join(dir, "photo.jpg"))
	touch(t, filepath.Join(dir, "notes.txt"))
	touch(t, filepath.Join(dir, "sub", "nested.png"))

	files, err := discoverImageFiles([]string{dir}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{png, jpg}, files)
}

func TestDiscoverImageFiles_Recursive(t *testing.T) {
	dir := t.TempDir()
	root := touch(t, filepath.Join(dir, "root.png"))
	nested := touch(t, filepath.Join(dir, "sub", "nested.png"))

	files, err := discoverImageFiles([]string{dir}, true, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{root, nested}, files)
}

func TestDiscoverImageFiles_Patterns(t *testing.T) {
	dir := t.TempDir()
	keep := touch(t, filepath.Join(dir, "meter_01.png"))
	touch(t, filepath.Join(dir, "meter_02_draft.png"))
	touch(t, filepath.Join(dir, "other.jpg"))

	files, err := discoverImageFiles([]string{dir}, false, []string{"meter_*"}, []string{"*_draft.*"})
	require.NoError(t, err)
	assert.Equal(t, []string{keep}, files)
}

func TestDiscoverImageFiles_ExplicitFile(t *testing.T) {
	dir := t.TempDir()
	png := touch(t, filepath.Join(dir, "a.png"))

	files, err := discoverImageFiles([]string{png}, false, nil, []string{"*.png"})
	require.NoError(t, err)
	assert.Empty(t, files)

	files, err = discoverImageFiles([]string{png}, false, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{png}, files)
}

func TestDiscoverImageFiles_Missing(t *testing.T) {
	_, err := discoverImageFiles([]string{filepath.Join(t.TempDir(), "missing")}, false, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot access")
}

func TestShouldIncludeFile(t *testing.T) {
	tests := []struct {
		name    string
		path    string
		include []string
		exclude []string
		want    bool
	}{
		{"no patterns", "/a/b.png", nil, nil, true},
		{"include match", "/a/b.png", []string{"*.png"}, nil, true},
		{"include miss", "/a/b.png", []string{"*.jpg"}, nil, false},
		{"exclude wins", "/a/b.png", []string{"*.png"}, []string{"b.*"}, false},
		{"matches base name only", "/png/b.jpg", []string{"png*"}, nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldIncludeFile(tt.path, tt.include, tt.exclude))
		})
	}
}
