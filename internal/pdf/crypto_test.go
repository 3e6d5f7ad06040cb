package pdf

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsPasswordError(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("please provide the correct password"), true},
		{errors.New("file is ENCRYPTED"), true},
		{errors.New("cannot decrypt stream"), true},
		{errors.New("unexpected EOF"), false},
		{fmt.Errorf("read meter.pdf: %w", pdfcpu.ErrWrongPassword), true},
		{fmt.Errorf("failed to process password-reset.pdf: %w", errors.New("no pages")), false},
		{&os.PathError{Op: "open", Path: "/tmp/encrypted/doc.pdf", Err: os.ErrNotExist}, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsPasswordError(tt.err), "%v", tt.err)
	}
}

func TestCleanupTempFile(t *testing.T) {
	dir := t.TempDir()
	ours := filepath.Join(dir, "digitread-decrypted-123.pdf")
	theirs := filepath.Join(dir, "input.pdf")
	require.NoError(t, os.WriteFile(ours, []byte("x"), 0o600))
	require.NoError(t, os.WriteFile(theirs, []byte("x"), 0o600))

	require.NoError(t, CleanupTempFile(ours))
	require.NoError(t, CleanupTempFile(theirs))
	require.NoError(t, CleanupTempFile(""))

	_, err := os.Stat(ours)
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(theirs)
	assert.NoError(t, err)
}

func TestIsEncrypted_Errors(t *testing.T) {
	_, err := IsEncrypted(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)

	// Path components that look like encryption keywords are not a password error.
	dir := filepath.Join(t.TempDir(), "encrypted-password-decrypt")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	encrypted, err := IsEncrypted(filepath.Join(dir, "missing.pdf"))
	require.ErrorIs(t, err, os.ErrNotExist)
	assert.False(t, encrypted)

	notPDF := filepath.Join(dir, "plain.pdf")
	require.NoError(t, os.WriteFile(notPDF, []byte("plain text"), 0o600))
	encrypted, err = IsEncrypted(notPDF)
	require.Error(t, err)
	assert.False(t, encrypted)

	_, err = DecryptPDF(filepath.Join(t.TempDir(), "missing.pdf"), &PasswordCredentials{UserPassword: "x"})
	require.Error(t, err)
}
