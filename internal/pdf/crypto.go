package pdf

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

const decryptedPattern = "digitread-decrypted-*.pdf"

// PasswordCredentials contains the passwords for a PDF file.
type PasswordCredentials struct {
	UserPassword  string `json:"user_password,omitempty"`
	OwnerPassword string `json:"owner_password,omitempty"`
}

// IsEncrypted reports whether filename needs a password to be read.
func IsEncrypted(filename string) (bool, error) {
	if _, err := os.Stat(filename); err != nil {
		return false, fmt.Errorf("failed to check PDF encryption status: %w", err)
	}
	_, err := api.PageCountFile(filename)
	if err == nil {
		return false, nil
	}
	if IsPasswordError(err) {
		return true, nil
	}
	return false, fmt.Errorf("failed to check PDF encryption status: %w", err)
}

// DecryptPDF writes a decrypted copy of filename and returns its path. An
// unencrypted file is returned unchanged. The caller removes the copy with
// CleanupTempFile.
func DecryptPDF(filename string, creds *PasswordCredentials) (string, error) {
	encrypted, err := IsEncrypted(filename)
	if err != nil {
		return "", err
	}
	if !encrypted {
		return filename, nil
	}
	if creds == nil {
		return "", errors.New("PDF is password protected and no password was given")
	}

	tmp, err := os.CreateTemp("", decryptedPattern)
	if err != nil {
		return "", fmt.Errorf("failed to create temporary file: %w", err)
	}
	_ = tmp.Close()

	conf := model.NewDefaultConfiguration()
	conf.UserPW = creds.UserPassword
	conf.OwnerPW = creds.OwnerPassword
	if err := api.DecryptFile(filename, tmp.Name(), conf); err != nil {
		_ = os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to decrypt PDF: %w", err)
	}
	return tmp.Name(), nil
}

// CleanupTempFile removes a file created by DecryptPDF. Other paths are left
// alone.
func CleanupTempFile(filename string) error {
	base := filepath.Base(filename)
	if strings.HasPrefix(base, "digitread-decrypted-") && strings.HasSuffix(base, ".pdf") {
		return os.Remove(filename)
	}
	return nil
}

// IsPasswordError reports whether err is about encryption or passwords.
// Filesystem errors never are; other errors are judged by the message of the
// innermost cause so file names in wrapping context do not count.
func IsPasswordError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, pdfcpu.ErrWrongPassword) || errors.Is(err, pdfcpu.ErrUnknownEncryption) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return false
	}
	cause := err
	for next := errors.Unwrap(cause); next != nil; next = errors.Unwrap(cause) {
		cause = next
	}
	msg := strings.ToLower(cause.Error())
	for _, keyword := range []string{"password", "encrypted", "decrypt", "authentication", "unauthorized"} {
		if strings.Contains(msg, keyword) {
			return true
		}
	}
	return false
}
