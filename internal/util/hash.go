package util

import (
	"crypto/sha256"
	"fmt"
	"io"
	"os"
)

// Fingerprint computes the SHA-256 content digest of a file as a hex string.
// The file is streamed through the hash, so arbitrarily large files are fine.
func Fingerprint(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}
