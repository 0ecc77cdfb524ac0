package fits

import (
	"crypto/sha1"
	"encoding/base32"
	"io"
)

// Checksum returns the SHA1 of a data stream, base32-encoded. It can
// be used to fingerprint a data unit when verifying files.
func Checksum(r io.Reader) (string, error) {
	sha := sha1.New()
	if _, err := io.Copy(sha, r); err != nil {
		return "", err
	}
	return base32.StdEncoding.EncodeToString(sha.Sum(nil)), nil
}
