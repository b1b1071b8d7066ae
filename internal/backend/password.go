package backend

import (
	"crypto/sha512"
	"encoding/hex"
)

// HashPassword returns the lowercase hex SHA-512 digest the API stores and
// compares. Plaintext passwords never leave this process.
func HashPassword(password string) string {
	sum := sha512.Sum512([]byte(password))
	return hex.EncodeToString(sum[:])
}
