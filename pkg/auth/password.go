package auth

import (
	"crypto/sha256"
	"encoding/hex"
)

// DerivePassword returns the emulator password for an email. It depends on
// the email alone so the same test account is reused across runs.
func DerivePassword(email string) string {
	sum := sha256.Sum256([]byte(email))
	return hex.EncodeToString(sum[:])
}
