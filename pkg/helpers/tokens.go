package helpers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenVerificationToken returns a 32-byte random opaque token, hex
// encoded, stored on the account until verification consumes it.
func GenVerificationToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenResetCode generates a secure random 6-digit reset code as a
// zero-padded string, for out-of-band delivery.
func GenResetCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	n := int(b[0])<<24 | int(b[1])<<16 | int(b[2])<<8 | int(b[3])
	if n < 0 {
		n = -n
	}
	return fmt.Sprintf("%06d", n%1000000), nil
}
