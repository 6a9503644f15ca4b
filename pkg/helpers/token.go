package helpers

import (
	"crypto/rand"
	"encoding/base64"
)

// singleUseTokenBytes gives 256 bits of entropy per token.
const singleUseTokenBytes = 32

// NewSingleUseToken generates a random opaque token for email verification
// and password reset links. The token carries no claims; the server looks it
// up by value and enforces expiry at redemption time.
func NewSingleUseToken() (string, error) {
	b := make([]byte, singleUseTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
