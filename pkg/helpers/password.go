package helpers

import "golang.org/x/crypto/bcrypt"

// MinPasswordLength is enforced at registration and password reset.
const MinPasswordLength = 6

// HashPassword hashes a plain text password with bcrypt. The raw value is
// never stored or logged.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CompareHashAndPassword reports whether plain matches the bcrypt hash.
func CompareHashAndPassword(hash string, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
