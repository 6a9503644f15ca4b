package entity

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRoleValid(t *testing.T) {
	for _, r := range []Role{RoleAdmin, RoleTeacher, RoleStudent} {
		if !r.Valid() {
			t.Fatalf("%q must be valid", r)
		}
	}
	for _, r := range []Role{"", "superuser", "Admin"} {
		if r.Valid() {
			t.Fatalf("%q must be invalid", r)
		}
	}
}

func TestSummaryOmitsSecrets(t *testing.T) {
	a := &Account{
		ID:                     "id-1",
		Name:                   "Ana",
		Email:                  "ana@example.com",
		PasswordHash:           "bcrypt-hash",
		EmailVerificationToken: "verify-token",
		PasswordResetToken:     "reset-token",
		Role:                   RoleTeacher,
	}
	raw, err := json.Marshal(a.Summary())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	for _, secret := range []string{"bcrypt-hash", "verify-token", "reset-token"} {
		if strings.Contains(string(raw), secret) {
			t.Fatalf("summary leaks %q: %s", secret, raw)
		}
	}
}
