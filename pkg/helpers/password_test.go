package helpers

import "testing"

func TestPasswordHashRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if hash == "secret1" {
		t.Fatal("hash must not be the plaintext")
	}
	if !CompareHashAndPassword(hash, "secret1") {
		t.Fatal("correct password must match")
	}
	if CompareHashAndPassword(hash, "wrong") {
		t.Fatal("wrong password must not match")
	}
	if CompareHashAndPassword("", "secret1") {
		t.Fatal("empty hash must not match anything")
	}
}
