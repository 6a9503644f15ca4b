package helpers

import "testing"

func TestNewSingleUseToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok, err := NewSingleUseToken()
		if err != nil {
			t.Fatalf("new token: %v", err)
		}
		// 32 random bytes, base64 raw URL encoded.
		if len(tok) != 43 {
			t.Fatalf("expected 43 chars, got %d (%q)", len(tok), tok)
		}
		if seen[tok] {
			t.Fatalf("duplicate token generated: %q", tok)
		}
		seen[tok] = true
	}
}
