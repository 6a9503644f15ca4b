package oauth

import (
	"errors"
	"testing"
	"time"
)

func TestStateManager_RoundTrip(t *testing.T) {
	m := NewStateManager("secret", 10*time.Minute)

	state, err := m.Encode("signup")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	intent, err := m.Decode(state)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if intent != "signup" {
		t.Fatalf("expected signup, got %q", intent)
	}

	other, err := m.Encode("signup")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if other == state {
		t.Fatal("two states for the same intent should not be identical")
	}
}

func TestStateManager_Tampered(t *testing.T) {
	m := NewStateManager("secret", 10*time.Minute)
	forged := NewStateManager("other-secret", 10*time.Minute)

	state, err := forged.Encode("login")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := m.Decode(state); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
	if _, err := m.Decode("not-a-state"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

func TestStateManager_Expired(t *testing.T) {
	m := NewStateManager("secret", -time.Minute)

	state, err := m.Encode("login")
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := m.Decode(state); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}
