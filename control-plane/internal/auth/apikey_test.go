package auth

import (
	"strings"
	"testing"
)

func TestGenerateAgentKey(t *testing.T) {
	plaintext, hash, err := GenerateAgentKey("a1b2c3d4-e5f6-7890-abcd-ef1234567890")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strings.HasPrefix(plaintext, "upmon_a1b2c3_") {
		t.Errorf("expected key prefix with agent fragment, got %q", plaintext)
	}
	if hash == "" {
		t.Error("expected non-empty hash")
	}
	if strings.Contains(hash, plaintext) {
		t.Error("hash must not embed the plaintext")
	}
}

func TestGenerateAgentKeyShortID(t *testing.T) {
	plaintext, _, err := GenerateAgentKey("ab")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(plaintext, "upmon_ab_") {
		t.Errorf("expected short prefix kept whole, got %q", plaintext)
	}
}

func TestGenerateAgentKeyUnique(t *testing.T) {
	a, _, err := GenerateAgentKey("agent-1")
	if err != nil {
		t.Fatal(err)
	}
	b, _, err := GenerateAgentKey("agent-1")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two generated keys must differ")
	}
}

func TestVerifyKey(t *testing.T) {
	plaintext, hash, err := GenerateAgentKey("agent-9")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !VerifyKey(plaintext, hash) {
		t.Error("expected generated key to verify against its hash")
	}
	if VerifyKey(plaintext+"x", hash) {
		t.Error("expected tampered key to fail verification")
	}
	if VerifyKey("", hash) {
		t.Error("expected empty key to fail verification")
	}
	if VerifyKey(plaintext, "not-a-bcrypt-hash") {
		t.Error("expected garbage hash to fail verification")
	}
}
