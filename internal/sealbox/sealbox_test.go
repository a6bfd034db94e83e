package sealbox

import (
	"bytes"
	"crypto/rand"
	"testing"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}
	return key
}

func TestEncryptDecryptLocal(t *testing.T) {
	key := testKey(t)
	plaintext := []byte(`{"strengths":"clear writing","improvements":"speak up earlier"}`)
	additionalData := []byte("group:42")

	ciphertext, nonce, err := encryptLocal(plaintext, key, additionalData)
	if err != nil {
		t.Fatalf("encryptLocal failed: %v", err)
	}
	if bytes.Equal(ciphertext, plaintext) {
		t.Error("ciphertext equals plaintext")
	}

	decrypted, err := decryptLocal(ciphertext, key, nonce, additionalData)
	if err != nil {
		t.Fatalf("decryptLocal failed: %v", err)
	}
	if !bytes.Equal(decrypted, plaintext) {
		t.Errorf("decrypted = %q, want %q", decrypted, plaintext)
	}
}

func TestDecryptLocalWrongKey(t *testing.T) {
	key := testKey(t)
	ciphertext, nonce, err := encryptLocal([]byte("secret"), key, nil)
	if err != nil {
		t.Fatalf("encryptLocal failed: %v", err)
	}

	if _, err := decryptLocal(ciphertext, testKey(t), nonce, nil); err == nil {
		t.Error("expected error decrypting with wrong key")
	}
}

func TestDecryptLocalWrongAdditionalData(t *testing.T) {
	key := testKey(t)
	ciphertext, nonce, err := encryptLocal([]byte("secret"), key, []byte("group:1"))
	if err != nil {
		t.Fatalf("encryptLocal failed: %v", err)
	}

	if _, err := decryptLocal(ciphertext, key, nonce, []byte("group:2")); err == nil {
		t.Error("expected error decrypting with mismatched additional data")
	}
}

func TestEncryptLocalNonceVaries(t *testing.T) {
	key := testKey(t)
	_, nonce1, err := encryptLocal([]byte("same"), key, nil)
	if err != nil {
		t.Fatalf("encryptLocal failed: %v", err)
	}
	_, nonce2, err := encryptLocal([]byte("same"), key, nil)
	if err != nil {
		t.Fatalf("encryptLocal failed: %v", err)
	}
	if bytes.Equal(nonce1, nonce2) {
		t.Error("nonces should differ between calls")
	}
}

func TestDisabledSealer(t *testing.T) {
	var s Sealer = Disabled{}
	if s.Enabled() {
		t.Error("Disabled sealer reports enabled")
	}
	if _, err := s.Open(nil, 1, 1); err == nil {
		t.Error("expected error opening with disabled sealer")
	}
}
