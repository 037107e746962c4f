package streamB

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
)

func writeKey(t *testing.T, dir string, pkcs8 bool) (string, *rsa.PrivateKey) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	var der []byte
	blockType := "RSA PRIVATE KEY"
	if pkcs8 {
		der, err = x509.MarshalPKCS8PrivateKey(key)
		blockType = "PRIVATE KEY"
	} else {
		der = x509.MarshalPKCS1PrivateKey(key)
	}
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	path := filepath.Join(dir, "key.pem")
	data := pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write key: %v", err)
	}
	return path, key
}

func TestLoadAuthEmptyCredentialsYieldsNilDisabled(t *testing.T) {
	t.Parallel()

	auth, err := LoadAuth("", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != nil {
		t.Error("expected nil Auth (Disabled) when key-id and path are empty")
	}
}

func TestLoadAuthMissingKeyIDYieldsNilEvenWithKeyPresent(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path, _ := writeKey(t, dir, true)

	auth, err := LoadAuth("", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if auth != nil {
		t.Error("expected nil Auth when key-id is absent, regardless of key file presence")
	}
}

func TestLoadAuthAcceptsPKCS1AndPKCS8(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	p1, key1 := writeKey(t, dir, false)
	a1, err := LoadAuth("key-id", p1)
	if err != nil {
		t.Fatalf("pkcs1: %v", err)
	}
	if a1.PrivateKey.N.Cmp(key1.N) != 0 {
		t.Error("pkcs1 parsed key does not match generated key")
	}

	p8, key8 := writeKey(t, dir, true)
	a8, err := LoadAuth("key-id", p8)
	if err != nil {
		t.Fatalf("pkcs8: %v", err)
	}
	if a8.PrivateKey.N.Cmp(key8.N) != 0 {
		t.Error("pkcs8 parsed key does not match generated key")
	}
}

func TestHeadersIncludesAllThreeFields(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path, _ := writeKey(t, dir, true)

	auth, err := LoadAuth("key-123", path)
	if err != nil {
		t.Fatalf("load auth: %v", err)
	}

	h, err := auth.Headers()
	if err != nil {
		t.Fatalf("headers: %v", err)
	}
	if h.Get("KALSHI-ACCESS-KEY") != "key-123" {
		t.Error("missing key-id header")
	}
	if h.Get("KALSHI-ACCESS-SIGNATURE") == "" {
		t.Error("missing signature header")
	}
	if h.Get("KALSHI-ACCESS-TIMESTAMP") == "" {
		t.Error("missing timestamp header")
	}
}
