package signature

import (
	"crypto"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"encoding/pem"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var (
	// ErrNoPrivateKey means the engine was constructed without usable key
	// material. Treated as a fatal configuration error by callers.
	ErrNoPrivateKey = errors.New("signature: private key not loaded")
	ErrNoPublicKey  = errors.New("signature: public key not loaded")
)

const pemBlockType = "RSA PRIVATE KEY"

// Engine holds the process-wide RSA key pair. The keys are read-only after
// construction, so Sign and Verify are safe for concurrent use.
type Engine struct {
	priv *rsa.PrivateKey
	pub  *rsa.PublicKey
}

// NewEngine wraps an existing private key.
func NewEngine(priv *rsa.PrivateKey) *Engine {
	if priv == nil {
		return &Engine{}
	}
	return &Engine{priv: priv, pub: &priv.PublicKey}
}

// Generate creates an engine with a fresh 2048-bit key pair.
func Generate() (*Engine, error) {
	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, fmt.Errorf("signature: key generation failed: %w", err)
	}
	return NewEngine(priv), nil
}

// LoadOrCreate loads the PEM key pair at path, generating and persisting a
// new one on first boot. Regenerating keys on every restart would invalidate
// every previously issued signature, so the pair lives on disk.
func LoadOrCreate(path string) (*Engine, error) {
	data, err := os.ReadFile(path)
	if err == nil {
		block, _ := pem.Decode(data)
		if block == nil || block.Type != pemBlockType {
			return nil, fmt.Errorf("signature: %s is not a %s PEM file", path, pemBlockType)
		}
		priv, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("signature: failed to parse key at %s: %w", path, err)
		}
		return NewEngine(priv), nil
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("signature: failed to read key at %s: %w", path, err)
	}

	eng, err := Generate()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("signature: failed to create key directory: %w", err)
	}
	pemData := pem.EncodeToMemory(&pem.Block{
		Type:  pemBlockType,
		Bytes: x509.MarshalPKCS1PrivateKey(eng.priv),
	})
	if err := os.WriteFile(path, pemData, 0600); err != nil {
		return nil, fmt.Errorf("signature: failed to persist key at %s: %w", path, err)
	}
	return eng, nil
}

// Sign produces a base64 signature token over payload under the private key.
func (e *Engine) Sign(payload []byte) (string, error) {
	if e == nil || e.priv == nil {
		return "", ErrNoPrivateKey
	}
	hash := sha256.Sum256(payload)
	sig, err := rsa.SignPKCS1v15(rand.Reader, e.priv, crypto.SHA256, hash[:])
	if err != nil {
		return "", fmt.Errorf("signature: signing failed: %w", err)
	}
	return base64.StdEncoding.EncodeToString(sig), nil
}

// Verify reports whether token is a valid signature over payload under the
// public key. A mismatched or malformed token is a normal false, not an
// error; an error means the engine itself is misconfigured.
func (e *Engine) Verify(payload []byte, token string) (bool, error) {
	if e == nil || e.pub == nil {
		return false, ErrNoPublicKey
	}
	sig, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return false, nil
	}
	hash := sha256.Sum256(payload)
	if err := rsa.VerifyPKCS1v15(e.pub, crypto.SHA256, hash[:], sig); err != nil {
		return false, nil
	}
	return true, nil
}
