package kem

import (
	"crypto/sha256"
	"crypto/sha3"
	"crypto/subtle"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

const (
	ecdhSalt = "irmaseal-kem-ecdh-v1"
	ecdhInfo = "shared-secret"
)

// ECDHScheme is the stand-in KEM shipped with this codec: plain X25519
// Diffie-Hellman between a fresh ephemeral keypair and the recipient's
// master keypair, with the shared point run through HKDF-SHA256. It is
// not an identity-based scheme — the identity element is not bound into
// the cryptography, only recorded by the caller — and exists so the
// codec has a working, testable oracle behind the kem.Scheme interface
// without requiring a pairing library. See DESIGN.md for the rationale
// and what a production deployment would swap in instead.
type ECDHScheme struct{}

// NewECDHScheme returns the stand-in KEM implementation.
func NewECDHScheme() *ECDHScheme {
	return &ECDHScheme{}
}

// Encapsulate draws a fresh ephemeral X25519 keypair, computes the DH
// shared point against pk, and returns a ciphertext carrying the
// ephemeral public key and a fingerprint of pk (§3.1 layout). idElement
// is accepted to satisfy the Scheme interface and to allow a future
// scheme to bind it cryptographically; this stand-in does not use it
// beyond that.
func (s *ECDHScheme) Encapsulate(pk PublicKey, idElement []byte, rng io.Reader) (ct [CiphertextSize]byte, shared [SharedSecretSize]byte, err error) {
	if len(pk) != curve25519.PointSize {
		return ct, shared, fmt.Errorf("kem: public key must be %d bytes, got %d", curve25519.PointSize, len(pk))
	}

	var ephScalar [curve25519.ScalarSize]byte
	if _, readErr := io.ReadFull(rng, ephScalar[:]); readErr != nil {
		return ct, shared, fmt.Errorf("kem: failed to draw ephemeral scalar: %w", readErr)
	}

	ephPub, err := curve25519.X25519(ephScalar[:], curve25519.Basepoint)
	if err != nil {
		return ct, shared, fmt.Errorf("kem: failed to compute ephemeral public key: %w", err)
	}

	dh, err := curve25519.X25519(ephScalar[:], pk)
	if err != nil {
		return ct, shared, fmt.Errorf("kem: DH computation failed: %w", err)
	}

	shared, err = deriveSharedSecret(dh)
	if err != nil {
		return ct, shared, err
	}

	fingerprint := sha3.Sum256(pk)
	copy(ct[0:32], ephPub)
	copy(ct[32:64], fingerprint[:])
	// ct[64:144] stays zero-filled: reserved for a production KEM ciphertext.

	return ct, shared, nil
}

// Decapsulate recomputes the DH shared point using the recipient's
// secret scalar and the ephemeral public key carried in ct, after
// checking that ct was encapsulated against the matching master public
// key. usk is the master secret scalar in this stand-in scheme; a real
// identity-based scheme would instead hold a per-identity issued key.
func (s *ECDHScheme) Decapsulate(usk UserSecretKey, ct [CiphertextSize]byte) (shared [SharedSecretSize]byte, err error) {
	if len(usk) != curve25519.ScalarSize {
		return shared, fmt.Errorf("kem: user secret key must be %d bytes, got %d", curve25519.ScalarSize, len(usk))
	}

	ownPub, err := curve25519.X25519(usk, curve25519.Basepoint)
	if err != nil {
		return shared, fmt.Errorf("kem: failed to recompute own public key: %w", err)
	}
	ownFingerprint := sha3.Sum256(ownPub)
	if subtle.ConstantTimeCompare(ownFingerprint[:], ct[32:64]) != 1 {
		return shared, fmt.Errorf("kem: ciphertext was not encapsulated against this recipient's master key")
	}

	ephPub := ct[0:32]
	dh, err := curve25519.X25519(usk, ephPub)
	if err != nil {
		return shared, fmt.Errorf("kem: DH computation failed: %w", err)
	}

	return deriveSharedSecret(dh)
}

func deriveSharedSecret(dh []byte) (shared [SharedSecretSize]byte, err error) {
	reader := hkdf.New(sha256.New, dh, []byte(ecdhSalt), []byte(ecdhInfo))
	if _, readErr := io.ReadFull(reader, shared[:]); readErr != nil {
		return shared, fmt.Errorf("kem: HKDF expansion failed: %w", readErr)
	}
	return shared, nil
}
