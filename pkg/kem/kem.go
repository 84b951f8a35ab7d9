// Package kem defines the pluggable key-encapsulation boundary the
// irmaseal codec seals against. The codec treats ciphertexts, public
// keys, and user secret keys as opaque; only a concrete Scheme
// implementation knows how to turn an identity element into a shared
// secret.
package kem

import "io"

// CiphertextSize is the fixed, wire-level length of every KEM
// ciphertext this package produces, matching irmaseal.KEMCiphertextSize.
const CiphertextSize = 144

// SharedSecretSize is the length of the shared secret a Scheme yields.
// It is the direct input to the codec's stream-key KDF.
const SharedSecretSize = 32

// PublicKey is an opaque, scheme-specific serialization of a master
// public key. Callers obtain one from key generation and distribute it
// to senders; they never inspect its contents.
type PublicKey []byte

// UserSecretKey is an opaque, scheme-specific serialization of a
// recipient's decryption key, already personalized to one identity by
// whatever issuance process the scheme requires. A codec Opener needs
// only the key, never the identity that produced it.
type UserSecretKey []byte

// Scheme is the boundary between the irmaseal stream codec and a
// concrete key-encapsulation mechanism. Encapsulate runs at seal time
// against a master public key and an identity element (as produced by
// Identity.Derive); Decapsulate runs at open time against a recipient's
// already-issued UserSecretKey and deliberately does not take the
// identity as input, since that binding happened at issuance, not at
// decapsulation.
type Scheme interface {
	Encapsulate(pk PublicKey, idElement []byte, rng io.Reader) (ct [CiphertextSize]byte, shared [SharedSecretSize]byte, err error)
	Decapsulate(usk UserSecretKey, ct [CiphertextSize]byte) (shared [SharedSecretSize]byte, err error)
}
