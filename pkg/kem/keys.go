package kem

import (
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
)

// GenerateMasterKeypair draws a fresh X25519 master keypair for the
// ECDH stand-in scheme. The secret half is UserSecretKey because, in
// this non-identity-based stand-in, every recipient shares the single
// master secret scalar; a production scheme would instead issue a
// distinct UserSecretKey per identity from this master key.
func GenerateMasterKeypair(rng io.Reader) (pk PublicKey, sk UserSecretKey, err error) {
	var scalar [curve25519.ScalarSize]byte
	if _, readErr := io.ReadFull(rng, scalar[:]); readErr != nil {
		return nil, nil, fmt.Errorf("kem: failed to draw master scalar: %w", readErr)
	}

	pub, err := curve25519.X25519(scalar[:], curve25519.Basepoint)
	if err != nil {
		return nil, nil, fmt.Errorf("kem: failed to derive master public key: %w", err)
	}

	return PublicKey(pub), UserSecretKey(scalar[:]), nil
}
