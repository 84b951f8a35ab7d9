package irmaseal

import (
	"crypto/sha256"
	"io"

	"golang.org/x/crypto/hkdf"
)

// HKDF constants for deriving the stream's symmetric keys from the KEM
// shared secret. Fixed and domain-separated, mirroring the convention the
// rest of this codebase uses for integrity-key derivation.
const (
	kdfSalt = "irmaseal-stream-codec-v1"
	kdfInfo = "aes-hmac-keys"
)

// deriveStreamKeys turns a KEM shared secret into an independent AES key
// and HMAC key. It must agree byte-exactly between sealer and opener.
func deriveStreamKeys(shared []byte) (aesKey, macKey [KeySize]byte, err error) {
	if len(shared) == 0 {
		return aesKey, macKey, internalError("KDF input is empty", nil)
	}

	reader := hkdf.New(sha256.New, shared, []byte(kdfSalt), []byte(kdfInfo))
	var both [2 * KeySize]byte
	if _, readErr := io.ReadFull(reader, both[:]); readErr != nil {
		return aesKey, macKey, internalError("HKDF key derivation failed", readErr)
	}
	copy(aesKey[:], both[:KeySize])
	copy(macKey[:], both[KeySize:])
	return aesKey, macKey, nil
}

// generateIV draws a fresh 16-byte initialization vector from rng. The
// caller owns rng and is responsible for it being cryptographically secure.
func generateIV(rng io.Reader) (iv [IVSize]byte, err error) {
	if _, readErr := io.ReadFull(rng, iv[:]); readErr != nil {
		return iv, internalError("failed to draw IV from RNG", readErr)
	}
	return iv, nil
}
