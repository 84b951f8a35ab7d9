package irmaseal

import (
	"crypto/aes"
	"crypto/cipher"
)

// symCrypt is a thin AES-256-CTR wrapper. Encrypt and Decrypt are the same
// operation (CTR keystream XOR); the distinction exists only for callers'
// readability. State is the running counter carried inside the
// cipher.Stream; both methods transform in place and never change length.
type symCrypt struct {
	stream cipher.Stream
}

func newSymCrypt(key [KeySize]byte, iv [IVSize]byte) (*symCrypt, error) {
	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, internalError("failed to create AES cipher", err)
	}
	return &symCrypt{stream: cipher.NewCTR(block, iv[:])}, nil
}

func (s *symCrypt) Encrypt(data []byte) {
	s.stream.XORKeyStream(data, data)
}

func (s *symCrypt) Decrypt(data []byte) {
	s.stream.XORKeyStream(data, data)
}
