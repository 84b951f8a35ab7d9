// Package irmaseal implements the IRMAseal streaming codec: a sealer and
// opener that turn an arbitrary byte stream into an authenticated,
// identity-encrypted envelope and back, without ever buffering the whole
// payload in memory.
package irmaseal

// Prelude identifies an IRMAseal bytestream. It is the first four bytes of
// every sealed envelope.
var Prelude = [4]byte{0x14, 0x8A, 0x8E, 0xA7}

// FormatVersion is the single supported wire format version.
const FormatVersion byte = 0x00

const (
	// KeySize is the length in bytes of both the AES key and the HMAC key.
	KeySize = 32
	// IVSize is the length in bytes of the AES-CTR initialization vector.
	IVSize = 16
	// MACSize is the length in bytes of the trailing HMAC-SHA3-256 tag.
	MACSize = 32
	// KEMCiphertextSize is the fixed, opaque length of a KEM ciphertext.
	KEMCiphertextSize = 144
	// BlockSize is the default streaming chunk size used by the sealer and,
	// as the default opener buffer capacity, by the opener.
	BlockSize = 512

	// maxIdentityFieldLength is the largest value a single-byte length
	// prefix in the identity blob can encode.
	maxIdentityFieldLength = 255
	// maxHeaderSize bounds the header Stage 1 ever allocates: the 14 fixed
	// bytes, the attribute-value length byte, and two length-prefixed
	// strings of at most 255 bytes each.
	maxHeaderSize = 14 + 1 + maxIdentityFieldLength + maxIdentityFieldLength
)
