package irmaseal

import (
	"context"
	"crypto/hmac"
	"crypto/sha3"
	"io"
	"time"

	"github.com/privacybydesign/irmaseal-go/pkg/kem"
)

// headerFixedSize is the length of the PRELUDE, FORMAT_VERSION, and
// 8-byte timestamp prefix read before the identity's variable-length
// fields become visible.
const headerFixedSize = 4 + 1 + 8

// Opener is Stage 2 of opening an envelope: it holds everything needed
// to decapsulate the KEM ciphertext, derive stream keys, and decrypt
// and authenticate the body, once the caller has looked up a
// UserSecretKey for the Identity NewOpener returned. It is single-use.
type Opener struct {
	reader         io.Reader
	scheme         kem.Scheme
	headerBlob     []byte // PRELUDE || FORMAT_VERSION || IDENTITY_BLOB, exactly as read
	bufferCapacity int
	metrics        MetricsRecorder
	trailingTag    []byte // populated by drainBody once EOF is reached
}

// NewOpener reads and parses an envelope's header (Stage 1), returning
// the Identity it was sealed for and an Opener ready for Stage 2. The
// caller is expected to resolve a UserSecretKey for that Identity
// before calling Unseal. It uses the default buffer capacity.
func NewOpener(r io.Reader, scheme kem.Scheme) (Identity, *Opener, error) {
	return NewOpenerWithCapacity(r, scheme, BlockSize)
}

// NewOpenerWithCapacity is NewOpener with an explicit sliding-window
// buffer capacity, which must be strictly greater than 2*MACSize: at
// exactly 2*MACSize, drainBody's flush condition (tail > 2*MACSize) can
// never trigger from a full buffer, since Read never delivers more than
// the room left in it.
func NewOpenerWithCapacity(r io.Reader, scheme kem.Scheme, capacity int) (Identity, *Opener, error) {
	if capacity <= 2*MACSize {
		return Identity{}, nil, internalError("buffer capacity must be greater than 2*MACSize", nil)
	}

	fixed := make([]byte, headerFixedSize)
	if _, err := io.ReadFull(r, fixed); err != nil {
		return Identity{}, nil, readError("failed to read envelope header", err)
	}
	var prelude [4]byte
	copy(prelude[:], fixed[:4])
	if prelude != Prelude {
		return Identity{}, nil, newError(KindNotIRMASEAL, "prelude mismatch", nil)
	}
	if fixed[4] != FormatVersion {
		return Identity{}, nil, newError(KindIncorrectVersion, "unsupported format version", nil)
	}

	typeLenByte := make([]byte, 1)
	if _, err := io.ReadFull(r, typeLenByte); err != nil {
		return Identity{}, nil, readError("failed to read attribute type length", err)
	}
	typeLen := int(typeLenByte[0])
	if headerFixedSize+1+typeLen > maxHeaderSize {
		return Identity{}, nil, formatViolation("attribute type length exceeds maximum header size", nil)
	}

	attrType := make([]byte, typeLen)
	if _, err := io.ReadFull(r, attrType); err != nil {
		return Identity{}, nil, readError("failed to read attribute type", err)
	}

	valueLenByte := make([]byte, 1)
	if _, err := io.ReadFull(r, valueLenByte); err != nil {
		return Identity{}, nil, readError("failed to read attribute value length", err)
	}
	valueLen := int(valueLenByte[0])
	if headerFixedSize+1+typeLen+1+valueLen > maxHeaderSize {
		return Identity{}, nil, formatViolation("attribute value length exceeds maximum header size", nil)
	}

	value := make([]byte, valueLen)
	if _, err := io.ReadFull(r, value); err != nil {
		return Identity{}, nil, readError("failed to read attribute value", err)
	}

	identityBlob := make([]byte, 0, 8+1+typeLen+1+valueLen)
	identityBlob = append(identityBlob, fixed[5:13]...)
	identityBlob = append(identityBlob, typeLenByte...)
	identityBlob = append(identityBlob, attrType...)
	identityBlob = append(identityBlob, valueLenByte...)
	identityBlob = append(identityBlob, value...)

	identity, err := unmarshalIdentity(identityBlob)
	if err != nil {
		return Identity{}, nil, formatViolation("malformed identity blob", err)
	}

	headerBlob := make([]byte, 0, headerFixedSize-8+len(identityBlob))
	headerBlob = append(headerBlob, fixed[:5]...)
	headerBlob = append(headerBlob, identityBlob...)

	return identity, &Opener{
		reader:         r,
		scheme:         scheme,
		headerBlob:     headerBlob,
		bufferCapacity: capacity,
		metrics:        noopMetrics{},
	}, nil
}

// WithMetrics attaches a MetricsRecorder, replacing the no-op default.
func (o *Opener) WithMetrics(m MetricsRecorder) *Opener {
	if m != nil {
		o.metrics = m
	}
	return o
}

// Unseal is Stage 2: it decapsulates the KEM ciphertext with usk,
// derives stream keys, and streams the decrypted body to output while
// holding back the last MACSize bytes read at all times, since those
// bytes might turn out to be the trailing MAC tag rather than
// ciphertext. It returns whether the MAC validated; plaintext already
// written to output by the time validation fails is real, but it came
// from an unauthenticated source and callers must discard it on a
// false return.
func (o *Opener) Unseal(ctx context.Context, usk kem.UserSecretKey, output io.Writer) (bool, error) {
	start := time.Now()
	written, valid, err := o.unseal(ctx, usk, output)
	o.metrics.UnsealCompleted(written, time.Since(start), valid, err)
	return valid, err
}

func (o *Opener) unseal(ctx context.Context, usk kem.UserSecretKey, output io.Writer) (int64, bool, error) {
	var kemCiphertext [KEMCiphertextSize]byte
	if _, err := io.ReadFull(o.reader, kemCiphertext[:]); err != nil {
		return 0, false, readError("failed to read KEM ciphertext", err)
	}

	shared, err := o.scheme.Decapsulate(usk, kemCiphertext)
	if err != nil {
		return 0, false, formatViolation("KEM decapsulation failed", err)
	}
	aesKey, macKey, err := deriveStreamKeys(shared[:])
	if err != nil {
		return 0, false, err
	}

	mac := hmac.New(sha3.New256, macKey[:])
	mac.Write(o.headerBlob)
	mac.Write(kemCiphertext[:])

	var iv [IVSize]byte
	if _, err := io.ReadFull(o.reader, iv[:]); err != nil {
		return 0, false, readError("failed to read IV", err)
	}
	mac.Write(iv[:])

	aes, err := newSymCrypt(aesKey, iv)
	if err != nil {
		return 0, false, err
	}

	written, err := o.drainBody(ctx, aes, mac, output)
	if err != nil {
		return written, false, err
	}

	return written, hmac.Equal(mac.Sum(nil), o.trailingTag), nil
}

// drainBody implements the sliding-window buffer algorithm (spec.md
// §4.3 / irmaseal-core's opener.rs): the input ciphertext length is
// unknown in advance, so the last MACSize bytes of the stream must
// never be treated as ciphertext until EOF proves no more bytes follow
// them. It leaves the candidate MAC tag in o.trailingTag.
func (o *Opener) drainBody(ctx context.Context, aes *symCrypt, mac io.Writer, output io.Writer) (int64, error) {
	buffer := make([]byte, o.bufferCapacity)

	if _, err := io.ReadFull(o.reader, buffer[:MACSize]); err != nil {
		return 0, readError("ciphertext shorter than MAC size", err)
	}
	tail := MACSize

	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, internalError("unseal canceled", ctx.Err())
		default:
		}

		n, readErr := o.reader.Read(buffer[tail:])
		tail += n

		if tail > 2*MACSize || (n == 0 && tail > MACSize) {
			block := buffer[:tail-MACSize]
			mac.Write(block)
			aes.Decrypt(block)
			if _, writeErr := output.Write(block); writeErr != nil {
				return written, writeError("failed to write plaintext chunk", writeErr)
			}
			written += int64(len(block))

			var shifted [MACSize]byte
			copy(shifted[:], buffer[tail-MACSize:tail])
			copy(buffer[:MACSize], shifted[:])
			tail = MACSize
		}

		if n == 0 {
			if readErr != nil && readErr != io.EOF {
				return written, readError("failed to read ciphertext chunk", readErr)
			}
			o.trailingTag = append([]byte(nil), buffer[:MACSize]...)
			return written, nil
		}
	}
}
