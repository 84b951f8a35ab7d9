package irmaseal

import (
	"context"
	"crypto/hmac"
	"crypto/sha3"
	"io"
	"time"

	"github.com/privacybydesign/irmaseal-go/pkg/kem"
)

// Sealer converts an arbitrary byte stream into an IRMAseal envelope for
// one recipient identity. It is single-use: create one per message,
// call Seal once, discard it.
type Sealer struct {
	identity       *Identity
	kemCiphertext  [KEMCiphertextSize]byte
	aesKey         [KeySize]byte
	macKey         [KeySize]byte
	rng            io.Reader
	bufferCapacity int
	metrics        MetricsRecorder
}

// NewSealer encapsulates a fresh shared secret against pk for identity,
// deriving the stream keys the returned Sealer will use. It uses the
// default buffer capacity (BlockSize).
func NewSealer(identity *Identity, pk kem.PublicKey, scheme kem.Scheme, rng io.Reader) (*Sealer, error) {
	return NewSealerWithCapacity(identity, pk, scheme, rng, BlockSize)
}

// NewSealerWithCapacity is NewSealer with an explicit streaming chunk
// size, letting callers trade memory for fewer, larger writes.
func NewSealerWithCapacity(identity *Identity, pk kem.PublicKey, scheme kem.Scheme, rng io.Reader, capacity int) (*Sealer, error) {
	if capacity <= 0 {
		return nil, internalError("buffer capacity must be positive", nil)
	}

	ct, shared, err := scheme.Encapsulate(pk, identity.Derive(), rng)
	if err != nil {
		return nil, internalError("KEM encapsulation failed", err)
	}

	aesKey, macKey, err := deriveStreamKeys(shared[:])
	if err != nil {
		return nil, err
	}

	return &Sealer{
		identity:       identity,
		kemCiphertext:  ct,
		aesKey:         aesKey,
		macKey:         macKey,
		rng:            rng,
		bufferCapacity: capacity,
		metrics:        noopMetrics{},
	}, nil
}

// WithMetrics attaches a MetricsRecorder, replacing the no-op default.
func (s *Sealer) WithMetrics(m MetricsRecorder) *Sealer {
	if m != nil {
		s.metrics = m
	}
	return s
}

// Seal reads input to completion, writing the full IRMAseal envelope
// (header, IV, ciphertext, trailing MAC) to output. It never buffers
// more than bufferCapacity bytes of plaintext at a time, so memory use
// is independent of input length. ctx is checked between chunks so a
// caller can cancel a long-running seal of an unbounded stream.
func (s *Sealer) Seal(ctx context.Context, input io.Reader, output io.Writer) error {
	start := time.Now()
	written, err := s.seal(ctx, input, output)
	s.metrics.SealCompleted(written, time.Since(start), err)
	return err
}

func (s *Sealer) seal(ctx context.Context, input io.Reader, output io.Writer) (int64, error) {
	iv, err := generateIV(s.rng)
	if err != nil {
		return 0, err
	}

	aes, err := newSymCrypt(s.aesKey, iv)
	if err != nil {
		return 0, err
	}
	mac := hmac.New(sha3.New256, s.macKey[:])

	if err := s.writeHeader(mac, output); err != nil {
		return 0, err
	}

	mac.Write(iv[:])
	if _, err := output.Write(iv[:]); err != nil {
		return 0, writeError("failed to write IV", err)
	}

	buffer := make([]byte, s.bufferCapacity)
	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, internalError("seal canceled", ctx.Err())
		default:
		}

		n, readErr := input.Read(buffer)
		if n > 0 {
			chunk := buffer[:n]
			aes.Encrypt(chunk)
			mac.Write(chunk)
			if _, writeErr := output.Write(chunk); writeErr != nil {
				return written, writeError("failed to write ciphertext chunk", writeErr)
			}
			written += int64(n)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return written, readError("failed to read plaintext chunk", readErr)
		}
	}

	tag := mac.Sum(nil)
	if _, err := output.Write(tag); err != nil {
		return written, writeError("failed to write MAC trailer", err)
	}
	return written, nil
}

// writeHeader emits PRELUDE, FORMAT_VERSION, the identity blob, and the
// KEM ciphertext, feeding every byte into mac as it goes (§4.1: the MAC
// covers the whole envelope up to but not including itself).
func (s *Sealer) writeHeader(mac io.Writer, output io.Writer) error {
	if err := writeAndMAC(output, mac, Prelude[:]); err != nil {
		return err
	}
	if err := writeAndMAC(output, mac, []byte{FormatVersion}); err != nil {
		return err
	}

	idBlob, err := s.identity.marshal()
	if err != nil {
		return formatViolation("failed to marshal identity", err)
	}
	if err := writeAndMAC(output, mac, idBlob); err != nil {
		return err
	}

	return writeAndMAC(output, mac, s.kemCiphertext[:])
}

func writeAndMAC(output io.Writer, mac io.Writer, data []byte) error {
	if _, err := output.Write(data); err != nil {
		return writeError("failed to write header field", err)
	}
	mac.Write(data)
	return nil
}
