package irmaseal

import "fmt"

// Kind categorizes the ways a seal or open operation can fail.
type Kind int

const (
	// KindNotIRMASEAL means the prelude did not match at the start of the stream.
	KindNotIRMASEAL Kind = iota
	// KindIncorrectVersion means the format version byte was not FormatVersion.
	KindIncorrectVersion
	// KindFormatViolation means a length-prefixed field or the KEM ciphertext
	// could not be parsed.
	KindFormatViolation
	// KindReadError means the underlying source failed or returned fewer
	// bytes than the envelope format required.
	KindReadError
	// KindWriteError means the underlying sink failed to accept a write.
	KindWriteError
	// KindInternal means a KDF, RNG, or KEM primitive failed in a way that
	// should be unreachable in practice.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindNotIRMASEAL:
		return "NotIRMASEAL"
	case KindIncorrectVersion:
		return "IncorrectVersion"
	case KindFormatViolation:
		return "FormatViolation"
	case KindReadError:
		return "ReadError"
	case KindWriteError:
		return "WriteError"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// Error is the single error type returned by the codec. Callers that need
// to branch on failure mode should inspect Kind rather than match on
// message text.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("irmaseal: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("irmaseal: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

func readError(msg string, cause error) *Error {
	return newError(KindReadError, msg, cause)
}

func writeError(msg string, cause error) *Error {
	return newError(KindWriteError, msg, cause)
}

func formatViolation(msg string, cause error) *Error {
	return newError(KindFormatViolation, msg, cause)
}

func internalError(msg string, cause error) *Error {
	return newError(KindInternal, msg, cause)
}
