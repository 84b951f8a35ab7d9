package irmaseal

import (
	"crypto/sha3"
	"encoding/binary"
	"fmt"
)

// Identity identifies the intended recipient of a sealed stream. It is
// carried in cleartext in the header (and authenticated by the trailing
// MAC), so callers can resolve the matching UserSecretKey before
// attempting to open the body.
type Identity struct {
	Timestamp      uint64
	AttributeType  string
	AttributeValue *string
}

// Derive maps the identity deterministically onto the byte-level element a
// kem.Scheme consumes as its identity input. The codec treats the result as
// opaque; it never interprets it itself.
func (id Identity) Derive() []byte {
	h := sha3.New256()
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], id.Timestamp)
	h.Write(ts[:])
	h.Write([]byte(id.AttributeType))
	if id.AttributeValue != nil {
		h.Write([]byte{1})
		h.Write([]byte(*id.AttributeValue))
	} else {
		h.Write([]byte{0})
	}
	return h.Sum(nil)
}

// marshal serializes the identity into its self-delimiting wire form
// (§6.1): an 8-byte big-endian timestamp, a length-prefixed attribute type,
// and a length-prefixed attribute value (empty when absent).
func (id Identity) marshal() ([]byte, error) {
	if len(id.AttributeType) > maxIdentityFieldLength {
		return nil, fmt.Errorf("attribute type too long: %d bytes (max %d)", len(id.AttributeType), maxIdentityFieldLength)
	}
	value := ""
	if id.AttributeValue != nil {
		value = *id.AttributeValue
	}
	if len(value) > maxIdentityFieldLength {
		return nil, fmt.Errorf("attribute value too long: %d bytes (max %d)", len(value), maxIdentityFieldLength)
	}

	buf := make([]byte, 0, 8+1+len(id.AttributeType)+1+len(value))
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], id.Timestamp)
	buf = append(buf, ts[:]...)
	buf = append(buf, byte(len(id.AttributeType)))
	buf = append(buf, id.AttributeType...)
	buf = append(buf, byte(len(value)))
	buf = append(buf, value...)
	return buf, nil
}

// unmarshalIdentity parses the bytes following the PRELUDE/FORMAT_VERSION
// fields, i.e. wire offsets [5..). It does not know about, and does not
// consume, anything beyond the identity blob.
func unmarshalIdentity(blob []byte) (Identity, error) {
	if len(blob) < 8+1 {
		return Identity{}, fmt.Errorf("identity blob too short: %d bytes", len(blob))
	}
	ts := binary.BigEndian.Uint64(blob[:8])
	typeLen := int(blob[8])
	offset := 9
	if len(blob) < offset+typeLen+1 {
		return Identity{}, fmt.Errorf("identity blob truncated before attribute value length")
	}
	attrType := string(blob[offset : offset+typeLen])
	offset += typeLen
	valueLen := int(blob[offset])
	offset++
	if len(blob) < offset+valueLen {
		return Identity{}, fmt.Errorf("identity blob truncated before attribute value")
	}
	var value *string
	if valueLen > 0 {
		v := string(blob[offset : offset+valueLen])
		value = &v
	}
	return Identity{
		Timestamp:      ts,
		AttributeType:  attrType,
		AttributeValue: value,
	}, nil
}
